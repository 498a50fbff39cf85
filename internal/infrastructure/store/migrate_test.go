package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceFromURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://arxiv.org/abs/2403.00001":             "arxiv",
		"https://www.biorxiv.org/content/10.1101/1v1":  "biorxiv",
		"https://www.medrxiv.org/content/10.1101/2v1":  "biorxiv",
		"https://chemrxiv.org/engage/chemrxiv/article": "chemrxiv",
		"https://doi.org/10.5555/12345678":             "doi",
		"https://example.com/somewhere":                "",
		"":                                             "",
	}

	for rawURL, want := range cases {
		assert.Equal(t, want, sourceFromURL(rawURL), "url %q", rawURL)
	}
}

func TestUpgradeRecordDoesNotOverwriteExistingFields(t *testing.T) {
	t.Parallel()

	record := map[string]any{
		"uid":      "arxiv:1",
		"source":   "chemrxiv",
		"abstract": "current",
		"summary":  "stale",
		"url":      "https://arxiv.org/abs/1",
	}

	assert.False(t, upgradeRecord(record))
	assert.Equal(t, "current", record["abstract"])
	assert.Equal(t, "chemrxiv", record["source"])
}

func TestUpgradeRecordLeavesUnknownURLWithoutSource(t *testing.T) {
	t.Parallel()

	record := map[string]any{
		"uid": "x:1",
		"url": "https://example.com/paper",
	}

	assert.False(t, upgradeRecord(record))
	_, ok := record["source"]
	assert.False(t, ok)
}
