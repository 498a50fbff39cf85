package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeUnmarshalAcceptsLegacyLayouts(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`"2024-03-01T09:30:00Z"`:      "2024-03-01T09:30:00Z",
		`"2024-03-01T09:30:00+02:00"`: "2024-03-01T07:30:00Z",
		`"2024-03-01T09:30:00"`:       "2024-03-01T09:30:00Z",
		`"2024-03-01"`:                "2024-03-01T00:00:00Z",
	}

	for raw, want := range cases {
		var parsed Time
		require.NoError(t, json.Unmarshal([]byte(raw), &parsed), "input %s", raw)
		assert.Equal(t, want, parsed.UTC().Format(time.RFC3339), "input %s", raw)
	}

	var parsed Time
	assert.Error(t, json.Unmarshal([]byte(`"March 1st"`), &parsed))
	assert.Error(t, json.Unmarshal([]byte(`42`), &parsed))
}

func TestTimeMarshalIsRFC3339UTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("plus2", 2*60*60)
	stamp := NewTime(time.Date(2024, time.March, 1, 9, 30, 0, 0, loc))

	raw, err := json.Marshal(stamp)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T07:30:00Z"`, string(raw))
}

func TestPriorityDefaultsToZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Unrated(Paper{UID: "x"}).Priority())

	score := 6.5
	rated := RatedPaper{OverallPriorityScore: &score}
	assert.Equal(t, 6.5, rated.Priority())
}

func TestUnratedOmitsRatingFields(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Unrated(Paper{UID: "arxiv:1"}))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	for _, key := range []string{
		"tldr", "relevance_score", "novelty_claim_score",
		"clarity_score", "potential_impact_score", "overall_priority_score",
	} {
		_, ok := fields[key]
		assert.False(t, ok, "unexpected key %q", key)
	}
}

func TestReportFileNames(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024_03_01.html", ReportHTMLName(day))
	assert.Equal(t, "2024-03-01.json", ReportJSONName(day))
}
