package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
llm:
  model: test/model
filter:
  interests:
    - graph learning
`

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Run.DaysBack)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "0 6 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "daily_json", cfg.Output.JSONDir)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, "OPENROUTER_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, "test/model", cfg.LLM.Model)
	assert.Equal(t, 15, cfg.Filter.LLMBatchSize)
	assert.True(t, cfg.Filter.KeywordPrefilter.Enabled)
	assert.Equal(t, 80, cfg.Rating.MaxPapers)
	assert.Equal(t, "biorxiv", cfg.Sources.Biorxiv.Server)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
run:
  daysBack: 5
llm:
  model: test/model
  maxRetries: 4
filter:
  interests:
    - catalysis
  llmBatchSize: 3
sources:
  arxiv:
    categoryTiers:
      - [cs.LG, cs.CV]
      - [stat.ML]
  biorxiv:
    server: medrxiv
  adaptiveScope:
    minCandidatesAfterKeywordPrefilter: 40
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Run.DaysBack)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.Equal(t, 3, cfg.Filter.LLMBatchSize)
	assert.Equal(t, [][]string{{"cs.LG", "cs.CV"}, {"stat.ML"}}, cfg.Sources.Arxiv.CategoryTiers)
	assert.Equal(t, "medrxiv", cfg.Sources.Biorxiv.Server)
	assert.Equal(t, 40, cfg.Sources.AdaptiveScope.MinCandidates)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "missing interests",
			body: `
llm:
  model: test/model
`,
			wantErr: "filter.interests",
		},
		{
			name: "missing model",
			body: `
filter:
  interests: [x]
`,
			wantErr: "llm.model",
		},
		{
			name: "negative days back",
			body: minimalConfig + `
run:
  daysBack: -1
`,
			wantErr: "run.daysBack",
		},
		{
			name: "zero batch size",
			body: `
llm:
  model: test/model
filter:
  interests: [x]
  llmBatchSize: -1
`,
			wantErr: "llmBatchSize",
		},
		{
			name: "unknown biorxiv server",
			body: minimalConfig + `
sources:
  biorxiv:
    enabled: true
    server: somerxiv
`,
			wantErr: "bioRxiv server",
		},
		{
			name: "adaptive scope without tiers",
			body: minimalConfig + `
sources:
  adaptiveScope:
    enabled: true
    maxTiers: 0
`,
			wantErr: "maxTiers",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBindTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, minimalConfig+`
scheduler:
  timezone: Not/AZone
`))
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
