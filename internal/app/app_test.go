package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperDigest/internal/config"
)

func testAppConfig(t *testing.T) config.Config {
	t.Helper()

	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))

	files := map[string]string{
		"daily.html": `<h1>{{.Title}}</h1>`,
		"index.html": `<h1>{{.SiteTitle}}</h1>`,
		"list.html":  `<p>{{len .Reports}} reports</p>`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(templates, name), []byte(body), 0o644))
	}

	return config.Config{
		Logging: config.LoggingConfig{Level: "error"},
		Output: config.OutputConfig{
			JSONDir:       filepath.Join(dir, "daily_json"),
			HTMLDir:       filepath.Join(dir, "daily_html"),
			TemplatesDir:  templates,
			DailyTemplate: "daily.html",
			IndexTemplate: "index.html",
			ListTemplate:  "list.html",
			ReportsJSON:   filepath.Join(dir, "reports.json"),
			IndexHTML:     filepath.Join(dir, "index.html"),
			ListHTML:      filepath.Join(dir, "list.html"),
			SiteTitle:     "Digest",
		},
		LLM: config.LLMConfig{
			APIKeyEnv: "PAPERDIGEST_TEST_API_KEY",
			CacheDir:  filepath.Join(dir, "cache"),
			Model:     "test/model",
		},
		Filter: config.FilterConfig{
			Interests:    []string{"graph learning"},
			LLMBatchSize: 10,
		},
	}
}

func TestNewWithoutAPIKeyDisablesModelStages(t *testing.T) {
	t.Setenv("PAPERDIGEST_TEST_API_KEY", "")

	cfg := testAppConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	application, err := New(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, application)
}

func TestRunOnceWritesDayStateAndPages(t *testing.T) {
	t.Setenv("PAPERDIGEST_TEST_API_KEY", "")

	cfg := testAppConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	application, err := New(cfg, logger)
	require.NoError(t, err)

	target := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, application.RunOnce(context.Background(), target, 0, false))

	for _, path := range []string{
		filepath.Join(cfg.Output.JSONDir, "2024-03-01.json"),
		filepath.Join(cfg.Output.HTMLDir, "2024_03_01.html"),
		cfg.Output.ReportsJSON,
		cfg.Output.IndexHTML,
		cfg.Output.ListHTML,
	} {
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, "expected %s to exist", path)
	}
}
