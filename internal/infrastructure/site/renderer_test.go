package site

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
)

func newTestRenderer(t *testing.T) (*Renderer, config.OutputConfig) {
	t.Helper()

	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))

	files := map[string]string{
		"daily.html": `<h1>{{.Title}}</h1><ul>{{range .Papers}}<li>{{.Title}} {{if .TLDR}}{{.TLDR}}{{end}}</li>{{end}}</ul>`,
		"index.html": `<h1>{{.SiteTitle}}</h1>{{if .Latest}}<a href="{{.Latest.HTML}}">latest</a>{{end}}`,
		"list.html":  `<ul>{{range .Reports}}<li>{{.Date}}: {{.PaperCount}}</li>{{end}}</ul>`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(templates, name), []byte(body), 0o644))
	}

	cfg := config.OutputConfig{
		HTMLDir:       filepath.Join(dir, "daily_html"),
		TemplatesDir:  templates,
		DailyTemplate: "daily.html",
		IndexTemplate: "index.html",
		ListTemplate:  "list.html",
		IndexHTML:     filepath.Join(dir, "index.html"),
		ListHTML:      filepath.Join(dir, "list.html"),
		SiteTitle:     "Digest",
		SiteSubtitle:  "Preprints daily",
	}

	renderer := New(cfg)
	renderer.now = func() time.Time {
		return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	}
	return renderer, cfg
}

func TestRenderDaily(t *testing.T) {
	t.Parallel()

	renderer, cfg := newTestRenderer(t)
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	tldr := "One-liner."
	path, err := renderer.RenderDaily(day, []domain.RatedPaper{
		{Paper: domain.Paper{UID: "arxiv:1", Title: "Graph paper"}, TLDR: &tldr},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.HTMLDir, "2024_03_01.html"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Digest - 2024-03-01")
	assert.Contains(t, string(raw), "Graph paper")
	assert.Contains(t, string(raw), "One-liner.")
}

func TestRenderDailyEscapesMarkup(t *testing.T) {
	t.Parallel()

	renderer, _ := newTestRenderer(t)
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	path, err := renderer.RenderDaily(day, []domain.RatedPaper{
		{Paper: domain.Paper{UID: "arxiv:1", Title: "<script>alert(1)</script>"}},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "<script>")
}

func TestRenderIndexes(t *testing.T) {
	t.Parallel()

	renderer, cfg := newTestRenderer(t)

	reports := []domain.Report{
		{Date: "2024-03-02", HTML: "2024_03_02.html", JSON: "2024-03-02.json", PaperCount: 7},
		{Date: "2024-03-01", HTML: "2024_03_01.html", JSON: "2024-03-01.json", PaperCount: 4},
	}
	require.NoError(t, renderer.RenderIndexes(reports))

	index, err := os.ReadFile(cfg.IndexHTML)
	require.NoError(t, err)
	assert.Contains(t, string(index), "2024_03_02.html")

	list, err := os.ReadFile(cfg.ListHTML)
	require.NoError(t, err)
	assert.Contains(t, string(list), "2024-03-01: 4")
	assert.Contains(t, string(list), "2024-03-02: 7")
}

func TestRenderDailyMissingTemplate(t *testing.T) {
	t.Parallel()

	renderer := New(config.OutputConfig{
		TemplatesDir:  t.TempDir(),
		DailyTemplate: "missing.html",
		HTMLDir:       t.TempDir(),
	})

	_, err := renderer.RenderDaily(time.Now(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")
}
