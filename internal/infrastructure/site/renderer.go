// Package site renders the persisted ranked records into the static HTML
// pages the digest site serves.
package site

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

// Renderer executes the configured templates for daily and index pages.
type Renderer struct {
	cfg config.OutputConfig
	now func() time.Time
}

var _ ports.SiteRenderer = (*Renderer)(nil)

// New builds a renderer over the configured templates directory.
func New(cfg config.OutputConfig) *Renderer {
	return &Renderer{cfg: cfg, now: time.Now}
}

type dailyContext struct {
	Title          string
	ReportDate     string
	GenerationTime string
	SiteTitle      string
	SiteSubtitle   string
	Papers         []domain.RatedPaper
}

type indexContext struct {
	SiteTitle    string
	SiteSubtitle string
	GeneratedAt  string
	Latest       *domain.Report
	Reports      []domain.Report
}

// RenderDaily writes one page for the date and returns its path.
func (r *Renderer) RenderDaily(day time.Time, papers []domain.RatedPaper) (string, error) {
	tmpl, err := r.parse(r.cfg.DailyTemplate)
	if err != nil {
		return "", err
	}

	dateStr := day.Format("2006-01-02")
	ctx := dailyContext{
		Title:          fmt.Sprintf("%s - %s", r.cfg.SiteTitle, dateStr),
		ReportDate:     dateStr,
		GenerationTime: r.now().UTC().Format(time.RFC3339),
		SiteTitle:      r.cfg.SiteTitle,
		SiteSubtitle:   r.cfg.SiteSubtitle,
		Papers:         papers,
	}

	if err := os.MkdirAll(r.cfg.HTMLDir, 0o755); err != nil {
		return "", fmt.Errorf("create html dir: %w", err)
	}

	outPath := filepath.Join(r.cfg.HTMLDir, domain.ReportHTMLName(day))
	if err := r.execute(tmpl, outPath, ctx); err != nil {
		return "", err
	}
	return outPath, nil
}

// RenderIndexes regenerates the landing and archive-list pages from the
// merged report index.
func (r *Renderer) RenderIndexes(reports []domain.Report) error {
	ctx := indexContext{
		SiteTitle:    r.cfg.SiteTitle,
		SiteSubtitle: r.cfg.SiteSubtitle,
		GeneratedAt:  r.now().UTC().Format(time.RFC3339),
		Reports:      reports,
	}
	if len(reports) > 0 {
		ctx.Latest = &reports[0]
	}

	for _, page := range []struct {
		template string
		out      string
	}{
		{r.cfg.IndexTemplate, r.cfg.IndexHTML},
		{r.cfg.ListTemplate, r.cfg.ListHTML},
	} {
		tmpl, err := r.parse(page.template)
		if err != nil {
			return err
		}
		if err := r.execute(tmpl, page.out, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) parse(name string) (*template.Template, error) {
	tmpl, err := template.ParseFiles(filepath.Join(r.cfg.TemplatesDir, name))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}

func (r *Renderer) execute(tmpl *template.Template, outPath string, ctx any) error {
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	if err := tmpl.Execute(file, ctx); err != nil {
		_ = file.Close()
		return fmt.Errorf("render %s: %w", outPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}
	return nil
}
