package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

// Biorxiv fetches the bioRxiv or medRxiv details feed for one day, walking
// the cursor-paginated collection per configured category.
type Biorxiv struct {
	server     string
	baseURL    string
	categories []string
	client     *http.Client
}

var _ ports.PaperSource = (*Biorxiv)(nil)

// NewBiorxiv builds the adapter; cfg.Server has been validated upstream.
func NewBiorxiv(cfg config.BiorxivConfig, client *http.Client) *Biorxiv {
	return &Biorxiv{
		server:     strings.ToLower(strings.TrimSpace(cfg.Server)),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		categories: cfg.Categories,
		client:     defaultHTTPClient(client),
	}
}

// Name identifies the source tag on produced papers.
func (b *Biorxiv) Name() string {
	return "biorxiv"
}

type biorxivItem struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Date     string `json:"date"`
	Version  string `json:"version"`
	Category string `json:"category"`
	Type     string `json:"type"`
	License  string `json:"license"`
}

// Fetch returns every preprint the server lists for the day.
func (b *Biorxiv) Fetch(ctx context.Context, day time.Time) ([]domain.Paper, error) {
	dateStr := day.UTC().Format("2006-01-02")

	categories := b.categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	var papers []domain.Paper
	for _, category := range categories {
		cursor := 0
		for {
			endpoint := b.endpoint(dateStr, cursor, category)

			var page struct {
				Collection []biorxivItem `json:"collection"`
			}
			if err := getJSON(ctx, b.client, endpoint, &page); err != nil {
				return nil, fmt.Errorf("%s details: %w", b.server, err)
			}
			if len(page.Collection) == 0 {
				break
			}

			for _, item := range page.Collection {
				paper, ok := b.toPaper(item)
				if !ok {
					continue
				}
				papers = append(papers, paper)
			}
			cursor += len(page.Collection)
		}
	}

	return papers, nil
}

func (b *Biorxiv) endpoint(dateStr string, cursor int, category string) string {
	endpoint := fmt.Sprintf("%s/details/%s/%s/%s/%d", b.baseURL, b.server, dateStr, dateStr, cursor)
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}
	return endpoint
}

func (b *Biorxiv) toPaper(item biorxivItem) (domain.Paper, bool) {
	doi := strings.TrimSpace(item.DOI)
	if doi == "" {
		return domain.Paper{}, false
	}

	version := strings.TrimSpace(item.Version)
	if version == "" {
		version = "1"
	}

	var published *domain.Time
	if dateStr := strings.TrimSpace(item.Date); dateStr != "" {
		if parsed, err := time.Parse("2006-01-02", dateStr); err == nil {
			published = domain.NewTime(parsed)
		}
	}

	var categories []string
	if category := strings.TrimSpace(item.Category); category != "" {
		categories = []string{category}
	}

	pdfURL := fmt.Sprintf("https://www.biorxiv.org/content/%sv%s.full.pdf", doi, version)

	return domain.Paper{
		UID:        "doi:" + doi,
		Source:     "biorxiv",
		Title:      strings.TrimSpace(item.Title),
		Abstract:   strings.TrimSpace(item.Abstract),
		URL:        fmt.Sprintf("https://www.biorxiv.org/content/%sv%s", doi, version),
		PDFURL:     &pdfURL,
		Authors:    splitAuthors(item.Authors),
		Categories: categories,
		Published:  published,
		Extra: domain.Extras{
			DOI:     doi,
			Version: version,
			Server:  b.server,
			Type:    item.Type,
			License: item.License,
		},
	}, true
}

// splitAuthors breaks the feed's "Last, F.; Last, F." author string apart.
func splitAuthors(authors string) []string {
	var out []string
	for _, part := range strings.Split(authors, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
