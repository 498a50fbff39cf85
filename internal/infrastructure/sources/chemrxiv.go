package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

// Chemrxiv discovers the day's DOIs through Crossref and enriches each one
// with an OpenAlex lookup, which carries the abstract Crossref lacks.
type Chemrxiv struct {
	doiPrefix    string
	crossrefURL  string
	openalexURL  string
	crossrefRows int
	client       *http.Client
	logger       *slog.Logger
}

var _ ports.PaperSource = (*Chemrxiv)(nil)

// NewChemrxiv wires the Crossref/OpenAlex endpoints.
func NewChemrxiv(cfg config.ChemrxivConfig, client *http.Client, logger *slog.Logger) *Chemrxiv {
	return &Chemrxiv{
		doiPrefix:    cfg.DOIPrefix,
		crossrefURL:  strings.TrimSuffix(cfg.CrossrefBaseURL, "/"),
		openalexURL:  strings.TrimSuffix(cfg.OpenalexBaseURL, "/"),
		crossrefRows: cfg.CrossrefRows,
		client:       defaultHTTPClient(client),
		logger:       logger,
	}
}

// Name identifies the source tag on produced papers.
func (c *Chemrxiv) Name() string {
	return "chemrxiv"
}

type openalexWork struct {
	Title                 string           `json:"title"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PublicationDate       string           `json:"publication_date"`
	Authorships           []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
}

// Fetch lists the day's DOIs from Crossref and resolves each via OpenAlex.
// A failed OpenAlex lookup skips that DOI; it never fails the whole fetch.
func (c *Chemrxiv) Fetch(ctx context.Context, day time.Time) ([]domain.Paper, error) {
	dateStr := day.UTC().Format("2006-01-02")

	query := url.Values{}
	query.Set("filter", fmt.Sprintf("from-pub-date:%s,until-pub-date:%s,prefix:%s", dateStr, dateStr, c.doiPrefix))
	query.Set("rows", fmt.Sprintf("%d", c.crossrefRows))

	var listing struct {
		Message struct {
			Items []struct {
				DOI   string   `json:"DOI"`
				Title []string `json:"title"`
			} `json:"items"`
		} `json:"message"`
	}
	if err := getJSON(ctx, c.client, c.crossrefURL+"/works?"+query.Encode(), &listing); err != nil {
		return nil, fmt.Errorf("crossref works: %w", err)
	}

	var papers []domain.Paper
	for _, item := range listing.Message.Items {
		doi := strings.ToLower(strings.TrimSpace(item.DOI))
		if doi == "" {
			continue
		}

		var work openalexWork
		workURL := fmt.Sprintf("%s/works/https://doi.org/%s", c.openalexURL, doi)
		if err := getJSON(ctx, c.client, workURL, &work); err != nil {
			c.warn("openalex lookup failed", "doi", doi, "error", err)
			continue
		}

		title := strings.TrimSpace(work.Title)
		if title == "" && len(item.Title) > 0 {
			title = strings.TrimSpace(item.Title[0])
		}

		var authors []string
		for _, authorship := range work.Authorships {
			if name := strings.TrimSpace(authorship.Author.DisplayName); name != "" {
				authors = append(authors, name)
			}
		}

		var published *domain.Time
		if pubDate := strings.TrimSpace(work.PublicationDate); pubDate != "" {
			if parsed, err := time.Parse("2006-01-02", pubDate); err == nil {
				published = domain.NewTime(parsed)
			}
		}

		papers = append(papers, domain.Paper{
			UID:       "doi:" + doi,
			Source:    "chemrxiv",
			Title:     title,
			Abstract:  reconstructAbstract(work.AbstractInvertedIndex),
			URL:       "https://doi.org/" + doi,
			Authors:   authors,
			Published: published,
			Extra:     domain.Extras{DOI: doi},
		})
	}

	return papers, nil
}

// reconstructAbstract rebuilds plain text from OpenAlex's inverted index
// (word -> positions) by emitting words in position order.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	posToWord := make(map[int]string)
	for word, positions := range index {
		for _, pos := range positions {
			posToWord[pos] = word
		}
	}
	if len(posToWord) == 0 {
		return ""
	}

	positions := make([]int, 0, len(posToWord))
	for pos := range posToWord {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	words := make([]string, 0, len(positions))
	for _, pos := range positions {
		words = append(words, posToWord[pos])
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func (c *Chemrxiv) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
