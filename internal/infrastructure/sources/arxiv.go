package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// Arxiv crawls category listing pages and extracts the papers submitted on
// the requested day. It is fetched one category at a time so the
// orchestrator can widen or stop the search adaptively.
type Arxiv struct {
	baseURL  string
	client   *http.Client
	pageSize int
}

var _ ports.TieredSource = (*Arxiv)(nil)

// NewArxiv wires an HTTP client; pageSize defaults to 200.
func NewArxiv(cfg config.ArxivConfig, client *http.Client) *Arxiv {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Arxiv{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		client:   client,
		pageSize: pageSize,
	}
}

// Name identifies the source tag on produced papers.
func (a *Arxiv) Name() string {
	return "arxiv"
}

// FetchCategory pages through one category listing and returns all papers
// dated on the requested day. Paging stops at the first older entry or a
// short page.
func (a *Arxiv) FetchCategory(ctx context.Context, day time.Time, category string) ([]domain.Paper, error) {
	targetDay := day.UTC().Truncate(24 * time.Hour)
	listURL := fmt.Sprintf("%s/list/%s/recent", a.baseURL, category)

	results := make([]domain.Paper, 0)
	seen := map[string]struct{}{}
	skip := 0

	for {
		pageURL, err := buildPageURL(listURL, skip, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}

		doc, err := a.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}

		pagePapers, shouldContinue := a.extractPapers(doc, targetDay, category)
		for _, paper := range pagePapers {
			if _, ok := seen[paper.UID]; ok {
				continue
			}
			seen[paper.UID] = struct{}{}
			results = append(results, paper)
		}

		if !shouldContinue {
			break
		}
		skip += a.pageSize
	}

	return results, nil
}

func (a *Arxiv) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *Arxiv) extractPapers(doc *goquery.Document, targetDay time.Time, category string) ([]domain.Paper, bool) {
	var (
		collected    []domain.Paper
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		paper, publishedAt, err := a.parseEntry(dt, dd, category)
		if err != nil {
			return true
		}

		paperDay := publishedAt.UTC().Truncate(24 * time.Hour)
		if paperDay.Equal(targetDay) {
			collected = append(collected, paper)
		}
		if paperDay.Before(targetDay) {
			continueScan = false
			return false
		}

		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func (a *Arxiv) parseEntry(dt, dd *goquery.Selection, category string) (domain.Paper, time.Time, error) {
	link := dt.Find("a[href*=\"/abs/\"]").First()

	shortID := strings.TrimSpace(link.Text())
	shortID = strings.TrimPrefix(shortID, "arXiv:")
	if shortID == "" {
		if href, exists := link.Attr("href"); exists {
			shortID = strings.TrimPrefix(href, "/abs/")
		}
	}
	if shortID == "" {
		return domain.Paper{}, time.Time{}, fmt.Errorf("listing entry has no identifier")
	}

	href, _ := link.Attr("href")
	if !strings.HasPrefix(href, "http") {
		href = a.baseURL + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := dd.Find(".mathjax").First().Text()
	abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	categories := parseSubjects(dd.Find(".list-subjects").First().Text())
	primary := category
	if len(categories) > 0 {
		primary = categories[0]
	}

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	pdfURL := a.baseURL + "/pdf/" + shortID

	paper := domain.Paper{
		UID:        "arxiv:" + shortID,
		Source:     "arxiv",
		Title:      title,
		Abstract:   abstract,
		URL:        href,
		PDFURL:     &pdfURL,
		Authors:    authors,
		Categories: categories,
		Published:  domain.NewTime(publishedAt),
		Extra:      domain.Extras{PrimaryCategory: primary},
	}

	return paper, publishedAt, nil
}

// parseSubjects splits a "Subjects: cs.CV; cs.LG" line into category terms.
func parseSubjects(text string) []string {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "Subjects:"))
	if text == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// Listings render subjects as "Computer Vision (cs.CV)"; keep the term.
		if open := strings.LastIndex(part, "("); open != -1 && strings.HasSuffix(part, ")") {
			part = part[open+1 : len(part)-1]
		}
		out = append(out, part)
	}
	return out
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
