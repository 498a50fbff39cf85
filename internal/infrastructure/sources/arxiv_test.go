package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PaperDigest/internal/config"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://arxiv.org/list/cs.AI/recent"
	u, err := buildPageURL(base, 200, 100)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "arxiv.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("skip") != "200" {
		t.Fatalf("expected skip=200, got %s", q.Get("skip"))
	}
	if q.Get("show") != "100" {
		t.Fatalf("expected show=100, got %s", q.Get("show"))
	}
}

func TestParseSubjects(t *testing.T) {
	t.Parallel()

	got := parseSubjects("Subjects: Computer Vision and Pattern Recognition (cs.CV); Machine Learning (cs.LG)")
	if len(got) != 2 || got[0] != "cs.CV" || got[1] != "cs.LG" {
		t.Fatalf("unexpected subjects: %v", got)
	}

	if got := parseSubjects(""); got != nil {
		t.Fatalf("expected nil for empty line, got %v", got)
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/2403.00123">arXiv:2403.00123</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 1 Mar 2024</div>
	    <div class="list-title mathjax">Title: Sample Title</div>
	    <div class="list-authors"><a href="/a/one">Ada One</a>, <a href="/a/two">Bo Two</a></div>
	    <div class="list-subjects">Subjects: Machine Learning (cs.LG); Computer Vision (cs.CV)</div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	a := NewArxiv(config.ArxivConfig{BaseURL: "https://arxiv.org"}, nil)

	dt := doc.Find("dt").First()
	dd := doc.Find("dd").First()

	paper, publishedAt, err := a.parseEntry(dt, dd, "cs.AI")
	if err != nil {
		t.Fatalf("parseEntry error: %v", err)
	}

	if paper.UID != "arxiv:2403.00123" {
		t.Fatalf("unexpected uid: %s", paper.UID)
	}
	if paper.Source != "arxiv" {
		t.Fatalf("unexpected source: %s", paper.Source)
	}
	if paper.Title != "Sample Title" {
		t.Fatalf("unexpected title: %s", paper.Title)
	}
	if paper.Abstract != "Sample abstract text." {
		t.Fatalf("unexpected abstract: %s", paper.Abstract)
	}
	if paper.URL != "https://arxiv.org/abs/2403.00123" {
		t.Fatalf("unexpected url: %s", paper.URL)
	}
	if paper.PDFURL == nil || *paper.PDFURL != "https://arxiv.org/pdf/2403.00123" {
		t.Fatalf("unexpected pdf url: %v", paper.PDFURL)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "Ada One" {
		t.Fatalf("unexpected authors: %v", paper.Authors)
	}
	if len(paper.Categories) != 2 || paper.Categories[0] != "cs.LG" {
		t.Fatalf("unexpected categories: %v", paper.Categories)
	}
	if paper.Extra.PrimaryCategory != "cs.LG" {
		t.Fatalf("unexpected primary category: %s", paper.Extra.PrimaryCategory)
	}

	wantDate := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if publishedAt.Format("2006-01-02") != wantDate.Format("2006-01-02") {
		t.Fatalf("unexpected published date: %v", publishedAt)
	}
}

func TestFetchCategoryStopsAtOlderEntry(t *testing.T) {
	t.Parallel()

	targetDay := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<dl>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2403.00001">arXiv:2403.00001</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 1 Mar 2024</div>
		    <div class="list-title mathjax">Title: Fresh Paper</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2402.09999">arXiv:2402.09999</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 29 Feb 2024</div>
		    <div class="list-title mathjax">Title: Old Paper</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	a := NewArxiv(config.ArxivConfig{BaseURL: server.URL, PageSize: 10}, server.Client())

	papers, err := a.FetchCategory(context.Background(), targetDay, "cs.AI")
	if err != nil {
		t.Fatalf("FetchCategory error: %v", err)
	}

	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	if papers[0].UID != "arxiv:2403.00001" {
		t.Fatalf("unexpected uid: %s", papers[0].UID)
	}
	if papers[0].Abstract != "brand new." {
		t.Fatalf("unexpected abstract: %s", papers[0].Abstract)
	}
}

func TestFetchCategoryPropagatesHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a := NewArxiv(config.ArxivConfig{BaseURL: server.URL, PageSize: 10}, server.Client())

	if _, err := a.FetchCategory(context.Background(), time.Now(), "cs.AI"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
