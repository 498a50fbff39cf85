package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Paper is a normalized record for one preprint regardless of its source.
// Adapters construct it once; downstream stages only read it.
type Paper struct {
	UID        string   `json:"uid"`
	Source     string   `json:"source"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	URL        string   `json:"url"`
	PDFURL     *string  `json:"pdf_url"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
	Published  *Time    `json:"published"`
	Updated    *Time    `json:"updated"`
	Extra      Extras   `json:"extra"`
}

// Time marshals as RFC 3339 UTC and tolerates the timestamp shapes older
// persisted records carry (no offset, date-only).
type Time struct {
	time.Time
}

// NewTime wraps a time for an optional paper timestamp.
func NewTime(t time.Time) *Time {
	return &Time{Time: t}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// Extras carries source-specific metadata. Each adapter fills only its own
// fields; everything is optional so the serialized object stays flat and
// compatible with previously stored records.
type Extras struct {
	PrimaryCategory string `json:"primary_category,omitempty"`
	DOI             string `json:"doi,omitempty"`
	Version         string `json:"version,omitempty"`
	Server          string `json:"server,omitempty"`
	Type            string `json:"type,omitempty"`
	License         string `json:"license,omitempty"`
}

// RatedPaper is the persisted form of a Paper. The rating fields stay nil
// when the model stage is disabled or failed for this paper; a nil score must
// never break serialization or sorting.
type RatedPaper struct {
	Paper
	TLDR                 *string  `json:"tldr,omitempty"`
	RelevanceScore       *int     `json:"relevance_score,omitempty"`
	NoveltyClaimScore    *int     `json:"novelty_claim_score,omitempty"`
	ClarityScore         *int     `json:"clarity_score,omitempty"`
	PotentialImpactScore *int     `json:"potential_impact_score,omitempty"`
	OverallPriorityScore *float64 `json:"overall_priority_score,omitempty"`
}

// Priority is the descending sort key; a paper without a score sorts as zero.
func (r RatedPaper) Priority() float64 {
	if r.OverallPriorityScore == nil {
		return 0
	}
	return *r.OverallPriorityScore
}

// Unrated wraps a paper into its persisted form with no rating fields set.
func Unrated(p Paper) RatedPaper {
	return RatedPaper{Paper: p}
}

// Report is one entry of the persisted report index: the generated pages and
// paper count for a single date. The index holds at most one entry per date.
type Report struct {
	Date       string `json:"date"`
	HTML       string `json:"html"`
	JSON       string `json:"json"`
	PaperCount int    `json:"paper_count"`
}

// ReportHTMLName is the page filename generated for a date.
func ReportHTMLName(day time.Time) string {
	return day.Format("2006_01_02") + ".html"
}

// ReportJSONName is the day-state filename for a date.
func ReportJSONName(day time.Time) string {
	return day.Format("2006-01-02") + ".json"
}
