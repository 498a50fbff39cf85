package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"PaperDigest/internal/domain"
)

type reportsFile struct {
	GeneratedAt string          `json:"generated_at"`
	Latest      *string         `json:"latest"`
	Reports     []domain.Report `json:"reports"`
}

// UpdateReports merges the date's entry into the persisted report index:
// any prior entry for the date is replaced, and the index stays sorted by
// date descending. The merged index is written back and returned.
func (s *FileStore) UpdateReports(day time.Time, paperCount int) ([]domain.Report, error) {
	existing := s.loadReports()
	dateStr := day.Format("2006-01-02")

	merged := make([]domain.Report, 0, len(existing)+1)
	for _, report := range existing {
		if report.Date != dateStr {
			merged = append(merged, report)
		}
	}
	merged = append(merged, domain.Report{
		Date:       dateStr,
		HTML:       domain.ReportHTMLName(day),
		JSON:       domain.ReportJSONName(day),
		PaperCount: paperCount,
	})

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})

	payload := reportsFile{
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Reports:     merged,
	}
	if len(merged) > 0 {
		latest := merged[0].HTML
		payload.Latest = &latest
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report index: %w", err)
	}
	if err := s.writeFile(s.reportsPath, raw); err != nil {
		return nil, fmt.Errorf("write report index: %w", err)
	}
	return merged, nil
}

// loadReports reads the persisted index, treating a missing or malformed
// file as empty and reconstructing entries from the legacy format that
// stored only a bare list of page filenames.
func (s *FileStore) loadReports() []domain.Report {
	raw, err := os.ReadFile(s.reportsPath)
	if err != nil {
		return nil
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		s.logger.Warn("unreadable report index, treating as empty", "path", s.reportsPath, "error", err)
		return nil
	}

	switch probe.(type) {
	case []any:
		return legacyReports(probe.([]any))
	case map[string]any:
		var file reportsFile
		if err := json.Unmarshal(raw, &file); err != nil {
			s.logger.Warn("unreadable report index, treating as empty", "path", s.reportsPath, "error", err)
			return nil
		}
		return file.Reports
	default:
		return nil
	}
}

// legacyReports rebuilds index entries from the old bare-filename format
// ("2024_03_01.html"); paper counts are unknown and stay zero.
func legacyReports(items []any) []domain.Report {
	var reports []domain.Report
	for _, item := range items {
		html, ok := item.(string)
		if !ok {
			continue
		}
		dateStr := strings.ReplaceAll(strings.TrimSuffix(html, ".html"), "_", "-")
		reports = append(reports, domain.Report{
			Date: dateStr,
			HTML: html,
			JSON: dateStr + ".json",
		})
	}
	return reports
}
