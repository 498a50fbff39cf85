// Package store persists day state and the report index as flat JSON files,
// the format downstream site tooling consumes directly.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

// FileStore owns the on-disk day-state directory and the report index file.
// A single process is assumed to own both for the duration of a run.
type FileStore struct {
	jsonDir     string
	reportsPath string
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.DayStore = (*FileStore)(nil)

// New wires the output locations from config.
func New(cfg config.OutputConfig, logger *slog.Logger) *FileStore {
	return &FileStore{
		jsonDir:     cfg.JSONDir,
		reportsPath: cfg.ReportsJSON,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *FileStore) dayPath(day time.Time) string {
	return filepath.Join(s.jsonDir, domain.ReportJSONName(day))
}

// HasDay reports whether a day-state file already exists for the date.
func (s *FileStore) HasDay(day time.Time) bool {
	_, err := os.Stat(s.dayPath(day))
	return err == nil
}

// SaveDay writes the ranked records for one date with stable key ordering.
func (s *FileStore) SaveDay(day time.Time, papers []domain.RatedPaper) error {
	if papers == nil {
		papers = []domain.RatedPaper{}
	}
	raw, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal day state: %w", err)
	}
	return s.writeFile(s.dayPath(day), raw)
}

// LoadDay reads the stored records for one date, upgrades legacy fields in
// place, and rewrites the file only when an upgrade changed something. An
// unparseable file is an error; the caller fails that date alone.
func (s *FileStore) LoadDay(day time.Time) ([]domain.RatedPaper, error) {
	path := s.dayPath(day)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read day state %s: %w", path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse day state %s: %w", path, err)
	}

	changed := false
	for _, record := range records {
		if upgradeRecord(record) {
			changed = true
		}
	}

	upgraded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal upgraded day state: %w", err)
	}

	if changed {
		if err := s.writeFile(path, upgraded); err != nil {
			return nil, fmt.Errorf("rewrite upgraded day state: %w", err)
		}
		s.logger.Info("upgraded legacy day state", "path", path)
	}

	var papers []domain.RatedPaper
	if err := json.Unmarshal(upgraded, &papers); err != nil {
		return nil, fmt.Errorf("decode day state %s: %w", path, err)
	}
	return papers, nil
}

func (s *FileStore) writeFile(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
