package ports

import (
	"context"
	"time"

	"PaperDigest/internal/domain"
)

// Message is one chat turn sent to the completion API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompleter wraps a remote text-completion call behind a response cache
// and bounded retries. CompleteJSON additionally digs a JSON object out of
// free-form model output.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message, maxTokens int, wantsJSON bool) (string, error)
	CompleteJSON(ctx context.Context, messages []Message, maxTokens int) (map[string]any, error)
}

// PaperSource yields every paper one upstream catalog published on a day.
// Implementations own their pagination and field mapping.
type PaperSource interface {
	Name() string
	Fetch(ctx context.Context, day time.Time) ([]domain.Paper, error)
}

// TieredSource is fetched one category at a time so the orchestrator can
// stop expanding once enough candidates exist.
type TieredSource interface {
	Name() string
	FetchCategory(ctx context.Context, day time.Time, category string) ([]domain.Paper, error)
}

// DayStore persists the ranked records of one date and the report index.
type DayStore interface {
	HasDay(day time.Time) bool
	// LoadDay reads a day file, upgrades legacy records in place, and
	// rewrites the file when (and only when) an upgrade changed something.
	LoadDay(day time.Time) ([]domain.RatedPaper, error)
	SaveDay(day time.Time, papers []domain.RatedPaper) error
	UpdateReports(day time.Time, paperCount int) ([]domain.Report, error)
}

// SiteRenderer turns persisted records into the static pages downstream
// consumers serve.
type SiteRenderer interface {
	RenderDaily(day time.Time, papers []domain.RatedPaper) (string, error)
	RenderIndexes(reports []domain.Report) error
}

// Scheduler controls when pipeline runs fire in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop()
}
