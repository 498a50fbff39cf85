package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Completer may be nil: the model-backed stages are then skipped and every
// candidate passes through unrated.
type PipelineDeps struct {
	Config    config.Config
	Completer ports.ChatCompleter
	Arxiv     ports.TieredSource
	Sources   []ports.PaperSource
	Store     ports.DayStore
	Renderer  ports.SiteRenderer
	Logger    *slog.Logger
}

// Pipeline implements the daily digest workflow: aggregate, filter, rate,
// persist, render.
type Pipeline struct {
	cfg       config.Config
	completer ports.ChatCompleter
	arxiv     ports.TieredSource
	sources   []ports.PaperSource
	store     ports.DayStore
	renderer  ports.SiteRenderer
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       deps.Config,
		completer: deps.Completer,
		arxiv:     deps.Arxiv,
		sources:   deps.Sources,
		store:     deps.Store,
		renderer:  deps.Renderer,
		logger:    logger,
	}
}

// Run processes every date in [target-daysBack, target], oldest first. A
// date that fails is logged and skipped so the remaining dates still run;
// the joined per-date errors are returned at the end.
func (p *Pipeline) Run(ctx context.Context, target time.Time, daysBack int, force bool) error {
	logger := p.logger.With("run_id", uuid.NewString())

	var errs []error
	for delta := daysBack; delta >= 0; delta-- {
		day := target.AddDate(0, 0, -delta)
		if err := p.processDay(ctx, logger, day, force); err != nil {
			logger.Error("date failed", "date", day.Format("2006-01-02"), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", day.Format("2006-01-02"), err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) processDay(ctx context.Context, logger *slog.Logger, day time.Time, force bool) error {
	dayLog := logger.With("date", day.Format("2006-01-02"))

	var papers []domain.RatedPaper
	if p.store.HasDay(day) && !force {
		dayLog.Info("day state exists, loading instead of recomputing")
		loaded, err := p.store.LoadDay(day)
		if err != nil {
			return err
		}
		papers = loaded
	} else {
		dayLog.Info("processing date")
		computed, err := p.computeDay(ctx, dayLog, day)
		if err != nil {
			return err
		}
		if err := p.store.SaveDay(day, computed); err != nil {
			return err
		}
		papers = computed
	}

	// Rendering and index maintenance run on both paths so the site stays
	// consistent with whatever was just loaded or computed.
	htmlPath, err := p.renderer.RenderDaily(day, papers)
	if err != nil {
		return fmt.Errorf("render daily page: %w", err)
	}
	dayLog.Info("wrote daily page", "path", htmlPath)

	reports, err := p.store.UpdateReports(day, len(papers))
	if err != nil {
		return err
	}
	if err := p.renderer.RenderIndexes(reports); err != nil {
		return fmt.Errorf("render index pages: %w", err)
	}
	dayLog.Info("updated site index pages", "reports", len(reports))

	return nil
}

func (p *Pipeline) computeDay(ctx context.Context, logger *slog.Logger, day time.Time) ([]domain.RatedPaper, error) {
	raw := p.fetchAllSources(ctx, logger, day)
	logger.Info("fetched unique papers", "count", len(raw))

	pre := p.applyKeywordPrefilter(raw)
	logger.Info("keyword prefilter", "before", len(raw), "after", len(pre))

	var rated []domain.RatedPaper
	if p.completer == nil {
		logger.Info("model gateway unavailable, passing all candidates through unrated")
		rated = make([]domain.RatedPaper, 0, len(pre))
		for _, paper := range pre {
			rated = append(rated, domain.Unrated(paper))
		}
	} else {
		relevant, err := p.llmFilter(ctx, pre)
		if err != nil {
			return nil, fmt.Errorf("relevance filter: %w", err)
		}
		logger.Info("relevance filter", "before", len(pre), "after", len(relevant))

		rated = p.rate(ctx, logger, relevant)
		logger.Info("rating done", "count", len(rated))
	}

	sortByPriority(rated)
	return rated, nil
}

// fetchAllSources aggregates every enabled catalog for the day. A source
// that fails contributes nothing but never fails the run.
func (p *Pipeline) fetchAllSources(ctx context.Context, logger *slog.Logger, day time.Time) []domain.Paper {
	var papers []domain.Paper

	if p.arxiv != nil {
		papers = append(papers, p.fetchArxiv(ctx, logger, day)...)
	}

	for _, source := range p.sources {
		results, err := source.Fetch(ctx, day)
		if err != nil {
			logger.Warn("source fetch failed", "source", source.Name(), "error", err)
			continue
		}
		logger.Info("source fetched", "source", source.Name(), "count", len(results))
		papers = append(papers, results...)
	}

	return dedupe(papers)
}

// fetchArxiv expands the category tiers one category at a time. With
// adaptive scope enabled the expansion stops as soon as enough candidates
// survive the keyword prefilter, bounding network cost on busy days.
func (p *Pipeline) fetchArxiv(ctx context.Context, logger *slog.Logger, day time.Time) []domain.Paper {
	adaptive := p.cfg.Sources.AdaptiveScope

	maxTiers := len(p.cfg.Sources.Arxiv.CategoryTiers)
	if adaptive.Enabled && adaptive.MaxTiers < maxTiers {
		maxTiers = adaptive.MaxTiers
	}

	categories := flattenTiers(p.cfg.Sources.Arxiv.CategoryTiers, maxTiers)
	if len(categories) == 0 {
		categories = []string{"cs.CV"}
	}

	var fetched []domain.Paper
	for _, category := range categories {
		results, err := p.arxiv.FetchCategory(ctx, day, category)
		if err != nil {
			logger.Warn("arxiv category fetch failed", "category", category, "error", err)
			continue
		}
		logger.Info("arxiv category fetched", "category", category, "count", len(results))

		fetched = dedupe(append(fetched, results...))

		if adaptive.Enabled {
			candidates := p.applyKeywordPrefilter(fetched)
			if len(candidates) >= adaptive.MinCandidates {
				logger.Info("adaptive scope satisfied, stopping expansion",
					"candidates", len(candidates), "category", category)
				break
			}
		}
	}
	return fetched
}

func flattenTiers(tiers [][]string, maxTiers int) []string {
	var out []string
	for i, tier := range tiers {
		if i >= maxTiers {
			break
		}
		for _, category := range tier {
			if category != "" {
				out = append(out, category)
			}
		}
	}
	return out
}

func (p *Pipeline) applyKeywordPrefilter(papers []domain.Paper) []domain.Paper {
	kp := p.cfg.Filter.KeywordPrefilter
	if !kp.Enabled {
		return papers
	}
	return keywordFilter(papers, kp.Include, kp.Exclude)
}

func sortByPriority(papers []domain.RatedPaper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Priority() > papers[j].Priority()
	})
}
