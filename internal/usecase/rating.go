package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

const ratingSchema = `{"tldr":"","relevance_score":0,"novelty_claim_score":0,` +
	`"clarity_score":0,"potential_impact_score":0,"overall_priority_score":0}`

// rate scores the leading papers one at a time; papers past the configured
// maximum pass through unrated. A gateway failure for one paper is logged
// and that paper is emitted without rating fields; it never aborts the rest.
func (p *Pipeline) rate(ctx context.Context, logger *slog.Logger, papers []domain.Paper) []domain.RatedPaper {
	rated := make([]domain.RatedPaper, 0, len(papers))

	if !p.cfg.Rating.Enabled {
		for _, paper := range papers {
			rated = append(rated, domain.Unrated(paper))
		}
		return rated
	}

	limit := p.cfg.Rating.MaxPapers
	if limit > len(papers) {
		limit = len(papers)
	}

	interests := strings.Join(p.cfg.Filter.Interests, "; ")

	for i, paper := range papers[:limit] {
		record := domain.Unrated(paper)

		prompt := "Interests: " + interests + "\n\n" +
			"Return JSON only, English only, using this schema:\n" + ratingSchema + "\n" +
			"Constraints: scores are integers 1-10; TLDR is <= 240 characters.\n\n" +
			"Title: " + paper.Title + "\n" +
			"Abstract: " + truncateAbstract(paper.Abstract, p.cfg.Rating.MaxAbstractChars) + "\n"

		resp, err := p.completer.CompleteJSON(ctx,
			[]ports.Message{{Role: "user", Content: prompt}}, p.cfg.Rating.MaxTokens)
		if err != nil {
			logger.Warn("rating failed", "uid", paper.UID, "error", err)
		} else {
			applyRating(&record, resp)
		}

		rated = append(rated, record)
		logger.Info("rated paper", "progress", fmt.Sprintf("%d/%d", i+1, limit), "uid", paper.UID)
	}

	for _, paper := range papers[limit:] {
		rated = append(rated, domain.Unrated(paper))
	}

	return rated
}

// applyRating copies whatever valid fields the model produced; anything
// missing or malformed simply stays unset. The model's own overall score is
// trusted when present; otherwise it is derived as the mean of the four
// sub-scores when all of them exist.
func applyRating(record *domain.RatedPaper, resp map[string]any) {
	record.TLDR = stringField(resp, "tldr")
	record.RelevanceScore = intField(resp, "relevance_score")
	record.NoveltyClaimScore = intField(resp, "novelty_claim_score")
	record.ClarityScore = intField(resp, "clarity_score")
	record.PotentialImpactScore = intField(resp, "potential_impact_score")
	record.OverallPriorityScore = floatField(resp, "overall_priority_score")

	if record.OverallPriorityScore == nil &&
		record.RelevanceScore != nil && record.NoveltyClaimScore != nil &&
		record.ClarityScore != nil && record.PotentialImpactScore != nil {
		mean := float64(*record.RelevanceScore+*record.NoveltyClaimScore+
			*record.ClarityScore+*record.PotentialImpactScore) / 4
		record.OverallPriorityScore = &mean
	}
}

func stringField(resp map[string]any, key string) *string {
	if s, ok := resp[key].(string); ok && s != "" {
		return &s
	}
	return nil
}

func intField(resp map[string]any, key string) *int {
	if f, ok := resp[key].(float64); ok {
		v := int(f)
		return &v
	}
	return nil
}

func floatField(resp map[string]any, key string) *float64 {
	if f, ok := resp[key].(float64); ok {
		return &f
	}
	return nil
}
