package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

// filterMaxTokens bounds the reply of one relevance batch; the model only
// returns an id -> 0/1 map.
const filterMaxTokens = 120

// llmFilter asks the model, in fixed-size batches, which papers match any
// stated interest. A paper is kept iff its id maps to a truthy value in the
// reply; an id the model omits counts as not relevant.
func (p *Pipeline) llmFilter(ctx context.Context, papers []domain.Paper) ([]domain.Paper, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	interests := strings.Join(p.cfg.Filter.Interests, "; ")

	var kept []domain.Paper
	for _, chunk := range batch(papers, p.cfg.Filter.LLMBatchSize) {
		type item struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Abstract string `json:"abstract"`
		}

		items := make([]item, 0, len(chunk))
		for _, paper := range chunk {
			items = append(items, item{
				ID:       paper.UID,
				Title:    paper.Title,
				Abstract: truncateAbstract(paper.Abstract, p.cfg.Filter.MaxAbstractChars),
			})
		}

		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("marshal filter batch: %w", err)
		}

		prompt := "Interests: " + interests + "\n\n" +
			"For each item, output a JSON object mapping id -> 1 or 0. " +
			"Use 1 only if the paper is primarily about any interest. Output JSON only.\n\n" +
			string(itemsJSON)

		resp, err := p.completer.CompleteJSON(ctx,
			[]ports.Message{{Role: "user", Content: prompt}}, filterMaxTokens)
		if err != nil {
			return nil, err
		}

		for _, paper := range chunk {
			if isTruthy(resp[paper.UID]) {
				kept = append(kept, paper)
			}
		}
	}

	return kept, nil
}

// isTruthy accepts the reply shapes models actually produce for "yes".
func isTruthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case string:
		return v == "1" || v == "true" || v == "True"
	}
	return false
}
