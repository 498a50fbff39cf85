package usecase

import (
	"strings"

	"PaperDigest/internal/domain"
)

// normalizeText collapses whitespace and case-folds for keyword matching.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func keywordMatch(normalized string, terms []string) bool {
	for _, term := range terms {
		term = normalizeText(term)
		if term == "" {
			continue
		}
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// dedupe drops repeated papers, keeping the first occurrence. The identity
// key is the uid, else the URL, else the normalized title; papers with no
// key at all are dropped.
func dedupe(papers []domain.Paper) []domain.Paper {
	seen := make(map[string]struct{}, len(papers))
	out := make([]domain.Paper, 0, len(papers))
	for _, paper := range papers {
		key := paper.UID
		if key == "" {
			key = paper.URL
		}
		if key == "" {
			key = normalizeText(paper.Title)
		}
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, paper)
	}
	return out
}

// keywordFilter applies include/exclude term lists over title+abstract.
// With both lists empty it is a deliberate no-op. Exclude wins over include.
func keywordFilter(papers []domain.Paper, include, exclude []string) []domain.Paper {
	include = cleanTerms(include)
	exclude = cleanTerms(exclude)
	if len(include) == 0 && len(exclude) == 0 {
		return papers
	}

	out := make([]domain.Paper, 0, len(papers))
	for _, paper := range papers {
		text := normalizeText(paper.Title + "\n" + paper.Abstract)
		if len(exclude) > 0 && keywordMatch(text, exclude) {
			continue
		}
		if len(include) > 0 && !keywordMatch(text, include) {
			continue
		}
		out = append(out, paper)
	}
	return out
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			out = append(out, term)
		}
	}
	return out
}

// truncateAbstract bounds the text sent to the model, cutting at a word
// boundary when one is close enough and marking the cut with an ellipsis.
func truncateAbstract(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	cut := string(runes[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n") + "..."
}

func batch(papers []domain.Paper, size int) [][]domain.Paper {
	if size <= 0 {
		return [][]domain.Paper{papers}
	}
	var out [][]domain.Paper
	for start := 0; start < len(papers); start += size {
		end := start + size
		if end > len(papers) {
			end = len(papers)
		}
		out = append(out, papers[start:end])
	}
	return out
}
