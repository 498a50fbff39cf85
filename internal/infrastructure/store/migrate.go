package store

import "strings"

// A migration upgrades one stored record a single schema step and reports
// whether it changed anything. Steps are detected by shape, not by a version
// field, and run in order so future renames stay additive.
type migration struct {
	name  string
	apply func(record map[string]any) bool
}

var migrations = []migration{
	{name: "summary-to-abstract", apply: copyRenamed("summary", "abstract")},
	{name: "published-date", apply: copyRenamed("published_date", "published")},
	{name: "updated-date", apply: copyRenamed("updated_date", "updated")},
	{name: "drop-tldr-zh", apply: dropField("tldr_zh")},
	{name: "infer-source", apply: inferSource},
}

func upgradeRecord(record map[string]any) bool {
	changed := false
	for _, m := range migrations {
		if m.apply(record) {
			changed = true
		}
	}
	return changed
}

// copyRenamed fills the new field from the old one when only the old exists.
func copyRenamed(oldKey, newKey string) func(map[string]any) bool {
	return func(record map[string]any) bool {
		if _, ok := record[newKey]; ok {
			return false
		}
		value, ok := record[oldKey]
		if !ok {
			return false
		}
		record[newKey] = value
		return true
	}
}

func dropField(key string) func(map[string]any) bool {
	return func(record map[string]any) bool {
		if _, ok := record[key]; !ok {
			return false
		}
		delete(record, key)
		return true
	}
}

// inferSource backfills the source tag old records lack from their URL.
func inferSource(record map[string]any) bool {
	if _, ok := record["source"]; ok {
		return false
	}

	rawURL, _ := record["url"].(string)
	source := sourceFromURL(rawURL)
	if source == "" {
		return false
	}
	record["source"] = source
	return true
}

func sourceFromURL(rawURL string) string {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "arxiv.org"):
		return "arxiv"
	case strings.Contains(u, "biorxiv.org"), strings.Contains(u, "medrxiv.org"):
		return "biorxiv"
	case strings.Contains(u, "chemrxiv"):
		return "chemrxiv"
	case strings.HasPrefix(u, "https://doi.org/"):
		return "doi"
	}
	return ""
}
