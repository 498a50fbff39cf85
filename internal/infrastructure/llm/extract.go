package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject digs a JSON object out of free-form model text. It tries,
// in order: the content of a fenced code block (a leading "json" language tag
// is stripped), the whole trimmed text, and the substring between the first
// "{" and the last "}".
func ExtractJSONObject(text string) (map[string]any, error) {
	s := strings.TrimSpace(text)

	if strings.Contains(s, "```") {
		for _, part := range strings.Split(s, "```") {
			part = strings.TrimSpace(part)
			part = strings.TrimSpace(strings.TrimPrefix(part, "json"))
			if obj, ok := tryObject(part); ok {
				return obj, nil
			}
		}
	}

	if obj, ok := tryObject(s); ok {
		return obj, nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		if obj, ok := tryObject(s[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("no JSON object found in model output")
}

func tryObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
