package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanMarkdownWrapper strips markdown code fences that models sometimes wrap
// around JSON output.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

// ParseObject decodes a JSON object from model output, tolerating markdown
// fences around it.
func ParseObject(content string) (map[string]any, error) {
	var obj map[string]any
	if err := ParseInto(content, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// ParseInto decodes model JSON output into a typed value, tolerating
// markdown fences around it.
func ParseInto(content string, out any) error {
	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
