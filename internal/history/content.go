package history

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractContent unwraps the JSON content envelope some reporters send, e.g.
// {"speaker":"...","content":"..."}. Anything that is not a JSON object with a
// content key comes back unchanged; parse failures are swallowed.
func ExtractContent(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return raw
	}

	value, ok := envelope["content"]
	if !ok || value == nil {
		return raw
	}

	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}
