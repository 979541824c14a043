package source

import (
	"fmt"

	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// FlattenRecord renders a fetched record as deterministic, readable text for
// embedding: two-space-indented JSON with keys in stable sorted order.
func FlattenRecord(record map[string]any) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		// Values a driver hands back that JSON cannot represent are rare;
		// fall back to fmt so one odd record does not sink the batch.
		data, err = json.MarshalIndent(stringifyValues(record), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to flatten record: %w", err)
		}
	}
	return string(data), nil
}

// ContentPreview returns the first n characters of text, appending an
// ellipsis when truncated. Truncation is rune-safe.
func ContentPreview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// stringifyValues replaces non-JSON-native values with their fmt rendering.
func stringifyValues(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for key, value := range record {
		switch value.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64,
			map[string]any, []any:
			out[key] = value
		default:
			out[key] = fmt.Sprintf("%v", value)
		}
	}
	return out
}
