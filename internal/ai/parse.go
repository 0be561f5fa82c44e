package ai

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// ParseResponse recovers structure from the raw text a provider returned.
// Providers are asked for strict JSON but occasionally wrap it in prose or
// markdown fencing, so the strict case is tried first to avoid extracting a
// fence out of an already-compliant response.
func ParseResponse(text string) Response {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return decodeObject(trimmed, text)
	}

	if strings.Contains(text, fence) {
		return decodeObject(extractFenced(text), text)
	}

	return RawOnly(trimmed)
}

func decodeObject(candidate, original string) Response {
	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return Failed(original, "decode JSON: "+err.Error())
	}
	return Parsed(data)
}

// extractFenced returns the content between the first pair of triple-backtick
// fences, with an optional leading "json" language tag stripped. An unclosed
// fence takes the rest of the text; the JSON decode decides whether that was
// usable.
func extractFenced(text string) string {
	start := strings.Index(text, fence) + len(fence)
	block := text[start:]
	if end := strings.Index(block, fence); end >= 0 {
		block = block[:end]
	}

	block = strings.TrimSpace(block)
	if rest, ok := strings.CutPrefix(block, "json\n"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(block, "json\r\n"); ok {
		return rest
	}
	return block
}
