package llm

import "strings"

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// StripCodeFences removes markdown code fence markers around a JSON payload.
// Applying it to clean text returns the text unchanged.
func StripCodeFences(s string) string {
	return strings.TrimSpace(fenceReplacer.Replace(s))
}
