// Package normalize cleans up raw LLM completions before JSON decoding.
package normalize

import "strings"

// StripMarkdownFences removes a single surrounding ```json ... ``` or
// ``` ... ``` code fence, mirroring how every provider occasionally wraps
// an otherwise-valid JSON object in a markdown block despite being asked
// for raw JSON.
func StripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```json"); idx != -1 {
		rest := s[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	if strings.HasPrefix(s, "```") {
		rest := strings.TrimPrefix(s, "```")
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	return s
}
