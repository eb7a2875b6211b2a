package llm

import "strings"

// StripThinkingTags removes <think>...</think> blocks from LLM output.
// Some models (e.g. qwen3) wrap their reasoning in these tags.
func StripThinkingTags(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s, "</think>")
		if end == -1 {
			s = strings.TrimSpace(s[:start])
			break
		}
		s = s[:start] + s[end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

// ExtractJSONBlock returns the content of the first fenced block explicitly
// marked as JSON (```json ... ```). Responses without such a fence are
// returned whole, trimmed, after thinking tags are stripped.
func ExtractJSONBlock(s string) string {
	s = StripThinkingTags(s)

	const marker = "```json"
	start := strings.Index(s, marker)
	if start == -1 {
		return strings.TrimSpace(s)
	}
	rest := s[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
