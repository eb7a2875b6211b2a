package llm

// Response is one completion from a backend. Token counts and the stop
// reason come from the backend's usage report and may be zero/empty for
// servers that do not report them.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
}

// Truncated reports whether the backend stopped at its output token limit,
// in which case the content is almost certainly cut mid-payload. Covers the
// OpenAI-style "length" and Ollama-style "limit" reasons.
func (r *Response) Truncated() bool {
	return r.StopReason == "length" || r.StopReason == "max_tokens" || r.StopReason == "limit"
}
