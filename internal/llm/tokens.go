package llm

// bytesPerToken is the heuristic used when a backend does not report a
// count: tokens ≈ ceil(utf8_bytes / 4), close enough for cost estimates.
const bytesPerToken = 4

// EstimateTokens approximates the token count of s.
func EstimateTokens(s string) int {
	n := len(s)
	if n == 0 {
		return 0
	}
	return (n + bytesPerToken - 1) / bytesPerToken
}

// NormalizeUsage fills any count the backend did not report from the
// prompt and answer text, and recomputes the total so
// TotalTokens = InputTokens + OutputTokens always holds.
func NormalizeUsage(u Usage, prompt Prompt, answer string) Usage {
	if u.InputTokens <= 0 {
		u.InputTokens = EstimateTokens(prompt.System) + EstimateTokens(prompt.User)
	}
	if u.OutputTokens < 0 {
		u.OutputTokens = 0
	}
	if u.OutputTokens == 0 && answer != "" {
		u.OutputTokens = EstimateTokens(answer)
	}
	u.TotalTokens = u.InputTokens + u.OutputTokens
	return u
}
