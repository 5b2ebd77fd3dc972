package annotate

import "strings"

var questionStarters = []string{
	"who", "what", "where", "when", "why", "how", "can you", "could you", "tell me",
}

// IsQuestion is a deliberately permissive heuristic: an extra suggestion is
// cheaper than a missed question. Only called on final fragments.
func IsQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	lower := strings.TrimSpace(strings.ToLower(text))
	for _, starter := range questionStarters {
		if strings.HasPrefix(lower, starter) {
			return true
		}
	}
	return false
}
