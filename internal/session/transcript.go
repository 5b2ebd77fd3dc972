package session

import "strings"

func formatTranscriptLine(speaker, text string) string {
	return speaker + ": " + text + "\n"
}

func joinTranscript(lines []string) string {
	return strings.Join(lines, "")
}

// transcriptTail returns the last n lines joined, for collaborator context.
func transcriptTail(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimRight(strings.Join(lines, ""), "\n")
}
