// Package preview produces the cosmetic one-line change summary attached to
// backup entries. It is a collaborator boundary: hosts may plug their own
// heuristics; nothing in the retention engine depends on its output.
package preview

import (
	"fmt"
	"strings"
)

// Provider summarizes a content change into a short human-readable line and
// an optional extracted primary value.
type Provider interface {
	Summarize(previous, current string) (summary string, primaryValue string)
}

// LineDiff is the default Provider: it reports the first line that differs.
type LineDiff struct {
	MaxLen int
}

// Summarize implements Provider.
func (l LineDiff) Summarize(previous, current string) (string, string) {
	maxLen := l.MaxLen
	if maxLen <= 0 {
		maxLen = 80
	}
	currLines := strings.Split(current, "\n")
	primary := ""
	for _, line := range currLines {
		if s := strings.TrimSpace(line); s != "" {
			primary = clip(s, maxLen)
			break
		}
	}
	prevLines := strings.Split(previous, "\n")
	for i, line := range currLines {
		if i >= len(prevLines) {
			return "+ " + clip(strings.TrimSpace(line), maxLen), primary
		}
		if line != prevLines[i] {
			return "~ " + clip(strings.TrimSpace(line), maxLen), primary
		}
	}
	if len(prevLines) > len(currLines) {
		return fmt.Sprintf("- %d line(s) removed", len(prevLines)-len(currLines)), primary
	}
	return "", primary
}

func clip(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
