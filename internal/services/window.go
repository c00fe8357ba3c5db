package services

import "strings"

// Markers framing the two regions of the prompt window. They tell the model
// which part of the filing it is looking at.
const (
	windowHeadMarker = "--- INÍCIO DO DOCUMENTO ---"
	windowTailMarker = "--- FIM DO DOCUMENTO ---"
)

// WindowText reduces an arbitrarily long document to a bounded head+tail
// slice for the completion prompt. Legal filings put the parties, court and
// case number up front and the operative conclusions, signatures and
// deadlines at the end; the middle is boilerplate we can drop under a token
// budget. The head is deliberately larger than the tail.
func WindowText(text string, head, tail int) string {
	runes := []rune(text)

	if len(runes) <= head+tail {
		return windowHeadMarker + "\n" + text + "\n" + windowTailMarker
	}

	var sb strings.Builder
	sb.WriteString(windowHeadMarker)
	sb.WriteString("\n")
	sb.WriteString(string(runes[:head]))
	sb.WriteString("\n")
	sb.WriteString(windowTailMarker)
	sb.WriteString("\n")
	sb.WriteString(string(runes[len(runes)-tail:]))
	return sb.String()
}
