package orchestrator

import (
	"fmt"
	"strings"

	"ManualRAG/app/locales"
	"ManualRAG/app/rag"
)

// FallbackAnswer quotes the top two retrieved excerpts under a disclaimer
// instead of generating. Given the same retrieved set it is byte-identical
// across invocations.
func FallbackAnswer(loc locales.Strings, docs []rag.Document) string {
	var sb strings.Builder
	sb.WriteString(loc.FallbackHeader)
	sb.WriteString("\n\n")

	top := docs
	if len(top) > 2 {
		top = top[:2]
	}
	for i, doc := range top {
		sb.WriteString(fmt.Sprintf("%d. %s...\n\n", i+1, truncateRunes(doc.Content, previewRunes)))
	}

	sb.WriteString(loc.Disclaimer)
	return sb.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
