package llm

import (
	"strings"

	"github.com/BaSui01/boardroom/types"
)

// RenderTranscript renders messages as "name: content" lines, the textual
// form used by completion-style providers and by crew coordination prompts.
func RenderTranscript(msgs []types.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.SenderName)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
