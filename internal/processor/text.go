package processor

import (
	"fmt"
	"strconv"
	"strings"
)

// TextProcessor uppercases each line and prefixes it with a zero-padded
// 3-digit line number.
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor { return &TextProcessor{} }

func (p *TextProcessor) Type() string { return TypeTextTransform }

func (p *TextProcessor) Process(data []byte, info FileInfo) Result {
	lines := strings.Split(string(data), "\n")

	processed := make([]string, len(lines))
	for i, line := range lines {
		processed[i] = fmt.Sprintf("%03d: %s", i+1, strings.ToUpper(line))
	}

	var b strings.Builder
	b.WriteString(reportHeader("TEXT TRANSFORMATION RESULT",
		headerField{"Original File", info.Name},
		headerField{"Total Lines", strconv.Itoa(len(lines))},
		headerField{"Processing Type", "Text Transform (Uppercase + Line Numbers)"},
	))
	b.WriteString("\nPROCESSED CONTENT:\n")
	b.WriteString(strings.Join(processed, "\n"))

	return successResult([]byte(b.String()), "text/plain", "txt", map[string]any{
		"line_count":    len(lines),
		"original_size": info.Size,
	})
}
