package processor

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const previewLimit = 1000

// DefaultProcessor is the catch-all: it accepts any input and reports byte,
// line and word counts, digests, and a preview of the original content. The
// registry falls back to it for unknown processing types.
type DefaultProcessor struct{}

func NewDefaultProcessor() *DefaultProcessor { return &DefaultProcessor{} }

func (p *DefaultProcessor) Type() string { return TypeMetadata }

func (p *DefaultProcessor) Process(data []byte, info FileInfo) Result {
	content := string(data)
	lines := strings.Count(content, "\n")
	words := len(strings.Fields(content))
	characters := len(content)

	sha1Sum := sha1.Sum(data)
	sha256Sum := sha256.Sum256(data)

	mimeType := info.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var b strings.Builder
	b.WriteString(reportHeader("FILE METADATA REPORT",
		headerField{"Processing Type", "Metadata Analysis"},
	))
	b.WriteString("\nFILE INFORMATION:\n")
	fmt.Fprintf(&b, "Name: %s\n", info.Name)
	fmt.Fprintf(&b, "Size: %s\n", kilobytes(info.Size))
	fmt.Fprintf(&b, "MIME Type: %s\n", mimeType)

	b.WriteString("\nCONTENT ANALYSIS:\n")
	fmt.Fprintf(&b, "Total Lines: %d\n", lines)
	fmt.Fprintf(&b, "Total Words: %d\n", words)
	fmt.Fprintf(&b, "Total Characters: %d\n", characters)

	b.WriteString("\nFILE SIGNATURES:\n")
	fmt.Fprintf(&b, "SHA1: %s\n", hex.EncodeToString(sha1Sum[:]))
	fmt.Fprintf(&b, "SHA256: %s\n", hex.EncodeToString(sha256Sum[:]))

	fmt.Fprintf(&b, "\nORIGINAL CONTENT (First %d characters):\n", previewLimit)
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n")
	if characters > previewLimit {
		b.WriteString(content[:previewLimit])
		fmt.Fprintf(&b, "\n... (truncated, %d more characters)", characters-previewLimit)
	} else {
		b.WriteString(content)
	}

	return successResult([]byte(b.String()), "text/plain", "txt", map[string]any{
		"file_size":  info.Size,
		"mime_type":  mimeType,
		"lines":      lines,
		"words":      words,
		"characters": characters,
		"sha1":       hex.EncodeToString(sha1Sum[:]),
		"sha256":     hex.EncodeToString(sha256Sum[:]),
	})
}
