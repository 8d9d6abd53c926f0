package processor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Processing type identifiers. The set is closed for uploads; Register can
// extend it at runtime for plugins and tests.
const (
	TypeTextTransform = "text_transform"
	TypeCSVAnalyze    = "csv_analyze"
	TypeJSONFormat    = "json_format"
	TypeImageResize   = "image_resize"
	TypeMetadata      = "metadata"
)

// FileInfo describes the source file being processed. Processors treat it as
// read-only context for their reports.
type FileInfo struct {
	Name     string
	Size     int64
	MimeType string
}

// Result is the outcome of one processor run. A failed parse or an
// unreadable input is reported with Success=false, not an error; only
// system faults travel as errors.
type Result struct {
	Content   []byte
	MimeType  string
	Extension string
	Metadata  map[string]any
	Success   bool
	Err       string
}

func successResult(content []byte, mimeType, ext string, metadata map[string]any) Result {
	return Result{
		Content:   content,
		MimeType:  mimeType,
		Extension: ext,
		Metadata:  metadata,
		Success:   true,
	}
}

func failureResult(msg string) Result {
	return Result{Success: false, Err: msg}
}

// Processor turns raw file bytes into a report plus metadata. Implementations
// must be pure: no file writes, no status mutations.
type Processor interface {
	Type() string
	Process(data []byte, info FileInfo) Result
}

// Registry maps processing types to processors. Resolve never fails; unknown
// types fall back to the metadata processor.
type Registry struct {
	mu       sync.RWMutex
	procs    map[string]Processor
	fallback Processor
}

func NewRegistry() *Registry {
	fallback := NewDefaultProcessor()
	r := &Registry{
		procs:    make(map[string]Processor),
		fallback: fallback,
	}
	r.Register(NewTextProcessor())
	r.Register(NewCSVProcessor())
	r.Register(NewJSONProcessor())
	r.Register(NewImageProcessor())
	r.Register(fallback)
	return r
}

func (r *Registry) Register(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[p.Type()] = p
}

func (r *Registry) Resolve(processingType string) Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.procs[processingType]; ok {
		return p
	}
	return r.fallback
}

func (r *Registry) Known(processingType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.procs[processingType]
	return ok
}

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.procs))
	for t := range r.procs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

type headerField struct {
	key   string
	value string
}

// reportHeader renders the shared report preamble: title, timestamp, rule,
// then the given key/value lines in order.
func reportHeader(title string, fields ...headerField) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString("Processed At: ")
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")
	for _, f := range fields {
		b.WriteString(f.key)
		b.WriteString(": ")
		b.WriteString(f.value)
		b.WriteString("\n")
	}
	return b.String()
}

func kilobytes(size int64) string {
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}
