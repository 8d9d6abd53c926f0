package processor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// JSONProcessor validates the file as JSON, reports structural statistics
// and re-serializes it with stable two-space indentation. A parse failure is
// a reported failure carrying the parser's message, never a fault.
type JSONProcessor struct{}

func NewJSONProcessor() *JSONProcessor { return &JSONProcessor{} }

func (p *JSONProcessor) Type() string { return TypeJSONFormat }

type jsonAnalysis struct {
	totalKeys int
	maxDepth  int
	types     map[string]int
	rootKeys  []string
}

func (p *JSONProcessor) Process(data []byte, info FileInfo) Result {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return failureResult("JSON Validation Error: " + err.Error())
	}

	analysis := analyzeJSON(parsed)

	formatted, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return failureResult("JSON Validation Error: " + err.Error())
	}

	typeNames := make([]string, 0, len(analysis.types))
	for t := range analysis.types {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)

	var b strings.Builder
	b.WriteString(reportHeader("JSON PROCESSING REPORT",
		headerField{"Original File", info.Name},
		headerField{"File Size", kilobytes(info.Size)},
		headerField{"Validation", "PASSED"},
	))
	b.WriteString("\nSTRUCTURE ANALYSIS:\n")
	fmt.Fprintf(&b, "Total Keys: %d\n", analysis.totalKeys)
	fmt.Fprintf(&b, "Nesting Depth: %d\n", analysis.maxDepth)
	fmt.Fprintf(&b, "Data Types: %s\n", strings.Join(typeNames, ", "))
	if len(analysis.rootKeys) > 0 {
		shown := analysis.rootKeys
		if len(shown) > 10 {
			shown = shown[:10]
		}
		fmt.Fprintf(&b, "Root Keys: %s\n", strings.Join(shown, ", "))
	}
	b.WriteString("\nFORMATTED JSON:\n")
	b.Write(formatted)

	typeCounts := make(map[string]any, len(analysis.types))
	for t, n := range analysis.types {
		typeCounts[t] = n
	}

	return successResult([]byte(b.String()), "application/json", "json", map[string]any{
		"total_keys": analysis.totalKeys,
		"max_depth":  analysis.maxDepth,
		"types":      typeCounts,
		"valid":      true,
	})
}

// analyzeJSON counts top-level keys and value types and measures the deepest
// nesting level across the whole document.
func analyzeJSON(v any) jsonAnalysis {
	a := jsonAnalysis{types: make(map[string]int), maxDepth: depthOf(v, 1)}

	switch val := v.(type) {
	case map[string]any:
		a.totalKeys = len(val)
		for k := range val {
			a.rootKeys = append(a.rootKeys, k)
		}
		sort.Strings(a.rootKeys)
		for _, child := range val {
			a.types[jsonTypeName(child)]++
		}
	case []any:
		a.totalKeys = len(val)
		for _, child := range val {
			a.types[jsonTypeName(child)]++
		}
	default:
		a.types[jsonTypeName(v)]++
	}

	return a
}

// depthOf measures container nesting: scalars never deepen the document, a
// nested object or array adds one level.
func depthOf(v any, depth int) int {
	max := depth
	var children []any
	switch val := v.(type) {
	case map[string]any:
		for _, child := range val {
			children = append(children, child)
		}
	case []any:
		children = val
	}
	for _, child := range children {
		switch child.(type) {
		case map[string]any, []any:
			if d := depthOf(child, depth+1); d > max {
				max = d
			}
		}
	}
	return max
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "unknown"
	}
}
