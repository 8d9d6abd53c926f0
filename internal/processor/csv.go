package processor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSVProcessor parses the file as comma-separated rows (first row is the
// header) and reports per-column statistics: min/max/mean for columns where
// every value is numeric, distinct-value count otherwise.
type CSVProcessor struct{}

func NewCSVProcessor() *CSVProcessor { return &CSVProcessor{} }

func (p *CSVProcessor) Type() string { return TypeCSVAnalyze }

type columnStats struct {
	name     string
	numeric  bool
	min      float64
	max      float64
	mean     float64
	distinct int
}

func (p *CSVProcessor) Process(data []byte, info FileInfo) Result {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return failureResult(fmt.Sprintf("CSV parse error: %v", err))
	}
	if len(records) == 0 {
		return failureResult("CSV parse error: file contains no rows")
	}

	header := records[0]
	rows := records[1:]
	stats := analyzeColumns(header, rows)

	var b strings.Builder
	b.WriteString(reportHeader("CSV ANALYSIS REPORT",
		headerField{"Original File", info.Name},
		headerField{"File Size", kilobytes(info.Size)},
	))
	b.WriteString("\nSTATISTICS:\n")
	fmt.Fprintf(&b, "Total Columns: %d\n", len(header))
	fmt.Fprintf(&b, "Total Rows: %d\n", len(rows))
	fmt.Fprintf(&b, "Column Names: %s\n", strings.Join(header, ", "))

	b.WriteString("\nCOLUMN ANALYSIS:\n")
	for _, s := range stats {
		if s.numeric {
			fmt.Fprintf(&b, "- %s: Min: %.2f, Max: %.2f, Avg: %.2f\n", s.name, s.min, s.max, s.mean)
		} else {
			fmt.Fprintf(&b, "- %s: Unique values: %d\n", s.name, s.distinct)
		}
	}

	b.WriteString("\nSAMPLE DATA (First 10 rows):\n")
	b.WriteString(strings.Join(header, ","))
	b.WriteString("\n")
	for i, row := range rows {
		if i >= 10 {
			break
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}

	columnMeta := make(map[string]any, len(stats))
	for _, s := range stats {
		if s.numeric {
			columnMeta[s.name] = map[string]any{
				"numeric": true,
				"min":     s.min,
				"max":     s.max,
				"mean":    s.mean,
			}
		} else {
			columnMeta[s.name] = map[string]any{
				"numeric":  false,
				"distinct": s.distinct,
			}
		}
	}

	return successResult([]byte(b.String()), "text/plain", "txt", map[string]any{
		"row_count":    len(rows),
		"column_count": len(header),
		"columns":      header,
		"column_stats": columnMeta,
	})
}

// analyzeColumns classifies a column as numeric only when every one of its
// values parses as a number.
func analyzeColumns(header []string, rows [][]string) []columnStats {
	stats := make([]columnStats, 0, len(header))

	for idx, name := range header {
		var values []string
		for _, row := range rows {
			if idx < len(row) {
				values = append(values, row[idx])
			}
		}

		allNumeric := len(values) > 0
		var nums []float64
		for _, v := range values {
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				allNumeric = false
				break
			}
			nums = append(nums, n)
		}

		s := columnStats{name: name}
		if allNumeric {
			s.numeric = true
			s.min, s.max = nums[0], nums[0]
			var sum float64
			for _, n := range nums {
				if n < s.min {
					s.min = n
				}
				if n > s.max {
					s.max = n
				}
				sum += n
			}
			s.mean = sum / float64(len(nums))
		} else {
			seen := make(map[string]struct{}, len(values))
			for _, v := range values {
				seen[v] = struct{}{}
			}
			s.distinct = len(seen)
		}
		stats = append(stats, s)
	}

	return stats
}
