package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"labassist/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns defines the header row shared by the CSV and XLSX exports.
var Columns = []string{
	"Category",
	"Test",
	"Value",
	"Unit",
	"Reference Range",
	"Flag",
	"Finding",
	"Explanation",
}

// Writer wraps csv.Writer for exporting a session's test results.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteResults writes one row per test in report order. interp may be nil.
func (w *Writer) WriteResults(report *domain.StructuredReport, interp *domain.Interpretation) error {
	for _, row := range Rows(report, interp) {
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Rows converts a report to export rows, joining each test with its finding.
func Rows(report *domain.StructuredReport, interp *domain.Interpretation) [][]string {
	if report == nil {
		return nil
	}
	rows := make([][]string, 0, len(report.TestResults))
	for _, t := range report.TestResults {
		row := make([]string, len(Columns))
		row[0] = t.Category
		row[1] = t.Name
		row[2] = t.Value.String()
		row[3] = t.Unit
		row[4] = t.ReferenceRange.String()
		row[5] = string(t.Flag)
		if interp != nil {
			if f, ok := interp.FindingFor(t.Name); ok {
				row[6] = string(f.Category)
				row[7] = f.Explanation
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized export filename.
// Format: {sanitized_name}_{date}.{ext}; an empty date uses today.
func BuildFilename(name, date, ext string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "lab_report"
	}
	date = SanitizeFilename(date)
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
