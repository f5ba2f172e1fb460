package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Patient info keys. Absent fields are omitted from the map, never filled with placeholders.
const (
	PatientName           = "name"
	PatientAge            = "age"
	PatientSex            = "sex"
	PatientDOB            = "dob"
	PatientID             = "patient_id"
	PatientCollectionDate = "collection_date"
)

// Metadata keys.
const (
	MetaLabName              = "lab_name"
	MetaDoctor               = "doctor"
	MetaReportDate           = "report_date"
	MetaReportType           = "report_type"
	MetaPageCount            = "page_count"
	MetaExtractionConfidence = "extraction_confidence"
	MetaComments             = "comments"
	MetaContentType          = "content_type"
	MetaModel                = "model"
	MetaNote                 = "note"
)

// NoLabValuesNote is recorded in metadata when a document parses but holds no recognizable lab values.
const NoLabValuesNote = "no recognizable lab values found in document"

// TestValue holds a result that is either numeric or qualitative ("Negative", "<0.5").
type TestValue struct {
	Number *float64
	Text   string
}

// NumberValue returns a numeric TestValue.
func NumberValue(f float64) TestValue {
	return TestValue{Number: &f}
}

// TextValue returns a TestValue parsed from a string; numeric strings become numbers.
func TextValue(s string) TestValue {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return NumberValue(f)
	}
	return TestValue{Text: s}
}

// ParseTestValue converts a decoded JSON value into a TestValue.
func ParseTestValue(v any) TestValue {
	switch t := v.(type) {
	case nil:
		return TestValue{}
	case float64:
		return NumberValue(t)
	case int:
		return NumberValue(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f)
		}
		return TestValue{Text: t.String()}
	case string:
		return TextValue(t)
	default:
		return TestValue{Text: fmt.Sprint(t)}
	}
}

// IsZero reports whether no value was recorded.
func (v TestValue) IsZero() bool {
	return v.Number == nil && v.Text == ""
}

func (v TestValue) String() string {
	if v.Number != nil {
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	}
	return v.Text
}

func (v TestValue) MarshalJSON() ([]byte, error) {
	if v.Number != nil {
		return json.Marshal(*v.Number)
	}
	if v.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

func (v *TestValue) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = ParseTestValue(raw)
	return nil
}

// ReferenceRange is a numeric interval (either bound optional) or a qualitative expectation.
type ReferenceRange struct {
	Low  *float64 `json:"low,omitempty"`
	High *float64 `json:"high,omitempty"`
	Text string   `json:"text,omitempty"`
}

var (
	intervalRe   = regexp.MustCompile(`^\s*(\d*\.?\d+)\s*(?:-|–|—|to)\s*(\d*\.?\d+)`)
	upperBoundRe = regexp.MustCompile(`^\s*(?:<=?|≤|less than|up to)\s*(\d*\.?\d+)`)
	lowerBoundRe = regexp.MustCompile(`^\s*(?:>=?|≥|greater than|over)\s*(\d*\.?\d+)`)
)

// ParseReferenceRange parses "70-100", "<200", ">40" and keeps the original text for display.
// Anything else is treated as a qualitative range.
func ParseReferenceRange(s string) ReferenceRange {
	s = strings.TrimSpace(s)
	rr := ReferenceRange{Text: s}
	if s == "" {
		return rr
	}
	lower := strings.ToLower(s)
	if m := intervalRe.FindStringSubmatch(lower); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if lo <= hi {
			rr.Low, rr.High = &lo, &hi
		}
		return rr
	}
	if m := upperBoundRe.FindStringSubmatch(lower); m != nil {
		hi, _ := strconv.ParseFloat(m[1], 64)
		rr.High = &hi
		return rr
	}
	if m := lowerBoundRe.FindStringSubmatch(lower); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		rr.Low = &lo
	}
	return rr
}

// IsNumeric reports whether at least one numeric bound is known.
func (r ReferenceRange) IsNumeric() bool {
	return r.Low != nil || r.High != nil
}

// Evaluate derives a flag for v against the range. It returns FlagUnknown when
// the comparison is not possible.
func (r ReferenceRange) Evaluate(v TestValue) Flag {
	if v.Number != nil && r.IsNumeric() {
		if r.Low != nil && *v.Number < *r.Low {
			return FlagLow
		}
		if r.High != nil && *v.Number > *r.High {
			return FlagHigh
		}
		return FlagNormal
	}
	if v.Number == nil && v.Text != "" && !r.IsNumeric() && r.Text != "" {
		if strings.EqualFold(v.Text, r.Text) {
			return FlagNormal
		}
		return FlagAbnormal
	}
	return FlagUnknown
}

func (r ReferenceRange) String() string {
	if r.Text != "" {
		return r.Text
	}
	switch {
	case r.Low != nil && r.High != nil:
		return fmt.Sprintf("%s-%s", fmtFloat(*r.Low), fmtFloat(*r.High))
	case r.High != nil:
		return "<" + fmtFloat(*r.High)
	case r.Low != nil:
		return ">" + fmtFloat(*r.Low)
	}
	return ""
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TestResult is a single line of a lab report.
type TestResult struct {
	Name           string         `json:"name"`
	Category       string         `json:"category,omitempty"`
	Value          TestValue      `json:"value"`
	Unit           string         `json:"unit,omitempty"`
	ReferenceRange ReferenceRange `json:"reference_range"`
	Flag           Flag           `json:"flag"`
}

// StructuredReport is the canonical extraction output.
type StructuredReport struct {
	PatientInfo map[string]string `json:"patient_info"`
	TestResults []TestResult      `json:"test_results"`
	Metadata    map[string]string `json:"metadata"`
}

// NewStructuredReport returns an empty report whose collections are non-nil.
func NewStructuredReport() *StructuredReport {
	return &StructuredReport{
		PatientInfo: map[string]string{},
		TestResults: []TestResult{},
		Metadata:    map[string]string{},
	}
}

// AbnormalTests returns the tests whose flag is anything other than NORMAL, in source order.
func (r *StructuredReport) AbnormalTests() []TestResult {
	var out []TestResult
	for _, t := range r.TestResults {
		if t.Flag.IsAbnormal() {
			out = append(out, t)
		}
	}
	return out
}

// HasAnalyzableData reports whether the report carries any patient or test data.
func (r *StructuredReport) HasAnalyzableData() bool {
	return len(r.TestResults) > 0 || len(r.PatientInfo) > 0
}

// Clone returns a deep copy.
func (r *StructuredReport) Clone() *StructuredReport {
	if r == nil {
		return nil
	}
	out := &StructuredReport{
		PatientInfo: cloneStringMap(r.PatientInfo),
		TestResults: make([]TestResult, len(r.TestResults)),
		Metadata:    cloneStringMap(r.Metadata),
	}
	for i, t := range r.TestResults {
		if t.Value.Number != nil {
			n := *t.Value.Number
			t.Value.Number = &n
		}
		if t.ReferenceRange.Low != nil {
			lo := *t.ReferenceRange.Low
			t.ReferenceRange.Low = &lo
		}
		if t.ReferenceRange.High != nil {
			hi := *t.ReferenceRange.High
			t.ReferenceRange.High = &hi
		}
		out.TestResults[i] = t
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
