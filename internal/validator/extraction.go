package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"labassist/internal/domain"
	"labassist/internal/llm"
)

type patientDTO struct {
	Name      *string `json:"name"`
	DOB       *string `json:"dob"`
	Gender    *string `json:"gender"`
	PatientID any     `json:"patient_id"`
	Age       any     `json:"age"`
}

type clinicDTO struct {
	Name   *string `json:"name"`
	Doctor *string `json:"doctor"`
}

type reportInfoDTO struct {
	CollectionDate *string `json:"collection_date"`
	ReportDate     *string `json:"report_date"`
	ReportType     *string `json:"report_type"`
}

type testDTO struct {
	Category       *string `json:"category"`
	Name           string  `json:"name" validate:"nonblank"`
	Result         any     `json:"result"`
	Unit           *string `json:"unit"`
	ReferenceRange any     `json:"reference_range"`
	Flag           *string `json:"flag"`
}

type extractionDTO struct {
	Patient    *patientDTO    `json:"patient"`
	Clinic     *clinicDTO     `json:"clinic"`
	ReportInfo *reportInfoDTO `json:"report_info"`
	Tests      []testDTO      `json:"tests" validate:"dive"`
	Comments   *string        `json:"comments"`
	Confidence *float64       `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

// DecodeExtraction parses and validates extractor model output into a StructuredReport.
// Flags are normalized; a missing or unrecognized flag is derived from the value and
// reference range when possible. A report with no tests gets NoLabValuesNote.
func DecodeExtraction(text string) (*domain.StructuredReport, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var dto extractionDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return nil, fmt.Errorf("%w: decoding extraction JSON: %v (raw: %s)", llm.ErrMalformedResponse, err, llm.Truncate(raw, 200))
	}
	if err := validate.Struct(dto); err != nil {
		return nil, schemaError("extraction", err)
	}

	report := domain.NewStructuredReport()

	if p := dto.Patient; p != nil {
		setIf(report.PatientInfo, domain.PatientName, str(p.Name))
		setIf(report.PatientInfo, domain.PatientDOB, str(p.DOB))
		setIf(report.PatientInfo, domain.PatientSex, str(p.Gender))
		setIf(report.PatientInfo, domain.PatientID, scalar(p.PatientID))
		setIf(report.PatientInfo, domain.PatientAge, scalar(p.Age))
	}
	if c := dto.Clinic; c != nil {
		setIf(report.Metadata, domain.MetaLabName, str(c.Name))
		setIf(report.Metadata, domain.MetaDoctor, str(c.Doctor))
	}
	if ri := dto.ReportInfo; ri != nil {
		setIf(report.PatientInfo, domain.PatientCollectionDate, str(ri.CollectionDate))
		setIf(report.Metadata, domain.MetaReportDate, str(ri.ReportDate))
		setIf(report.Metadata, domain.MetaReportType, str(ri.ReportType))
	}
	setIf(report.Metadata, domain.MetaComments, str(dto.Comments))
	if dto.Confidence != nil {
		report.Metadata[domain.MetaExtractionConfidence] = strconv.FormatFloat(*dto.Confidence, 'f', 2, 64)
	}

	for _, t := range dto.Tests {
		report.TestResults = append(report.TestResults, toTestResult(t))
	}
	if len(report.TestResults) == 0 {
		report.Metadata[domain.MetaNote] = domain.NoLabValuesNote
	}

	return report, nil
}

func toTestResult(t testDTO) domain.TestResult {
	tr := domain.TestResult{
		Name:           strings.TrimSpace(t.Name),
		Category:       str(t.Category),
		Value:          domain.ParseTestValue(t.Result),
		Unit:           str(t.Unit),
		ReferenceRange: domain.ParseReferenceRange(scalar(t.ReferenceRange)),
	}
	tr.Flag = domain.ParseFlag(str(t.Flag))
	if tr.Flag == domain.FlagUnknown {
		tr.Flag = tr.ReferenceRange.Evaluate(tr.Value)
	}
	return tr
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "n/a") {
		return ""
	}
	return v
}

// scalar renders a JSON string or number as text.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return str(&t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func setIf(m map[string]string, key, val string) {
	if val != "" {
		m[key] = val
	}
}
