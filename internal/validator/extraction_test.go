package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labassist/internal/domain"
	"labassist/internal/llm"
	"labassist/internal/validator"
)

const extractionJSON = "```json\n" + `{
  "patient": {"name": "Jane Doe", "dob": "1980-02-01", "gender": "F", "patient_id": 12345, "age": "44"},
  "clinic": {"name": "City Lab", "doctor": "null"},
  "report_info": {"collection_date": "2024-05-01", "report_date": "2024-05-02", "report_type": "CBC"},
  "tests": [
    {"category": "CBC", "name": "Hemoglobin", "result": 12.1, "unit": "g/dL", "reference_range": "13.5-17.5", "flag": "L"},
    {"category": "Chemistry", "name": "Glucose", "result": "92", "unit": "mg/dL", "reference_range": "70-100", "flag": null},
    {"category": "Lipid Panel", "name": "LDL", "result": 160, "unit": "mg/dL", "reference_range": "<100", "flag": ""},
    {"category": "Urinalysis", "name": "Urine Protein", "result": "Trace", "unit": null, "reference_range": "Negative", "flag": null}
  ],
  "comments": "Fasting sample",
  "confidence": 0.934
}` + "\n```"

func TestDecodeExtraction(t *testing.T) {
	report, err := validator.DecodeExtraction(extractionJSON)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", report.PatientInfo[domain.PatientName])
	assert.Equal(t, "F", report.PatientInfo[domain.PatientSex])
	assert.Equal(t, "12345", report.PatientInfo[domain.PatientID])
	assert.Equal(t, "44", report.PatientInfo[domain.PatientAge])
	assert.Equal(t, "2024-05-01", report.PatientInfo[domain.PatientCollectionDate])

	assert.Equal(t, "City Lab", report.Metadata[domain.MetaLabName])
	_, hasDoctor := report.Metadata[domain.MetaDoctor]
	assert.False(t, hasDoctor, `"null" strings are treated as absent`)
	assert.Equal(t, "CBC", report.Metadata[domain.MetaReportType])
	assert.Equal(t, "Fasting sample", report.Metadata[domain.MetaComments])
	assert.Equal(t, "0.93", report.Metadata[domain.MetaExtractionConfidence])
	assert.NotContains(t, report.Metadata, domain.MetaNote)

	require.Len(t, report.TestResults, 4)

	hgb := report.TestResults[0]
	assert.Equal(t, "Hemoglobin", hgb.Name)
	assert.Equal(t, domain.FlagLow, hgb.Flag)
	require.NotNil(t, hgb.Value.Number)
	assert.Equal(t, 12.1, *hgb.Value.Number)
	assert.Equal(t, "13.5-17.5", hgb.ReferenceRange.String())

	// Missing flags are derived from the value and range.
	assert.Equal(t, domain.FlagNormal, report.TestResults[1].Flag)
	assert.Equal(t, domain.FlagHigh, report.TestResults[2].Flag)
	assert.Equal(t, domain.FlagAbnormal, report.TestResults[3].Flag)
	assert.Empty(t, report.TestResults[3].Unit)
}

func TestDecodeExtraction_NoTests(t *testing.T) {
	report, err := validator.DecodeExtraction(`{"patient": {"name": "Jane Doe"}, "tests": []}`)
	require.NoError(t, err)

	assert.Empty(t, report.TestResults)
	assert.NotNil(t, report.TestResults)
	assert.Equal(t, domain.NoLabValuesNote, report.Metadata[domain.MetaNote])
}

func TestDecodeExtraction_UnknownFlagWithoutRange(t *testing.T) {
	report, err := validator.DecodeExtraction(`{"tests": [{"name": "Vitamin D", "result": 31, "flag": "see note"}]}`)
	require.NoError(t, err)
	assert.Equal(t, domain.FlagUnknown, report.TestResults[0].Flag)
}

func TestDecodeExtraction_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", llm.ErrEmptyResponse},
		{"prose", "Sorry, I cannot read this document.", llm.ErrMalformedResponse},
		{"broken json", `{"tests": [ {"name": }`, llm.ErrMalformedResponse},
		{"blank test name", `{"tests": [{"name": "  ", "result": 1}]}`, llm.ErrMalformedResponse},
		{"confidence out of range", `{"tests": [], "confidence": 7}`, llm.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.DecodeExtraction(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, llm.IsTransient(err))
		})
	}
}
