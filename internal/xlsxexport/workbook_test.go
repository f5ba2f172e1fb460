package xlsxexport_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"labassist/internal/domain"
	"labassist/internal/xlsxexport"
)

func TestWrite_WithoutInterpretation(t *testing.T) {
	r := domain.NewStructuredReport()
	r.PatientInfo[domain.PatientName] = "Jane Doe"
	r.TestResults = []domain.TestResult{
		{Name: "Urine Protein", Value: domain.TextValue("Trace"), ReferenceRange: domain.ParseReferenceRange("Negative"), Flag: domain.FlagAbnormal},
	}

	var buf bytes.Buffer
	require.NoError(t, xlsxexport.Write(&buf, r, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Category", rows[0][0])
	assert.Equal(t, "Trace", rows[1][2])
	assert.Equal(t, "ABNORMAL", rows[1][5])

	label, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Patient name", label)
	value, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", value)
}
