package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"labassist/internal/csvexport"
	"labassist/internal/domain"
	"labassist/internal/port"
	"labassist/internal/service"
	"labassist/mocks"
)

func interpretedFixture() *domain.Session {
	return &domain.Session{
		ID:             uuid.New(),
		Status:         domain.StatusInterpreted,
		Progress:       domain.StatusInterpreted,
		Report:         testReport(),
		Interpretation: testInterpretation(),
		History:        []domain.ConversationTurn{},
	}
}

func TestRender_CSV(t *testing.T) {
	session := interpretedFixture()
	session.Report.Metadata[domain.MetaReportDate] = "2025-01-15"
	out, err := service.Render(session, service.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)
	assert.Equal(t, "lab_report_"+session.ID.String()[:8]+"_2025-01-15.csv", out.Filename)
	assert.NotContains(t, out.Filename, "Jane")
	require.True(t, bytes.HasPrefix(out.Data, csvexport.BOM))

	rows, err := csv.NewReader(bytes.NewReader(out.Data[len(csvexport.BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvexport.Columns, rows[0])
	assert.Equal(t, "Glucose", rows[1][1])
	assert.Equal(t, "HIGH", rows[1][5])
	assert.Equal(t, "ATTENTION", rows[1][6])
}

func TestRender_XLSX(t *testing.T) {
	out, err := service.Render(interpretedFixture(), service.FormatXLSX)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.Filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(out.Data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Results", "Summary"}, f.GetSheetList())

	name, err := f.GetCellValue("Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Glucose", name)

	value, err := f.GetCellValue("Results", "C2")
	require.NoError(t, err)
	assert.Equal(t, "180", value)

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	var labels []string
	for _, r := range rows {
		labels = append(labels, r[0])
	}
	assert.Contains(t, labels, "Summary")
	assert.Contains(t, labels, "Disclaimer")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := service.Render(interpretedFixture(), "pdf")
	assert.ErrorIs(t, err, service.ErrUnknownFormat)
}

func TestExportService_Export(t *testing.T) {
	session := interpretedFixture()
	orch := new(mocks.MockOrchestrator)
	orch.On("Session", session.ID).Return(session, nil)

	out, err := service.NewExportService(orch, nil, nil).Export(context.Background(), session.ID, service.FormatCSV)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Data)
}

func TestExportService_Export_NoReport(t *testing.T) {
	session := &domain.Session{ID: uuid.New(), Status: domain.StatusError, Progress: domain.StatusEmpty}
	orch := new(mocks.MockOrchestrator)
	orch.On("Session", session.ID).Return(session, nil)

	_, err := service.NewExportService(orch, nil, nil).Export(context.Background(), session.ID, service.FormatCSV)
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestExportService_Export_NotFound(t *testing.T) {
	id := uuid.New()
	orch := new(mocks.MockOrchestrator)
	orch.On("Session", id).Return(nil, domain.ErrSessionNotFound)

	_, err := service.NewExportService(orch, nil, nil).Export(context.Background(), id, service.FormatCSV)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestExportService_ExportToStorage(t *testing.T) {
	session := interpretedFixture()
	orch := new(mocks.MockOrchestrator)
	orch.On("Session", session.ID).Return(session, nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "reports" &&
			strings.HasPrefix(in.Key, "exports/"+session.ID.String()+"/lab_report_"+session.ID.String()[:8]+"_") &&
			!strings.Contains(in.Key, "Jane") &&
			in.ContentType == "text/csv; charset=utf-8"
	})).Return(&port.UploadOutput{Location: "s3://reports/x.csv", ETag: "etag"}, nil)

	out, err := service.NewExportService(orch, storage, nil).
		ExportToStorage(context.Background(), session.ID, service.FormatCSV, "reports", "")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/x.csv", out.Location)
	storage.AssertExpectations(t)
}

func TestExportService_ExportToStorage_ExplicitKey(t *testing.T) {
	session := interpretedFixture()
	orch := new(mocks.MockOrchestrator)
	orch.On("Session", session.ID).Return(session, nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Key == "custom/results.xlsx" && in.Body != nil
	})).Return(nil, errors.New("access denied"))

	_, err := service.NewExportService(orch, storage, nil).
		ExportToStorage(context.Background(), session.ID, service.FormatXLSX, "reports", "custom/results.xlsx")
	assert.EqualError(t, err, "access denied")
}

func TestExportService_ExportToStorage_NotConfigured(t *testing.T) {
	orch := new(mocks.MockOrchestrator)

	_, err := service.NewExportService(orch, nil, nil).
		ExportToStorage(context.Background(), uuid.New(), service.FormatCSV, "reports", "")
	assert.ErrorIs(t, err, domain.ErrStorageNotConfigured)
	orch.AssertNotCalled(t, "Session", mock.Anything)
}

func TestImportService_Import(t *testing.T) {
	session := interpretedFixture()
	storage := new(mocks.MockObjectStorage)
	storage.On("Download", mock.Anything, "uploads", "jane.txt", int64(0)).Return([]byte(glucoseDoc), nil)
	orch := new(mocks.MockOrchestrator)
	orch.On("Analyze", mock.Anything, uuid.Nil, []byte(glucoseDoc)).Return(session, nil)

	got, err := service.NewImportService(storage, orch, 0, nil).Import(context.Background(), uuid.Nil, "uploads", "jane.txt")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	orch.AssertExpectations(t)
}

func TestImportService_Import_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := service.NewImportService(nil, new(mocks.MockOrchestrator), 0, nil).
			Import(context.Background(), uuid.Nil, "b", "k")
		assert.ErrorIs(t, err, domain.ErrStorageNotConfigured)
	})

	t.Run("download fails", func(t *testing.T) {
		storage := new(mocks.MockObjectStorage)
		storage.On("Download", mock.Anything, "b", "k", int64(0)).Return(nil, errors.New("no such key"))
		orch := new(mocks.MockOrchestrator)

		_, err := service.NewImportService(storage, orch, 0, nil).Import(context.Background(), uuid.Nil, "b", "k")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such key")
		orch.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too large", func(t *testing.T) {
		storage := new(mocks.MockObjectStorage)
		storage.On("Download", mock.Anything, "b", "k", int64(8)).Return(nil, domain.ErrDocumentTooLarge)
		orch := new(mocks.MockOrchestrator)

		_, err := service.NewImportService(storage, orch, 8, nil).
			Import(context.Background(), uuid.Nil, "b", "k")
		assert.ErrorIs(t, err, domain.ErrDocumentTooLarge)
		storage.AssertExpectations(t)
		orch.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
	})
}
