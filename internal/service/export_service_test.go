package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/exam-seating-api/internal/models"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
)

func newExportFixture(store *fakeAllocationStore) *ExportService {
	return NewExportService(store, zap.NewNop(), nil, nil, nil)
}

func exportRows() []models.SeatAssignment {
	return []models.SeatAssignment{
		seatRow("A-1", "MA101", models.SessionFN1, "R1", 1, 1),
		seatRow("B-1", "PH102", models.SessionFN1, "R1", 1, 2),
	}
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(newFakeAllocationStore())

	_, err := svc.Generate(context.Background(), "docx", "2026-09-10", "Internal")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceNothingToExport(t *testing.T) {
	svc := newExportFixture(newFakeAllocationStore())

	_, err := svc.Generate(context.Background(), "csv", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceCSV(t *testing.T) {
	store := newFakeAllocationStore()
	store.rows = exportRows()
	svc := newExportFixture(store)

	result, err := svc.Generate(context.Background(), "csv", "2026-09-10", "Internal")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Reg No.")
	assert.Contains(t, body, "A-1")
	assert.Contains(t, body, models.SessionFN1)
}

func TestExportServiceDefaultsToLatest(t *testing.T) {
	store := newFakeAllocationStore()
	store.latestErr = nil
	store.latestDate = "2026-09-10"
	store.latestType = "Internal"
	store.rows = exportRows()
	svc := newExportFixture(store)

	result, err := svc.Generate(context.Background(), "csv", "", "")
	require.NoError(t, err)
	assert.Contains(t, result.Filename, "2026-09-10")
}

func TestExportServicePDFAndXLSX(t *testing.T) {
	store := newFakeAllocationStore()
	store.rows = exportRows()
	svc := newExportFixture(store)

	pdf, err := svc.Generate(context.Background(), "pdf", "2026-09-10", "Internal")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.NotEmpty(t, pdf.Payload)

	xlsx, err := svc.Generate(context.Background(), "XLSX", "2026-09-10", "Internal")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(xlsx.Filename, ".xlsx"))
	assert.NotEmpty(t, xlsx.Payload)
}

func TestExportServiceNoRowsForExam(t *testing.T) {
	store := newFakeAllocationStore()
	svc := newExportFixture(store)

	_, err := svc.Generate(context.Background(), "csv", "2026-01-01", "Internal")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
