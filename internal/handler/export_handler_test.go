package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/exam-seating-api/internal/service"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
)

type exporterMock struct {
	result *service.ExportResult
	err    error

	lastFormat string
	lastDate   string
	lastType   string
}

func (m *exporterMock) Generate(ctx context.Context, format, examDate, examType string) (*service.ExportResult, error) {
	m.lastFormat = format
	m.lastDate = examDate
	m.lastType = examType
	return m.result, m.err
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{result: &service.ExportResult{
		Filename:    "seating_2026-09-10_Internal.csv",
		ContentType: "text/csv",
		Payload:     []byte("Reg No.\n"),
	}}
	h := &ExportHandler{service: mockSvc, enabled: true}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/seating/export?format=csv&date=2026-09-10&type=Internal", nil)
	c.Request = req

	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "seating_2026-09-10_Internal.csv")
	assert.Equal(t, "Reg No.\n", w.Body.String())
}

func TestExportHandlerDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ExportHandler{service: &exporterMock{}, enabled: false}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/seating/export?format=csv", nil)
	c.Request = req

	h.Download(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportHandlerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ExportHandler{
		service: &exporterMock{err: appErrors.Clone(appErrors.ErrNotFound, "no seating arrangement to export")},
		enabled: true,
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/seating/export?format=csv", nil)
	c.Request = req

	h.Download(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
