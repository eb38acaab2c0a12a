package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/exam-seating-api/internal/service"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
	"github.com/campusworks/exam-seating-api/pkg/response"
)

type planExporter interface {
	Generate(ctx context.Context, format, examDate, examType string) (*service.ExportResult, error)
}

// ExportHandler streams rendered seating plan downloads.
type ExportHandler struct {
	service planExporter
	enabled bool
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService, enabled bool) *ExportHandler {
	return &ExportHandler{service: svc, enabled: enabled}
}

// Download godoc
// @Summary Download the seating plan as csv, pdf or xlsx
// @Tags Seating
// @Produce octet-stream
// @Param format query string true "Export format (csv, pdf, xlsx)"
// @Param date query string false "Exam date (YYYY-MM-DD), defaults to the latest plan"
// @Param type query string false "Exam type, defaults to the latest plan"
// @Security BearerAuth
// @Router /seating/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	result, err := h.service.Generate(c.Request.Context(), c.Query("format"), c.Query("date"), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
