package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/exam-seating-api/internal/dto"
	"github.com/campusworks/exam-seating-api/internal/models"
	"github.com/campusworks/exam-seating-api/internal/service"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
	"github.com/campusworks/exam-seating-api/pkg/response"
	"github.com/campusworks/exam-seating-api/pkg/roster"
)

type seatingPlanner interface {
	Generate(ctx context.Context, params dto.GenerateSeatingParams, students []models.StudentRecord, rooms []models.RoomRecord) (*dto.GenerateSeatingResponse, error)
	Latest(ctx context.Context) (*dto.CurrentSeatingResponse, error)
	Search(ctx context.Context, examDate, examType string) (*dto.SearchSeatingResponse, error)
	Lookup(ctx context.Context, regNo string) ([]dto.StudentSeatView, error)
	Clear(ctx context.Context, examDate, examType string) (*dto.ClearSeatingResponse, error)
}

// SeatingHandler exposes the seating plan endpoints.
type SeatingHandler struct {
	service       seatingPlanner
	maxRosterRows int
}

// NewSeatingHandler constructs the handler.
func NewSeatingHandler(svc *service.SeatingService, maxRosterRows int) *SeatingHandler {
	return &SeatingHandler{service: svc, maxRosterRows: maxRosterRows}
}

// Generate godoc
// @Summary Generate seating arrangement from uploaded rosters
// @Description Replaces any existing plan for the exam day. Expects multipart form with student and room workbooks.
// @Tags Seating
// @Accept multipart/form-data
// @Produce json
// @Param exam_date formData string true "Exam date (YYYY-MM-DD)"
// @Param exam_type formData string true "Exam type"
// @Param students formData file true "Student roster workbook (.xlsx)"
// @Param rooms formData file true "Room roster workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /seating/generate [post]
func (h *SeatingHandler) Generate(c *gin.Context) {
	params := dto.GenerateSeatingParams{
		ExamDate: c.PostForm("exam_date"),
		ExamType: c.PostForm("exam_type"),
	}

	var students []models.StudentRecord
	if err := h.withUpload(c, "students", func(file multipart.File) error {
		var parseErr error
		students, parseErr = roster.ParseStudents(file, h.maxRosterRows)
		return parseErr
	}); err != nil {
		response.Error(c, err)
		return
	}

	var rooms []models.RoomRecord
	if err := h.withUpload(c, "rooms", func(file multipart.File) error {
		var parseErr error
		rooms, parseErr = roster.ParseRooms(file, h.maxRosterRows)
		return parseErr
	}); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), params, students, rooms)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Current godoc
// @Summary Get the most recently generated seating plan
// @Tags Seating
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /seating/current [get]
func (h *SeatingHandler) Current(c *gin.Context) {
	result, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// View godoc
// @Summary Get the seating plan of a specific exam day
// @Tags Seating
// @Produce json
// @Param date query string true "Exam date (YYYY-MM-DD)"
// @Param type query string true "Exam type"
// @Success 200 {object} response.Envelope
// @Router /seating/view [get]
func (h *SeatingHandler) View(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), c.Query("date"), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Student godoc
// @Summary Look up the seats of one register number
// @Tags Seating
// @Produce json
// @Param regno path string true "Register number"
// @Success 200 {object} response.Envelope
// @Router /seating/student/{regno} [get]
func (h *SeatingHandler) Student(c *gin.Context) {
	views, err := h.service.Lookup(c.Request.Context(), c.Param("regno"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Clear godoc
// @Summary Delete the seating plan of one exam day
// @Tags Seating
// @Produce json
// @Param date query string true "Exam date (YYYY-MM-DD)"
// @Param type query string true "Exam type"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /seating/clear [delete]
func (h *SeatingHandler) Clear(c *gin.Context) {
	result, err := h.service.Clear(c.Request.Context(), c.Query("date"), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *SeatingHandler) withUpload(c *gin.Context, field string, parse func(multipart.File) error) error {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing %s file upload", field))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, fmt.Sprintf("unreadable %s file upload", field))
	}
	defer file.Close()

	if err := parse(file); err != nil {
		return mapRosterError(field, err)
	}
	return nil
}

func mapRosterError(field string, err error) error {
	var tooMany *roster.ErrTooManyRows
	switch {
	case errors.Is(err, roster.ErrNoData):
		return appErrors.Wrap(err, appErrors.ErrEmptyDataset.Code, http.StatusBadRequest, fmt.Sprintf("%s workbook has no usable rows", field))
	case errors.Is(err, roster.ErrBadHeader), errors.As(err, &tooMany):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, fmt.Sprintf("invalid %s workbook: %v", field, err))
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, fmt.Sprintf("could not parse %s workbook", field))
	}
}
