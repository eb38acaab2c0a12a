package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/exam-seating-api/internal/models"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
	"github.com/campusworks/exam-seating-api/pkg/export"
)

// Export formats accepted by the download endpoint.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

type exportSeatSource interface {
	LatestExam(ctx context.Context) (examDate, examType string, err error)
	ListByExam(ctx context.Context, examDate, examType string) ([]models.SeatAssignment, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportResult carries one rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders persisted seating plans into downloadable files.
type ExportService struct {
	seats  exportSeatSource
	csv    csvRenderer
	pdf    pdfRenderer
	xlsx   xlsxRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(seats exportSeatSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{seats: seats, csv: csv, pdf: pdf, xlsx: xlsx, logger: logger}
}

// Generate renders the seating plan of the given exam day, or of the most
// recent run when the exam key is empty.
func (s *ExportService) Generate(ctx context.Context, format, examDate, examType string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	if examDate == "" || examType == "" {
		latestDate, latestType, err := s.seats.LatestExam(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "no seating arrangement to export")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve latest exam")
		}
		examDate, examType = latestDate, latestType
	}

	rows, err := s.seats.ListByExam(ctx, examDate, examType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seat assignments")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no seating arrangement found for %s (%s)", examDate, examType))
	}

	dataset := buildSeatingDataset(rows)
	title := fmt.Sprintf("Seating Arrangement %s (%s)", examDate, examType)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	case ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, "Seating")
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("seating_%s_%s_%s.%s",
		sanitizeFilename(examDate),
		sanitizeFilename(examType),
		time.Now().UTC().Format("20060102_150405"),
		format)

	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildSeatingDataset(rows []models.SeatAssignment) export.Dataset {
	headers := []string{"Reg No.", "Student Name", "Course Code", "Course Name", "Session", "Room", "Row", "Column", "Exam Date", "Exam Type", "Time"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		examTime := ""
		if row.ExamTime != nil {
			examTime = *row.ExamTime
		}
		dataRows = append(dataRows, map[string]string{
			"Reg No.":      row.RegNo,
			"Student Name": row.StudentName,
			"Course Code":  row.CourseCode,
			"Course Name":  row.CourseName,
			"Session":      DisplaySessionLabel(row.Session),
			"Room":         row.Room,
			"Row":          fmt.Sprintf("%d", row.SeatRow),
			"Column":       fmt.Sprintf("%d", row.SeatColumn),
			"Exam Date":    row.ExamDate,
			"Exam Type":    row.ExamType,
			"Time":         examTime,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
