// Package roster parses the uploaded student and room spreadsheets into
// in-memory records. The first row is treated as a header; column order is
// flexible and header matching is case-insensitive.
package roster

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/campusworks/exam-seating-api/internal/models"
)

var (
	ErrNoData    = fmt.Errorf("spreadsheet has no data rows below the header")
	ErrBadHeader = fmt.Errorf("spreadsheet header is missing required columns")
)

// ErrTooManyRows is returned when the sheet exceeds the configured row cap.
type ErrTooManyRows struct {
	Limit int
}

func (e *ErrTooManyRows) Error() string {
	return fmt.Sprintf("spreadsheet exceeds the %d data row limit", e.Limit)
}

// ParseStudents reads the student roster workbook from the first sheet.
// Required columns: Reg No., Student Name, COURSE CODE, COURSE NAME.
// SESSION and Time/Exam Time are optional.
func ParseStudents(reader io.Reader, maxRows int) ([]models.StudentRecord, error) {
	rows, err := sheetRows(reader)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	idx := studentHeaderIndex(rows[0])
	if idx.regNo < 0 || idx.name < 0 || idx.courseCode < 0 || idx.courseName < 0 {
		return nil, ErrBadHeader
	}

	students := make([]models.StudentRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := models.StudentRecord{
			RegNo:      cellAt(row, idx.regNo),
			Name:       cellAt(row, idx.name),
			CourseCode: cellAt(row, idx.courseCode),
			CourseName: cellAt(row, idx.courseName),
			Session:    cellAt(row, idx.session),
			ExamTime:   cellAt(row, idx.examTime),
		}
		if rec.RegNo == "" && rec.Name == "" && rec.CourseCode == "" {
			continue
		}
		students = append(students, rec)
	}

	if len(students) == 0 {
		return nil, ErrNoData
	}
	if maxRows > 0 && len(students) > maxRows {
		return nil, &ErrTooManyRows{Limit: maxRows}
	}
	return students, nil
}

// ParseRooms reads the room roster workbook from the first sheet.
// Required columns: Class Room, Capacity. Rows with a missing name or a
// non-positive capacity are discarded.
func ParseRooms(reader io.Reader, maxRows int) ([]models.RoomRecord, error) {
	rows, err := sheetRows(reader)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	nameIdx, capIdx := -1, -1
	for i, h := range rows[0] {
		switch normalizeHeader(h) {
		case "class room", "classroom", "room", "room name":
			nameIdx = i
		case "capacity", "seats":
			capIdx = i
		}
	}
	if nameIdx < 0 || capIdx < 0 {
		return nil, ErrBadHeader
	}

	rooms := make([]models.RoomRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cellAt(row, nameIdx)
		capacity, _ := strconv.Atoi(cellAt(row, capIdx))
		if name == "" || capacity <= 0 {
			continue
		}
		rooms = append(rooms, models.RoomRecord{Name: name, Capacity: capacity})
	}

	if len(rooms) == 0 {
		return nil, ErrNoData
	}
	if maxRows > 0 && len(rooms) > maxRows {
		return nil, &ErrTooManyRows{Limit: maxRows}
	}
	return rooms, nil
}

func sheetRows(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

type studentColumns struct {
	regNo      int
	name       int
	courseCode int
	courseName int
	session    int
	examTime   int
}

func studentHeaderIndex(header []string) studentColumns {
	idx := studentColumns{regNo: -1, name: -1, courseCode: -1, courseName: -1, session: -1, examTime: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "reg no.", "reg no", "regno", "register number":
			idx.regNo = i
		case "student name", "name":
			idx.name = i
		case "course code":
			idx.courseCode = i
		case "course name":
			idx.courseName = i
		case "session":
			idx.session = i
		case "time", "exam time":
			idx.examTime = i
		}
	}
	return idx
}

func normalizeHeader(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
