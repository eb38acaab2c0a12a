package service

import (
	"github.com/campusworks/exam-seating-api/internal/dto"
	"github.com/campusworks/exam-seating-api/internal/models"
)

// Presentation floor for rebuilt room grids: grids render at least seven rows
// of four seats even when fewer rows are occupied.
const (
	minPresentationRows  = 7
	minPresentationSeats = minPresentationRows * seatColumns
)

// DisplaySessionLabel maps a stored session value onto its verbose label.
// Rows persisted before sessions were stored verbosely hold bare digits.
func DisplaySessionLabel(stored string) string {
	switch stored {
	case "1":
		return models.SessionFN1
	case "2":
		return models.SessionFN2
	case "3":
		return models.SessionAN3
	case "4":
		return models.SessionAN4
	default:
		return stored
	}
}

// ReconstructPlan rebuilds a seating plan from persisted rows. Room capacity
// and the original roster are gone at this point, so grids are sized from the
// occupied seats with the presentation floor applied, and the summary fields
// that only exist at generation time stay zero.
func ReconstructPlan(rows []models.SeatAssignment) dto.SeatingPlanData {
	type roomKey struct {
		room    string
		session string
	}

	grouped := make(map[roomKey][]models.SeatAssignment)
	var order []roomKey
	physicalRooms := make(map[string]struct{})
	courseCounts := make(map[string]int)
	courseNames := make(map[string]string)
	var courseOrder []string

	for _, row := range rows {
		key := roomKey{room: row.Room, session: row.Session}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], row)
		physicalRooms[row.Room] = struct{}{}

		if _, seen := courseCounts[row.CourseCode]; !seen {
			courseOrder = append(courseOrder, row.CourseCode)
			courseNames[row.CourseCode] = row.CourseName
		}
		courseCounts[row.CourseCode]++
	}

	roomPlans := make([]dto.RoomPlan, 0, len(order))
	for _, key := range order {
		seats := grouped[key]
		maxRow, maxCol := 0, 0
		views := make([]dto.SeatView, 0, len(seats))
		for _, s := range seats {
			if s.SeatRow > maxRow {
				maxRow = s.SeatRow
			}
			if s.SeatColumn > maxCol {
				maxCol = s.SeatColumn
			}
			views = append(views, dto.SeatView{
				Row:     s.SeatRow,
				Col:     s.SeatColumn,
				Course:  s.CourseCode,
				Student: s.RegNo,
				Session: DisplaySessionLabel(s.Session),
				Time:    s.ExamTime,
			})
		}

		gridRows := maxRow
		if gridRows < minPresentationRows {
			gridRows = minPresentationRows
		}
		gridCols := maxCol
		if gridCols < seatColumns {
			gridCols = seatColumns
		}
		totalSeats := gridRows * gridCols
		if totalSeats < len(seats) {
			totalSeats = len(seats)
		}

		roomPlans = append(roomPlans, dto.RoomPlan{
			RoomNumber:     key.room,
			TotalSeats:     totalSeats,
			Rows:           gridRows,
			Columns:        gridCols,
			Seats:          views,
			Session:        SessionFilter(key.session),
			DisplaySession: DisplaySessionLabel(key.session),
			OriginalRoom:   key.room,
		})
	}

	courseStats := make([]dto.CourseStat, 0, len(courseOrder))
	for _, code := range courseOrder {
		courseStats = append(courseStats, dto.CourseStat{
			CourseCode:     code,
			CourseName:     courseNames[code],
			AllocatedSeats: courseCounts[code],
		})
	}

	summary := dto.AllocationSummary{
		TotalStudents: len(rows),
		TotalRooms:    len(physicalRooms),
		TotalCourses:  len(courseOrder),
	}
	if len(rows) > 0 {
		summary.ExamDate = rows[0].ExamDate
		summary.ExamType = rows[0].ExamType
	}

	return dto.SeatingPlanData{
		Summary:             summary,
		CourseStats:         courseStats,
		Rooms:               roomPlans,
		Warnings:            []dto.AllocationWarning{},
		UnallocatedStudents: []dto.UnallocatedStudent{},
	}
}
