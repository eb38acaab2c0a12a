package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/campusworks/exam-seating-api/internal/dto"
	"github.com/campusworks/exam-seating-api/internal/models"
)

const (
	seatColumns     = 4
	courseBuckets   = 4
	lowUtilization  = 50.0
	patternRowCycle = 7
)

// seatPattern interleaves the four course buckets across a room grid. Rows
// alternate between the two 4-column phases with a 7-row period so that
// vertically adjacent seats prefer different buckets.
var seatPattern = [patternRowCycle][seatColumns]int{
	{0, 1, 2, 3},
	{2, 3, 0, 1},
	{0, 1, 2, 3},
	{2, 3, 0, 1},
	{0, 1, 2, 3},
	{2, 3, 0, 1},
	{0, 1, 2, 3},
}

// NormalizeSession maps a raw roster session value onto one of the six
// canonical labels. Unrecognized or blank values default to FN. The mapping
// is idempotent: canonical labels normalize to themselves.
func NormalizeSession(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case upper == "1" || upper == "I" || strings.Contains(upper, "SESSION 1") || strings.Contains(upper, "SESSION-1") || upper == "S1":
		return models.SessionFN1
	case upper == "2" || upper == "II" || strings.Contains(upper, "SESSION 2") || strings.Contains(upper, "SESSION-2") || upper == "S2":
		return models.SessionFN2
	case upper == "3" || upper == "III" || strings.Contains(upper, "SESSION 3") || strings.Contains(upper, "SESSION-3") || upper == "S3":
		return models.SessionAN3
	case upper == "4" || upper == "IV" || strings.Contains(upper, "SESSION 4") || strings.Contains(upper, "SESSION-4") || upper == "S4":
		return models.SessionAN4
	case upper == "FN" || strings.Contains(upper, "FORENOON") || strings.Contains(upper, "MORNING"):
		return models.SessionFN
	case upper == "AN" || strings.Contains(upper, "AFTERNOON") || strings.Contains(upper, "EVENING"):
		return models.SessionAN
	default:
		return models.SessionFN
	}
}

// SessionFilter reduces a stored session value to the coarse FN/AN half used
// for filtering. Bare digits are accepted for rows persisted before sessions
// were stored verbosely.
func SessionFilter(session string) string {
	upper := strings.ToUpper(strings.TrimSpace(session))
	switch {
	case strings.Contains(upper, "FN") || strings.Contains(upper, "SESSION 1") || strings.Contains(upper, "SESSION 2") || upper == "1" || upper == "2":
		return models.SessionFN
	case strings.Contains(upper, "AN") || strings.Contains(upper, "SESSION 3") || strings.Contains(upper, "SESSION 4") || upper == "3" || upper == "4":
		return models.SessionAN
	default:
		return models.SessionFN
	}
}

// AllocationOutcome is the result of one pure allocation run.
type AllocationOutcome struct {
	Plan        dto.SeatingPlanData
	Assignments []models.SeatAssignment
}

// courseQueue holds the waiting students of one course within a session, in
// roster order. Dequeues are FIFO.
type courseQueue struct {
	code     string
	students []models.StudentRecord
}

func (q *courseQueue) hasWaiting() bool {
	return len(q.students) > 0
}

func (q *courseQueue) dequeue() models.StudentRecord {
	head := q.students[0]
	q.students = q.students[1:]
	return head
}

// sessionState carries one canonical session through placement. Courses are
// kept in an explicitly ordered slice: descending group size, encounter order
// on ties. Map iteration is never used for placement decisions.
type sessionState struct {
	label   string
	courses []*courseQueue
	buckets [courseBuckets][]*courseQueue
}

func (s *sessionState) hasWaiting() bool {
	for _, q := range s.courses {
		if q.hasWaiting() {
			return true
		}
	}
	return false
}

// partitionCourses distributes the session's courses over the four buckets
// with a greedy longest-first heuristic: courses are taken largest first and
// each goes to the bucket with the smallest running seat demand (lowest index
// on ties).
func (s *sessionState) partitionCourses() {
	var demand [courseBuckets]int
	for _, q := range s.courses {
		minIdx := 0
		for i := 1; i < courseBuckets; i++ {
			if demand[i] < demand[minIdx] {
				minIdx = i
			}
		}
		s.buckets[minIdx] = append(s.buckets[minIdx], q)
		demand[minIdx] += len(q.students)
	}
}

// roomGrid tracks which course occupies each filled seat of the room being
// placed, for the adjacency safety check.
type roomGrid struct {
	courseAt map[[2]int]string
}

func newRoomGrid() *roomGrid {
	return &roomGrid{courseAt: make(map[[2]int]string)}
}

// safe reports whether course may sit at (row, col): it must differ from the
// occupant directly to the left and the occupant directly in front (previous
// row, same column).
func (g *roomGrid) safe(course string, row, col int) bool {
	if left, ok := g.courseAt[[2]int{row, col - 1}]; ok && left == course {
		return false
	}
	if front, ok := g.courseAt[[2]int{row - 1, col}]; ok && front == course {
		return false
	}
	return true
}

func (g *roomGrid) occupy(course string, row, col int) {
	g.courseAt[[2]int{row, col}] = course
}

// AllocateSeating runs the full allocation pipeline for one exam day: session
// normalization, per-session course bucketing, and room-by-room greedy seat
// placement under the adjacency rule. It is a pure function of its inputs and
// performs no I/O; identical inputs produce identical outcomes.
func AllocateSeating(students []models.StudentRecord, rooms []models.RoomRecord, examDate, examType string) *AllocationOutcome {
	// Normalization rewrites the session field; work on a copy so callers
	// keep their raw rows.
	roster := make([]models.StudentRecord, len(students))
	copy(roster, students)
	for i := range roster {
		roster[i].Session = NormalizeSession(roster[i].Session)
	}

	courseNames := make(map[string]string)
	courseTotals := make(map[string]int)
	var courseOrder []string
	for _, s := range roster {
		if s.CourseCode == "" {
			continue
		}
		if _, seen := courseNames[s.CourseCode]; !seen {
			courseNames[s.CourseCode] = s.CourseName
			courseOrder = append(courseOrder, s.CourseCode)
		}
		courseTotals[s.CourseCode]++
	}

	sessions := buildSessions(roster)

	// Larger rooms fill first; equal capacities keep roster order.
	sortedRooms := make([]models.RoomRecord, len(rooms))
	copy(sortedRooms, rooms)
	sort.SliceStable(sortedRooms, func(i, j int) bool {
		return sortedRooms[i].Capacity > sortedRooms[j].Capacity
	})

	totalCapacity := 0
	for _, r := range sortedRooms {
		totalCapacity += r.Capacity
	}

	allocated := make(map[string]int, len(courseOrder))
	totalAllocated := 0
	var assignments []models.SeatAssignment
	var roomPlans []dto.RoomPlan
	var unallocated []dto.UnallocatedStudent

	for _, session := range sessions {
		if len(session.courses) == 0 {
			continue
		}
		session.partitionCourses()

		for _, room := range sortedRooms {
			if room.Name == "" || room.Capacity <= 0 {
				continue
			}
			if !session.hasWaiting() {
				break
			}

			seats, placed := placeRoom(session, room, examDate, examType)
			if len(seats) == 0 {
				continue
			}
			assignments = append(assignments, placed...)
			for _, a := range placed {
				allocated[a.CourseCode]++
			}
			totalAllocated += len(placed)

			roomPlans = append(roomPlans, dto.RoomPlan{
				RoomNumber:     room.Name,
				TotalSeats:     room.Capacity,
				Rows:           (room.Capacity + seatColumns - 1) / seatColumns,
				Columns:        seatColumns,
				Seats:          seats,
				Session:        SessionFilter(session.label),
				DisplaySession: session.label,
				OriginalRoom:   room.Name,
			})
		}

		for _, q := range session.courses {
			for _, s := range q.students {
				unallocated = append(unallocated, dto.UnallocatedStudent{
					RegNo:      s.RegNo,
					Name:       s.Name,
					Course:     q.code,
					CourseName: courseNames[q.code],
					Session:    s.Session,
					Time:       s.ExamTime,
				})
			}
		}
	}

	warnings := buildWarnings(unallocated, courseNames, totalAllocated, totalCapacity)

	utilization := 0.0
	if totalCapacity > 0 {
		utilization = roundRate(float64(totalAllocated) / float64(totalCapacity) * 100)
	}

	courseStats := make([]dto.CourseStat, 0, len(courseOrder))
	for _, code := range courseOrder {
		courseStats = append(courseStats, dto.CourseStat{
			CourseCode:     code,
			CourseName:     courseNames[code],
			AllocatedSeats: allocated[code],
			TotalStudents:  courseTotals[code],
			Unallocated:    courseTotals[code] - allocated[code],
		})
	}

	return &AllocationOutcome{
		Plan: dto.SeatingPlanData{
			Summary: dto.AllocationSummary{
				TotalStudents:      totalAllocated,
				TotalRooms:         len(roomPlans),
				TotalCourses:       len(courseOrder),
				TotalInputStudents: len(roster),
				UnallocatedCount:   len(unallocated),
				UtilizationRate:    utilization,
				ExamType:           examType,
				ExamDate:           examDate,
			},
			CourseStats:         courseStats,
			Rooms:               roomPlans,
			Warnings:            warnings,
			UnallocatedStudents: unallocated,
		},
		Assignments: assignments,
	}
}

// buildSessions groups the normalized roster into per-session course queues.
// Sessions are processed in descending lexicographic label order (FN-labeled
// sessions before AN); courses are ordered by descending size with encounter
// order breaking ties.
func buildSessions(roster []models.StudentRecord) []*sessionState {
	grouped := make(map[string][]models.StudentRecord)
	var labels []string
	for _, s := range roster {
		if _, seen := grouped[s.Session]; !seen {
			labels = append(labels, s.Session)
		}
		grouped[s.Session] = append(grouped[s.Session], s)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))

	sessions := make([]*sessionState, 0, len(labels))
	for _, label := range labels {
		state := &sessionState{label: label}
		index := make(map[string]*courseQueue)
		for _, s := range grouped[label] {
			if s.CourseCode == "" {
				continue
			}
			q, ok := index[s.CourseCode]
			if !ok {
				q = &courseQueue{code: s.CourseCode}
				index[s.CourseCode] = q
				state.courses = append(state.courses, q)
			}
			q.students = append(q.students, s)
		}
		sort.SliceStable(state.courses, func(i, j int) bool {
			return len(state.courses[i].students) > len(state.courses[j].students)
		})
		sessions = append(sessions, state)
	}
	return sessions
}

// placeRoom walks the room grid row by row, column by column, seating one
// student per slot. The slot's pattern bucket is tried first; when it has no
// safe candidate the scan falls back to every course in the session, largest
// first. Slots with no safe candidate stay empty.
func placeRoom(session *sessionState, room models.RoomRecord, examDate, examType string) ([]dto.SeatView, []models.SeatAssignment) {
	rows := (room.Capacity + seatColumns - 1) / seatColumns
	grid := newRoomGrid()

	var seats []dto.SeatView
	var placed []models.SeatAssignment

	for i := 1; i <= rows && len(seats) < room.Capacity; i++ {
		for j := 1; j <= seatColumns && len(seats) < room.Capacity; j++ {
			bucketIdx := seatPattern[(i-1)%patternRowCycle][(j-1)%seatColumns]

			queue := pickCourse(session.buckets[bucketIdx], grid, i, j)
			if queue == nil {
				queue = pickCourse(session.courses, grid, i, j)
			}
			if queue == nil {
				continue
			}

			student := queue.dequeue()
			grid.occupy(queue.code, i, j)

			var examTime *string
			if student.ExamTime != "" {
				t := student.ExamTime
				examTime = &t
			}

			seats = append(seats, dto.SeatView{
				Row:     i,
				Col:     j,
				Course:  queue.code,
				Student: student.RegNo,
				Session: session.label,
				Time:    examTime,
			})
			placed = append(placed, models.SeatAssignment{
				RegNo:       student.RegNo,
				StudentName: student.Name,
				CourseCode:  student.CourseCode,
				CourseName:  student.CourseName,
				Session:     session.label,
				Room:        room.Name,
				SeatRow:     i,
				SeatColumn:  j,
				ExamDate:    examDate,
				ExamType:    examType,
				ExamTime:    examTime,
			})
		}
	}
	return seats, placed
}

// pickCourse returns the first course in candidates that still has waiting
// students and passes the adjacency check at (row, col).
func pickCourse(candidates []*courseQueue, grid *roomGrid, row, col int) *courseQueue {
	for _, q := range candidates {
		if q.hasWaiting() && grid.safe(q.code, row, col) {
			return q
		}
	}
	return nil
}

// buildWarnings derives the per-course shortage warnings and, below the
// utilization threshold, the low-utilization warning.
func buildWarnings(unallocated []dto.UnallocatedStudent, courseNames map[string]string, totalAllocated, totalCapacity int) []dto.AllocationWarning {
	warnings := make([]dto.AllocationWarning, 0)

	byCourse := make(map[string][]dto.UnallocatedStudent)
	var courseOrder []string
	for _, s := range unallocated {
		if _, seen := byCourse[s.Course]; !seen {
			courseOrder = append(courseOrder, s.Course)
		}
		byCourse[s.Course] = append(byCourse[s.Course], s)
	}
	for _, code := range courseOrder {
		list := byCourse[code]
		warnings = append(warnings, dto.AllocationWarning{
			Type:            models.WarningCapacityShortage,
			Course:          code,
			CourseName:      courseNames[code],
			Message:         fmt.Sprintf("%d student(s) from %s could not be allocated due to room capacity limits.", len(list), code),
			Count:           len(list),
			UnallocatedList: list,
		})
	}

	rate := 0.0
	if totalCapacity > 0 {
		rate = roundRate(float64(totalAllocated) / float64(totalCapacity) * 100)
	}
	if rate < lowUtilization {
		warnings = append(warnings, dto.AllocationWarning{
			Type:            models.WarningLowUtilization,
			Message:         fmt.Sprintf("Room utilization is low (%.1f%%).", rate),
			UtilizationRate: rate,
		})
	}
	return warnings
}

func roundRate(rate float64) float64 {
	return math.Round(rate*10) / 10
}
