package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Canonical session labels produced by the normalizer. Students whose raw
// session value matches none of the aliases fall back to SessionFN.
const (
	SessionFN1 = "FN (Session 1)"
	SessionFN2 = "FN (Session 2)"
	SessionAN3 = "AN (Session 3)"
	SessionAN4 = "AN (Session 4)"
	SessionFN  = "FN"
	SessionAN  = "AN"
)

// Warning kinds persisted to the allocation_warnings table.
const (
	WarningCapacityShortage = "capacity_shortage"
	WarningLowUtilization   = "low_utilization"
)

// StudentRecord is one parsed row of the student roster. Session holds the
// raw spreadsheet value until normalization rewrites it in place.
type StudentRecord struct {
	RegNo      string
	Name       string
	CourseCode string
	CourseName string
	Session    string
	ExamTime   string
}

// RoomRecord is one parsed row of the room roster.
type RoomRecord struct {
	Name     string
	Capacity int
}

// SeatAssignment is a persisted seat. For a fixed (exam_date, exam_type) the
// tuple (room, seat_row, seat_column, session) is unique.
type SeatAssignment struct {
	ID          int64     `db:"id" json:"-"`
	RegNo       string    `db:"reg_no" json:"regNo"`
	StudentName string    `db:"student_name" json:"studentName"`
	CourseCode  string    `db:"course_code" json:"courseCode"`
	CourseName  string    `db:"course_name" json:"courseName"`
	Session     string    `db:"session" json:"session"`
	Room        string    `db:"room" json:"room"`
	SeatRow     int       `db:"seat_row" json:"seatRow"`
	SeatColumn  int       `db:"seat_column" json:"seatColumn"`
	ExamDate    string    `db:"exam_date" json:"examDate"`
	ExamType    string    `db:"exam_type" json:"examType"`
	ExamTime    *string   `db:"exam_time" json:"examTime,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

// AllocationWarning is a persisted warning row. Details carries the full
// structured payload (per-course unallocated lists, utilization rate).
type AllocationWarning struct {
	ID        string         `db:"id" json:"id"`
	Type      string         `db:"type" json:"type"`
	Message   string         `db:"message" json:"message"`
	Details   types.JSONText `db:"details" json:"details"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Pagination carries standard list metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
