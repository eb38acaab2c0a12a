package dto

// SeatView is one occupied seat inside a room grid.
type SeatView struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Course  string  `json:"course"`
	Student string  `json:"student"`
	Session string  `json:"session"`
	Time    *string `json:"time,omitempty"`
}

// RoomPlan is one logical room in a seating plan. A physical room hosting two
// sessions appears as two RoomPlans distinguished by DisplaySession.
type RoomPlan struct {
	RoomNumber     string     `json:"roomNumber"`
	TotalSeats     int        `json:"totalSeats"`
	Rows           int        `json:"rows"`
	Columns        int        `json:"columns"`
	Seats          []SeatView `json:"seats"`
	Session        string     `json:"session"`
	DisplaySession string     `json:"displaySession"`
	OriginalRoom   string     `json:"originalRoom"`
}

// AllocationSummary aggregates one generation run. The read path rebuilds it
// from persisted rows and leaves the fields that are not recoverable at zero.
type AllocationSummary struct {
	TotalStudents      int     `json:"totalStudents"`
	TotalRooms         int     `json:"totalRooms"`
	TotalCourses       int     `json:"totalCourses"`
	TotalInputStudents int     `json:"totalInputStudents,omitempty"`
	UnallocatedCount   int     `json:"unallocatedCount"`
	UtilizationRate    float64 `json:"utilizationRate"`
	ExamType           string  `json:"examType"`
	ExamDate           string  `json:"examDate"`
}

// CourseStat is the per-course breakdown. TotalStudents and Unallocated are
// only known at generation time.
type CourseStat struct {
	CourseCode     string `json:"courseCode"`
	CourseName     string `json:"courseName"`
	AllocatedSeats int    `json:"allocatedSeats"`
	TotalStudents  int    `json:"totalStudents,omitempty"`
	Unallocated    int    `json:"unallocated"`
}

// UnallocatedStudent is a roster entry that could not be seated.
type UnallocatedStudent struct {
	RegNo      string `json:"regNo"`
	Name       string `json:"name"`
	Course     string `json:"course"`
	CourseName string `json:"courseName"`
	Session    string `json:"session"`
	Time       string `json:"time,omitempty"`
}

// AllocationWarning is the in-band warning variant. Course fields are set for
// capacity_shortage, UtilizationRate for low_utilization.
type AllocationWarning struct {
	Type            string               `json:"type"`
	Course          string               `json:"course,omitempty"`
	CourseName      string               `json:"courseName,omitempty"`
	Message         string               `json:"message"`
	Count           int                  `json:"count,omitempty"`
	UnallocatedList []UnallocatedStudent `json:"unallocatedList,omitempty"`
	UtilizationRate float64              `json:"utilizationRate,omitempty"`
}

// SeatingPlanData is the full plan payload shared by the generate and read
// paths.
type SeatingPlanData struct {
	Summary             AllocationSummary    `json:"summary"`
	CourseStats         []CourseStat         `json:"courseStats"`
	Rooms               []RoomPlan           `json:"rooms"`
	Warnings            []AllocationWarning  `json:"warnings"`
	UnallocatedStudents []UnallocatedStudent `json:"unallocatedStudents"`
}

// GenerateSeatingResponse is returned by POST /seating/generate.
type GenerateSeatingResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Plan    SeatingPlanData `json:"plan"`
}

// CurrentSeatingResponse is returned by GET /seating/current.
type CurrentSeatingResponse struct {
	HasData bool             `json:"hasData"`
	Plan    *SeatingPlanData `json:"plan,omitempty"`
}

// SearchSeatingResponse is returned by GET /seating/view.
type SearchSeatingResponse struct {
	Found   bool             `json:"found"`
	Message string           `json:"message,omitempty"`
	Plan    *SeatingPlanData `json:"plan,omitempty"`
}

// ClearSeatingResponse reports how many seats a clear removed.
type ClearSeatingResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// StudentSeatView is one row of the register-number lookup. DisplaySession
// maps legacy stored digit sessions onto their verbose labels.
type StudentSeatView struct {
	StudentName    string  `json:"studentName"`
	CourseCode     string  `json:"courseCode"`
	CourseName     string  `json:"courseName"`
	Session        string  `json:"session"`
	Room           string  `json:"room"`
	SeatRow        int     `json:"seatRow"`
	SeatColumn     int     `json:"seatColumn"`
	ExamDate       string  `json:"examDate"`
	ExamType       string  `json:"examType"`
	ExamTime       *string `json:"examTime,omitempty"`
	DisplaySession string  `json:"displaySession"`
}

// GenerateSeatingParams carries the validated form fields of a generation
// request.
type GenerateSeatingParams struct {
	ExamDate string `form:"exam_date" validate:"required,datetime=2006-01-02"`
	ExamType string `form:"exam_type" validate:"required"`
}
