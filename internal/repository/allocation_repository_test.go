package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/exam-seating-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestAllocationRepositoryDeleteByExam(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM seat_assignments WHERE exam_date = $1 AND exam_type = $2`)).
		WithArgs("2026-09-10", "Internal").
		WillReturnResult(sqlmock.NewResult(0, 12))

	count, err := repo.DeleteByExam(context.Background(), "2026-09-10", "Internal")
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	rows := []models.SeatAssignment{
		{RegNo: "A-1", StudentName: "A", CourseCode: "MA101", CourseName: "Mathematics", Session: models.SessionFN1, Room: "R1", SeatRow: 1, SeatColumn: 1, ExamDate: "2026-09-10", ExamType: "Internal"},
		{RegNo: "B-1", StudentName: "B", CourseCode: "PH102", CourseName: "Physics", Session: models.SessionFN1, Room: "R1", SeatRow: 1, SeatColumn: 2, ExamDate: "2026-09-10", ExamType: "Internal"},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryListByExam(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "reg_no", "student_name", "course_code", "course_name", "session", "room", "seat_row", "seat_column", "exam_date", "exam_type", "exam_time", "created_at"}).
		AddRow(1, "A-1", "A", "MA101", "Mathematics", models.SessionFN1, "R1", 1, 1, "2026-09-10", "Internal", nil, now).
		AddRow(2, "B-1", "B", "PH102", "Physics", models.SessionFN1, "R1", 1, 2, "2026-09-10", "Internal", "09:30 AM", now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reg_no, student_name")).
		WithArgs("2026-09-10", "Internal").
		WillReturnRows(rows)

	result, err := repo.ListByExam(context.Background(), "2026-09-10", "Internal")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "A-1", result[0].RegNo)
	assert.Nil(t, result[0].ExamTime)
	require.NotNil(t, result[1].ExamTime)
	assert.Equal(t, "09:30 AM", *result[1].ExamTime)
}

func TestAllocationRepositoryListByRegNo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "reg_no", "student_name", "course_code", "course_name", "session", "room", "seat_row", "seat_column", "exam_date", "exam_type", "exam_time", "created_at"}).
		AddRow(1, "A-1", "A", "MA101", "Mathematics", "1", "R1", 2, 3, "2026-09-10", "Internal", nil, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE reg_no = $1")).
		WithArgs("A-1").
		WillReturnRows(rows)

	result, err := repo.ListByRegNo(context.Background(), "A-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 2, result[0].SeatRow)
	assert.Equal(t, 3, result[0].SeatColumn)
}

func TestAllocationRepositoryLatestExamEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT exam_date, exam_type FROM seat_assignments")).
		WillReturnError(sql.ErrNoRows)

	_, _, err := repo.LatestExam(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAllocationRepositoryLatestExam(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT exam_date, exam_type FROM seat_assignments")).
		WillReturnRows(sqlmock.NewRows([]string{"exam_date", "exam_type"}).AddRow("2026-09-10", "Internal"))

	date, typ, err := repo.LatestExam(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-09-10", date)
	assert.Equal(t, "Internal", typ)
}

func TestAllocationRepositoryFirstExamDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT exam_date FROM seat_assignments ORDER BY exam_date ASC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"exam_date"}).AddRow("2026-09-01"))

	date, err := repo.FirstExamDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", date)
}

func TestAllocationRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_assignments")).
		WillReturnResult(sqlmock.NewResult(0, 88))

	count, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(88), count)
}
