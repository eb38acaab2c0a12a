package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/exam-seating-api/internal/models"
)

// AllocationRepository manages persistence for seat assignments.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// DeleteByExam removes every seat row for the given exam day and returns the
// number of rows removed.
func (r *AllocationRepository) DeleteByExam(ctx context.Context, examDate, examType string) (int64, error) {
	const query = `DELETE FROM seat_assignments WHERE exam_date = $1 AND exam_type = $2`
	res, err := r.db.ExecContext(ctx, query, examDate, examType)
	if err != nil {
		return 0, fmt.Errorf("delete seat assignments: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted seat assignments: %w", err)
	}
	return count, nil
}

// InsertBatch writes one chunk of seat assignments in a single statement.
// Callers control chunking; an empty batch is a no-op.
func (r *AllocationRepository) InsertBatch(ctx context.Context, rows []models.SeatAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	const query = `INSERT INTO seat_assignments
        (reg_no, student_name, course_code, course_name, session, room, seat_row, seat_column, exam_date, exam_type, exam_time)
        VALUES (:reg_no, :student_name, :course_code, :course_name, :session, :room, :seat_row, :seat_column, :exam_date, :exam_type, :exam_time)`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert seat assignments: %w", err)
	}
	return nil
}

// ListByExam returns the persisted seats of one exam day in a stable order:
// session descending, then room, row and column ascending.
func (r *AllocationRepository) ListByExam(ctx context.Context, examDate, examType string) ([]models.SeatAssignment, error) {
	const query = `SELECT id, reg_no, student_name, course_code, course_name, session, room, seat_row, seat_column, exam_date, exam_type, exam_time, created_at
        FROM seat_assignments
        WHERE exam_date = $1 AND exam_type = $2
        ORDER BY session DESC, room ASC, seat_row ASC, seat_column ASC`
	var rows []models.SeatAssignment
	if err := r.db.SelectContext(ctx, &rows, query, examDate, examType); err != nil {
		return nil, fmt.Errorf("list seat assignments: %w", err)
	}
	return rows, nil
}

// ListByRegNo returns every seat held by one register number across exams.
func (r *AllocationRepository) ListByRegNo(ctx context.Context, regNo string) ([]models.SeatAssignment, error) {
	const query = `SELECT id, reg_no, student_name, course_code, course_name, session, room, seat_row, seat_column, exam_date, exam_type, exam_time, created_at
        FROM seat_assignments
        WHERE reg_no = $1
        ORDER BY exam_date ASC, session DESC, room ASC, seat_row ASC, seat_column ASC`
	var rows []models.SeatAssignment
	if err := r.db.SelectContext(ctx, &rows, query, regNo); err != nil {
		return nil, fmt.Errorf("list seat assignments by reg no: %w", err)
	}
	return rows, nil
}

// LatestExam returns the exam key of the most recently generated plan, by
// insertion time. sql.ErrNoRows passes through when the table is empty.
func (r *AllocationRepository) LatestExam(ctx context.Context) (examDate, examType string, err error) {
	const query = `SELECT exam_date, exam_type FROM seat_assignments ORDER BY created_at DESC, id DESC LIMIT 1`
	row := struct {
		ExamDate string `db:"exam_date"`
		ExamType string `db:"exam_type"`
	}{}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return "", "", err
	}
	return row.ExamDate, row.ExamType, nil
}

// CountByExam reports how many seats exist for the given exam day.
func (r *AllocationRepository) CountByExam(ctx context.Context, examDate, examType string) (int64, error) {
	const query = `SELECT COUNT(*) FROM seat_assignments WHERE exam_date = $1 AND exam_type = $2`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, examDate, examType); err != nil {
		return 0, fmt.Errorf("count seat assignments: %w", err)
	}
	return count, nil
}

// FirstExamDate returns the earliest exam_date present, or sql.ErrNoRows when
// the table is empty.
func (r *AllocationRepository) FirstExamDate(ctx context.Context) (string, error) {
	const query = `SELECT exam_date FROM seat_assignments ORDER BY exam_date ASC LIMIT 1`
	var date string
	if err := r.db.GetContext(ctx, &date, query); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("first exam date: %w", err)
	}
	return date, nil
}

// DeleteAll wipes the seat assignment table and returns the row count.
func (r *AllocationRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_assignments`)
	if err != nil {
		return 0, fmt.Errorf("delete all seat assignments: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count wiped seat assignments: %w", err)
	}
	return count, nil
}
