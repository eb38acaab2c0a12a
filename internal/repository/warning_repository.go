package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusworks/exam-seating-api/internal/models"
)

// WarningRepository manages persistence for allocation warnings. The table
// holds the warnings of the most recent generation run only.
type WarningRepository struct {
	db *sqlx.DB
}

// NewWarningRepository constructs a WarningRepository.
func NewWarningRepository(db *sqlx.DB) *WarningRepository {
	return &WarningRepository{db: db}
}

// ReplaceAll wipes the warnings table and inserts the provided set. Passing
// an empty slice leaves the table empty.
func (r *WarningRepository) ReplaceAll(ctx context.Context, warnings []models.AllocationWarning) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM allocation_warnings`); err != nil {
		return fmt.Errorf("clear allocation warnings: %w", err)
	}
	if len(warnings) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range warnings {
		if warnings[i].ID == "" {
			warnings[i].ID = uuid.NewString()
		}
		if warnings[i].CreatedAt.IsZero() {
			warnings[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO allocation_warnings (id, type, message, details, created_at)
        VALUES (:id, :type, :message, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, warnings); err != nil {
		return fmt.Errorf("insert allocation warnings: %w", err)
	}
	return nil
}

// ListAll returns the stored warnings in insertion order.
func (r *WarningRepository) ListAll(ctx context.Context) ([]models.AllocationWarning, error) {
	const query = `SELECT id, type, message, details, created_at FROM allocation_warnings ORDER BY created_at ASC, id ASC`
	var warnings []models.AllocationWarning
	if err := r.db.SelectContext(ctx, &warnings, query); err != nil {
		return nil, fmt.Errorf("list allocation warnings: %w", err)
	}
	return warnings, nil
}
