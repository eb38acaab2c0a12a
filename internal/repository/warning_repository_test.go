package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/exam-seating-api/internal/models"
)

func TestWarningRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWarningRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM allocation_warnings")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocation_warnings")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	warnings := []models.AllocationWarning{
		{Type: models.WarningCapacityShortage, Message: "2 student(s) from MA101 could not be allocated due to room capacity limits.", Details: []byte(`{"count":2}`)},
	}
	require.NoError(t, repo.ReplaceAll(context.Background(), warnings))
	assert.NotEmpty(t, warnings[0].ID, "id assigned before insert")
	assert.False(t, warnings[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarningRepositoryReplaceAllEmptyOnlyWipes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWarningRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM allocation_warnings")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.ReplaceAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarningRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWarningRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "message", "details", "created_at"}).
		AddRow("w-1", models.WarningLowUtilization, "Room utilization is low (40.0%).", []byte(`{"utilizationRate":40}`), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, message, details, created_at FROM allocation_warnings")).
		WillReturnRows(rows)

	warnings, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarningLowUtilization, warnings[0].Type)
	assert.JSONEq(t, `{"utilizationRate":40}`, string(warnings[0].Details))
}
