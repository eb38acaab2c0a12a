package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/exam-seating-api/internal/models"
)

type fakeHousekeepingStore struct {
	firstDate   string
	firstErr    error
	deleted     int64
	deleteCalls int
}

func (f *fakeHousekeepingStore) FirstExamDate(ctx context.Context) (string, error) {
	if f.firstErr != nil {
		return "", f.firstErr
	}
	return f.firstDate, nil
}

func (f *fakeHousekeepingStore) DeleteAll(ctx context.Context) (int64, error) {
	f.deleteCalls++
	return f.deleted, nil
}

func TestHousekeepingPurgesPastPlans(t *testing.T) {
	store := &fakeHousekeepingStore{firstDate: "2020-01-01", deleted: 120}
	warnings := &fakeWarningStore{stored: []models.AllocationWarning{{Type: models.WarningLowUtilization}}}
	svc := NewHousekeepingService(store, warnings, time.Hour, zap.NewNop())

	require.NoError(t, svc.purgeExpired(context.Background()))
	assert.Equal(t, 1, store.deleteCalls)
	assert.Empty(t, warnings.stored, "warning rows go with the plans")
}

func TestHousekeepingKeepsUpcomingPlans(t *testing.T) {
	future := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	store := &fakeHousekeepingStore{firstDate: future}
	svc := NewHousekeepingService(store, &fakeWarningStore{}, time.Hour, zap.NewNop())

	require.NoError(t, svc.purgeExpired(context.Background()))
	assert.Zero(t, store.deleteCalls)
}

func TestHousekeepingKeepsTodaysPlans(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")
	store := &fakeHousekeepingStore{firstDate: today}
	svc := NewHousekeepingService(store, &fakeWarningStore{}, time.Hour, zap.NewNop())

	require.NoError(t, svc.purgeExpired(context.Background()))
	assert.Zero(t, store.deleteCalls)
}

func TestHousekeepingEmptyTable(t *testing.T) {
	store := &fakeHousekeepingStore{firstErr: sql.ErrNoRows}
	svc := NewHousekeepingService(store, &fakeWarningStore{}, time.Hour, zap.NewNop())

	require.NoError(t, svc.purgeExpired(context.Background()))
	assert.Zero(t, store.deleteCalls)
}

func TestHousekeepingBadDate(t *testing.T) {
	store := &fakeHousekeepingStore{firstDate: "garbage"}
	svc := NewHousekeepingService(store, &fakeWarningStore{}, time.Hour, zap.NewNop())

	assert.Error(t, svc.purgeExpired(context.Background()))
	assert.Zero(t, store.deleteCalls)
}
