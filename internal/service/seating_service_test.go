package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/exam-seating-api/internal/dto"
	"github.com/campusworks/exam-seating-api/internal/models"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
)

type fakeAllocationStore struct {
	rows          []models.SeatAssignment
	latestDate    string
	latestType    string
	latestErr     error
	deleteCount   int64
	deleteCalls   int
	insertBatches [][]models.SeatAssignment
	failOnBatch   int
	listErr       error
}

func newFakeAllocationStore() *fakeAllocationStore {
	return &fakeAllocationStore{failOnBatch: -1, latestErr: sql.ErrNoRows}
}

func (f *fakeAllocationStore) DeleteByExam(ctx context.Context, examDate, examType string) (int64, error) {
	f.deleteCalls++
	return f.deleteCount, nil
}

func (f *fakeAllocationStore) InsertBatch(ctx context.Context, rows []models.SeatAssignment) error {
	if f.failOnBatch >= 0 && len(f.insertBatches) == f.failOnBatch {
		return errors.New("connection reset")
	}
	batch := make([]models.SeatAssignment, len(rows))
	copy(batch, rows)
	f.insertBatches = append(f.insertBatches, batch)
	return nil
}

func (f *fakeAllocationStore) ListByExam(ctx context.Context, examDate, examType string) ([]models.SeatAssignment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.SeatAssignment
	for _, r := range f.rows {
		if r.ExamDate == examDate && r.ExamType == examType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAllocationStore) ListByRegNo(ctx context.Context, regNo string) ([]models.SeatAssignment, error) {
	var out []models.SeatAssignment
	for _, r := range f.rows {
		if r.RegNo == regNo {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAllocationStore) LatestExam(ctx context.Context) (string, string, error) {
	if f.latestErr != nil {
		return "", "", f.latestErr
	}
	return f.latestDate, f.latestType, nil
}

type fakeWarningStore struct {
	stored     []models.AllocationWarning
	replaceErr error
}

func (f *fakeWarningStore) ReplaceAll(ctx context.Context, warnings []models.AllocationWarning) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.stored = warnings
	return nil
}

func (f *fakeWarningStore) ListAll(ctx context.Context) ([]models.AllocationWarning, error) {
	return f.stored, nil
}

func newSeatingServiceFixture(store *fakeAllocationStore, warnings *fakeWarningStore, batchSize int) *SeatingService {
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewSeatingService(store, warnings, cache, nil, validator.New(), zap.NewNop(), batchSize, 0)
}

func validParams() dto.GenerateSeatingParams {
	return dto.GenerateSeatingParams{ExamDate: "2026-09-10", ExamType: "Internal"}
}

func TestSeatingServiceGenerateRejectsBadDate(t *testing.T) {
	svc := newSeatingServiceFixture(newFakeAllocationStore(), &fakeWarningStore{}, 0)

	_, err := svc.Generate(context.Background(), dto.GenerateSeatingParams{ExamDate: "10-09-2026", ExamType: "Internal"},
		makeStudents("MA101", "Mathematics", "1", 3),
		[]models.RoomRecord{{Name: "R1", Capacity: 10}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatingServiceGenerateRejectsEmptyRosters(t *testing.T) {
	svc := newSeatingServiceFixture(newFakeAllocationStore(), &fakeWarningStore{}, 0)

	_, err := svc.Generate(context.Background(), validParams(), nil, []models.RoomRecord{{Name: "R1", Capacity: 10}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyDataset.Code, appErrors.FromError(err).Code)

	_, err = svc.Generate(context.Background(), validParams(), makeStudents("MA101", "Mathematics", "1", 3), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyDataset.Code, appErrors.FromError(err).Code)
}

func TestSeatingServiceGenerateChunksInserts(t *testing.T) {
	store := newFakeAllocationStore()
	warnings := &fakeWarningStore{}
	svc := newSeatingServiceFixture(store, warnings, 8)

	students := append(
		makeStudents("MA101", "Mathematics", "1", 10),
		makeStudents("PH102", "Physics", "1", 10)...,
	)
	resp, err := svc.Generate(context.Background(), validParams(), students,
		[]models.RoomRecord{{Name: "R1", Capacity: 24}})
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, store.deleteCalls, "previous plan wiped first")
	require.Len(t, store.insertBatches, 3, "20 rows in batches of 8")
	assert.Len(t, store.insertBatches[0], 8)
	assert.Len(t, store.insertBatches[2], 4)
	assert.Equal(t, 20, resp.Plan.Summary.TotalStudents)
}

func TestSeatingServiceGenerateAbortsOnBatchFailure(t *testing.T) {
	store := newFakeAllocationStore()
	store.failOnBatch = 1
	svc := newSeatingServiceFixture(store, &fakeWarningStore{}, 8)

	students := append(
		makeStudents("MA101", "Mathematics", "1", 10),
		makeStudents("PH102", "Physics", "1", 10)...,
	)
	_, err := svc.Generate(context.Background(), validParams(), students,
		[]models.RoomRecord{{Name: "R1", Capacity: 24}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)
	assert.Len(t, store.insertBatches, 1, "committed chunk stays, no retry of later chunks")
}

func TestSeatingServiceGeneratePersistsWarnings(t *testing.T) {
	store := newFakeAllocationStore()
	warnings := &fakeWarningStore{}
	svc := newSeatingServiceFixture(store, warnings, 0)

	students := append(
		makeStudents("MA101", "Mathematics", "1", 30),
		makeStudents("PH102", "Physics", "1", 30)...,
	)
	resp, err := svc.Generate(context.Background(), validParams(), students,
		[]models.RoomRecord{{Name: "R1", Capacity: 40}})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Plan.Warnings)
	require.NotEmpty(t, warnings.stored)
	require.Equal(t, len(resp.Plan.Warnings), len(warnings.stored))
	assert.Equal(t, resp.Plan.Warnings[0].Type, warnings.stored[0].Type)
	assert.Equal(t, resp.Plan.Warnings[0].Message, warnings.stored[0].Message)
	assert.NotEmpty(t, warnings.stored[0].Details)
}

func TestSeatingServiceLatestEmpty(t *testing.T) {
	svc := newSeatingServiceFixture(newFakeAllocationStore(), &fakeWarningStore{}, 0)

	resp, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.HasData)
	assert.Nil(t, resp.Plan)
}

func TestSeatingServiceLatestRebuildsPlan(t *testing.T) {
	store := newFakeAllocationStore()
	store.latestErr = nil
	store.latestDate = "2026-09-10"
	store.latestType = "Internal"
	store.rows = []models.SeatAssignment{
		seatRow("A-1", "MA101", models.SessionFN1, "R1", 1, 1),
		seatRow("B-1", "PH102", models.SessionFN1, "R1", 1, 2),
	}
	warnings := &fakeWarningStore{stored: []models.AllocationWarning{
		{Type: models.WarningLowUtilization, Message: "Room utilization is low (20.0%).", Details: []byte(`{"type":"low_utilization","message":"Room utilization is low (20.0%).","utilizationRate":20}`)},
	}}
	svc := newSeatingServiceFixture(store, warnings, 0)

	resp, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, resp.HasData)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, 2, resp.Plan.Summary.TotalStudents)
	require.Len(t, resp.Plan.Warnings, 1)
	assert.Equal(t, models.WarningLowUtilization, resp.Plan.Warnings[0].Type)
	assert.InDelta(t, 20.0, resp.Plan.Warnings[0].UtilizationRate, 0.0001)
}

func TestSeatingServiceLatestAggregatesUnallocated(t *testing.T) {
	store := newFakeAllocationStore()
	store.latestErr = nil
	store.latestDate = "2026-09-10"
	store.latestType = "Internal"
	store.rows = []models.SeatAssignment{
		seatRow("A-1", "MA101", models.SessionFN1, "R1", 1, 1),
	}
	warnings := &fakeWarningStore{stored: []models.AllocationWarning{
		{
			Type:    models.WarningCapacityShortage,
			Message: "1 student(s) from MA101 could not be allocated due to room capacity limits.",
			Details: []byte(`{"type":"capacity_shortage","course":"MA101","courseName":"Mathematics","message":"1 student(s) from MA101 could not be allocated due to room capacity limits.","count":1,"unallocatedList":[{"regNo":"A-2","name":"Left Out","course":"MA101","courseName":"Mathematics","session":"FN (Session 1)"}]}`),
		},
	}}
	svc := newSeatingServiceFixture(store, warnings, 0)

	resp, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, resp.HasData)
	require.Len(t, resp.Plan.Warnings, 1)

	// Warning-carried unallocated students surface at the top level too.
	require.Len(t, resp.Plan.UnallocatedStudents, 1)
	assert.Equal(t, "A-2", resp.Plan.UnallocatedStudents[0].RegNo)
	assert.Equal(t, "MA101", resp.Plan.UnallocatedStudents[0].Course)
	assert.Equal(t, 1, resp.Plan.Summary.UnallocatedCount)
}

func TestSeatingServiceSearchRequiresParams(t *testing.T) {
	svc := newSeatingServiceFixture(newFakeAllocationStore(), &fakeWarningStore{}, 0)

	_, err := svc.Search(context.Background(), "", "Internal")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatingServiceSearchNotFound(t *testing.T) {
	svc := newSeatingServiceFixture(newFakeAllocationStore(), &fakeWarningStore{}, 0)

	resp, err := svc.Search(context.Background(), "2026-09-11", "Internal")
	require.NoError(t, err)
	assert.False(t, resp.Found)
	assert.Contains(t, resp.Message, "2026-09-11")
}

func TestSeatingServiceLookup(t *testing.T) {
	store := newFakeAllocationStore()
	store.rows = []models.SeatAssignment{
		seatRow("A-1", "MA101", "1", "R1", 2, 3),
	}
	svc := newSeatingServiceFixture(store, &fakeWarningStore{}, 0)

	views, err := svc.Lookup(context.Background(), "A-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "R1", views[0].Room)
	assert.Equal(t, "1", views[0].Session)
	assert.Equal(t, models.SessionFN1, views[0].DisplaySession)

	_, err = svc.Lookup(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Lookup(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatingServiceClear(t *testing.T) {
	store := newFakeAllocationStore()
	store.deleteCount = 42
	svc := newSeatingServiceFixture(store, &fakeWarningStore{}, 0)

	resp, err := svc.Clear(context.Background(), "2026-09-10", "Internal")
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.DeletedCount)
	assert.Equal(t, 1, store.deleteCalls)

	_, err = svc.Clear(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatingServiceClearNothingMatched(t *testing.T) {
	svc := newSeatingServiceFixture(newFakeAllocationStore(), &fakeWarningStore{}, 0)

	_, err := svc.Clear(context.Background(), "2026-09-10", "Internal")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
