package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusworks/exam-seating-api/internal/dto"
	"github.com/campusworks/exam-seating-api/internal/models"
	appErrors "github.com/campusworks/exam-seating-api/pkg/errors"
)

const (
	defaultInsertBatchSize = 1000

	cacheKeyCurrent     = "seating:current"
	cacheKeyViewPrefix  = "seating:view:"
	cacheInvalidatePath = "seating:*"
)

// AllocationStore abstracts persistence for seat assignments.
type AllocationStore interface {
	DeleteByExam(ctx context.Context, examDate, examType string) (int64, error)
	InsertBatch(ctx context.Context, rows []models.SeatAssignment) error
	ListByExam(ctx context.Context, examDate, examType string) ([]models.SeatAssignment, error)
	ListByRegNo(ctx context.Context, regNo string) ([]models.SeatAssignment, error)
	LatestExam(ctx context.Context) (examDate, examType string, err error)
}

// WarningStore abstracts persistence for allocation warnings.
type WarningStore interface {
	ReplaceAll(ctx context.Context, warnings []models.AllocationWarning) error
	ListAll(ctx context.Context) ([]models.AllocationWarning, error)
}

// SeatingService orchestrates plan generation and the read paths. Generation
// runs under a per-exam-day mutex so concurrent requests for the same day
// serialize instead of interleaving their delete and insert phases.
type SeatingService struct {
	repo      AllocationStore
	warnings  WarningStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	batchSize int
	cacheTTL  time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSeatingService constructs a SeatingService.
func NewSeatingService(repo AllocationStore, warnings WarningStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, batchSize int, cacheTTL time.Duration) *SeatingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}
	return &SeatingService{
		repo:      repo,
		warnings:  warnings,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		batchSize: batchSize,
		cacheTTL:  cacheTTL,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *SeatingService) lockFor(examDate, examType string) *sync.Mutex {
	key := examDate + "|" + examType
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Generate runs the allocation engine over the parsed rosters and replaces
// the persisted plan for the exam day. Inserts go out in fixed-size chunks
// without a wrapping transaction: a mid-run failure leaves the committed
// chunks in place and is reported as a persistence error.
func (s *SeatingService) Generate(ctx context.Context, params dto.GenerateSeatingParams, students []models.StudentRecord, rooms []models.RoomRecord) (*dto.GenerateSeatingResponse, error) {
	if err := s.validator.Struct(params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation parameters")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyDataset, "student roster has no usable rows")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyDataset, "room roster has no usable rows")
	}

	lock := s.lockFor(params.ExamDate, params.ExamType)
	lock.Lock()
	defer lock.Unlock()

	outcome := AllocateSeating(students, rooms, params.ExamDate, params.ExamType)

	start := time.Now()
	if _, err := s.repo.DeleteByExam(ctx, params.ExamDate, params.ExamType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to clear previous plan")
	}

	for offset := 0; offset < len(outcome.Assignments); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(outcome.Assignments) {
			end = len(outcome.Assignments)
		}
		if err := s.repo.InsertBatch(ctx, outcome.Assignments[offset:end]); err != nil {
			s.logger.Error("seat insert batch failed",
				zap.String("examDate", params.ExamDate),
				zap.String("examType", params.ExamType),
				zap.Int("offset", offset),
				zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist seat assignments")
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("seating_persist", time.Since(start))
		s.metrics.ObserveAllocation(outcome.Plan.Summary.UtilizationRate, outcome.Plan.Summary.UnallocatedCount)
	}

	if err := s.warnings.ReplaceAll(ctx, encodeWarnings(outcome.Plan.Warnings)); err != nil {
		s.logger.Warn("failed to persist allocation warnings", zap.Error(err))
	}

	if err := s.cache.Invalidate(ctx, cacheInvalidatePath); err != nil {
		s.logger.Warn("failed to invalidate seating cache", zap.Error(err))
	}

	s.logger.Info("seating plan generated",
		zap.String("examDate", params.ExamDate),
		zap.String("examType", params.ExamType),
		zap.Int("allocated", outcome.Plan.Summary.TotalStudents),
		zap.Int("unallocated", outcome.Plan.Summary.UnallocatedCount),
		zap.Float64("utilization", outcome.Plan.Summary.UtilizationRate))

	message := fmt.Sprintf("Seating arrangement generated successfully for %d student(s).", outcome.Plan.Summary.TotalStudents)
	if outcome.Plan.Summary.UnallocatedCount > 0 {
		message = fmt.Sprintf("Seating arrangement generated with %d unallocated student(s).", outcome.Plan.Summary.UnallocatedCount)
	}

	return &dto.GenerateSeatingResponse{
		Status:  "success",
		Message: message,
		Plan:    outcome.Plan,
	}, nil
}

// Latest rebuilds the most recently generated plan from the database.
func (s *SeatingService) Latest(ctx context.Context) (*dto.CurrentSeatingResponse, error) {
	var cached dto.CurrentSeatingResponse
	if hit, _ := s.cache.Get(ctx, cacheKeyCurrent, &cached); hit {
		return &cached, nil
	}

	examDate, examType, err := s.repo.LatestExam(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.CurrentSeatingResponse{HasData: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve latest exam")
	}

	plan, err := s.loadPlan(ctx, examDate, examType, true)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return &dto.CurrentSeatingResponse{HasData: false}, nil
	}

	resp := &dto.CurrentSeatingResponse{HasData: true, Plan: plan}
	if err := s.cache.Set(ctx, cacheKeyCurrent, resp, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache current plan", zap.Error(err))
	}
	return resp, nil
}

// Search rebuilds the plan of a specific exam day.
func (s *SeatingService) Search(ctx context.Context, examDate, examType string) (*dto.SearchSeatingResponse, error) {
	if examDate == "" || examType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date and type query parameters are required")
	}

	cacheKey := cacheKeyViewPrefix + examDate + ":" + examType
	var cached dto.SearchSeatingResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	plan, err := s.loadPlan(ctx, examDate, examType, false)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return &dto.SearchSeatingResponse{
			Found:   false,
			Message: fmt.Sprintf("No seating arrangement found for %s (%s).", examDate, examType),
		}, nil
	}

	resp := &dto.SearchSeatingResponse{Found: true, Plan: plan}
	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache plan view", zap.Error(err))
	}
	return resp, nil
}

// Lookup returns every seat held by one register number.
func (s *SeatingService) Lookup(ctx context.Context, regNo string) ([]dto.StudentSeatView, error) {
	if regNo == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "register number is required")
	}

	rows, err := s.repo.ListByRegNo(ctx, regNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student seats")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no seat found for register number %s", regNo))
	}

	views := make([]dto.StudentSeatView, 0, len(rows))
	for _, row := range rows {
		views = append(views, dto.StudentSeatView{
			StudentName:    row.StudentName,
			CourseCode:     row.CourseCode,
			CourseName:     row.CourseName,
			Session:        row.Session,
			Room:           row.Room,
			SeatRow:        row.SeatRow,
			SeatColumn:     row.SeatColumn,
			ExamDate:       row.ExamDate,
			ExamType:       row.ExamType,
			ExamTime:       row.ExamTime,
			DisplaySession: DisplaySessionLabel(row.Session),
		})
	}
	return views, nil
}

// Clear removes the persisted plan of one exam day.
func (s *SeatingService) Clear(ctx context.Context, examDate, examType string) (*dto.ClearSeatingResponse, error) {
	if examDate == "" || examType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date and type query parameters are required")
	}

	lock := s.lockFor(examDate, examType)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.repo.DeleteByExam(ctx, examDate, examType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to clear seating plan")
	}
	if count == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no seating arrangement found for %s (%s)", examDate, examType))
	}

	if err := s.cache.Invalidate(ctx, cacheInvalidatePath); err != nil {
		s.logger.Warn("failed to invalidate seating cache", zap.Error(err))
	}

	return &dto.ClearSeatingResponse{
		Message:      fmt.Sprintf("Cleared seating arrangement for %s (%s).", examDate, examType),
		DeletedCount: count,
	}, nil
}

// loadPlan fetches and rebuilds one exam day. The stored warnings belong to
// the most recent generation run only, so they are attached on the latest
// path and skipped on historical searches. A nil plan means no rows exist.
func (s *SeatingService) loadPlan(ctx context.Context, examDate, examType string, withWarnings bool) (*dto.SeatingPlanData, error) {
	rows, err := s.repo.ListByExam(ctx, examDate, examType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seat assignments")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	plan := ReconstructPlan(rows)

	if withWarnings {
		stored, err := s.warnings.ListAll(ctx)
		if err != nil {
			s.logger.Warn("failed to load allocation warnings", zap.Error(err))
		} else {
			plan.Warnings = decodeWarnings(stored)
			for _, w := range plan.Warnings {
				plan.UnallocatedStudents = append(plan.UnallocatedStudents, w.UnallocatedList...)
			}
			plan.Summary.UnallocatedCount = len(plan.UnallocatedStudents)
		}
	}
	return &plan, nil
}

// encodeWarnings converts in-band warnings into persistable rows with the
// full structured payload in the details column.
func encodeWarnings(warnings []dto.AllocationWarning) []models.AllocationWarning {
	rows := make([]models.AllocationWarning, 0, len(warnings))
	for _, w := range warnings {
		details, err := json.Marshal(w)
		if err != nil {
			details = []byte("{}")
		}
		rows = append(rows, models.AllocationWarning{
			Type:    w.Type,
			Message: w.Message,
			Details: details,
		})
	}
	return rows
}

// decodeWarnings restores the in-band warning shape from stored rows. Rows
// with an undecodable details payload fall back to type and message only.
func decodeWarnings(rows []models.AllocationWarning) []dto.AllocationWarning {
	warnings := make([]dto.AllocationWarning, 0, len(rows))
	for _, row := range rows {
		var w dto.AllocationWarning
		if err := json.Unmarshal(row.Details, &w); err != nil || w.Type == "" {
			w = dto.AllocationWarning{Type: row.Type, Message: row.Message}
		}
		warnings = append(warnings, w)
	}
	return warnings
}
