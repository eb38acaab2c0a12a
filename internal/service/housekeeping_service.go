package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusworks/exam-seating-api/pkg/jobs"
)

const jobTypePurgeExpired = "purge_expired_plans"

type housekeepingStore interface {
	FirstExamDate(ctx context.Context) (string, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// HousekeepingService periodically drops seating plans once their exam day
// has passed. Expiry is judged by the earliest persisted exam date: the table
// holds one upload cycle at a time, so when the first date is in the past the
// whole cycle is stale and every row goes, warnings included.
type HousekeepingService struct {
	store    housekeepingStore
	warnings WarningStore
	queue    *jobs.Queue
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
}

// NewHousekeepingService constructs a HousekeepingService.
func NewHousekeepingService(store housekeepingStore, warnings WarningStore, interval time.Duration, logger *zap.Logger) *HousekeepingService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HousekeepingService{store: store, warnings: warnings, interval: interval, logger: logger}
	s.queue = jobs.NewQueue("housekeeping", s.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: time.Minute,
		Logger:     logger,
	})
	return s
}

// Start launches the worker and the scheduling loop. One purge runs
// immediately so stale plans do not linger until the first tick.
func (s *HousekeepingService) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue.Start(runCtx)

	s.enqueuePurge()
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.enqueuePurge()
			}
		}
	}()
}

// Stop cancels the scheduling loop and drains the worker.
func (s *HousekeepingService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

func (s *HousekeepingService) enqueuePurge() {
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypePurgeExpired}); err != nil {
		s.logger.Warn("failed to enqueue purge job", zap.Error(err))
	}
}

func (s *HousekeepingService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypePurgeExpired:
		return s.purgeExpired(ctx)
	default:
		return fmt.Errorf("unknown housekeeping job type %s", job.Type)
	}
}

func (s *HousekeepingService) purgeExpired(ctx context.Context) error {
	first, err := s.store.FirstExamDate(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	examDay, err := time.Parse("2006-01-02", first)
	if err != nil {
		return fmt.Errorf("parse first exam date %q: %w", first, err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !examDay.Before(today) {
		return nil
	}

	count, err := s.store.DeleteAll(ctx)
	if err != nil {
		return err
	}
	if s.warnings != nil {
		if err := s.warnings.ReplaceAll(ctx, nil); err != nil {
			s.logger.Warn("failed to purge allocation warnings", zap.Error(err))
		}
	}
	s.logger.Info("purged expired seating plans",
		zap.String("firstExamDate", first),
		zap.Int64("deleted", count))
	return nil
}
