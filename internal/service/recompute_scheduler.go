package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/pkg/jobs"
)

const (
	jobTypeRecomputeCommissions = "recompute_commissions"
	jobTypeRecomputeProfit      = "recompute_profit"
)

// SchedulerConfig tunes the periodic trailing-window recompute.
type SchedulerConfig struct {
	Interval   time.Duration
	Window     time.Duration
	MaxRetries int
}

// RecomputeScheduler periodically enqueues recompute runs for a trailing
// window so the ledger converges even without manual triggers. Manual runs
// through the API stay independent of the schedule.
type RecomputeScheduler struct {
	recompute *RecomputeService
	queue     *jobs.Queue
	logger    *zap.Logger

	interval time.Duration
	window   time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// NewRecomputeScheduler constructs the scheduler and its backing queue.
func NewRecomputeScheduler(recompute *RecomputeService, logger *zap.Logger, cfg SchedulerConfig) *RecomputeScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}

	s := &RecomputeScheduler{
		recompute: recompute,
		logger:    logger,
		interval:  cfg.Interval,
		window:    cfg.Window,
	}
	s.queue = jobs.NewQueue("recompute", s.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers and the tick loop.
func (s *RecomputeScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	tickCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue.Start(ctx)
	go s.loop(tickCtx)
	s.started = true
	s.logger.Info("recompute scheduler started",
		zap.Duration("interval", s.interval), zap.Duration("window", s.window))
}

// Stop halts the tick loop and drains the queue workers.
func (s *RecomputeScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	s.mu.Unlock()
	s.queue.Stop()
	s.logger.Info("recompute scheduler stopped")
}

func (s *RecomputeScheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueTrailingWindow()
		}
	}
}

func (s *RecomputeScheduler) enqueueTrailingWindow() {
	now := time.Now().UTC()
	req := dto.RecomputeRequest{From: now.Add(-s.window), To: now}

	for _, jobType := range []string{jobTypeRecomputeCommissions, jobTypeRecomputeProfit} {
		if err := s.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    jobType,
			Payload: req,
		}); err != nil {
			s.logger.Warn("failed to enqueue scheduled recompute",
				zap.String("type", jobType), zap.Error(err))
		}
	}
}

func (s *RecomputeScheduler) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.RecomputeRequest)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}

	switch job.Type {
	case jobTypeRecomputeCommissions:
		summary, err := s.recompute.RecomputeCommissions(ctx, req, "")
		if err != nil {
			return err
		}
		s.logger.Info("scheduled commission recompute finished",
			zap.String("job_id", job.ID),
			zap.Int("processed", summary.Processed),
			zap.Int("failures", len(summary.Failures)))
	case jobTypeRecomputeProfit:
		result, err := s.recompute.RecomputeProfit(ctx, req, "")
		if err != nil {
			return err
		}
		s.logger.Info("scheduled profit recompute finished",
			zap.String("job_id", job.ID),
			zap.String("run_id", result.RunID),
			zap.Int("snapshots", len(result.Snapshots)),
			zap.Int("failures", len(result.Failures)))
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	return nil
}
