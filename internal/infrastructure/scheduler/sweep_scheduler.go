package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SweepScheduler periodically runs the billing status sweep that marks
// overdue invoices LATE and lapsed quotes EXPIRED.
type SweepScheduler struct {
	service   *billing.SweeperService
	logger    *zap.Logger
	config    config.SchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(service *billing.SweeperService, logger *zap.Logger, cfg config.SchedulerConfig) *SweepScheduler {
	return &SweepScheduler{
		service: service,
		logger:  logger,
		config:  cfg,
	}
}

// Start starts the periodic sweep. It runs one sweep immediately so
// restarts never leave overdue documents waiting a full interval.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Status sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Status sweep scheduler started",
		zap.Duration("interval", s.config.SweepInterval),
		zap.Duration("timeout", s.config.SweepTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Status sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Status sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// run executes the sweep on every tick until the context is cancelled
func (s *SweepScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.executeSweep(ctx)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Status sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs a single sweep with the configured timeout
func (s *SweepScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.service.Run(sweepCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Status sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Status sweep completed",
		zap.Duration("duration", duration),
		zap.Int64("invoices_marked_late", result.InvoicesMarkedLate),
		zap.Int64("quotes_marked_expired", result.QuotesMarkedExpired),
	)
}
