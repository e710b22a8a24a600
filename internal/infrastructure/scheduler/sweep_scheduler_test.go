package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facturio/backend/internal/application/billing"
	domainbilling "github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubInvoiceRepo counts MarkOverdue calls; every other method is unused here
type stubInvoiceRepo struct {
	domainbilling.InvoiceRepository
	calls atomic.Int64
}

func (s *stubInvoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	s.calls.Add(1)
	return 2, nil
}

type stubQuoteRepo struct {
	domainbilling.QuoteRepository
	calls atomic.Int64
}

func (s *stubQuoteRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	s.calls.Add(1)
	return 1, nil
}

func newTestScheduler(enabled bool, interval time.Duration) (*SweepScheduler, *stubInvoiceRepo, *stubQuoteRepo) {
	invoiceRepo := &stubInvoiceRepo{}
	quoteRepo := &stubQuoteRepo{}
	service := billing.NewSweeperService(invoiceRepo, quoteRepo, zap.NewNop())

	cfg := config.SchedulerConfig{
		Enabled:       enabled,
		SweepInterval: interval,
		SweepTimeout:  time.Second,
	}
	return NewSweepScheduler(service, zap.NewNop(), cfg), invoiceRepo, quoteRepo
}

func TestSweepScheduler_Start(t *testing.T) {
	t.Run("runs an immediate sweep and then ticks", func(t *testing.T) {
		scheduler, invoiceRepo, quoteRepo := newTestScheduler(true, 20*time.Millisecond)

		require.NoError(t, scheduler.Start(context.Background()))
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = scheduler.Stop(stopCtx)
		}()

		assert.Eventually(t, func() bool {
			return invoiceRepo.calls.Load() >= 2 && quoteRepo.calls.Load() >= 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("does nothing when disabled", func(t *testing.T) {
		scheduler, invoiceRepo, _ := newTestScheduler(false, 10*time.Millisecond)

		require.NoError(t, scheduler.Start(context.Background()))
		time.Sleep(50 * time.Millisecond)

		assert.Equal(t, int64(0), invoiceRepo.calls.Load())
	})

	t.Run("start is idempotent", func(t *testing.T) {
		scheduler, _, _ := newTestScheduler(true, time.Hour)

		require.NoError(t, scheduler.Start(context.Background()))
		require.NoError(t, scheduler.Start(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, scheduler.Stop(stopCtx))
	})
}

func TestSweepScheduler_Stop(t *testing.T) {
	t.Run("stops cleanly and halts further sweeps", func(t *testing.T) {
		scheduler, invoiceRepo, _ := newTestScheduler(true, 10*time.Millisecond)

		require.NoError(t, scheduler.Start(context.Background()))

		assert.Eventually(t, func() bool {
			return invoiceRepo.calls.Load() >= 1
		}, time.Second, 5*time.Millisecond)

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, scheduler.Stop(stopCtx))

		countAfterStop := invoiceRepo.calls.Load()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, countAfterStop, invoiceRepo.calls.Load())
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		scheduler, _, _ := newTestScheduler(true, time.Hour)

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, scheduler.Stop(stopCtx))
	})
}
