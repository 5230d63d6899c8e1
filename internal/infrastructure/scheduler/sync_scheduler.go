package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// SyncTrigger starts a sync run for one integration
type SyncTrigger interface {
	TriggerSync(ctx context.Context, integrationID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncLog, error)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the periodic sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// RefreshInterval is how often active integrations are re-read so that
	// interval changes and enable/disable take effect
	RefreshInterval time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:         true,
		RefreshInterval: 1 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.RefreshInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// timerEntry is one running per-integration timer
type timerEntry struct {
	interval time.Duration
	cancel   context.CancelFunc
}

// SyncScheduler runs each active integration on its own interval. It
// re-reads the active set periodically: a disabled integration loses its
// timer on the next refresh (an in-flight run is left to finish), a changed
// interval restarts the timer.
type SyncScheduler struct {
	config       SyncSchedulerConfig
	integrations integration.IntegrationRepository
	trigger      SyncTrigger
	logger       *zap.Logger

	// runCtx is the scheduler's own lifetime context, set by Start and
	// cancelled by Stop; every timer derives from it
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	timers    map[uuid.UUID]*timerEntry
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(
	config SyncSchedulerConfig,
	integrations integration.IntegrationRepository,
	trigger SyncTrigger,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SyncScheduler{
		config:       config,
		integrations: integrations,
		trigger:      trigger,
		logger:       logger,
		timers:       make(map[uuid.UUID]*timerEntry),
	}, nil
}

// Start starts the scheduler
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.runCtx = ctx
	s.cancel = cancel
	s.mu.Unlock()

	// Seed the timer set before the first refresh tick
	s.refresh()

	s.wg.Add(1)
	go s.refreshLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("refresh_interval", s.config.RefreshInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
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

	// Wait for the refresh loop and all timers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// refreshLoop re-reads the active integration set on a fixed cadence
func (s *SyncScheduler) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

// refresh reconciles the timer set against the active integrations. It runs
// against the scheduler's own context so that every timer it starts, at seed
// time or on a later tick, is torn down by Stop.
func (s *SyncScheduler) refresh() {
	s.mu.Lock()
	running, runCtx := s.isRunning, s.runCtx
	s.mu.Unlock()
	if !running {
		return
	}

	active, err := s.integrations.FindActive(runCtx)
	if err != nil {
		s.logger.Error("Failed to fetch active integrations", zap.Error(err))
		return
	}

	wanted := make(map[uuid.UUID]time.Duration, len(active))
	for _, itg := range active {
		wanted[itg.ID] = time.Duration(itg.SyncIntervalMinutes) * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}

	// Drop timers for integrations that are no longer active. Cancelling the
	// timer does not interrupt a run already in flight.
	for id, entry := range s.timers {
		interval, ok := wanted[id]
		if ok && interval == entry.interval {
			continue
		}
		entry.cancel()
		delete(s.timers, id)
		if !ok {
			s.logger.Info("Stopped sync timer", zap.String("integration_id", id.String()))
		}
	}

	// Start timers for new integrations and changed intervals
	for id, interval := range wanted {
		if _, ok := s.timers[id]; ok {
			continue
		}
		timerCtx, cancel := context.WithCancel(runCtx)
		s.timers[id] = &timerEntry{interval: interval, cancel: cancel}

		s.wg.Add(1)
		go s.timerLoop(timerCtx, id, interval)

		s.logger.Info("Started sync timer",
			zap.String("integration_id", id.String()),
			zap.Duration("interval", interval),
		)
	}
}

// timerLoop fires a scheduled sync for one integration on its interval
func (s *SyncScheduler) timerLoop(ctx context.Context, integrationID uuid.UUID, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, integrationID)
		}
	}
}

// runOnce triggers a single scheduled run
func (s *SyncScheduler) runOnce(ctx context.Context, integrationID uuid.UUID) {
	log, err := s.trigger.TriggerSync(ctx, integrationID, integration.SyncTriggerScheduled)
	if err != nil {
		switch {
		case errors.Is(err, integration.ErrSyncAlreadyRunning):
			// Another trigger beat us to it; the next tick will retry
			s.logger.Debug("Skipped scheduled sync, run already in progress",
				zap.String("integration_id", integrationID.String()),
			)
		case errors.Is(err, integration.ErrIntegrationNotFound),
			errors.Is(err, integration.ErrIntegrationInactive):
			// The refresh loop will drop this timer shortly
			s.logger.Debug("Skipped scheduled sync, integration no longer eligible",
				zap.String("integration_id", integrationID.String()),
			)
		default:
			s.logger.Error("Scheduled sync failed",
				zap.String("integration_id", integrationID.String()),
				zap.Error(err),
			)
		}
		return
	}

	s.logger.Info("Scheduled sync completed",
		zap.String("integration_id", integrationID.String()),
		zap.String("sync_log_id", log.ID.String()),
		zap.String("status", string(log.Status)),
		zap.Int("processed", log.Processed),
		zap.Int("failed", log.Failed),
	)
}

// TimerCount returns the number of live per-integration timers
func (s *SyncScheduler) TimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
