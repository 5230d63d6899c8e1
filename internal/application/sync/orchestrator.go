package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// maxPages guards against adapters that never terminate their cursor
const maxPages = 1000

// Config bounds sync run execution
type Config struct {
	// AdapterTimeout limits one adapter fetch or connection test
	AdapterTimeout time.Duration
	// RunTimeout limits one complete run across all pages
	RunTimeout time.Duration
	// LockTTL is the run-lock expiry for crashed holders
	LockTTL time.Duration
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		AdapterTimeout: 2 * time.Minute,
		RunTimeout:     30 * time.Minute,
		LockTTL:        45 * time.Minute,
	}
}

// Orchestrator drives complete sync runs: acquire the run lock, page through
// the adapter, resolve and reconcile each record, and finalize the log.
// Row-level failures never abort a run; only connection-level failures do.
type Orchestrator struct {
	integrations integration.IntegrationRepository
	syncLogs     integration.SyncLogRepository
	registry     integration.AdapterRegistry
	resolver     *Resolver
	reconciler   *Reconciler
	lock         integration.RunLock
	cfg          Config
	logger       *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(
	integrations integration.IntegrationRepository,
	syncLogs integration.SyncLogRepository,
	registry integration.AdapterRegistry,
	resolver *Resolver,
	reconciler *Reconciler,
	lock integration.RunLock,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.AdapterTimeout == 0 {
		cfg.AdapterTimeout = DefaultConfig().AdapterTimeout
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = DefaultConfig().RunTimeout
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	return &Orchestrator{
		integrations: integrations,
		syncLogs:     syncLogs,
		registry:     registry,
		resolver:     resolver,
		reconciler:   reconciler,
		lock:         lock,
		cfg:          cfg,
		logger:       logger.Named("orchestrator"),
	}
}

// TriggerSync starts one run for the integration. A run already in flight is
// rejected with ErrSyncAlreadyRunning and leaves no trace. The returned log
// carries the terminal status; a connection-level failure is reported through
// the log, not the error.
func (o *Orchestrator) TriggerSync(ctx context.Context, integrationID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncLog, error) {
	itg, err := o.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if !itg.CanSync() {
		return nil, integration.ErrIntegrationInactive
	}
	adapter, err := o.registry.Adapter(itg.AdapterType)
	if err != nil {
		return nil, err
	}

	acquired, err := o.lock.Acquire(ctx, itg.ID, o.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("run lock unavailable: %w", err)
	}
	if !acquired {
		return nil, integration.ErrSyncAlreadyRunning
	}
	defer func() {
		if err := o.lock.Release(context.WithoutCancel(ctx), itg.ID); err != nil {
			o.logger.Warn("Failed to release run lock", zap.String("integration_id", itg.ID.String()), zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	log := integration.NewSyncLog(itg.ID, trigger)
	if err := o.syncLogs.Save(runCtx, log); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	o.logger.Info("Sync run started",
		zap.String("integration_id", itg.ID.String()),
		zap.String("adapter_type", itg.AdapterType.String()),
		zap.String("trigger", string(trigger)),
		zap.String("sync_id", log.ID.String()),
	)

	includePrice := itg.PricingSyncEnabled && adapter.SupportsPricingSync()

	connectionFailed := false
	cursor := ""
	for page := 0; page < maxPages; page++ {
		stockPage, err := o.fetchPage(runCtx, adapter, itg, cursor)
		if err != nil {
			o.logger.Warn("Sync run failed on connection",
				zap.String("integration_id", itg.ID.String()),
				zap.Error(err),
			)
			_ = log.FailConnection(err.Error())
			connectionFailed = true
			break
		}

		for _, issue := range stockPage.RowErrors {
			log.RecordProcessed()
			log.RecordRowError(issue.SKU, issue.Message)
		}
		for _, record := range stockPage.Records {
			o.processRecord(runCtx, itg, record, includePrice, log)
		}

		cursor = stockPage.NextCursor
		if cursor == "" {
			break
		}
	}

	if !connectionFailed && cursor != "" {
		// The adapter never terminated its cursor; data beyond the page cap
		// was not fetched, so the run must not report a clean SUCCESS.
		o.logger.Warn("Sync run stopped at the page cap with more data pending",
			zap.String("integration_id", itg.ID.String()),
			zap.String("sync_id", log.ID.String()),
			zap.Int("max_pages", maxPages),
		)
		log.RecordProcessed()
		log.RecordRowError("", fmt.Sprintf("stopped after %d pages with more data pending", maxPages))
	}

	if !connectionFailed {
		if err := log.Finalize(); err != nil {
			return nil, err
		}
	}
	if err := o.syncLogs.Save(context.WithoutCancel(ctx), log); err != nil {
		return nil, fmt.Errorf("failed to record run completion: %w", err)
	}

	// Scoped write: the run may have taken a while and the operator may have
	// edited the integration in the meantime.
	if err := o.integrations.RecordSyncOutcome(context.WithoutCancel(ctx), itg.ID, *log.CompletedAt, log.Status, connectionFailed); err != nil {
		return nil, fmt.Errorf("failed to record run outcome: %w", err)
	}

	o.logger.Info("Sync run completed",
		zap.String("integration_id", itg.ID.String()),
		zap.String("sync_id", log.ID.String()),
		zap.String("status", string(log.Status)),
		zap.Int("processed", log.Processed),
		zap.Int("updated", log.Updated),
		zap.Int("failed", log.Failed),
		zap.Int64("duration_ms", log.DurationMs),
	)
	return log, nil
}

// fetchPage calls the adapter under the per-call timeout
func (o *Orchestrator) fetchPage(ctx context.Context, adapter integration.StockAdapter, itg *integration.Integration, cursor string) (*integration.StockPage, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	defer cancel()
	return adapter.FetchStockRecords(fetchCtx, itg, cursor)
}

// processRecord resolves and reconciles one record. Every failure here is
// row-level: counted, never escalated.
func (o *Orchestrator) processRecord(ctx context.Context, itg *integration.Integration, record integration.StockRecord, includePrice bool, log *integration.SyncLog) {
	log.RecordProcessed()

	resolution, err := o.resolver.Resolve(ctx, itg, record)
	if err != nil {
		log.RecordRowError(record.SKU, err.Error())
		return
	}
	if resolution.MappingCreated {
		log.RecordCreated()
	}

	switch resolution.Action {
	case ActionSkipIgnored, ActionUnmapped:
		return
	case ActionApply:
		changed, err := o.reconciler.Apply(ctx, resolution.VariantID, record, includePrice)
		if err != nil {
			log.RecordRowError(record.SKU, err.Error())
			return
		}
		if changed {
			log.RecordUpdated()
		}
	}
}
