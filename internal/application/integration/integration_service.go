// Package integration provides the application services behind the operator
// API: integration lifecycle, SKU mapping management and feed uploads.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// ErrUploadNotSupported rejects uploads for adapters that are not file fed
var ErrUploadNotSupported = fmt.Errorf("%w: adapter does not accept file uploads", integration.ErrInvalidAdapterType)

// UploadQueue receives uploaded feed files for the next sync run
type UploadQueue interface {
	Enqueue(integrationID uuid.UUID, payload []byte)
}

// FeedArchive keeps a copy of every uploaded feed file for audit
type FeedArchive interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

// IntegrationService manages the integration lifecycle
type IntegrationService struct {
	integrations integration.IntegrationRepository
	syncLogs     integration.SyncLogRepository
	uploads      UploadQueue
	archive      FeedArchive
	logger       *zap.Logger
}

// NewIntegrationService creates a new IntegrationService. archive may be nil
// when object storage is disabled; uploads are then kept in memory only.
func NewIntegrationService(
	integrations integration.IntegrationRepository,
	syncLogs integration.SyncLogRepository,
	uploads UploadQueue,
	archive FeedArchive,
	logger *zap.Logger,
) *IntegrationService {
	return &IntegrationService{
		integrations: integrations,
		syncLogs:     syncLogs,
		uploads:      uploads,
		archive:      archive,
		logger:       logger.Named("integration_service"),
	}
}

// Create registers a new integration in PENDING_SETUP
func (s *IntegrationService) Create(ctx context.Context, req CreateIntegrationRequest) (*integration.Integration, error) {
	adapterType := integration.AdapterType(req.AdapterType)
	if !adapterType.IsValid() {
		return nil, integration.ErrInvalidAdapterType
	}

	cfg, err := integration.ParseConfig(adapterType, req.Config)
	if err != nil {
		return nil, err
	}

	itg, err := integration.NewIntegration(req.BrandID, req.BranchID, adapterType, req.Name, cfg)
	if err != nil {
		return nil, err
	}
	itg.Description = req.Description
	if req.SyncIntervalMinutes > 0 {
		itg.SyncIntervalMinutes = req.SyncIntervalMinutes
	}
	itg.PricingSyncEnabled = req.PricingSyncEnabled

	if err := s.integrations.Save(ctx, itg); err != nil {
		return nil, err
	}

	s.logger.Info("Integration created",
		zap.String("integration_id", itg.ID.String()),
		zap.String("adapter_type", adapterType.String()),
	)
	return itg, nil
}

// Get retrieves an integration together with its aggregated run stats
func (s *IntegrationService) Get(ctx context.Context, id uuid.UUID) (*integration.Integration, *integration.SyncStats, error) {
	itg, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.syncLogs.Stats(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return itg, stats, nil
}

// List lists integrations with filtering
func (s *IntegrationService) List(ctx context.Context, filter integration.IntegrationFilter) ([]integration.Integration, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.integrations.FindAll(ctx, filter)
}

// Update applies a partial update. A config replacement that fails validation
// drops the integration back to PENDING_SETUP instead of being rejected.
func (s *IntegrationService) Update(ctx context.Context, id uuid.UUID, req UpdateIntegrationRequest) (*integration.Integration, error) {
	itg, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, integration.ErrIntegrationNameRequired
		}
		itg.Name = *req.Name
	}
	if req.Description != nil {
		itg.Description = *req.Description
	}
	if req.SyncIntervalMinutes != nil {
		itg.SyncIntervalMinutes = *req.SyncIntervalMinutes
	}
	if req.PricingSyncEnabled != nil {
		itg.PricingSyncEnabled = *req.PricingSyncEnabled
	}
	if len(req.Config) > 0 {
		cfg, err := integration.ParseConfig(itg.AdapterType, req.Config)
		if err != nil {
			return nil, err
		}
		itg.UpdateConfig(cfg)
	}
	itg.Touch()

	if err := s.integrations.Save(ctx, itg); err != nil {
		return nil, err
	}
	return itg, nil
}

// Delete soft-deletes an integration; its sync history stays referenceable
func (s *IntegrationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.integrations.FindByID(ctx, id); err != nil {
		return err
	}
	return s.integrations.SoftDelete(ctx, id)
}

// Toggle flips the active flag. Activation validates the stored config and
// fails with ErrConfigurationInvalid when it is incomplete.
func (s *IntegrationService) Toggle(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	itg, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if itg.IsActive {
		itg.Deactivate()
	} else if err := itg.Activate(); err != nil {
		return nil, err
	}

	if err := s.integrations.Save(ctx, itg); err != nil {
		return nil, err
	}

	s.logger.Info("Integration toggled",
		zap.String("integration_id", itg.ID.String()),
		zap.Bool("is_active", itg.IsActive),
	)
	return itg, nil
}

// Schema returns the config field schema for an adapter type
func (s *IntegrationService) Schema(adapterType string) ([]integration.FieldSpec, error) {
	at := integration.AdapterType(adapterType)
	if !at.IsValid() {
		return nil, integration.ErrInvalidAdapterType
	}
	return integration.ConfigSchema(at), nil
}

// SubmitUpload accepts one feed file for a file-based integration. The file
// is queued for the next run and archived to object storage when available.
func (s *IntegrationService) SubmitUpload(ctx context.Context, id uuid.UUID, filename string, content []byte) error {
	itg, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !itg.AdapterType.FileBased() {
		return ErrUploadNotSupported
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: uploaded file is empty", integration.ErrConfigurationInvalid)
	}

	s.uploads.Enqueue(itg.ID, content)

	if s.archive != nil {
		key := fmt.Sprintf("uploads/%s/%s_%s", itg.ID, time.Now().UTC().Format("20060102T150405"), filename)
		if err := s.archive.Put(ctx, "", key, bytes.NewReader(content), "text/csv"); err != nil {
			// The queued copy drives the run; a failed archive write is not fatal
			s.logger.Warn("Failed to archive uploaded feed",
				zap.String("integration_id", itg.ID.String()),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Feed file uploaded",
		zap.String("integration_id", itg.ID.String()),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)),
	)
	return nil
}

// ListSyncLogs lists sync runs with filtering
func (s *IntegrationService) ListSyncLogs(ctx context.Context, filter integration.SyncLogFilter) ([]integration.SyncLog, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.syncLogs.FindAll(ctx, filter)
}

// GetSyncLog retrieves one sync run with error detail
func (s *IntegrationService) GetSyncLog(ctx context.Context, id uuid.UUID) (*integration.SyncLog, error) {
	return s.syncLogs.FindByID(ctx, id)
}
