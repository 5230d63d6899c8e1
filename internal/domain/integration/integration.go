package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	ErrIntegrationNotFound     = errors.New("integration: integration not found")
	ErrInvalidBrandID          = errors.New("integration: invalid brand ID")
	ErrInvalidBranchID         = errors.New("integration: invalid branch ID")
	ErrInvalidAdapterType      = errors.New("integration: invalid adapter type")
	ErrIntegrationNameRequired = errors.New("integration: name is required")
	ErrIntegrationInactive     = errors.New("integration: integration is not active")
	ErrConfigurationInvalid    = errors.New("integration: adapter configuration is invalid")

	// ErrConnectionFailed marks a connection-level adapter failure: auth or
	// network errors that abort the whole fetch. Row-level problems are
	// reported through SyncRowError instead and never wrap this sentinel.
	ErrConnectionFailed = errors.New("integration: connection to external system failed")

	// ErrSyncAlreadyRunning is the concurrency rejection surfaced when a
	// trigger arrives while a run for the same integration is in flight.
	ErrSyncAlreadyRunning = errors.New("integration: sync already running for this integration")
)

// ---------------------------------------------------------------------------
// AdapterType
// ---------------------------------------------------------------------------

// AdapterType identifies which protocol variant an integration speaks.
type AdapterType string

const (
	// AdapterTypeShopLink is a cloud POS with API key/secret signed REST polling
	AdapterTypeShopLink AdapterType = "SHOPLINK"
	// AdapterTypeERPFileExport pulls structured export files from a file source
	AdapterTypeERPFileExport AdapterType = "ERP_FILE_EXPORT"
	// AdapterTypeVendHub is a cloud POS with bearer-token REST polling and outlet scoping
	AdapterTypeVendHub AdapterType = "VENDHUB"
	// AdapterTypeCSVImport parses spreadsheets with configurable column names
	AdapterTypeCSVImport AdapterType = "CSV_IMPORT"
	// AdapterTypeWebhook receives signed inbound pushes
	AdapterTypeWebhook AdapterType = "WEBHOOK"
	// AdapterTypeCustom carries an open-ended JSON configuration
	AdapterTypeCustom AdapterType = "CUSTOM"
)

// IsValid returns true if the adapter type is known
func (t AdapterType) IsValid() bool {
	switch t {
	case AdapterTypeShopLink, AdapterTypeERPFileExport, AdapterTypeVendHub,
		AdapterTypeCSVImport, AdapterTypeWebhook, AdapterTypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of AdapterType
func (t AdapterType) String() string {
	return string(t)
}

// FileBased returns true for variants fed by uploaded or dropped files
func (t AdapterType) FileBased() bool {
	return t == AdapterTypeERPFileExport || t == AdapterTypeCSVImport
}

// ---------------------------------------------------------------------------
// IntegrationStatus
// ---------------------------------------------------------------------------

// IntegrationStatus is the lifecycle status of an integration.
type IntegrationStatus string

const (
	// IntegrationStatusPendingSetup means the configuration has not been
	// validated yet; syncs cannot start.
	IntegrationStatusPendingSetup IntegrationStatus = "PENDING_SETUP"
	// IntegrationStatusActive means the integration is configured and syncable
	IntegrationStatusActive IntegrationStatus = "ACTIVE"
	// IntegrationStatusError means the last run hit a connection-level failure
	IntegrationStatusError IntegrationStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationStatusPendingSetup, IntegrationStatusActive, IntegrationStatusError:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Integration Aggregate Root
// ---------------------------------------------------------------------------

// Integration is one configured connection between a branch and an external
// POS/ERP/file source. Sync runs mutate only the status/last-sync fields;
// operators mutate config and the active flag.
type Integration struct {
	shared.BaseEntity
	BrandID             uuid.UUID         `gorm:"type:uuid;not null;index"`
	BranchID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	AdapterType         AdapterType       `gorm:"type:varchar(30);not null"`
	Name                string            `gorm:"type:varchar(255);not null"`
	Description         string            `gorm:"type:text"`
	Config              AdapterConfig     `gorm:"-"`
	SyncIntervalMinutes int               `gorm:"not null;default:60"`
	PricingSyncEnabled  bool              `gorm:"not null;default:false"`
	IsActive            bool              `gorm:"not null;default:false"`
	Status              IntegrationStatus `gorm:"type:varchar(20);not null;default:'PENDING_SETUP'"`
	LastSyncAt          *time.Time
	LastSyncStatus      SyncRunStatus  `gorm:"type:varchar(20)"`
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

// NewIntegration creates an integration in PENDING_SETUP. The configuration
// may be incomplete at this point; Activate enforces validity.
func NewIntegration(brandID, branchID uuid.UUID, adapterType AdapterType, name string, config AdapterConfig) (*Integration, error) {
	if brandID == uuid.Nil {
		return nil, ErrInvalidBrandID
	}
	if branchID == uuid.Nil {
		return nil, ErrInvalidBranchID
	}
	if !adapterType.IsValid() {
		return nil, ErrInvalidAdapterType
	}
	if name == "" {
		return nil, ErrIntegrationNameRequired
	}

	return &Integration{
		BaseEntity:          shared.NewBaseEntity(),
		BrandID:             brandID,
		BranchID:            branchID,
		AdapterType:         adapterType,
		Name:                name,
		Config:              config,
		SyncIntervalMinutes: 60,
		IsActive:            false,
		Status:              IntegrationStatusPendingSetup,
	}, nil
}

// Activate validates the stored configuration and enables the integration.
// A ConfigurationError blocks the integration from leaving PENDING_SETUP.
func (i *Integration) Activate() error {
	if i.Config == nil {
		return ErrConfigurationInvalid
	}
	if err := i.Config.Validate(); err != nil {
		return err
	}
	i.IsActive = true
	i.Status = IntegrationStatusActive
	i.Touch()
	return nil
}

// Deactivate suppresses future automatic triggers. An in-flight run is
// allowed to finish.
func (i *Integration) Deactivate() {
	i.IsActive = false
	i.Touch()
}

// CanSync reports whether a run may be started for this integration
func (i *Integration) CanSync() bool {
	return i.IsActive && i.Status != IntegrationStatusPendingSetup
}

// RecordSyncResult applies the outcome of a completed run to the shared
// status fields. Called exactly once per run, at completion; only a
// connection-level failure flips the integration into ERROR.
func (i *Integration) RecordSyncResult(completedAt time.Time, status SyncRunStatus, connectionFailed bool) {
	i.LastSyncAt = &completedAt
	i.LastSyncStatus = status
	if connectionFailed {
		i.Status = IntegrationStatusError
	} else if i.Status == IntegrationStatusError {
		// A clean run recovers the integration from a previous error.
		i.Status = IntegrationStatusActive
	}
	i.Touch()
}

// UpdateConfig replaces the adapter configuration. An invalid replacement
// drops the integration back to PENDING_SETUP rather than being rejected,
// so operators can save work-in-progress configs.
func (i *Integration) UpdateConfig(config AdapterConfig) {
	i.Config = config
	if config == nil || config.Validate() != nil {
		i.IsActive = false
		i.Status = IntegrationStatusPendingSetup
	}
	i.Touch()
}

// TableName returns the table name for GORM
func (Integration) TableName() string {
	return "integrations"
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// IntegrationFilter defines filter criteria for listing integrations
type IntegrationFilter struct {
	BrandID     *uuid.UUID
	BranchID    *uuid.UUID
	AdapterType *AdapterType
	IsActive    *bool
	Status      *IntegrationStatus
	Page        int
	PageSize    int
}

// IntegrationRepository persists integrations
type IntegrationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)
	FindAll(ctx context.Context, filter IntegrationFilter) ([]Integration, int64, error)
	FindActive(ctx context.Context) ([]Integration, error)
	Save(ctx context.Context, integration *Integration) error
	// RecordSyncOutcome writes the outcome of a completed run to the
	// integration's sync-status columns only, so operator edits made while
	// the run was in flight are not overwritten.
	RecordSyncOutcome(ctx context.Context, id uuid.UUID, completedAt time.Time, status SyncRunStatus, connectionFailed bool) error
	// SoftDelete marks the integration deleted while keeping its sync
	// history referenceable.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
