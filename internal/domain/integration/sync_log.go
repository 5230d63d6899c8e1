package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/modaretail/backend/internal/domain/shared"
)

// MaxSyncErrors caps the per-run error list. Errors beyond the cap are
// counted but not stored; TotalErrors carries the real number.
const MaxSyncErrors = 50

var (
	ErrSyncLogNotFound  = errors.New("integration: sync log not found")
	ErrSyncLogFinalized = errors.New("integration: sync log already finalized")
)

// ---------------------------------------------------------------------------
// SyncRunStatus
// ---------------------------------------------------------------------------

// SyncRunStatus is the state of one synchronization run.
// Transitions: PENDING -> RUNNING -> {SUCCESS, PARTIAL, FAILED}.
type SyncRunStatus string

const (
	SyncRunStatusPending SyncRunStatus = "PENDING"
	SyncRunStatusRunning SyncRunStatus = "RUNNING"
	SyncRunStatusSuccess SyncRunStatus = "SUCCESS"
	SyncRunStatusPartial SyncRunStatus = "PARTIAL"
	SyncRunStatusFailed  SyncRunStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncRunStatus) IsValid() bool {
	switch s {
	case SyncRunStatusPending, SyncRunStatusRunning, SyncRunStatusSuccess,
		SyncRunStatusPartial, SyncRunStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the run can no longer change state
func (s SyncRunStatus) IsTerminal() bool {
	switch s {
	case SyncRunStatusSuccess, SyncRunStatusPartial, SyncRunStatusFailed:
		return true
	default:
		return false
	}
}

// SyncTrigger records what started a run
type SyncTrigger string

const (
	SyncTriggerScheduled SyncTrigger = "SCHEDULED"
	SyncTriggerManual    SyncTrigger = "MANUAL"
	SyncTriggerUpload    SyncTrigger = "UPLOAD"
	SyncTriggerWebhook   SyncTrigger = "WEBHOOK"
)

// SyncRowError is one row-level failure captured during a run
type SyncRowError struct {
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// SyncLog Aggregate Root
// ---------------------------------------------------------------------------

// SyncLog is the auditable record of a single run. It is created at run
// start, mutated only by the owning run, and immutable once completed.
type SyncLog struct {
	shared.BaseEntity
	IntegrationID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Trigger       SyncTrigger   `gorm:"type:varchar(20);not null"`
	Status        SyncRunStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	StartedAt     time.Time     `gorm:"not null"`
	CompletedAt   *time.Time
	Processed     int `gorm:"not null;default:0"`
	Updated       int `gorm:"not null;default:0"`
	Created       int `gorm:"not null;default:0"`
	Failed        int `gorm:"not null;default:0"`
	DurationMs    int64
	Errors        []SyncRowError `gorm:"-"`
	// TotalErrors counts every row failure, including those truncated from
	// the bounded Errors list.
	TotalErrors int `gorm:"not null;default:0"`
}

// NewSyncLog creates a RUNNING log for a freshly started run
func NewSyncLog(integrationID uuid.UUID, trigger SyncTrigger) *SyncLog {
	return &SyncLog{
		BaseEntity:    shared.NewBaseEntity(),
		IntegrationID: integrationID,
		Trigger:       trigger,
		Status:        SyncRunStatusRunning,
		StartedAt:     time.Now(),
		Errors:        make([]SyncRowError, 0),
	}
}

// RecordProcessed counts one record pulled from the adapter
func (l *SyncLog) RecordProcessed() {
	l.Processed++
}

// RecordUpdated counts one successful stock/price write
func (l *SyncLog) RecordUpdated() {
	l.Updated++
}

// RecordCreated counts one newly created mapping row
func (l *SyncLog) RecordCreated() {
	l.Created++
}

// RecordRowError captures a row-level failure. The stored list is bounded;
// the total keeps counting.
func (l *SyncLog) RecordRowError(sku, message string) {
	l.Failed++
	l.TotalErrors++
	if len(l.Errors) < MaxSyncErrors {
		l.Errors = append(l.Errors, SyncRowError{SKU: sku, Message: message})
	}
}

// TruncatedErrors returns how many errors were dropped from the bounded list
func (l *SyncLog) TruncatedErrors() int {
	if n := l.TotalErrors - len(l.Errors); n > 0 {
		return n
	}
	return 0
}

// Finalize transitions the run to its terminal status from the counters:
// FAILED when everything processed failed, PARTIAL on a mix, SUCCESS when
// nothing failed.
func (l *SyncLog) Finalize() error {
	if l.Status.IsTerminal() {
		return ErrSyncLogFinalized
	}

	switch {
	case l.Failed == 0:
		l.Status = SyncRunStatusSuccess
	case l.Failed < l.Processed:
		l.Status = SyncRunStatusPartial
	default:
		l.Status = SyncRunStatusFailed
	}
	l.complete()
	return nil
}

// FailConnection terminates the run on a connection-level adapter failure
func (l *SyncLog) FailConnection(message string) error {
	if l.Status.IsTerminal() {
		return ErrSyncLogFinalized
	}
	l.Status = SyncRunStatusFailed
	if message != "" {
		l.TotalErrors++
		if len(l.Errors) < MaxSyncErrors {
			l.Errors = append(l.Errors, SyncRowError{Message: message})
		}
	}
	l.complete()
	return nil
}

func (l *SyncLog) complete() {
	now := time.Now()
	l.CompletedAt = &now
	l.DurationMs = now.Sub(l.StartedAt).Milliseconds()
	l.Touch()
}

// TableName returns the table name for GORM
func (SyncLog) TableName() string {
	return "sync_logs"
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// SyncStats aggregates run history for one integration
type SyncStats struct {
	TotalSyncs      int64 `json:"total_syncs"`
	SuccessfulSyncs int64 `json:"successful_syncs"`
	FailedSyncs     int64 `json:"failed_syncs"`
	ProductsSynced  int64 `json:"products_synced"`
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// SyncLogFilter defines filter criteria for listing sync logs
type SyncLogFilter struct {
	IntegrationID *uuid.UUID
	Status        *SyncRunStatus
	Page          int
	PageSize      int
}

// SyncLogRepository persists sync run history
type SyncLogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncLog, error)
	FindAll(ctx context.Context, filter SyncLogFilter) ([]SyncLog, int64, error)
	Save(ctx context.Context, log *SyncLog) error
	// Stats aggregates run counters for one integration
	Stats(ctx context.Context, integrationID uuid.UUID) (*SyncStats, error)
}
