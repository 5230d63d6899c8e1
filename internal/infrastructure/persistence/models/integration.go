// Package models holds the persistence models that need a representation
// separate from their domain entity, typically because a field is serialized
// to a JSON column.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/domain/shared"
)

// IntegrationModel is the persistence model for the Integration aggregate.
// The typed adapter configuration is stored as a JSON column.
type IntegrationModel struct {
	ID                  uuid.UUID                     `gorm:"type:uuid;primary_key"`
	BrandID             uuid.UUID                     `gorm:"type:uuid;not null;index"`
	BranchID            uuid.UUID                     `gorm:"type:uuid;not null;index"`
	AdapterType         integration.AdapterType       `gorm:"type:varchar(30);not null"`
	Name                string                        `gorm:"type:varchar(255);not null"`
	Description         string                        `gorm:"type:text"`
	ConfigJSON          string                        `gorm:"type:jsonb;column:config"`
	SyncIntervalMinutes int                           `gorm:"not null;default:60"`
	PricingSyncEnabled  bool                          `gorm:"not null;default:false"`
	IsActive            bool                          `gorm:"not null;default:false"`
	Status              integration.IntegrationStatus `gorm:"type:varchar(20);not null;default:'PENDING_SETUP'"`
	LastSyncAt          *time.Time
	LastSyncStatus      integration.SyncRunStatus `gorm:"type:varchar(20)"`
	CreatedAt           time.Time                 `gorm:"not null"`
	UpdatedAt           time.Time                 `gorm:"not null"`
	DeletedAt           gorm.DeletedAt            `gorm:"index"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration
func (m *IntegrationModel) ToDomain() *integration.Integration {
	itg := &integration.Integration{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BrandID:             m.BrandID,
		BranchID:            m.BranchID,
		AdapterType:         m.AdapterType,
		Name:                m.Name,
		Description:         m.Description,
		SyncIntervalMinutes: m.SyncIntervalMinutes,
		PricingSyncEnabled:  m.PricingSyncEnabled,
		IsActive:            m.IsActive,
		Status:              m.Status,
		LastSyncAt:          m.LastSyncAt,
		LastSyncStatus:      m.LastSyncStatus,
		DeletedAt:           m.DeletedAt,
	}

	// A config that no longer parses leaves Config nil; Activate rejects it
	if cfg, err := integration.ParseConfig(m.AdapterType, []byte(m.ConfigJSON)); err == nil {
		itg.Config = cfg
	}
	return itg
}

// FromDomain populates the persistence model from a domain Integration
func (m *IntegrationModel) FromDomain(itg *integration.Integration) {
	m.ID = itg.ID
	m.BrandID = itg.BrandID
	m.BranchID = itg.BranchID
	m.AdapterType = itg.AdapterType
	m.Name = itg.Name
	m.Description = itg.Description
	m.SyncIntervalMinutes = itg.SyncIntervalMinutes
	m.PricingSyncEnabled = itg.PricingSyncEnabled
	m.IsActive = itg.IsActive
	m.Status = itg.Status
	m.LastSyncAt = itg.LastSyncAt
	m.LastSyncStatus = itg.LastSyncStatus
	m.CreatedAt = itg.CreatedAt
	m.UpdatedAt = itg.UpdatedAt
	m.DeletedAt = itg.DeletedAt

	if raw, err := integration.EncodeConfig(itg.Config); err == nil {
		m.ConfigJSON = string(raw)
	} else {
		m.ConfigJSON = "{}"
	}
}

// IntegrationModelFromDomain creates a persistence model from a domain Integration
func IntegrationModelFromDomain(itg *integration.Integration) *IntegrationModel {
	m := &IntegrationModel{}
	m.FromDomain(itg)
	return m
}

// SyncLogModel is the persistence model for the SyncLog aggregate. The
// bounded error list is stored as a JSON column.
type SyncLogModel struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primary_key"`
	IntegrationID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Trigger       integration.SyncTrigger   `gorm:"type:varchar(20);not null"`
	Status        integration.SyncRunStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	StartedAt     time.Time                 `gorm:"not null;index"`
	CompletedAt   *time.Time
	Processed     int    `gorm:"not null;default:0"`
	Updated       int    `gorm:"not null;default:0"`
	Created       int    `gorm:"not null;default:0"`
	Failed        int    `gorm:"not null;default:0"`
	DurationMs    int64  `gorm:"not null;default:0"`
	ErrorsJSON    string `gorm:"type:jsonb;column:errors"`
	TotalErrors   int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog
func (m *SyncLogModel) ToDomain() *integration.SyncLog {
	log := &integration.SyncLog{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		IntegrationID: m.IntegrationID,
		Trigger:       m.Trigger,
		Status:        m.Status,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		Processed:     m.Processed,
		Updated:       m.Updated,
		Created:       m.Created,
		Failed:        m.Failed,
		DurationMs:    m.DurationMs,
		Errors:        make([]integration.SyncRowError, 0),
		TotalErrors:   m.TotalErrors,
	}

	if m.ErrorsJSON != "" {
		var rowErrors []integration.SyncRowError
		if err := json.Unmarshal([]byte(m.ErrorsJSON), &rowErrors); err == nil {
			log.Errors = rowErrors
		}
	}
	return log
}

// FromDomain populates the persistence model from a domain SyncLog
func (m *SyncLogModel) FromDomain(log *integration.SyncLog) {
	m.ID = log.ID
	m.IntegrationID = log.IntegrationID
	m.Trigger = log.Trigger
	m.Status = log.Status
	m.StartedAt = log.StartedAt
	m.CompletedAt = log.CompletedAt
	m.Processed = log.Processed
	m.Updated = log.Updated
	m.Created = log.Created
	m.Failed = log.Failed
	m.DurationMs = log.DurationMs
	m.TotalErrors = log.TotalErrors
	m.CreatedAt = log.CreatedAt
	m.UpdatedAt = log.UpdatedAt

	if len(log.Errors) > 0 {
		if raw, err := json.Marshal(log.Errors); err == nil {
			m.ErrorsJSON = string(raw)
		}
	} else {
		m.ErrorsJSON = "[]"
	}
}

// SyncLogModelFromDomain creates a persistence model from a domain SyncLog
func SyncLogModelFromDomain(log *integration.SyncLog) *SyncLogModel {
	m := &SyncLogModel{}
	m.FromDomain(log)
	return m
}
