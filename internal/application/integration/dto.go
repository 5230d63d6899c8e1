package integration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/modaretail/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Integration DTOs
// ---------------------------------------------------------------------------

// IntegrationResponse represents an integration in API responses. Secret
// config fields are redacted before they leave the service.
type IntegrationResponse struct {
	ID                  uuid.UUID                     `json:"id"`
	BrandID             uuid.UUID                     `json:"brand_id"`
	BranchID            uuid.UUID                     `json:"branch_id"`
	AdapterType         integration.AdapterType       `json:"adapter_type"`
	Name                string                        `json:"name"`
	Description         string                        `json:"description,omitempty"`
	Config              json.RawMessage               `json:"config"`
	SyncIntervalMinutes int                           `json:"sync_interval_minutes"`
	PricingSyncEnabled  bool                          `json:"pricing_sync_enabled"`
	IsActive            bool                          `json:"is_active"`
	Status              integration.IntegrationStatus `json:"status"`
	LastSyncAt          *time.Time                    `json:"last_sync_at,omitempty"`
	LastSyncStatus      integration.SyncRunStatus     `json:"last_sync_status,omitempty"`
	Stats               *integration.SyncStats        `json:"stats,omitempty"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

// IntegrationListResponse represents an integration in list responses (lighter)
type IntegrationListResponse struct {
	ID                  uuid.UUID                     `json:"id"`
	BranchID            uuid.UUID                     `json:"branch_id"`
	AdapterType         integration.AdapterType       `json:"adapter_type"`
	Name                string                        `json:"name"`
	SyncIntervalMinutes int                           `json:"sync_interval_minutes"`
	IsActive            bool                          `json:"is_active"`
	Status              integration.IntegrationStatus `json:"status"`
	LastSyncAt          *time.Time                    `json:"last_sync_at,omitempty"`
	LastSyncStatus      integration.SyncRunStatus     `json:"last_sync_status,omitempty"`
}

// CreateIntegrationRequest represents a request to create an integration
type CreateIntegrationRequest struct {
	BrandID             uuid.UUID       `json:"brand_id" binding:"required"`
	BranchID            uuid.UUID       `json:"branch_id" binding:"required"`
	AdapterType         string          `json:"adapter_type" binding:"required"`
	Name                string          `json:"name" binding:"required,max=255"`
	Description         string          `json:"description,omitempty"`
	Config              json.RawMessage `json:"config,omitempty"`
	SyncIntervalMinutes int             `json:"sync_interval_minutes,omitempty" binding:"omitempty,min=1,max=1440"`
	PricingSyncEnabled  bool            `json:"pricing_sync_enabled,omitempty"`
}

// UpdateIntegrationRequest represents a partial update of an integration
type UpdateIntegrationRequest struct {
	Name                *string         `json:"name,omitempty" binding:"omitempty,max=255"`
	Description         *string         `json:"description,omitempty"`
	Config              json.RawMessage `json:"config,omitempty"`
	SyncIntervalMinutes *int            `json:"sync_interval_minutes,omitempty" binding:"omitempty,min=1,max=1440"`
	PricingSyncEnabled  *bool           `json:"pricing_sync_enabled,omitempty"`
}

// IntegrationListFilter represents filter options for listing integrations
type IntegrationListFilter struct {
	BrandID     string `form:"brand_id"`
	BranchID    string `form:"branch_id"`
	AdapterType string `form:"adapter_type"`
	IsActive    *bool  `form:"is_active"`
	Status      string `form:"status"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// ToDomainFilter converts a list filter to domain filter
func (f IntegrationListFilter) ToDomainFilter() integration.IntegrationFilter {
	filter := integration.IntegrationFilter{
		IsActive: f.IsActive,
		Page:     f.Page,
		PageSize: f.PageSize,
	}
	if id, err := uuid.Parse(f.BrandID); err == nil {
		filter.BrandID = &id
	}
	if id, err := uuid.Parse(f.BranchID); err == nil {
		filter.BranchID = &id
	}
	if f.AdapterType != "" {
		at := integration.AdapterType(f.AdapterType)
		if at.IsValid() {
			filter.AdapterType = &at
		}
	}
	if f.Status != "" {
		status := integration.IntegrationStatus(f.Status)
		if status.IsValid() {
			filter.Status = &status
		}
	}
	return filter
}

// ---------------------------------------------------------------------------
// Sync log DTOs
// ---------------------------------------------------------------------------

// SyncLogResponse represents a sync run in API responses, with error detail
type SyncLogResponse struct {
	ID              uuid.UUID                  `json:"id"`
	IntegrationID   uuid.UUID                  `json:"integration_id"`
	Trigger         integration.SyncTrigger    `json:"trigger"`
	Status          integration.SyncRunStatus  `json:"status"`
	StartedAt       time.Time                  `json:"started_at"`
	CompletedAt     *time.Time                 `json:"completed_at,omitempty"`
	Processed       int                        `json:"processed"`
	Updated         int                        `json:"updated"`
	Created         int                        `json:"created"`
	Failed          int                        `json:"failed"`
	DurationMs      int64                      `json:"duration_ms"`
	Errors          []integration.SyncRowError `json:"errors"`
	TruncatedErrors int                        `json:"truncated_errors"`
}

// SyncLogListResponse represents a sync run in list responses (no error detail)
type SyncLogListResponse struct {
	ID            uuid.UUID                 `json:"id"`
	IntegrationID uuid.UUID                 `json:"integration_id"`
	Trigger       integration.SyncTrigger   `json:"trigger"`
	Status        integration.SyncRunStatus `json:"status"`
	StartedAt     time.Time                 `json:"started_at"`
	CompletedAt   *time.Time                `json:"completed_at,omitempty"`
	Processed     int                       `json:"processed"`
	Updated       int                       `json:"updated"`
	Failed        int                       `json:"failed"`
	DurationMs    int64                     `json:"duration_ms"`
}

// SyncLogListFilter represents filter options for listing sync logs
type SyncLogListFilter struct {
	IntegrationID string `form:"integration_id"`
	Status        string `form:"status"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// ToDomainFilter converts a list filter to domain filter
func (f SyncLogListFilter) ToDomainFilter() integration.SyncLogFilter {
	filter := integration.SyncLogFilter{
		Page:     f.Page,
		PageSize: f.PageSize,
	}
	if id, err := uuid.Parse(f.IntegrationID); err == nil {
		filter.IntegrationID = &id
	}
	if f.Status != "" {
		status := integration.SyncRunStatus(f.Status)
		if status.IsValid() {
			filter.Status = &status
		}
	}
	return filter
}

// ---------------------------------------------------------------------------
// SKU mapping DTOs
// ---------------------------------------------------------------------------

// SKUMappingResponse represents a SKU mapping in API responses
type SKUMappingResponse struct {
	ID            uuid.UUID                 `json:"id"`
	IntegrationID uuid.UUID                 `json:"integration_id"`
	ExternalSKU   string                    `json:"external_sku"`
	ExternalName  string                    `json:"external_name,omitempty"`
	ProductID     *uuid.UUID                `json:"product_id,omitempty"`
	VariantID     *uuid.UUID                `json:"variant_id,omitempty"`
	ProductName   string                    `json:"product_name,omitempty"`
	IsIgnored     bool                      `json:"is_ignored"`
	Source        integration.MappingSource `json:"source"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// CreateMappingRequest represents a request to create a SKU mapping manually
type CreateMappingRequest struct {
	ExternalSKU  string     `json:"external_sku" binding:"required,max=100"`
	ExternalName string     `json:"external_name,omitempty"`
	VariantID    *uuid.UUID `json:"variant_id,omitempty"`
	Ignored      bool       `json:"ignored,omitempty"`
}

// UpdateMappingRequest represents a request to rebind, unbind or (un)ignore
// a mapping
type UpdateMappingRequest struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Unbind    bool       `json:"unbind,omitempty"`
	Ignored   *bool      `json:"ignored,omitempty"`
}

// MappingListFilter represents filter options for listing SKU mappings
type MappingListFilter struct {
	OnlyUnmapped bool   `form:"only_unmapped"`
	OnlyIgnored  bool   `form:"only_ignored"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// ToDomainFilter converts a list filter to domain filter
func (f MappingListFilter) ToDomainFilter() integration.SKUMappingFilter {
	return integration.SKUMappingFilter{
		OnlyUnmapped: f.OnlyUnmapped,
		OnlyIgnored:  f.OnlyIgnored,
		Search:       f.Search,
		Page:         f.Page,
		PageSize:     f.PageSize,
	}
}

// ---------------------------------------------------------------------------
// Conversion functions
// ---------------------------------------------------------------------------

const redactedValue = "********"

// RedactConfig blanks out password-kind fields of a serialized adapter
// configuration so secrets never reach API responses.
func RedactConfig(adapterType integration.AdapterType, cfg integration.AdapterConfig) json.RawMessage {
	raw, err := integration.EncodeConfig(cfg)
	if err != nil {
		return json.RawMessage("{}")
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return json.RawMessage("{}")
	}
	for _, spec := range integration.ConfigSchema(adapterType) {
		if spec.Kind != integration.FieldKindPassword {
			continue
		}
		if v, ok := fields[spec.Name].(string); ok && v != "" {
			fields[spec.Name] = redactedValue
		}
	}

	redacted, err := json.Marshal(fields)
	if err != nil {
		return json.RawMessage("{}")
	}
	return redacted
}

// ToIntegrationResponse converts a domain Integration to a response DTO
func ToIntegrationResponse(itg *integration.Integration, stats *integration.SyncStats) IntegrationResponse {
	return IntegrationResponse{
		ID:                  itg.ID,
		BrandID:             itg.BrandID,
		BranchID:            itg.BranchID,
		AdapterType:         itg.AdapterType,
		Name:                itg.Name,
		Description:         itg.Description,
		Config:              RedactConfig(itg.AdapterType, itg.Config),
		SyncIntervalMinutes: itg.SyncIntervalMinutes,
		PricingSyncEnabled:  itg.PricingSyncEnabled,
		IsActive:            itg.IsActive,
		Status:              itg.Status,
		LastSyncAt:          itg.LastSyncAt,
		LastSyncStatus:      itg.LastSyncStatus,
		Stats:               stats,
		CreatedAt:           itg.CreatedAt,
		UpdatedAt:           itg.UpdatedAt,
	}
}

// ToIntegrationListResponses converts domain Integrations to list DTOs
func ToIntegrationListResponses(integrations []integration.Integration) []IntegrationListResponse {
	responses := make([]IntegrationListResponse, len(integrations))
	for i := range integrations {
		itg := &integrations[i]
		responses[i] = IntegrationListResponse{
			ID:                  itg.ID,
			BranchID:            itg.BranchID,
			AdapterType:         itg.AdapterType,
			Name:                itg.Name,
			SyncIntervalMinutes: itg.SyncIntervalMinutes,
			IsActive:            itg.IsActive,
			Status:              itg.Status,
			LastSyncAt:          itg.LastSyncAt,
			LastSyncStatus:      itg.LastSyncStatus,
		}
	}
	return responses
}

// ToSyncLogResponse converts a domain SyncLog to a response DTO
func ToSyncLogResponse(log *integration.SyncLog) SyncLogResponse {
	errs := log.Errors
	if errs == nil {
		errs = []integration.SyncRowError{}
	}
	return SyncLogResponse{
		ID:              log.ID,
		IntegrationID:   log.IntegrationID,
		Trigger:         log.Trigger,
		Status:          log.Status,
		StartedAt:       log.StartedAt,
		CompletedAt:     log.CompletedAt,
		Processed:       log.Processed,
		Updated:         log.Updated,
		Created:         log.Created,
		Failed:          log.Failed,
		DurationMs:      log.DurationMs,
		Errors:          errs,
		TruncatedErrors: log.TruncatedErrors(),
	}
}

// ToSyncLogListResponses converts domain SyncLogs to list DTOs
func ToSyncLogListResponses(logs []integration.SyncLog) []SyncLogListResponse {
	responses := make([]SyncLogListResponse, len(logs))
	for i := range logs {
		log := &logs[i]
		responses[i] = SyncLogListResponse{
			ID:            log.ID,
			IntegrationID: log.IntegrationID,
			Trigger:       log.Trigger,
			Status:        log.Status,
			StartedAt:     log.StartedAt,
			CompletedAt:   log.CompletedAt,
			Processed:     log.Processed,
			Updated:       log.Updated,
			Failed:        log.Failed,
			DurationMs:    log.DurationMs,
		}
	}
	return responses
}

// ToSKUMappingResponse converts a domain SKUMapping to a response DTO
func ToSKUMappingResponse(m *integration.SKUMapping) SKUMappingResponse {
	return SKUMappingResponse{
		ID:            m.ID,
		IntegrationID: m.IntegrationID,
		ExternalSKU:   m.ExternalSKU,
		ExternalName:  m.ExternalName,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		ProductName:   m.ProductName,
		IsIgnored:     m.IsIgnored,
		Source:        m.Source,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ToSKUMappingResponses converts domain SKUMappings to response DTOs
func ToSKUMappingResponses(mappings []integration.SKUMapping) []SKUMappingResponse {
	responses := make([]SKUMappingResponse, len(mappings))
	for i := range mappings {
		responses[i] = ToSKUMappingResponse(&mappings[i])
	}
	return responses
}
