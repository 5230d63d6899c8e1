package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/modaretail/backend/internal/domain/shared"
)

var (
	ErrSKUMappingNotFound   = errors.New("integration: sku mapping not found")
	ErrSKUMappingExists     = errors.New("integration: sku mapping already exists for this external sku")
	ErrMappingIgnoredBound  = errors.New("integration: an ignored mapping cannot be bound to a product")
	ErrMappingManualRebound = errors.New("integration: auto-map must not overwrite a manual binding")
	ErrExternalSKURequired  = errors.New("integration: external sku is required")
)

// MappingSource records how a binding came to be
type MappingSource string

const (
	// MappingSourceUnmapped marks a sighting with no binding yet
	MappingSourceUnmapped MappingSource = "UNMAPPED"
	// MappingSourceAuto marks a binding created by exact-match auto-map
	MappingSourceAuto MappingSource = "AUTO"
	// MappingSourceManual marks an operator-made binding; auto-map never touches it
	MappingSourceManual MappingSource = "MANUAL"
)

// ---------------------------------------------------------------------------
// SKUMapping Entity
// ---------------------------------------------------------------------------

// SKUMapping binds one external identifier to zero-or-one internal
// product/variant. ExternalSKU is unique within its integration. IsIgnored
// and a bound variant are mutually exclusive.
type SKUMapping struct {
	shared.BaseEntity
	IntegrationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_sku_mapping_integration_sku,priority:1"`
	ExternalSKU   string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_sku_mapping_integration_sku,priority:2"`
	ProductID     *uuid.UUID    `gorm:"type:uuid"`
	VariantID     *uuid.UUID    `gorm:"type:uuid"`
	IsIgnored     bool          `gorm:"not null;default:false"`
	Source        MappingSource `gorm:"type:varchar(20);not null;default:'UNMAPPED'"`
	// Cached display names for the admin UI
	ExternalName string `gorm:"type:varchar(255)"`
	ProductName  string `gorm:"type:varchar(255)"`
}

// NewUnmappedSKUMapping records the first sighting of an unknown external SKU
func NewUnmappedSKUMapping(integrationID uuid.UUID, externalSKU, externalName string) (*SKUMapping, error) {
	if externalSKU == "" {
		return nil, ErrExternalSKURequired
	}
	return &SKUMapping{
		BaseEntity:    shared.NewBaseEntity(),
		IntegrationID: integrationID,
		ExternalSKU:   externalSKU,
		Source:        MappingSourceUnmapped,
		ExternalName:  externalName,
	}, nil
}

// IsBound reports whether the mapping resolves to an internal variant
func (m *SKUMapping) IsBound() bool {
	return m.VariantID != nil && !m.IsIgnored
}

// Bind attaches the mapping to an internal product/variant. Auto-map may
// only bind rows it owns (UNMAPPED or previous AUTO); manual bindings are
// preserved.
func (m *SKUMapping) Bind(productID, variantID uuid.UUID, productName string, source MappingSource) error {
	if m.IsIgnored {
		return ErrMappingIgnoredBound
	}
	if source == MappingSourceAuto && m.Source == MappingSourceManual {
		return ErrMappingManualRebound
	}
	m.ProductID = &productID
	m.VariantID = &variantID
	m.ProductName = productName
	m.Source = source
	m.Touch()
	return nil
}

// Unbind clears the binding, returning the row to UNMAPPED
func (m *SKUMapping) Unbind() {
	m.ProductID = nil
	m.VariantID = nil
	m.ProductName = ""
	m.Source = MappingSourceUnmapped
	m.Touch()
}

// Ignore excludes the external SKU from reconciliation. Any binding is
// cleared first; the two states are mutually exclusive.
func (m *SKUMapping) Ignore() {
	m.ProductID = nil
	m.VariantID = nil
	m.ProductName = ""
	m.IsIgnored = true
	m.Touch()
}

// Unignore re-includes the external SKU as an unmapped row
func (m *SKUMapping) Unignore() {
	m.IsIgnored = false
	m.Source = MappingSourceUnmapped
	m.Touch()
}

// TableName returns the table name for GORM
func (SKUMapping) TableName() string {
	return "sku_mappings"
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// SKUMappingFilter defines filter criteria for listing mappings
type SKUMappingFilter struct {
	OnlyUnmapped bool
	OnlyIgnored  bool
	Search       string
	Page         int
	PageSize     int
}

// SKUMappingRepository persists SKU mappings
type SKUMappingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SKUMapping, error)
	FindByExternalSKU(ctx context.Context, integrationID uuid.UUID, externalSKU string) (*SKUMapping, error)
	FindAll(ctx context.Context, integrationID uuid.UUID, filter SKUMappingFilter) ([]SKUMapping, int64, error)
	FindUnmapped(ctx context.Context, integrationID uuid.UUID) ([]SKUMapping, error)
	Save(ctx context.Context, mapping *SKUMapping) error
	Delete(ctx context.Context, id uuid.UUID) error
}
