package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/modaretail/backend/internal/domain/shared"
)

// Product is the minimal catalog surface the sync engine works against.
// Full product CRUD lives in the storefront backend; the sync engine only
// reads identity/SKU data and writes stock and price fields on variants.
type Product struct {
	shared.BaseEntity
	BrandID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name    string    `gorm:"type:varchar(255);not null"`
	Code    string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductVariant is a sellable variant (size/color) of a product. Stock and
// price are the shared mutable state between sync runs and interactive admin
// edits, so writes are guarded by the Version field.
type ProductVariant struct {
	shared.VersionedEntity
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU           string          `gorm:"type:varchar(100);not null;index"`
	Name          string          `gorm:"type:varchar(255)"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NormalizeSKU is the canonical form used for SKU comparison everywhere in
// the sync engine: case-insensitive, surrounding whitespace stripped.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// StockWrite describes one absolute stock/price replacement against a variant.
type StockWrite struct {
	VariantID       uuid.UUID
	Quantity        decimal.Decimal
	Price           *decimal.Decimal
	ExpectedVersion int
}

// VariantRepository is the catalog port consumed by the sync engine.
type VariantRepository interface {
	// FindByID loads a single variant
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)

	// FindBySKUNormalized returns every variant of a brand whose normalized
	// SKU equals the given normalized value. Multiple results indicate an
	// ambiguous match.
	FindBySKUNormalized(ctx context.Context, brandID uuid.UUID, normalizedSKU string) ([]ProductVariant, error)

	// ApplyStockWrite performs an absolute replace of stock (and optionally
	// price) guarded by the expected version. Returns
	// shared.ErrConcurrencyConflict when the version check fails.
	ApplyStockWrite(ctx context.Context, write StockWrite) error

	// ProductName returns the display name for a product, for cached names
	// on SKU mappings.
	ProductName(ctx context.Context, productID uuid.UUID) (string, error)
}
