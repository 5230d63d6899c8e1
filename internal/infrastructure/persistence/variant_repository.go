package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/shared"
)

// GormVariantRepository implements catalog.VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var variant catalog.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// FindBySKUNormalized finds every variant of a brand whose normalized SKU
// equals the given value. The normalization here must stay in lockstep with
// catalog.NormalizeSKU.
func (r *GormVariantRepository) FindBySKUNormalized(ctx context.Context, brandID uuid.UUID, normalizedSKU string) ([]catalog.ProductVariant, error) {
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("products.brand_id = ?", brandID).
		Where("LOWER(TRIM(product_variants.sku)) = ?", normalizedSKU).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// ApplyStockWrite performs a version-checked absolute replace of stock and
// optionally price. A stale expected version returns ErrConcurrencyConflict.
func (r *GormVariantRepository) ApplyStockWrite(ctx context.Context, write catalog.StockWrite) error {
	updates := map[string]any{
		"stock_quantity": write.Quantity,
		"version":        gorm.Expr("version + 1"),
		"updated_at":     time.Now(),
	}
	if write.Price != nil {
		updates["price"] = *write.Price
	}

	result := r.db.WithContext(ctx).
		Model(&catalog.ProductVariant{}).
		Where("id = ? AND version = ?", write.VariantID, write.ExpectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a vanished variant from a concurrent edit
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&catalog.ProductVariant{}).
			Where("id = ?", write.VariantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ProductName returns the display name of a product
func (r *GormVariantRepository) ProductName(ctx context.Context, productID uuid.UUID) (string, error) {
	var name string
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Select("name").
		Where("id = ?", productID).
		Scan(&name).Error; err != nil {
		return "", err
	}
	return name, nil
}

// Ensure GormVariantRepository implements VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
