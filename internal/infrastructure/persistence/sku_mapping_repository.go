package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/integration"
)

// GormSKUMappingRepository implements SKUMappingRepository using GORM. The
// domain entity carries its own schema tags, so no separate model is needed.
type GormSKUMappingRepository struct {
	db *gorm.DB
}

// NewGormSKUMappingRepository creates a new GormSKUMappingRepository
func NewGormSKUMappingRepository(db *gorm.DB) *GormSKUMappingRepository {
	return &GormSKUMappingRepository{db: db}
}

// FindByID finds a mapping by its ID
func (r *GormSKUMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SKUMapping, error) {
	var mapping integration.SKUMapping
	if err := r.db.WithContext(ctx).First(&mapping, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSKUMappingNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

// FindByExternalSKU finds the mapping for an external SKU within an integration
func (r *GormSKUMappingRepository) FindByExternalSKU(ctx context.Context, integrationID uuid.UUID, externalSKU string) (*integration.SKUMapping, error) {
	var mapping integration.SKUMapping
	if err := r.db.WithContext(ctx).
		Where("integration_id = ? AND external_sku = ?", integrationID, externalSKU).
		First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSKUMappingNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

// FindAll finds mappings of an integration matching the filter, with total count
func (r *GormSKUMappingRepository) FindAll(ctx context.Context, integrationID uuid.UUID, filter integration.SKUMappingFilter) ([]integration.SKUMapping, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&integration.SKUMapping{}).
		Where("integration_id = ?", integrationID)

	if filter.OnlyUnmapped {
		query = query.Where("variant_id IS NULL AND is_ignored = ?", false)
	}
	if filter.OnlyIgnored {
		query = query.Where("is_ignored = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLikePattern(filter.Search) + "%"
		query = query.Where("external_sku ILIKE ? OR external_name ILIKE ? OR product_name ILIKE ?", pattern, pattern, pattern)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var mappings []integration.SKUMapping
	if err := query.Order("external_sku ASC").Find(&mappings).Error; err != nil {
		return nil, 0, err
	}
	return mappings, count, nil
}

// FindUnmapped finds every unbound, non-ignored mapping of an integration
func (r *GormSKUMappingRepository) FindUnmapped(ctx context.Context, integrationID uuid.UUID) ([]integration.SKUMapping, error) {
	var mappings []integration.SKUMapping
	if err := r.db.WithContext(ctx).
		Where("integration_id = ? AND variant_id IS NULL AND is_ignored = ?", integrationID, false).
		Order("external_sku ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// Save creates or updates a mapping
func (r *GormSKUMappingRepository) Save(ctx context.Context, mapping *integration.SKUMapping) error {
	return r.db.WithContext(ctx).Save(mapping).Error
}

// Delete removes a mapping
func (r *GormSKUMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&integration.SKUMapping{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrSKUMappingNotFound
	}
	return nil
}

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// Ensure GormSKUMappingRepository implements SKUMappingRepository
var _ integration.SKUMappingRepository = (*GormSKUMappingRepository)(nil)
