package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/infrastructure/persistence/models"
)

// GormIntegrationRepository implements IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by its ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds integrations matching the filter, with the total count
func (r *GormIntegrationRepository) FindAll(ctx context.Context, filter integration.IntegrationFilter) ([]integration.Integration, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.IntegrationModel{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var integrationModels []models.IntegrationModel
	if err := query.Order("created_at DESC").Find(&integrationModels).Error; err != nil {
		return nil, 0, err
	}

	integrations := make([]integration.Integration, len(integrationModels))
	for i := range integrationModels {
		integrations[i] = *integrationModels[i].ToDomain()
	}
	return integrations, count, nil
}

// FindActive finds every active integration, for the scheduler
func (r *GormIntegrationRepository) FindActive(ctx context.Context) ([]integration.Integration, error) {
	var integrationModels []models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&integrationModels).Error; err != nil {
		return nil, err
	}

	integrations := make([]integration.Integration, len(integrationModels))
	for i := range integrationModels {
		integrations[i] = *integrationModels[i].ToDomain()
	}
	return integrations, nil
}

// Save creates or updates an integration
func (r *GormIntegrationRepository) Save(ctx context.Context, itg *integration.Integration) error {
	model := models.IntegrationModelFromDomain(itg)
	return r.db.WithContext(ctx).Save(model).Error
}

// RecordSyncOutcome updates only the sync-status columns. A full-row Save
// here would clobber fields an operator changed while the run was in
// flight, so the write is scoped and the ERROR recovery is evaluated
// against the currently stored status.
func (r *GormIntegrationRepository) RecordSyncOutcome(ctx context.Context, id uuid.UUID, completedAt time.Time, status integration.SyncRunStatus, connectionFailed bool) error {
	newStatus := any(gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
		integration.IntegrationStatusError, integration.IntegrationStatusActive))
	if connectionFailed {
		newStatus = integration.IntegrationStatusError
	}

	result := r.db.WithContext(ctx).
		Model(&models.IntegrationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_sync_at":     completedAt,
			"last_sync_status": status,
			"status":           newStatus,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

// SoftDelete marks the integration deleted; sync logs keep referencing it
func (r *GormIntegrationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.IntegrationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

func (r *GormIntegrationRepository) applyFilter(query *gorm.DB, filter integration.IntegrationFilter) *gorm.DB {
	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.AdapterType != nil && filter.AdapterType.IsValid() {
		query = query.Where("adapter_type = ?", *filter.AdapterType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormIntegrationRepository implements IntegrationRepository
var _ integration.IntegrationRepository = (*GormIntegrationRepository)(nil)
