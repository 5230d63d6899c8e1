package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// FindByID finds a sync log by its ID
func (r *GormSyncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncLog, error) {
	var model models.SyncLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncLogNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds sync logs matching the filter, newest first, with total count
func (r *GormSyncLogRepository) FindAll(ctx context.Context, filter integration.SyncLogFilter) ([]integration.SyncLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncLogModel{})
	if filter.IntegrationID != nil {
		query = query.Where("integration_id = ?", *filter.IntegrationID)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var logModels []models.SyncLogModel
	if err := query.Order("started_at DESC").Find(&logModels).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]integration.SyncLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs, count, nil
}

// Save creates or updates a sync log
func (r *GormSyncLogRepository) Save(ctx context.Context, log *integration.SyncLog) error {
	model := models.SyncLogModelFromDomain(log)
	return r.db.WithContext(ctx).Save(model).Error
}

// Stats aggregates run counters for one integration. PARTIAL runs count as
// successful; only connection-level failures and all-rows-failed runs count
// as failed.
func (r *GormSyncLogRepository) Stats(ctx context.Context, integrationID uuid.UUID) (*integration.SyncStats, error) {
	var stats integration.SyncStats
	err := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("integration_id = ?", integrationID).
		Select("COUNT(*) AS total_syncs, " +
			"COALESCE(SUM(CASE WHEN status IN ('SUCCESS','PARTIAL') THEN 1 ELSE 0 END), 0) AS successful_syncs, " +
			"COALESCE(SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END), 0) AS failed_syncs, " +
			"COALESCE(SUM(updated), 0) AS products_synced").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ integration.SyncLogRepository = (*GormSyncLogRepository)(nil)
