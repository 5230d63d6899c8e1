package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modaretail/backend/internal/domain/integration"
)

func syncLogColumns() []string {
	return []string{
		"id", "integration_id", "trigger", "status", "started_at", "completed_at",
		"processed", "updated", "created", "failed", "duration_ms", "errors",
		"total_errors", "created_at", "updated_at",
	}
}

func TestGormSyncLogRepository_FindByID(t *testing.T) {
	t.Run("decodes the stored error list", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormSyncLogRepository(db)

		id := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(syncLogColumns()).AddRow(
			id, uuid.New(), "MANUAL", "PARTIAL", now, &now,
			10, 7, 0, 3, int64(1200),
			`[{"sku":"AB-1","message":"invalid quantity"}]`,
			3, now, now,
		)

		mock.ExpectQuery(`SELECT \* FROM "sync_logs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		log, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)

		assert.Equal(t, integration.SyncRunStatusPartial, log.Status)
		require.Len(t, log.Errors, 1)
		assert.Equal(t, "AB-1", log.Errors[0].SKU)
		assert.Equal(t, 2, log.TruncatedErrors())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns sentinel for missing log", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormSyncLogRepository(db)

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "sync_logs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, integration.ErrSyncLogNotFound)
	})
}

func TestGormSyncLogRepository_Stats(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewGormSyncLogRepository(db)

	integrationID := uuid.New()
	rows := sqlmock.NewRows([]string{"total_syncs", "successful_syncs", "failed_syncs", "products_synced"}).
		AddRow(int64(12), int64(10), int64(2), int64(480))

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_syncs, .* FROM "sync_logs" WHERE integration_id = \$1`).
		WithArgs(integrationID).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), integrationID)
	require.NoError(t, err)

	assert.Equal(t, int64(12), stats.TotalSyncs)
	assert.Equal(t, int64(10), stats.SuccessfulSyncs)
	assert.Equal(t, int64(2), stats.FailedSyncs)
	assert.Equal(t, int64(480), stats.ProductsSynced)
	assert.NoError(t, mock.ExpectationsWereMet())
}
