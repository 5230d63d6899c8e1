package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/shared"
)

func TestGormVariantRepository_ApplyStockWrite(t *testing.T) {
	t.Run("writes under matching version", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormVariantRepository(db)

		mock.ExpectExec(`UPDATE "product_variants" SET .* WHERE id = \$\d AND version = \$\d`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyStockWrite(context.Background(), catalog.StockWrite{
			VariantID:       uuid.New(),
			Quantity:        decimal.NewFromInt(12),
			ExpectedVersion: 3,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version on existing row is a conflict", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormVariantRepository(db)

		id := uuid.New()
		mock.ExpectExec(`UPDATE "product_variants" SET .* WHERE id = \$\d AND version = \$\d`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "product_variants" WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.ApplyStockWrite(context.Background(), catalog.StockWrite{
			VariantID:       id,
			Quantity:        decimal.NewFromInt(12),
			ExpectedVersion: 3,
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished row is not found", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormVariantRepository(db)

		id := uuid.New()
		mock.ExpectExec(`UPDATE "product_variants" SET .* WHERE id = \$\d AND version = \$\d`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "product_variants" WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.ApplyStockWrite(context.Background(), catalog.StockWrite{
			VariantID:       id,
			Quantity:        decimal.NewFromInt(12),
			ExpectedVersion: 3,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormVariantRepository_FindBySKUNormalized(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewGormVariantRepository(db)

	brandID := uuid.New()
	variantID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "version", "product_id", "sku", "name", "stock_quantity", "price"}).
		AddRow(variantID, 1, uuid.New(), "AB-100", "Blue Shirt L", decimal.NewFromInt(4), decimal.NewFromInt(20))

	mock.ExpectQuery(`SELECT "product_variants"\..* FROM "product_variants" JOIN products ON products\.id = product_variants\.product_id WHERE products\.brand_id = \$1 AND LOWER\(TRIM\(product_variants\.sku\)\) = \$2`).
		WithArgs(brandID, "ab-100").
		WillReturnRows(rows)

	variants, err := repo.FindBySKUNormalized(context.Background(), brandID, "ab-100")
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, variantID, variants[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
