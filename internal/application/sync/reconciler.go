package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/domain/shared"
)

// Reconciler applies absolute stock (and optionally price) replacements to
// catalog variants. Writes are version checked against interactive admin
// edits; a conflicting write is retried once after re-reading.
type Reconciler struct {
	variants catalog.VariantRepository
	logger   *zap.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(variants catalog.VariantRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		variants: variants,
		logger:   logger.Named("reconciler"),
	}
}

// Apply replaces the variant's stock quantity (and price when includePrice)
// with the record's values. Returns whether a write happened; a variant that
// already carries the desired values is left untouched, which makes a
// repeated run a no-op.
func (r *Reconciler) Apply(ctx context.Context, variantID uuid.UUID, record integration.StockRecord, includePrice bool) (bool, error) {
	var desiredPrice *decimal.Decimal
	if includePrice && record.Price != nil {
		desiredPrice = record.Price
	}

	variant, err := r.variants.FindByID(ctx, variantID)
	if err != nil {
		return false, fmt.Errorf("variant %s not found: %w", variantID, err)
	}
	if upToDate(variant, record.Quantity, desiredPrice) {
		return false, nil
	}

	err = r.variants.ApplyStockWrite(ctx, catalog.StockWrite{
		VariantID:       variantID,
		Quantity:        record.Quantity,
		Price:           desiredPrice,
		ExpectedVersion: variant.Version,
	})
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return false, err
	}

	// Someone edited the variant between our read and write. Re-read and
	// retry once; a second conflict becomes a row failure.
	r.logger.Debug("Version conflict, retrying write", zap.String("variant_id", variantID.String()))

	variant, err = r.variants.FindByID(ctx, variantID)
	if err != nil {
		return false, fmt.Errorf("variant %s not found on retry: %w", variantID, err)
	}
	if upToDate(variant, record.Quantity, desiredPrice) {
		return false, nil
	}

	err = r.variants.ApplyStockWrite(ctx, catalog.StockWrite{
		VariantID:       variantID,
		Quantity:        record.Quantity,
		Price:           desiredPrice,
		ExpectedVersion: variant.Version,
	})
	if err != nil {
		return false, fmt.Errorf("write to variant %s failed after retry: %w", variantID, err)
	}
	return true, nil
}

func upToDate(variant *catalog.ProductVariant, quantity decimal.Decimal, price *decimal.Decimal) bool {
	if !variant.StockQuantity.Equal(quantity) {
		return false
	}
	return price == nil || variant.Price.Equal(*price)
}
