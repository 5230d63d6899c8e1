// Package sync implements the synchronization engine: resolving external
// SKUs to catalog variants, reconciling stock and price, and orchestrating
// complete runs.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/integration"
)

// ResolveAction is what the orchestrator should do with a record
type ResolveAction int

const (
	// ActionApply means the record resolved to a variant and should be written
	ActionApply ResolveAction = iota
	// ActionSkipIgnored means the operator excluded this external SKU
	ActionSkipIgnored
	// ActionUnmapped means no binding exists; the record is held for manual
	// mapping and counts as neither updated nor failed
	ActionUnmapped
)

// Resolution is the outcome of resolving one stock record
type Resolution struct {
	Action ResolveAction
	// VariantID is set when Action is ActionApply
	VariantID uuid.UUID
	// MappingCreated reports that a new unmapped row was recorded
	MappingCreated bool
}

// AutoMapResult summarizes one bulk auto-map pass
type AutoMapResult struct {
	Mapped   int `json:"mapped"`
	Unmapped int `json:"unmapped"`
}

// Resolver translates external SKUs into catalog variants through the
// mapping table. Records are resolved at apply time, so a mapping changed
// mid-run takes effect for rows not yet processed.
type Resolver struct {
	mappings integration.SKUMappingRepository
	variants catalog.VariantRepository
	logger   *zap.Logger
}

// NewResolver creates a resolver
func NewResolver(mappings integration.SKUMappingRepository, variants catalog.VariantRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		mappings: mappings,
		variants: variants,
		logger:   logger.Named("resolver"),
	}
}

// Resolve looks up (or creates) the mapping for a record's external SKU.
// Unknown SKUs get an unmapped row and one auto-map attempt: a bind happens
// only when exactly one variant of the brand matches the normalized SKU.
func (r *Resolver) Resolve(ctx context.Context, itg *integration.Integration, record integration.StockRecord) (Resolution, error) {
	mapping, err := r.mappings.FindByExternalSKU(ctx, itg.ID, record.SKU)
	switch {
	case errors.Is(err, integration.ErrSKUMappingNotFound):
		mapping, err = integration.NewUnmappedSKUMapping(itg.ID, record.SKU, record.DisplayName)
		if err != nil {
			return Resolution{}, err
		}
		bound, err := r.tryAutoMap(ctx, itg, mapping)
		if err != nil {
			return Resolution{}, err
		}
		if err := r.mappings.Save(ctx, mapping); err != nil {
			return Resolution{}, fmt.Errorf("failed to save mapping for %q: %w", record.SKU, err)
		}
		if bound {
			return Resolution{Action: ActionApply, VariantID: *mapping.VariantID, MappingCreated: true}, nil
		}
		return Resolution{Action: ActionUnmapped, MappingCreated: true}, nil

	case err != nil:
		return Resolution{}, fmt.Errorf("failed to look up mapping for %q: %w", record.SKU, err)
	}

	if mapping.IsIgnored {
		return Resolution{Action: ActionSkipIgnored}, nil
	}

	// Cache the source's display name once it becomes known
	if mapping.ExternalName == "" && record.DisplayName != "" {
		mapping.ExternalName = record.DisplayName
		if err := r.mappings.Save(ctx, mapping); err != nil {
			return Resolution{}, fmt.Errorf("failed to save mapping for %q: %w", record.SKU, err)
		}
	}

	if mapping.IsBound() {
		return Resolution{Action: ActionApply, VariantID: *mapping.VariantID}, nil
	}

	// A previously sighted but still unmapped SKU gets another auto-map
	// attempt; the catalog may have gained the variant since.
	bound, err := r.tryAutoMap(ctx, itg, mapping)
	if err != nil {
		return Resolution{}, err
	}
	if bound {
		if err := r.mappings.Save(ctx, mapping); err != nil {
			return Resolution{}, fmt.Errorf("failed to save mapping for %q: %w", record.SKU, err)
		}
		return Resolution{Action: ActionApply, VariantID: *mapping.VariantID}, nil
	}
	return Resolution{Action: ActionUnmapped}, nil
}

// tryAutoMap binds the mapping when exactly one variant of the brand matches
// the normalized external SKU. Zero or multiple matches leave it unmapped;
// an ambiguous match must never guess.
func (r *Resolver) tryAutoMap(ctx context.Context, itg *integration.Integration, mapping *integration.SKUMapping) (bool, error) {
	matches, err := r.variants.FindBySKUNormalized(ctx, itg.BrandID, catalog.NormalizeSKU(mapping.ExternalSKU))
	if err != nil {
		return false, fmt.Errorf("variant lookup for %q failed: %w", mapping.ExternalSKU, err)
	}
	if len(matches) != 1 {
		if len(matches) > 1 {
			r.logger.Debug("Ambiguous SKU match, leaving unmapped",
				zap.String("external_sku", mapping.ExternalSKU),
				zap.Int("matches", len(matches)),
			)
		}
		return false, nil
	}

	variant := matches[0]
	productName, err := r.variants.ProductName(ctx, variant.ProductID)
	if err != nil {
		productName = ""
	}
	if err := mapping.Bind(variant.ProductID, variant.ID, productName, integration.MappingSourceAuto); err != nil {
		// Manual bindings and ignored rows are left alone
		return false, nil
	}
	return true, nil
}

// BulkAutoMap runs the auto-map rule over every unmapped row of the
// integration. Manual bindings are untouched by construction; only unmapped
// rows are considered at all.
func (r *Resolver) BulkAutoMap(ctx context.Context, itg *integration.Integration) (*AutoMapResult, error) {
	rows, err := r.mappings.FindUnmapped(ctx, itg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmapped rows: %w", err)
	}

	result := &AutoMapResult{}
	for i := range rows {
		mapping := &rows[i]
		bound, err := r.tryAutoMap(ctx, itg, mapping)
		if err != nil {
			return nil, err
		}
		if !bound {
			result.Unmapped++
			continue
		}
		if err := r.mappings.Save(ctx, mapping); err != nil {
			return nil, fmt.Errorf("failed to save mapping for %q: %w", mapping.ExternalSKU, err)
		}
		result.Mapped++
	}
	return result, nil
}
