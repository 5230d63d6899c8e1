package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/modaretail/backend/internal/application/sync"
	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/integration"
)

// MappingService manages SKU mappings between external sources and the
// catalog. All bindings made here are MANUAL and therefore immune to
// auto-map.
type MappingService struct {
	mappings     integration.SKUMappingRepository
	integrations integration.IntegrationRepository
	variants     catalog.VariantRepository
	resolver     *appsync.Resolver
	logger       *zap.Logger
}

// NewMappingService creates a new MappingService
func NewMappingService(
	mappings integration.SKUMappingRepository,
	integrations integration.IntegrationRepository,
	variants catalog.VariantRepository,
	resolver *appsync.Resolver,
	logger *zap.Logger,
) *MappingService {
	return &MappingService{
		mappings:     mappings,
		integrations: integrations,
		variants:     variants,
		resolver:     resolver,
		logger:       logger.Named("mapping_service"),
	}
}

// List lists the mappings of one integration
func (s *MappingService) List(ctx context.Context, integrationID uuid.UUID, filter integration.SKUMappingFilter) ([]integration.SKUMapping, int64, error) {
	if _, err := s.integrations.FindByID(ctx, integrationID); err != nil {
		return nil, 0, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	return s.mappings.FindAll(ctx, integrationID, filter)
}

// Create records a mapping manually, optionally bound or ignored from the start
func (s *MappingService) Create(ctx context.Context, integrationID uuid.UUID, req CreateMappingRequest) (*integration.SKUMapping, error) {
	if _, err := s.integrations.FindByID(ctx, integrationID); err != nil {
		return nil, err
	}

	existing, err := s.mappings.FindByExternalSKU(ctx, integrationID, req.ExternalSKU)
	if err != nil && !errors.Is(err, integration.ErrSKUMappingNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, integration.ErrSKUMappingExists
	}

	mapping, err := integration.NewUnmappedSKUMapping(integrationID, req.ExternalSKU, req.ExternalName)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Ignored:
		mapping.Ignore()
	case req.VariantID != nil:
		if err := s.bindVariant(ctx, mapping, *req.VariantID); err != nil {
			return nil, err
		}
	}

	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Update rebinds, unbinds or (un)ignores a mapping
func (s *MappingService) Update(ctx context.Context, id uuid.UUID, req UpdateMappingRequest) (*integration.SKUMapping, error) {
	mapping, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Ignored != nil {
		if *req.Ignored {
			mapping.Ignore()
		} else {
			mapping.Unignore()
		}
	}
	if req.Unbind {
		mapping.Unbind()
	}
	if req.VariantID != nil {
		if err := s.bindVariant(ctx, mapping, *req.VariantID); err != nil {
			return nil, err
		}
	}

	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Delete removes a mapping. The external SKU reappears as a fresh unmapped
// row on its next sighting.
func (s *MappingService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.mappings.Delete(ctx, id)
}

// AutoMap runs the exact-match auto-map rule over every unmapped row
func (s *MappingService) AutoMap(ctx context.Context, integrationID uuid.UUID) (*appsync.AutoMapResult, error) {
	itg, err := s.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	result, err := s.resolver.BulkAutoMap(ctx, itg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bulk auto-map completed",
		zap.String("integration_id", integrationID.String()),
		zap.Int("mapped", result.Mapped),
		zap.Int("unmapped", result.Unmapped),
	)
	return result, nil
}

func (s *MappingService) bindVariant(ctx context.Context, mapping *integration.SKUMapping, variantID uuid.UUID) error {
	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return err
	}
	productName, err := s.variants.ProductName(ctx, variant.ProductID)
	if err != nil {
		productName = ""
	}
	return mapping.Bind(variant.ProductID, variant.ID, productName, integration.MappingSourceManual)
}
