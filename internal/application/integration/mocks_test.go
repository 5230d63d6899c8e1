package integration

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/integration"
)

// MockIntegrationRepository is a mock implementation of IntegrationRepository
type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindAll(ctx context.Context, filter integration.IntegrationFilter) ([]integration.Integration, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.Integration), args.Get(1).(int64), args.Error(2)
}

func (m *MockIntegrationRepository) FindActive(ctx context.Context) ([]integration.Integration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) Save(ctx context.Context, itg *integration.Integration) error {
	args := m.Called(ctx, itg)
	return args.Error(0)
}

func (m *MockIntegrationRepository) RecordSyncOutcome(ctx context.Context, id uuid.UUID, completedAt time.Time, status integration.SyncRunStatus, connectionFailed bool) error {
	args := m.Called(ctx, id, completedAt, status, connectionFailed)
	return args.Error(0)
}

func (m *MockIntegrationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSKUMappingRepository is a mock implementation of SKUMappingRepository
type MockSKUMappingRepository struct {
	mock.Mock
}

func (m *MockSKUMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SKUMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SKUMapping), args.Error(1)
}

func (m *MockSKUMappingRepository) FindByExternalSKU(ctx context.Context, integrationID uuid.UUID, externalSKU string) (*integration.SKUMapping, error) {
	args := m.Called(ctx, integrationID, externalSKU)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SKUMapping), args.Error(1)
}

func (m *MockSKUMappingRepository) FindAll(ctx context.Context, integrationID uuid.UUID, filter integration.SKUMappingFilter) ([]integration.SKUMapping, int64, error) {
	args := m.Called(ctx, integrationID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.SKUMapping), args.Get(1).(int64), args.Error(2)
}

func (m *MockSKUMappingRepository) FindUnmapped(ctx context.Context, integrationID uuid.UUID) ([]integration.SKUMapping, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SKUMapping), args.Error(1)
}

func (m *MockSKUMappingRepository) Save(ctx context.Context, mapping *integration.SKUMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockSKUMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVariantRepository is a mock implementation of catalog.VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) FindBySKUNormalized(ctx context.Context, brandID uuid.UUID, normalizedSKU string) ([]catalog.ProductVariant, error) {
	args := m.Called(ctx, brandID, normalizedSKU)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) ApplyStockWrite(ctx context.Context, write catalog.StockWrite) error {
	args := m.Called(ctx, write)
	return args.Error(0)
}

func (m *MockVariantRepository) ProductName(ctx context.Context, productID uuid.UUID) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

// MockSyncLogRepository is a mock implementation of SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncLog), args.Error(1)
}

func (m *MockSyncLogRepository) FindAll(ctx context.Context, filter integration.SyncLogFilter) ([]integration.SyncLog, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.SyncLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncLogRepository) Save(ctx context.Context, log *integration.SyncLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockSyncLogRepository) Stats(ctx context.Context, integrationID uuid.UUID) (*integration.SyncStats, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncStats), args.Error(1)
}

// recordingUploadQueue captures enqueued payloads
type recordingUploadQueue struct {
	enqueued map[uuid.UUID][][]byte
}

func newRecordingUploadQueue() *recordingUploadQueue {
	return &recordingUploadQueue{enqueued: make(map[uuid.UUID][][]byte)}
}

func (q *recordingUploadQueue) Enqueue(integrationID uuid.UUID, payload []byte) {
	q.enqueued[integrationID] = append(q.enqueued[integrationID], payload)
}

// recordingArchive captures archived objects
type recordingArchive struct {
	keys []string
	err  error
}

func (a *recordingArchive) Put(_ context.Context, _, key string, body io.Reader, _ string) error {
	if a.err != nil {
		return a.err
	}
	_, _ = io.ReadAll(body)
	a.keys = append(a.keys, key)
	return nil
}
