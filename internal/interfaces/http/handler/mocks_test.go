package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/modaretail/backend/internal/domain/integration"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Repository Mocks
// ---------------------------------------------------------------------------

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

// ---------------------------------------------------------------------------
// Handler Collaborator Stubs
// ---------------------------------------------------------------------------

// stubRunner returns a canned sync log or error
type stubRunner struct {
	log     *integration.SyncLog
	err     error
	calls   int
	trigger integration.SyncTrigger
}

func (s *stubRunner) TriggerSync(_ context.Context, integrationID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncLog, error) {
	s.calls++
	s.trigger = trigger
	if s.err != nil {
		return nil, s.err
	}
	if s.log != nil {
		return s.log, nil
	}
	log := integration.NewSyncLog(integrationID, trigger)
	_ = log.Finalize()
	return log, nil
}

// stubTester returns a canned connection test result
type stubTester struct {
	result *integration.ConnectionTestResult
	err    error
}

func (s *stubTester) Test(_ context.Context, _ uuid.UUID) (*integration.ConnectionTestResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// stubSink records enqueued webhook payloads
type stubSink struct {
	accepted bool
	err      error
	bodies   [][]byte
}

func (s *stubSink) Enqueue(_ *integration.Integration, body []byte, _ string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.accepted {
		s.bodies = append(s.bodies, body)
	}
	return s.accepted, nil
}

// stubQueue collects uploaded feed payloads
type stubQueue struct {
	payloads map[uuid.UUID][][]byte
}

func newStubQueue() *stubQueue {
	return &stubQueue{payloads: make(map[uuid.UUID][][]byte)}
}

func (s *stubQueue) Enqueue(integrationID uuid.UUID, payload []byte) {
	s.payloads[integrationID] = append(s.payloads[integrationID], payload)
}

// stubPinger reports a fixed database health state
type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error {
	return s.err
}
