package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// ConnectionTester validates a stored configuration against the external
// system. It creates no sync log and mutates no status; the outcome is
// reported to the operator and nothing else.
type ConnectionTester struct {
	integrations integration.IntegrationRepository
	registry     integration.AdapterRegistry
	timeout      time.Duration
	logger       *zap.Logger
}

// NewConnectionTester creates a connection tester
func NewConnectionTester(integrations integration.IntegrationRepository, registry integration.AdapterRegistry, timeout time.Duration, logger *zap.Logger) *ConnectionTester {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ConnectionTester{
		integrations: integrations,
		registry:     registry,
		timeout:      timeout,
		logger:       logger.Named("tester"),
	}
}

// Test runs the side-effect-free connection test for the integration
func (t *ConnectionTester) Test(ctx context.Context, integrationID uuid.UUID) (*integration.ConnectionTestResult, error) {
	itg, err := t.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	adapter, err := t.registry.Adapter(itg.AdapterType)
	if err != nil {
		return nil, err
	}

	testCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result := adapter.TestConnection(testCtx, itg)
	t.logger.Info("Connection test",
		zap.String("integration_id", itg.ID.String()),
		zap.Bool("success", result.Success),
	)
	return &result, nil
}
