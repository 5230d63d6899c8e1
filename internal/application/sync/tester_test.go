package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

func newTesterFixture(t *testing.T, adapter *fakeAdapter) (*ConnectionTester, *fakeIntegrationRepo, *integration.Integration) {
	t.Helper()
	integrations := newFakeIntegrationRepo()
	itg, err := integration.NewIntegration(uuid.New(), uuid.New(), integration.AdapterTypeCustom, "Store feed",
		&integration.CustomConfig{Settings: map[string]any{"source": "test"}})
	require.NoError(t, err)
	require.NoError(t, itg.Activate())
	require.NoError(t, integrations.Save(context.Background(), itg))

	tester := NewConnectionTester(integrations, &fakeRegistry{adapter: adapter}, 0, zap.NewNop())
	return tester, integrations, itg
}

func TestConnectionTest_Success(t *testing.T) {
	tester, _, itg := newTesterFixture(t, &fakeAdapter{})

	result, err := tester.Test(context.Background(), itg.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestConnectionTest_FailureLeavesNoTrace(t *testing.T) {
	adapter := &fakeAdapter{fetchErr: fmt.Errorf("%w: unauthorized", integration.ErrConnectionFailed)}
	tester, integrations, itg := newTesterFixture(t, adapter)

	result, err := tester.Test(context.Background(), itg.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "unauthorized")

	// A failed probe is advisory: status and last-sync fields stay untouched
	saved, err := integrations.FindByID(context.Background(), itg.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.IntegrationStatusActive, saved.Status)
	assert.Nil(t, saved.LastSyncAt)
}

func TestConnectionTest_UnknownIntegration(t *testing.T) {
	tester, _, _ := newTesterFixture(t, &fakeAdapter{})

	_, err := tester.Test(context.Background(), uuid.New())
	assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
}
