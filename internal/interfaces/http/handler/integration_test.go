package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appintegration "github.com/modaretail/backend/internal/application/integration"
	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/domain/shared"
	"github.com/modaretail/backend/internal/interfaces/http/dto"
	"github.com/modaretail/backend/internal/interfaces/http/router"
)

type integrationFixture struct {
	engine       *gin.Engine
	integrations *MockIntegrationRepository
	syncLogs     *MockSyncLogRepository
	queue        *stubQueue
	runner       *stubRunner
	tester       *stubTester
}

func newIntegrationFixture(t *testing.T) *integrationFixture {
	t.Helper()

	f := &integrationFixture{
		integrations: new(MockIntegrationRepository),
		syncLogs:     new(MockSyncLogRepository),
		queue:        newStubQueue(),
		runner:       &stubRunner{},
		tester:       &stubTester{result: &integration.ConnectionTestResult{Success: true, Message: "ok"}},
	}

	service := appintegration.NewIntegrationService(f.integrations, f.syncLogs, f.queue, nil, zap.NewNop())
	h := NewIntegrationHandler(service, f.runner, f.tester)

	f.engine = gin.New()
	router.NewRouter(f.engine).Register(h).Setup()
	return f
}

func shopLinkIntegration(t *testing.T) *integration.Integration {
	t.Helper()
	itg, err := integration.NewIntegration(uuid.New(), uuid.New(), integration.AdapterTypeShopLink, "POS feed", &integration.ShopLinkConfig{
		BaseURL:   "https://pos.example.com",
		APIKey:    "key",
		APISecret: "secret",
	})
	require.NoError(t, err)
	return itg
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestIntegrationHandler_Create(t *testing.T) {
	t.Run("creates an integration", func(t *testing.T) {
		f := newIntegrationFixture(t)
		f.integrations.On("Save", mock.Anything, mock.Anything).Return(nil)

		body := `{
			"brand_id": "` + uuid.NewString() + `",
			"branch_id": "` + uuid.NewString() + `",
			"adapter_type": "SHOPLINK",
			"name": "POS feed",
			"config": {"base_url": "https://pos.example.com", "api_key": "k", "api_secret": "s"}
		}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		f.integrations.AssertExpectations(t)
	})

	t.Run("rejects an unknown adapter type", func(t *testing.T) {
		f := newIntegrationFixture(t)

		body := `{
			"brand_id": "` + uuid.NewString() + `",
			"branch_id": "` + uuid.NewString() + `",
			"adapter_type": "FAXMODEM",
			"name": "POS feed"
		}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("rejects a body without required fields", func(t *testing.T) {
		f := newIntegrationFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations", strings.NewReader(`{"name": "x"}`))
		req.Header.Set("Content-Type", "application/json")
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIntegrationHandler_Get(t *testing.T) {
	t.Run("returns integration with stats", func(t *testing.T) {
		f := newIntegrationFixture(t)
		itg := shopLinkIntegration(t)
		f.integrations.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)
		f.syncLogs.On("Stats", mock.Anything, itg.ID).Return(&integration.SyncStats{TotalSyncs: 4, SuccessfulSyncs: 3, FailedSyncs: 1, ProductsSynced: 120}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/"+itg.ID.String(), nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"total_syncs":4`)
	})

	t.Run("unknown integration is 404", func(t *testing.T) {
		f := newIntegrationFixture(t)
		id := uuid.New()
		f.integrations.On("FindByID", mock.Anything, id).Return(nil, integration.ErrIntegrationNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/"+id.String(), nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		f := newIntegrationFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/not-a-uuid", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIntegrationHandler_Toggle(t *testing.T) {
	f := newIntegrationFixture(t)
	itg := shopLinkIntegration(t)
	itg.Config = &integration.ShopLinkConfig{}
	f.integrations.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations/"+itg.ID.String()+"/toggle", nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeConfigInvalid, resp.Error.Code)
	f.integrations.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestIntegrationHandler_TriggerSync(t *testing.T) {
	t.Run("starts a manual run", func(t *testing.T) {
		f := newIntegrationFixture(t)
		id := uuid.New()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations/"+id.String()+"/sync", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, integration.SyncTriggerManual, f.runner.trigger)
		resp := decodeResponse(t, w)
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		assert.Contains(t, string(data), "sync_id")
	})

	t.Run("run already in flight is 409", func(t *testing.T) {
		f := newIntegrationFixture(t)
		f.runner.err = integration.ErrSyncAlreadyRunning
		id := uuid.New()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations/"+id.String()+"/sync", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeSyncRunning, resp.Error.Code)
	})
}

func TestIntegrationHandler_TestConnection(t *testing.T) {
	f := newIntegrationFixture(t)
	f.tester.result = &integration.ConnectionTestResult{Success: false, Message: "connection refused"}
	id := uuid.New()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations/"+id.String()+"/test-connection", nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestIntegrationHandler_ConfigSchema(t *testing.T) {
	t.Run("returns the field schema", func(t *testing.T) {
		f := newIntegrationFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/config-schema/SHOPLINK", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "api_secret")
	})

	t.Run("unknown adapter type is 400", func(t *testing.T) {
		f := newIntegrationFixture(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/config-schema/FAXMODEM", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIntegrationHandler_Upload(t *testing.T) {
	newUploadRequest := func(t *testing.T, target string) *http.Request {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "stock.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("sku,quantity\nAB-100,4\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, target, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	t.Run("queues the feed and starts an upload run", func(t *testing.T) {
		f := newIntegrationFixture(t)
		itg := shopLinkIntegration(t)
		itg.AdapterType = integration.AdapterTypeCSVImport
		f.integrations.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)

		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, newUploadRequest(t, "/api/v1/integrations/"+itg.ID.String()+"/upload"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, f.queue.payloads[itg.ID], 1)
		assert.Equal(t, integration.SyncTriggerUpload, f.runner.trigger)
	})

	t.Run("non file-based adapter is rejected", func(t *testing.T) {
		f := newIntegrationFixture(t)
		itg := shopLinkIntegration(t)
		f.integrations.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)

		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, newUploadRequest(t, "/api/v1/integrations/"+itg.ID.String()+"/upload"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, f.queue.payloads[itg.ID])
		assert.Equal(t, 0, f.runner.calls)
	})

	t.Run("missing file part is 400", func(t *testing.T) {
		f := newIntegrationFixture(t)
		id := uuid.New()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations/"+id.String()+"/upload", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIntegrationHandler_SyncLogs(t *testing.T) {
	t.Run("lists runs with pagination meta", func(t *testing.T) {
		f := newIntegrationFixture(t)
		log := integration.NewSyncLog(uuid.New(), integration.SyncTriggerScheduled)
		_ = log.Finalize()
		f.syncLogs.On("FindAll", mock.Anything, mock.Anything).Return([]integration.SyncLog{*log}, int64(1), nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync-logs?page=1&page_size=10", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("unknown log is 404", func(t *testing.T) {
		f := newIntegrationFixture(t)
		id := uuid.New()
		f.syncLogs.On("FindByID", mock.Anything, id).Return(nil, integration.ErrSyncLogNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync-logs/"+id.String(), nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestErrorCodeMapping(t *testing.T) {
	assert.Equal(t, dto.ErrCodeConcurrencyConflict, errorCode(shared.ErrConcurrencyConflict))
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(shared.ErrNotFound))
	assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(integration.ErrSKUMappingExists))
	assert.Equal(t, dto.ErrCodeInternal, errorCode(assert.AnError))
}
