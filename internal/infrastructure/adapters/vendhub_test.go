package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

func vendHubIntegration(t *testing.T, baseURL, outletID string) *integration.Integration {
	t.Helper()
	itg, err := integration.NewIntegration(uuid.New(), uuid.New(), integration.AdapterTypeVendHub, "POS", &integration.VendHubConfig{
		BaseURL:     baseURL,
		AccessToken: "tok-123",
		OutletID:    outletID,
	})
	require.NoError(t, err)
	return itg
}

func TestVendHubAdapter_FetchStockRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/inventory", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "out-7", r.URL.Query().Get("outlet_id"))

		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(`{"data":[
				{"sku":"V-1","on_hand":"8","retail_price":15,"product_name":"Belt"}
			],"next_cursor":"c2"}`))
			return
		}
		assert.Equal(t, "c2", r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{"data":[{"sku":"V-2","on_hand":2}],"next_cursor":""}`))
	}))
	defer server.Close()

	adapter := NewVendHubAdapter(5*time.Second, zap.NewNop())
	itg := vendHubIntegration(t, server.URL, "out-7")

	page, err := adapter.FetchStockRecords(context.Background(), itg, "")
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "V-1", page.Records[0].SKU)
	assert.True(t, page.Records[0].Quantity.Equal(decimal.NewFromInt(8)))
	require.NotNil(t, page.Records[0].Price)
	assert.Equal(t, "Belt", page.Records[0].DisplayName)
	assert.Equal(t, "c2", page.NextCursor)

	page, err = adapter.FetchStockRecords(context.Background(), itg, "c2")
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Empty(t, page.NextCursor)
}

func TestVendHubAdapter_BadNumericCellIsRowError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"sku":"V-1","on_hand":{"amount":8}},
			{"sku":"V-2","on_hand":"2","retail_price":null},
			{"sku":"V-3","on_hand":4,"retail_price":"9.90"}
		],"next_cursor":""}`))
	}))
	defer server.Close()

	adapter := NewVendHubAdapter(5*time.Second, zap.NewNop())
	page, err := adapter.FetchStockRecords(context.Background(), vendHubIntegration(t, server.URL, ""), "")
	require.NoError(t, err, "one malformed cell must not abort the fetch")

	require.Len(t, page.Records, 2)
	assert.Equal(t, "V-2", page.Records[0].SKU)
	assert.Nil(t, page.Records[0].Price)
	require.NotNil(t, page.Records[1].Price)
	assert.True(t, page.Records[1].Price.Equal(decimal.RequireFromString("9.90")))

	require.Len(t, page.RowErrors, 1)
	assert.Equal(t, "V-1", page.RowErrors[0].SKU)
	assert.Contains(t, page.RowErrors[0].Message, "invalid quantity")
}

func TestVendHubAdapter_OutletScopeOmittedWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasOutlet := r.URL.Query()["outlet_id"]
		assert.False(t, hasOutlet)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	adapter := NewVendHubAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.FetchStockRecords(context.Background(), vendHubIntegration(t, server.URL, ""), "")
	require.NoError(t, err)
}

func TestVendHubAdapter_ServerErrorIsConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewVendHubAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.FetchStockRecords(context.Background(), vendHubIntegration(t, server.URL, ""), "")
	assert.ErrorIs(t, err, integration.ErrConnectionFailed)

	result := adapter.TestConnection(context.Background(), vendHubIntegration(t, server.URL, ""))
	assert.False(t, result.Success)
}
