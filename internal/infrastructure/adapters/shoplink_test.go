package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

func shopLinkIntegration(t *testing.T, baseURL string) *integration.Integration {
	t.Helper()
	itg, err := integration.NewIntegration(uuid.New(), uuid.New(), integration.AdapterTypeShopLink, "POS", &integration.ShopLinkConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		APISecret: "test-secret",
		PageSize:  2,
	})
	require.NoError(t, err)
	return itg
}

func TestShopLinkAdapter_FetchStockRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/inventory", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		// Verify the signature matches what the adapter should compute
		sig := signShopLink("test-secret", http.MethodGet, r.URL.Path, r.URL.RawQuery, r.Header.Get("X-Timestamp"))
		assert.Equal(t, sig, r.Header.Get("X-Signature"))

		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"items":[
				{"sku":"A-1","quantity":5,"price":"12.50","name":"Shirt"},
				{"sku":"A-2","quantity":"3"}
			],"has_more":true}`))
		default:
			_, _ = w.Write([]byte(`{"items":[
				{"sku":"A-3","quantity":0},
				{"sku":"","quantity":1},
				{"sku":"A-4","quantity":"lots"}
			],"has_more":false}`))
		}
	}))
	defer server.Close()

	adapter := NewShopLinkAdapter(5*time.Second, zap.NewNop())
	itg := shopLinkIntegration(t, server.URL)

	page, err := adapter.FetchStockRecords(context.Background(), itg, "")
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "A-1", page.Records[0].SKU)
	assert.True(t, page.Records[0].Quantity.Equal(decimal.NewFromInt(5)))
	require.NotNil(t, page.Records[0].Price)
	assert.True(t, page.Records[0].Price.Equal(decimal.RequireFromString("12.50")))
	assert.Nil(t, page.Records[1].Price)
	assert.Equal(t, "2", page.NextCursor)

	page, err = adapter.FetchStockRecords(context.Background(), itg, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Empty(t, page.NextCursor)

	// malformed rows are reported, not fatal
	require.Len(t, page.RowErrors, 2)
	assert.Contains(t, page.RowErrors[0].Message, "without sku")
	assert.Equal(t, "A-4", page.RowErrors[1].SKU)
}

func TestShopLinkAdapter_AuthFailureIsConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewShopLinkAdapter(5*time.Second, zap.NewNop())
	itg := shopLinkIntegration(t, server.URL)

	_, err := adapter.FetchStockRecords(context.Background(), itg, "")
	assert.ErrorIs(t, err, integration.ErrConnectionFailed)
}

func TestShopLinkAdapter_UnreachableHost(t *testing.T) {
	adapter := NewShopLinkAdapter(time.Second, zap.NewNop())
	itg := shopLinkIntegration(t, "http://127.0.0.1:1")

	_, err := adapter.FetchStockRecords(context.Background(), itg, "")
	assert.ErrorIs(t, err, integration.ErrConnectionFailed)

	result := adapter.TestConnection(context.Background(), itg)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestShopLinkAdapter_TestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ping", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	adapter := NewShopLinkAdapter(5*time.Second, zap.NewNop())
	result := adapter.TestConnection(context.Background(), shopLinkIntegration(t, server.URL))

	assert.True(t, result.Success)
}

func TestSignShopLink(t *testing.T) {
	h := hmac.New(sha256.New, []byte("secret"))
	h.Write([]byte("GET/v1/inventorypage=1&page_size=2001700000000"))
	expected := hex.EncodeToString(h.Sum(nil))

	assert.Equal(t, expected, signShopLink("secret", "GET", "/v1/inventory", "page=1&page_size=200", "1700000000"))
}
