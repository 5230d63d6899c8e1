package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name        string
		adapterType AdapterType
		raw         string
		wantErr     bool
		check       func(t *testing.T, cfg AdapterConfig)
	}{
		{
			name:        "shoplink",
			adapterType: AdapterTypeShopLink,
			raw:         `{"base_url":"https://api.shoplink.example","api_key":"k","api_secret":"s","page_size":100}`,
			check: func(t *testing.T, cfg AdapterConfig) {
				c := cfg.(*ShopLinkConfig)
				assert.Equal(t, "k", c.APIKey)
				assert.Equal(t, 100, c.PageSize)
			},
		},
		{
			name:        "vendhub with outlet scope",
			adapterType: AdapterTypeVendHub,
			raw:         `{"base_url":"https://api.vendhub.example","access_token":"tok","outlet_id":"out-1"}`,
			check: func(t *testing.T, cfg AdapterConfig) {
				c := cfg.(*VendHubConfig)
				assert.Equal(t, "out-1", c.OutletID)
			},
		},
		{
			name:        "csv import columns",
			adapterType: AdapterTypeCSVImport,
			raw:         `{"source":"upload","sku_column":"Artikel","quantity_column":"Bestand","price_column":"VK"}`,
			check: func(t *testing.T, cfg AdapterConfig) {
				c := cfg.(*CSVImportConfig)
				assert.Equal(t, "Artikel", c.SKUColumn)
				assert.Equal(t, "VK", c.PriceColumn)
			},
		},
		{
			name:        "unknown adapter type",
			adapterType: AdapterType("TELEX"),
			raw:         `{}`,
			wantErr:     true,
		},
		{
			name:        "malformed json",
			adapterType: AdapterTypeWebhook,
			raw:         `{"secret":`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig(tt.adapterType, []byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestAdapterConfig_Validate(t *testing.T) {
	assert.Error(t, (&ShopLinkConfig{BaseURL: "https://x"}).Validate())
	assert.NoError(t, (&ShopLinkConfig{BaseURL: "https://x", APIKey: "k", APISecret: "s"}).Validate())

	assert.Error(t, (&VendHubConfig{BaseURL: "https://x"}).Validate())
	assert.NoError(t, (&VendHubConfig{BaseURL: "https://x", AccessToken: "t"}).Validate())

	assert.Error(t, (&FileExportConfig{Source: "ftp"}).Validate())
	assert.Error(t, (&FileExportConfig{Source: "local", Path: "/drop"}).Validate())
	assert.NoError(t, (&FileExportConfig{Source: "local", Path: "/drop", FilePattern: "stock_*.txt"}).Validate())
	assert.NoError(t, (&FileExportConfig{Source: "s3", Bucket: "exports", FilePattern: "stock_*.txt"}).Validate())

	assert.Error(t, (&CSVImportConfig{Source: "upload"}).Validate())
	assert.NoError(t, (&CSVImportConfig{Source: "upload", SKUColumn: "sku", QuantityColumn: "qty"}).Validate())
	assert.Error(t, (&CSVImportConfig{Source: "upload", SKUColumn: "sku", QuantityColumn: "qty", Delimiter: ";;"}).Validate())

	assert.Error(t, (&WebhookConfig{Secret: "short"}).Validate())
	assert.NoError(t, (&WebhookConfig{Secret: "0123456789abcdef"}).Validate())

	assert.Error(t, (&CustomConfig{}).Validate())
	assert.NoError(t, (&CustomConfig{Settings: map[string]any{"mode": "test"}}).Validate())
}

func TestConfigSchema(t *testing.T) {
	for _, at := range []AdapterType{
		AdapterTypeShopLink, AdapterTypeVendHub, AdapterTypeERPFileExport,
		AdapterTypeCSVImport, AdapterTypeWebhook, AdapterTypeCustom,
	} {
		schema := ConfigSchema(at)
		require.NotEmpty(t, schema, "schema missing for %s", at)

		hasRequired := false
		for _, f := range schema {
			assert.NotEmpty(t, f.Name)
			assert.NotEmpty(t, f.Kind)
			if f.Required {
				hasRequired = true
			}
		}
		assert.True(t, hasRequired, "%s schema should have at least one required field", at)
	}

	assert.Nil(t, ConfigSchema(AdapterType("TELEX")))
}

func TestConfigSchema_SecretsArePasswordFields(t *testing.T) {
	for _, tc := range []struct {
		adapterType AdapterType
		field       string
	}{
		{AdapterTypeShopLink, "api_secret"},
		{AdapterTypeVendHub, "access_token"},
		{AdapterTypeWebhook, "secret"},
	} {
		found := false
		for _, f := range ConfigSchema(tc.adapterType) {
			if f.Name == tc.field {
				found = true
				assert.Equal(t, FieldKindPassword, f.Kind, "%s.%s", tc.adapterType, tc.field)
			}
		}
		assert.True(t, found)
	}
}

func TestEncodeConfigRoundTrip(t *testing.T) {
	orig := &VendHubConfig{BaseURL: "https://api.vendhub.example", AccessToken: "t", OutletID: "o-1", PageSize: 50}

	raw, err := EncodeConfig(orig)
	require.NoError(t, err)

	parsed, err := ParseConfig(AdapterTypeVendHub, raw)
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}
