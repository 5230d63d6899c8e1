package integration

import (
	"encoding/json"
	"fmt"
)

// AdapterConfig is the validated, strongly typed configuration carried by an
// integration. One concrete struct exists per AdapterType; dispatch is by the
// stored enum, never by runtime type inspection.
type AdapterConfig interface {
	// Validate checks that every required field is present and well-formed.
	Validate() error
}

// ---------------------------------------------------------------------------
// Per-variant configurations
// ---------------------------------------------------------------------------

// ShopLinkConfig configures the ShopLink cloud POS adapter. Requests are
// signed with an HMAC of the API secret.
type ShopLinkConfig struct {
	BaseURL   string `json:"base_url"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	PageSize  int    `json:"page_size,omitempty"`
}

// Validate implements AdapterConfig
func (c *ShopLinkConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigurationInvalid)
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("%w: api_key and api_secret are required", ErrConfigurationInvalid)
	}
	if c.PageSize < 0 || c.PageSize > 500 {
		return fmt.Errorf("%w: page_size must be between 0 and 500", ErrConfigurationInvalid)
	}
	return nil
}

// VendHubConfig configures the VendHub cloud POS adapter. Authentication is
// a bearer token; OutletID optionally scopes the fetch to one store.
type VendHubConfig struct {
	BaseURL     string `json:"base_url"`
	AccessToken string `json:"access_token"`
	OutletID    string `json:"outlet_id,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// Validate implements AdapterConfig
func (c *VendHubConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigurationInvalid)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigurationInvalid)
	}
	if c.PageSize < 0 || c.PageSize > 500 {
		return fmt.Errorf("%w: page_size must be between 0 and 500", ErrConfigurationInvalid)
	}
	return nil
}

// FileExportConfig configures the ERP file-export adapter. Files land on a
// source (local drop directory or S3 bucket) and the newest file whose name
// matches FilePattern is parsed.
type FileExportConfig struct {
	// Source is "local" or "s3"
	Source string `json:"source"`
	// Path is the drop directory (local) or object key prefix (s3)
	Path string `json:"path"`
	// Bucket is required when Source is "s3"
	Bucket string `json:"bucket,omitempty"`
	// FilePattern is a filename glob, e.g. "stock_export_*.txt"
	FilePattern string `json:"file_pattern"`
}

// Validate implements AdapterConfig
func (c *FileExportConfig) Validate() error {
	switch c.Source {
	case "local":
		if c.Path == "" {
			return fmt.Errorf("%w: path is required for local source", ErrConfigurationInvalid)
		}
	case "s3":
		if c.Bucket == "" {
			return fmt.Errorf("%w: bucket is required for s3 source", ErrConfigurationInvalid)
		}
	default:
		return fmt.Errorf("%w: source must be 'local' or 's3'", ErrConfigurationInvalid)
	}
	if c.FilePattern == "" {
		return fmt.Errorf("%w: file_pattern is required", ErrConfigurationInvalid)
	}
	return nil
}

// CSVImportConfig configures the spreadsheet adapter. Column identifiers
// name the header cells carrying SKU, quantity and (optionally) price.
type CSVImportConfig struct {
	// Source is "local", "s3" or "upload" (manual upload only)
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Bucket string `json:"bucket,omitempty"`
	// FilePattern selects files for pulled sources; ignored for uploads
	FilePattern    string `json:"file_pattern,omitempty"`
	SKUColumn      string `json:"sku_column"`
	QuantityColumn string `json:"quantity_column"`
	PriceColumn    string `json:"price_column,omitempty"`
	NameColumn     string `json:"name_column,omitempty"`
	Delimiter      string `json:"delimiter,omitempty"`
}

// Validate implements AdapterConfig
func (c *CSVImportConfig) Validate() error {
	switch c.Source {
	case "local":
		if c.Path == "" {
			return fmt.Errorf("%w: path is required for local source", ErrConfigurationInvalid)
		}
	case "s3":
		if c.Bucket == "" {
			return fmt.Errorf("%w: bucket is required for s3 source", ErrConfigurationInvalid)
		}
	case "upload":
		// nothing to pull; records arrive through the upload endpoint
	default:
		return fmt.Errorf("%w: source must be 'local', 's3' or 'upload'", ErrConfigurationInvalid)
	}
	if c.SKUColumn == "" || c.QuantityColumn == "" {
		return fmt.Errorf("%w: sku_column and quantity_column are required", ErrConfigurationInvalid)
	}
	if len(c.Delimiter) > 1 {
		return fmt.Errorf("%w: delimiter must be a single character", ErrConfigurationInvalid)
	}
	return nil
}

// WebhookConfig configures the inbound webhook adapter. Payload signatures
// are HMAC-SHA256 over the raw body with the shared secret.
type WebhookConfig struct {
	Secret string `json:"secret"`
}

// Validate implements AdapterConfig
func (c *WebhookConfig) Validate() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("%w: secret must be at least 16 characters", ErrConfigurationInvalid)
	}
	return nil
}

// CustomConfig carries an open-ended JSON document for bespoke integrations.
// Records may be embedded inline for fixed catalogs and smoke tests.
type CustomConfig struct {
	Settings map[string]any `json:"settings,omitempty"`
	Records  []StockRecord  `json:"records,omitempty"`
}

// Validate implements AdapterConfig
func (c *CustomConfig) Validate() error {
	if len(c.Settings) == 0 && len(c.Records) == 0 {
		return fmt.Errorf("%w: custom config must carry settings or records", ErrConfigurationInvalid)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseConfig decodes the raw JSON configuration into the typed struct for
// the given adapter type. The result is not validated; call Validate before
// activation.
func ParseConfig(adapterType AdapterType, raw []byte) (AdapterConfig, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var cfg AdapterConfig
	switch adapterType {
	case AdapterTypeShopLink:
		cfg = &ShopLinkConfig{}
	case AdapterTypeVendHub:
		cfg = &VendHubConfig{}
	case AdapterTypeERPFileExport:
		cfg = &FileExportConfig{}
	case AdapterTypeCSVImport:
		cfg = &CSVImportConfig{}
	case AdapterTypeWebhook:
		cfg = &WebhookConfig{}
	case AdapterTypeCustom:
		cfg = &CustomConfig{}
	default:
		return nil, ErrInvalidAdapterType
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigurationInvalid, err)
	}
	return cfg, nil
}

// EncodeConfig serializes a typed configuration back to JSON for persistence
func EncodeConfig(cfg AdapterConfig) ([]byte, error) {
	if cfg == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(cfg)
}

// ---------------------------------------------------------------------------
// Config field schema (consumed by the admin UI)
// ---------------------------------------------------------------------------

// FieldKind is the form control type for a config field
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindPassword FieldKind = "password"
	FieldKindNumber   FieldKind = "number"
	FieldKindSelect   FieldKind = "select"
	FieldKindCheckbox FieldKind = "checkbox"
)

// FieldSpec describes one configurable field of an adapter variant
type FieldSpec struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// ConfigSchema returns the field schema for an adapter type. Unknown types
// return nil.
func ConfigSchema(adapterType AdapterType) []FieldSpec {
	switch adapterType {
	case AdapterTypeShopLink:
		return []FieldSpec{
			{Name: "base_url", Label: "API base URL", Kind: FieldKindText, Required: true},
			{Name: "api_key", Label: "API key", Kind: FieldKindText, Required: true},
			{Name: "api_secret", Label: "API secret", Kind: FieldKindPassword, Required: true},
			{Name: "page_size", Label: "Page size", Kind: FieldKindNumber, Required: false},
		}
	case AdapterTypeVendHub:
		return []FieldSpec{
			{Name: "base_url", Label: "API base URL", Kind: FieldKindText, Required: true},
			{Name: "access_token", Label: "Access token", Kind: FieldKindPassword, Required: true},
			{Name: "outlet_id", Label: "Outlet", Kind: FieldKindText, Required: false},
			{Name: "page_size", Label: "Page size", Kind: FieldKindNumber, Required: false},
		}
	case AdapterTypeERPFileExport:
		return []FieldSpec{
			{Name: "source", Label: "File source", Kind: FieldKindSelect, Required: true, Options: []string{"local", "s3"}},
			{Name: "path", Label: "Drop directory / prefix", Kind: FieldKindText, Required: false},
			{Name: "bucket", Label: "S3 bucket", Kind: FieldKindText, Required: false},
			{Name: "file_pattern", Label: "Filename pattern", Kind: FieldKindText, Required: true},
		}
	case AdapterTypeCSVImport:
		return []FieldSpec{
			{Name: "source", Label: "File source", Kind: FieldKindSelect, Required: true, Options: []string{"local", "s3", "upload"}},
			{Name: "path", Label: "Drop directory / prefix", Kind: FieldKindText, Required: false},
			{Name: "bucket", Label: "S3 bucket", Kind: FieldKindText, Required: false},
			{Name: "file_pattern", Label: "Filename pattern", Kind: FieldKindText, Required: false},
			{Name: "sku_column", Label: "SKU column", Kind: FieldKindText, Required: true},
			{Name: "quantity_column", Label: "Quantity column", Kind: FieldKindText, Required: true},
			{Name: "price_column", Label: "Price column", Kind: FieldKindText, Required: false},
			{Name: "name_column", Label: "Name column", Kind: FieldKindText, Required: false},
		}
	case AdapterTypeWebhook:
		return []FieldSpec{
			{Name: "secret", Label: "Shared secret", Kind: FieldKindPassword, Required: true},
		}
	case AdapterTypeCustom:
		return []FieldSpec{
			{Name: "settings", Label: "Configuration (JSON)", Kind: FieldKindText, Required: true},
		}
	default:
		return nil
	}
}
