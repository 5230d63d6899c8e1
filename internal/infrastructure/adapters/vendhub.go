package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// Ensure VendHubAdapter implements StockAdapter
var _ integration.StockAdapter = (*VendHubAdapter)(nil)

// VendHubAdapter polls the VendHub cloud POS inventory API with bearer token
// authentication. An optional outlet_id scopes the fetch to one store.
type VendHubAdapter struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewVendHubAdapter creates a VendHub adapter
func NewVendHubAdapter(timeout time.Duration, logger *zap.Logger) *VendHubAdapter {
	return &VendHubAdapter{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("vendhub"),
	}
}

// AdapterType implements StockAdapter
func (a *VendHubAdapter) AdapterType() integration.AdapterType {
	return integration.AdapterTypeVendHub
}

// SupportsPricingSync implements StockAdapter
func (a *VendHubAdapter) SupportsPricingSync() bool {
	return true
}

func vendHubConfig(itg *integration.Integration) (*integration.VendHubConfig, error) {
	cfg, ok := itg.Config.(*integration.VendHubConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: vendhub config missing", integration.ErrConfigurationInvalid)
	}
	return cfg, nil
}

// TestConnection implements StockAdapter
func (a *VendHubAdapter) TestConnection(ctx context.Context, itg *integration.Integration) integration.ConnectionTestResult {
	cfg, err := vendHubConfig(itg)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}

	if _, err := a.doRequest(ctx, cfg, "/api/2.0/ping", nil); err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	return integration.ConnectionTestResult{Success: true, Message: "vendhub api reachable"}
}

// Numeric cells stay raw; decoding happens per item so one bad value does
// not abort the page.
type vendHubItem struct {
	SKU         string          `json:"sku"`
	OnHand      json.RawMessage `json:"on_hand"`
	RetailPrice json.RawMessage `json:"retail_price"`
	ProductName string          `json:"product_name"`
}

type vendHubInventoryResponse struct {
	Data       []vendHubItem `json:"data"`
	NextCursor string        `json:"next_cursor"`
}

// FetchStockRecords implements StockAdapter. VendHub pages with an opaque
// cursor returned by the previous response.
func (a *VendHubAdapter) FetchStockRecords(ctx context.Context, itg *integration.Integration, cursor string) (*integration.StockPage, error) {
	cfg, err := vendHubConfig(itg)
	if err != nil {
		return nil, err
	}

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))
	if cursor != "" {
		params.Set("after", cursor)
	}
	if cfg.OutletID != "" {
		params.Set("outlet_id", cfg.OutletID)
	}

	body, err := a.doRequest(ctx, cfg, "/api/2.0/inventory", params)
	if err != nil {
		return nil, err
	}

	var resp vendHubInventoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed inventory response: %v", integration.ErrConnectionFailed, err)
	}

	result := &integration.StockPage{NextCursor: resp.NextCursor}
	for _, item := range resp.Data {
		record, issue := convertWireItem(item.SKU, item.OnHand, item.RetailPrice, item.ProductName)
		if issue != nil {
			result.RowErrors = append(result.RowErrors, *issue)
			continue
		}
		result.Records = append(result.Records, *record)
	}
	return result, nil
}

// doRequest performs an authenticated GET against the VendHub API
func (a *VendHubAdapter) doRequest(ctx context.Context, cfg *integration.VendHubConfig, path string, params url.Values) ([]byte, error) {
	reqURL := cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vendhub: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("vendhub: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrConnectionFailed, resp.StatusCode)
	}
	return body, nil
}
