// Package adapters contains the stock adapter implementations, one per
// adapter type. All of them normalize their source into StockRecord streams;
// connection failures wrap ErrConnectionFailed, malformed rows become
// RowIssues.
package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

const (
	// maxResponseSize limits response bodies to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	defaultPageSize = 200
)

// Ensure ShopLinkAdapter implements StockAdapter
var _ integration.StockAdapter = (*ShopLinkAdapter)(nil)

// ShopLinkAdapter polls the ShopLink cloud POS inventory API. Every request
// carries an HMAC-SHA256 signature over method, path, query and timestamp,
// keyed with the API secret.
type ShopLinkAdapter struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewShopLinkAdapter creates a ShopLink adapter
func NewShopLinkAdapter(timeout time.Duration, logger *zap.Logger) *ShopLinkAdapter {
	return &ShopLinkAdapter{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("shoplink"),
	}
}

// AdapterType implements StockAdapter
func (a *ShopLinkAdapter) AdapterType() integration.AdapterType {
	return integration.AdapterTypeShopLink
}

// SupportsPricingSync implements StockAdapter
func (a *ShopLinkAdapter) SupportsPricingSync() bool {
	return true
}

func shopLinkConfig(itg *integration.Integration) (*integration.ShopLinkConfig, error) {
	cfg, ok := itg.Config.(*integration.ShopLinkConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: shoplink config missing", integration.ErrConfigurationInvalid)
	}
	return cfg, nil
}

// TestConnection implements StockAdapter
func (a *ShopLinkAdapter) TestConnection(ctx context.Context, itg *integration.Integration) integration.ConnectionTestResult {
	cfg, err := shopLinkConfig(itg)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}

	if _, err := a.doRequest(ctx, cfg, "/v1/ping", ""); err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	return integration.ConnectionTestResult{Success: true, Message: "shoplink api reachable"}
}

// Numeric cells stay raw so a malformed value in one item surfaces as a row
// issue instead of failing the whole page decode.
type shopLinkItem struct {
	SKU      string          `json:"sku"`
	Quantity json.RawMessage `json:"quantity"`
	Price    json.RawMessage `json:"price"`
	Name     string          `json:"name"`
}

type shopLinkInventoryResponse struct {
	Items   []shopLinkItem `json:"items"`
	HasMore bool           `json:"has_more"`
}

// FetchStockRecords implements StockAdapter. The cursor is the page number;
// empty starts at page 1.
func (a *ShopLinkAdapter) FetchStockRecords(ctx context.Context, itg *integration.Integration, cursor string) (*integration.StockPage, error) {
	cfg, err := shopLinkConfig(itg)
	if err != nil {
		return nil, err
	}

	page := 1
	if cursor != "" {
		page, err = strconv.Atoi(cursor)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	query := fmt.Sprintf("page=%d&page_size=%d", page, pageSize)
	body, err := a.doRequest(ctx, cfg, "/v1/inventory", query)
	if err != nil {
		return nil, err
	}

	var resp shopLinkInventoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed inventory response: %v", integration.ErrConnectionFailed, err)
	}

	result := &integration.StockPage{}
	for _, item := range resp.Items {
		record, issue := convertWireItem(item.SKU, item.Quantity, item.Price, item.Name)
		if issue != nil {
			result.RowErrors = append(result.RowErrors, *issue)
			continue
		}
		result.Records = append(result.Records, *record)
	}
	if resp.HasMore {
		result.NextCursor = strconv.Itoa(page + 1)
	}
	return result, nil
}

// doRequest performs a signed GET against the ShopLink API
func (a *ShopLinkAdapter) doRequest(ctx context.Context, cfg *integration.ShopLinkConfig, path, query string) ([]byte, error) {
	url := cfg.BaseURL + path
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("shoplink: failed to create request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", cfg.APIKey)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Signature", signShopLink(cfg.APISecret, http.MethodGet, path, query, timestamp))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shoplink: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrConnectionFailed, resp.StatusCode)
	}
	return body, nil
}

// signShopLink builds the request signature:
// HMAC-SHA256(secret, method + path + query + timestamp), hex encoded.
func signShopLink(secret, method, path, query, timestamp string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write([]byte(query))
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// convertWireItem turns one wire item into a stock record, or a row issue
// when a cell cannot be converted. Shared by the REST and webhook adapters.
func convertWireItem(sku string, quantity, price json.RawMessage, name string) (*integration.StockRecord, *integration.RowIssue) {
	if sku == "" {
		return nil, &integration.RowIssue{Message: "item without sku"}
	}

	qty, err := decodeWireNumber(quantity)
	if err != nil {
		return nil, &integration.RowIssue{SKU: sku, Message: fmt.Sprintf("invalid quantity %s", quantity)}
	}
	if qty.IsNegative() {
		return nil, &integration.RowIssue{SKU: sku, Message: fmt.Sprintf("negative quantity %s", qty)}
	}

	record := &integration.StockRecord{SKU: sku, Quantity: qty, DisplayName: name}
	if len(price) > 0 && string(price) != "null" {
		p, err := decodeWireNumber(price)
		if err != nil || p.IsNegative() {
			return nil, &integration.RowIssue{SKU: sku, Message: fmt.Sprintf("invalid price %s", price)}
		}
		record.Price = &p
	}
	return record, nil
}

// decodeWireNumber converts a raw JSON cell into a decimal. Upstream systems
// send numbers both bare and quoted, so both forms are accepted; anything
// else is the caller's row issue.
func decodeWireNumber(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, fmt.Errorf("missing value")
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, err
		}
	}
	return decimal.NewFromString(text)
}
