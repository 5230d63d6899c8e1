package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// Ensure CustomAdapter implements StockAdapter
var _ integration.StockAdapter = (*CustomAdapter)(nil)

// CustomAdapter serves bespoke integrations whose records are embedded in
// the configuration document. Used for fixed catalogs and smoke testing.
type CustomAdapter struct {
	logger *zap.Logger
}

// NewCustomAdapter creates a custom adapter
func NewCustomAdapter(logger *zap.Logger) *CustomAdapter {
	return &CustomAdapter{logger: logger.Named("custom")}
}

// AdapterType implements StockAdapter
func (a *CustomAdapter) AdapterType() integration.AdapterType {
	return integration.AdapterTypeCustom
}

// SupportsPricingSync implements StockAdapter
func (a *CustomAdapter) SupportsPricingSync() bool {
	return true
}

func customConfig(itg *integration.Integration) (*integration.CustomConfig, error) {
	cfg, ok := itg.Config.(*integration.CustomConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: custom config missing", integration.ErrConfigurationInvalid)
	}
	return cfg, nil
}

// TestConnection implements StockAdapter
func (a *CustomAdapter) TestConnection(_ context.Context, itg *integration.Integration) integration.ConnectionTestResult {
	cfg, err := customConfig(itg)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	return integration.ConnectionTestResult{
		Success: true,
		Message: fmt.Sprintf("%d inline records configured", len(cfg.Records)),
	}
}

// FetchStockRecords implements StockAdapter. All inline records fit one page.
func (a *CustomAdapter) FetchStockRecords(_ context.Context, itg *integration.Integration, _ string) (*integration.StockPage, error) {
	cfg, err := customConfig(itg)
	if err != nil {
		return nil, err
	}

	page := &integration.StockPage{}
	for _, record := range cfg.Records {
		if record.SKU == "" {
			page.RowErrors = append(page.RowErrors, integration.RowIssue{Message: "inline record without sku"})
			continue
		}
		if record.Quantity.IsNegative() {
			page.RowErrors = append(page.RowErrors, integration.RowIssue{
				SKU:     record.SKU,
				Message: fmt.Sprintf("negative quantity %s", record.Quantity),
			})
			continue
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}
