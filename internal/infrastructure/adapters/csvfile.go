package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/infrastructure/feed"
	"github.com/modaretail/backend/internal/infrastructure/storage"
)

// Ensure CSVImportAdapter implements StockAdapter
var _ integration.StockAdapter = (*CSVImportAdapter)(nil)

// CSVImportAdapter reads spreadsheet exports with configurable column names.
// Files come from a pulled file source or from manual uploads queued by the
// upload endpoint.
type CSVImportAdapter struct {
	files   fileLocator
	uploads *PayloadQueue
	logger  *zap.Logger
}

// NewCSVImportAdapter creates a CSV import adapter
func NewCSVImportAdapter(store storage.ObjectStorage, uploads *PayloadQueue, logger *zap.Logger) *CSVImportAdapter {
	return &CSVImportAdapter{
		files:   fileLocator{store: store},
		uploads: uploads,
		logger:  logger.Named("csvimport"),
	}
}

// AdapterType implements StockAdapter
func (a *CSVImportAdapter) AdapterType() integration.AdapterType {
	return integration.AdapterTypeCSVImport
}

// SupportsPricingSync implements StockAdapter
func (a *CSVImportAdapter) SupportsPricingSync() bool {
	return true
}

func csvImportConfig(itg *integration.Integration) (*integration.CSVImportConfig, error) {
	cfg, ok := itg.Config.(*integration.CSVImportConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: csv import config missing", integration.ErrConfigurationInvalid)
	}
	return cfg, nil
}

// TestConnection implements StockAdapter
func (a *CSVImportAdapter) TestConnection(ctx context.Context, itg *integration.Integration) integration.ConnectionTestResult {
	cfg, err := csvImportConfig(itg)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}

	if cfg.Source == "upload" {
		// Nothing to probe; files arrive through the upload endpoint
		return integration.ConnectionTestResult{Success: true, Message: "ready to receive uploads"}
	}

	r, name, err := a.files.openLatest(ctx, cfg.Source, cfg.Path, cfg.Bucket, cfg.FilePattern)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	_ = r.Close()
	return integration.ConnectionTestResult{Success: true, Message: fmt.Sprintf("found feed file %s", name)}
}

// FetchStockRecords implements StockAdapter. Uploaded files are drained from
// the queue; pulled sources read the newest matching file. One file per page.
func (a *CSVImportAdapter) FetchStockRecords(ctx context.Context, itg *integration.Integration, _ string) (*integration.StockPage, error) {
	cfg, err := csvImportConfig(itg)
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	var name string
	if cfg.Source == "upload" {
		payload, ok := a.uploads.Dequeue(itg.ID)
		if !ok {
			return nil, fmt.Errorf("%w: no uploaded file pending", integration.ErrConnectionFailed)
		}
		reader = io.NopCloser(bytes.NewReader(payload))
		name = "uploaded file"
	} else {
		reader, name, err = a.files.openLatest(ctx, cfg.Source, cfg.Path, cfg.Bucket, cfg.FilePattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrConnectionFailed, err)
		}
	}
	defer reader.Close()

	var opts []feed.Option
	if cfg.Delimiter != "" {
		opts = append(opts, feed.WithDelimiter(rune(cfg.Delimiter[0])))
	}

	result, err := feed.ParseStock(reader, feed.ColumnMap{
		SKU:      cfg.SKUColumn,
		Quantity: cfg.QuantityColumn,
		Price:    cfg.PriceColumn,
		Name:     cfg.NameColumn,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrConnectionFailed, name, err)
	}

	a.logger.Debug("Parsed feed file",
		zap.String("file", name),
		zap.Int("records", len(result.Records)),
		zap.Int("skipped_rows", len(result.Issues)),
	)
	return &integration.StockPage{Records: result.Records, RowErrors: result.Issues}, nil
}
