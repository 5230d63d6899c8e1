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

// Ensure FileExportAdapter implements StockAdapter
var _ integration.StockAdapter = (*FileExportAdapter)(nil)

// FileExportAdapter reads pipe-delimited stock exports that an ERP drops on
// a file source. The newest file matching the configured pattern wins; older
// drops are superseded. A manually uploaded export takes precedence over the
// pulled source for the run that drains it.
type FileExportAdapter struct {
	files   fileLocator
	uploads *PayloadQueue
	logger  *zap.Logger
}

// NewFileExportAdapter creates an ERP file-export adapter
func NewFileExportAdapter(store storage.ObjectStorage, uploads *PayloadQueue, logger *zap.Logger) *FileExportAdapter {
	return &FileExportAdapter{
		files:   fileLocator{store: store},
		uploads: uploads,
		logger:  logger.Named("fileexport"),
	}
}

// AdapterType implements StockAdapter
func (a *FileExportAdapter) AdapterType() integration.AdapterType {
	return integration.AdapterTypeERPFileExport
}

// SupportsPricingSync implements StockAdapter
func (a *FileExportAdapter) SupportsPricingSync() bool {
	return true
}

func fileExportConfig(itg *integration.Integration) (*integration.FileExportConfig, error) {
	cfg, ok := itg.Config.(*integration.FileExportConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: file export config missing", integration.ErrConfigurationInvalid)
	}
	return cfg, nil
}

// TestConnection implements StockAdapter. Locating a matching file proves the
// source is reachable; the file is not parsed.
func (a *FileExportAdapter) TestConnection(ctx context.Context, itg *integration.Integration) integration.ConnectionTestResult {
	cfg, err := fileExportConfig(itg)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}

	r, name, err := a.files.openLatest(ctx, cfg.Source, cfg.Path, cfg.Bucket, cfg.FilePattern)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	_ = r.Close()
	return integration.ConnectionTestResult{Success: true, Message: fmt.Sprintf("found export file %s", name)}
}

// FetchStockRecords implements StockAdapter. The whole export fits one page.
// A pending upload is drained first; otherwise the newest matching file on
// the configured source is read.
func (a *FileExportAdapter) FetchStockRecords(ctx context.Context, itg *integration.Integration, _ string) (*integration.StockPage, error) {
	cfg, err := fileExportConfig(itg)
	if err != nil {
		return nil, err
	}

	var r io.ReadCloser
	var name string
	if payload, ok := a.uploads.Dequeue(itg.ID); ok {
		r = io.NopCloser(bytes.NewReader(payload))
		name = "uploaded file"
	} else {
		r, name, err = a.files.openLatest(ctx, cfg.Source, cfg.Path, cfg.Bucket, cfg.FilePattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrConnectionFailed, err)
		}
	}
	defer r.Close()

	result, err := feed.ParseERPExport(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrConnectionFailed, name, err)
	}

	a.logger.Debug("Parsed export file",
		zap.String("file", name),
		zap.Int("records", len(result.Records)),
		zap.Int("skipped_rows", len(result.Issues)),
	)
	return &integration.StockPage{Records: result.Records, RowErrors: result.Issues}, nil
}
