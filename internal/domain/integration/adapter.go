package integration

import (
	"context"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// StockRecord
// ---------------------------------------------------------------------------

// StockRecord is the normalized unit every adapter variant produces
// regardless of source transport. It is transient and never persisted.
type StockRecord struct {
	// SKU is the external identifier as reported by the source system
	SKU string `json:"sku"`
	// Quantity is the absolute on-hand quantity (replace, not delta)
	Quantity decimal.Decimal `json:"quantity"`
	// Price is the absolute selling price, when the source reports one
	Price *decimal.Decimal `json:"price,omitempty"`
	// DisplayName is the source's human-readable name, cached on mappings
	DisplayName string `json:"display_name,omitempty"`
}

// StockPage is one page of a fetch. RowErrors carries rows the adapter had
// to skip (malformed lines, corrupt cells); a non-empty NextCursor means the
// orchestrator should fetch again.
type StockPage struct {
	Records    []StockRecord
	RowErrors  []RowIssue
	NextCursor string
}

// RowIssue describes a single skipped row, tagged with the offending
// identifier when it could be determined.
type RowIssue struct {
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// ConnectionTestResult is the outcome of a side-effect-free connection test
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// StockAdapter port
// ---------------------------------------------------------------------------

// StockAdapter is the port implemented once per AdapterType in the
// infrastructure layer. Variants differ only in transport; all of them emit
// the same normalized record stream.
//
// Failure semantics: authentication and network failures return an error
// wrapping ErrConnectionFailed and no records. Malformed individual rows are
// skipped and reported via StockPage.RowErrors, never aborting the fetch.
type StockAdapter interface {
	// AdapterType returns the variant this adapter handles
	AdapterType() AdapterType

	// SupportsPricingSync reports whether the variant can carry prices
	SupportsPricingSync() bool

	// TestConnection validates the stored config against the external
	// system without creating any sync state.
	TestConnection(ctx context.Context, itg *Integration) ConnectionTestResult

	// FetchStockRecords returns one page of normalized records. An empty
	// cursor starts the sequence; the returned cursor resumes it.
	FetchStockRecords(ctx context.Context, itg *Integration, cursor string) (*StockPage, error)
}

// AdapterRegistry resolves the adapter for an integration's stored enum
type AdapterRegistry interface {
	// Adapter returns the adapter for the given type, or
	// ErrInvalidAdapterType if none is registered.
	Adapter(adapterType AdapterType) (StockAdapter, error)
}
