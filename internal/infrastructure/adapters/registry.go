package adapters

import (
	"time"

	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/infrastructure/storage"
)

// Ensure Registry implements AdapterRegistry
var _ integration.AdapterRegistry = (*Registry)(nil)

// Registry dispatches from the stored adapter type enum to the adapter
// implementation.
type Registry struct {
	adapters map[integration.AdapterType]integration.StockAdapter
}

// Dependencies carries everything the adapter set needs
type Dependencies struct {
	// Store is the object storage behind s3 file sources; nil disables them
	Store storage.ObjectStorage
	// Uploads queues manually uploaded feed files
	Uploads *PayloadQueue
	// Webhooks queues signed inbound webhook payloads
	Webhooks *PayloadQueue
	// HTTPTimeout bounds one request of the REST adapters
	HTTPTimeout time.Duration
	Logger      *zap.Logger
}

// NewRegistry builds a registry with all six adapter variants
func NewRegistry(deps Dependencies) *Registry {
	if deps.HTTPTimeout == 0 {
		deps.HTTPTimeout = 30 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Uploads == nil {
		deps.Uploads = NewPayloadQueue()
	}
	if deps.Webhooks == nil {
		deps.Webhooks = NewPayloadQueue()
	}

	r := &Registry{adapters: make(map[integration.AdapterType]integration.StockAdapter)}
	r.Register(NewShopLinkAdapter(deps.HTTPTimeout, deps.Logger))
	r.Register(NewVendHubAdapter(deps.HTTPTimeout, deps.Logger))
	r.Register(NewFileExportAdapter(deps.Store, deps.Uploads, deps.Logger))
	r.Register(NewCSVImportAdapter(deps.Store, deps.Uploads, deps.Logger))
	r.Register(NewWebhookAdapter(deps.Webhooks, deps.Logger))
	r.Register(NewCustomAdapter(deps.Logger))
	return r
}

// Register adds or replaces the adapter for its type
func (r *Registry) Register(adapter integration.StockAdapter) {
	r.adapters[adapter.AdapterType()] = adapter
}

// Adapter implements AdapterRegistry
func (r *Registry) Adapter(adapterType integration.AdapterType) (integration.StockAdapter, error) {
	adapter, ok := r.adapters[adapterType]
	if !ok {
		return nil, integration.ErrInvalidAdapterType
	}
	return adapter, nil
}
