package sync

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/modaretail/backend/internal/domain/catalog"
	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type fakeVariantRepo struct {
	mu       sync.Mutex
	variants map[uuid.UUID]*catalog.ProductVariant
	names    map[uuid.UUID]string
	// conflicts injects this many version conflicts before writes succeed
	conflicts int
	writes    int
}

func newFakeVariantRepo() *fakeVariantRepo {
	return &fakeVariantRepo{
		variants: make(map[uuid.UUID]*catalog.ProductVariant),
		names:    make(map[uuid.UUID]string),
	}
}

func (f *fakeVariantRepo) add(sku string, quantity, price string) *catalog.ProductVariant {
	v := &catalog.ProductVariant{
		VersionedEntity: shared.NewVersionedEntity(),
		ProductID:       uuid.New(),
		SKU:             sku,
		StockQuantity:   mustDecimal(quantity),
		Price:           mustDecimal(price),
	}
	f.variants[v.ID] = v
	f.names[v.ProductID] = "Product " + sku
	return v
}

func (f *fakeVariantRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVariantRepo) FindBySKUNormalized(_ context.Context, _ uuid.UUID, normalizedSKU string) ([]catalog.ProductVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []catalog.ProductVariant
	for _, v := range f.variants {
		if catalog.NormalizeSKU(v.SKU) == normalizedSKU {
			matches = append(matches, *v)
		}
	}
	return matches, nil
}

func (f *fakeVariantRepo) ApplyStockWrite(_ context.Context, write catalog.StockWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflicts > 0 {
		f.conflicts--
		return shared.ErrConcurrencyConflict
	}
	v, ok := f.variants[write.VariantID]
	if !ok {
		return shared.ErrNotFound
	}
	if v.Version != write.ExpectedVersion {
		return shared.ErrConcurrencyConflict
	}
	v.StockQuantity = write.Quantity
	if write.Price != nil {
		v.Price = *write.Price
	}
	v.IncrementVersion()
	f.writes++
	return nil
}

func (f *fakeVariantRepo) ProductName(_ context.Context, productID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[productID], nil
}

type fakeMappingRepo struct {
	mu       sync.Mutex
	mappings map[string]*integration.SKUMapping
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{mappings: make(map[string]*integration.SKUMapping)}
}

func mappingKey(integrationID uuid.UUID, externalSKU string) string {
	return integrationID.String() + "|" + externalSKU
}

func (f *fakeMappingRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.SKUMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mappings {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrSKUMappingNotFound
}

func (f *fakeMappingRepo) FindByExternalSKU(_ context.Context, integrationID uuid.UUID, externalSKU string) (*integration.SKUMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mappings[mappingKey(integrationID, externalSKU)]
	if !ok {
		return nil, integration.ErrSKUMappingNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMappingRepo) FindAll(_ context.Context, integrationID uuid.UUID, _ integration.SKUMappingFilter) ([]integration.SKUMapping, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []integration.SKUMapping
	for _, m := range f.mappings {
		if m.IntegrationID == integrationID {
			all = append(all, *m)
		}
	}
	return all, int64(len(all)), nil
}

func (f *fakeMappingRepo) FindUnmapped(_ context.Context, integrationID uuid.UUID) ([]integration.SKUMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []integration.SKUMapping
	for _, m := range f.mappings {
		if m.IntegrationID == integrationID && !m.IsBound() && !m.IsIgnored {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeMappingRepo) Save(_ context.Context, mapping *integration.SKUMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *mapping
	f.mappings[mappingKey(mapping.IntegrationID, mapping.ExternalSKU)] = &copied
	return nil
}

func (f *fakeMappingRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, m := range f.mappings {
		if m.ID == id {
			delete(f.mappings, key)
			return nil
		}
	}
	return integration.ErrSKUMappingNotFound
}

type fakeIntegrationRepo struct {
	mu           sync.Mutex
	integrations map[uuid.UUID]*integration.Integration
}

func newFakeIntegrationRepo() *fakeIntegrationRepo {
	return &fakeIntegrationRepo{integrations: make(map[uuid.UUID]*integration.Integration)}
}

func (f *fakeIntegrationRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	itg, ok := f.integrations[id]
	if !ok {
		return nil, integration.ErrIntegrationNotFound
	}
	copied := *itg
	return &copied, nil
}

func (f *fakeIntegrationRepo) FindAll(_ context.Context, _ integration.IntegrationFilter) ([]integration.Integration, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []integration.Integration
	for _, itg := range f.integrations {
		all = append(all, *itg)
	}
	return all, int64(len(all)), nil
}

func (f *fakeIntegrationRepo) FindActive(_ context.Context) ([]integration.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []integration.Integration
	for _, itg := range f.integrations {
		if itg.IsActive {
			active = append(active, *itg)
		}
	}
	return active, nil
}

func (f *fakeIntegrationRepo) Save(_ context.Context, itg *integration.Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *itg
	f.integrations[itg.ID] = &copied
	return nil
}

// RecordSyncOutcome mirrors the column-scoped production write: only the
// sync-status fields of the stored entity change.
func (f *fakeIntegrationRepo) RecordSyncOutcome(_ context.Context, id uuid.UUID, completedAt time.Time, status integration.SyncRunStatus, connectionFailed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	itg, ok := f.integrations[id]
	if !ok {
		return integration.ErrIntegrationNotFound
	}
	itg.RecordSyncResult(completedAt, status, connectionFailed)
	return nil
}

func (f *fakeIntegrationRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.integrations, id)
	return nil
}

type fakeSyncLogRepo struct {
	mu   sync.Mutex
	logs map[uuid.UUID]*integration.SyncLog
}

func newFakeSyncLogRepo() *fakeSyncLogRepo {
	return &fakeSyncLogRepo{logs: make(map[uuid.UUID]*integration.SyncLog)}
}

func (f *fakeSyncLogRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.logs[id]
	if !ok {
		return nil, integration.ErrSyncLogNotFound
	}
	copied := *log
	return &copied, nil
}

func (f *fakeSyncLogRepo) FindAll(_ context.Context, filter integration.SyncLogFilter) ([]integration.SyncLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []integration.SyncLog
	for _, log := range f.logs {
		if filter.IntegrationID != nil && log.IntegrationID != *filter.IntegrationID {
			continue
		}
		all = append(all, *log)
	}
	return all, int64(len(all)), nil
}

func (f *fakeSyncLogRepo) Save(_ context.Context, log *integration.SyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *log
	f.logs[log.ID] = &copied
	return nil
}

func (f *fakeSyncLogRepo) Stats(_ context.Context, integrationID uuid.UUID) (*integration.SyncStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &integration.SyncStats{}
	for _, log := range f.logs {
		if log.IntegrationID != integrationID {
			continue
		}
		stats.TotalSyncs++
		switch log.Status {
		case integration.SyncRunStatusSuccess, integration.SyncRunStatusPartial:
			stats.SuccessfulSyncs++
		case integration.SyncRunStatusFailed:
			stats.FailedSyncs++
		}
		stats.ProductsSynced += int64(log.Updated)
	}
	return stats, nil
}

func (f *fakeSyncLogRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

// fakeAdapter serves a fixed sequence of pages, or fails on connection
type fakeAdapter struct {
	adapterType integration.AdapterType
	pages       []*integration.StockPage
	fetchErr    error
	pricing     bool
	fetchCalls  int
	// onFetch, when set, runs before each page is served; tests use it to
	// mutate state while a run is in flight
	onFetch func()
	// endlessCursor makes every page claim more data is pending
	endlessCursor bool
}

func (a *fakeAdapter) AdapterType() integration.AdapterType {
	if a.adapterType == "" {
		return integration.AdapterTypeCustom
	}
	return a.adapterType
}

func (a *fakeAdapter) SupportsPricingSync() bool { return a.pricing }

func (a *fakeAdapter) TestConnection(_ context.Context, _ *integration.Integration) integration.ConnectionTestResult {
	if a.fetchErr != nil {
		return integration.ConnectionTestResult{Success: false, Message: a.fetchErr.Error()}
	}
	return integration.ConnectionTestResult{Success: true, Message: "ok"}
}

func (a *fakeAdapter) FetchStockRecords(_ context.Context, _ *integration.Integration, cursor string) (*integration.StockPage, error) {
	a.fetchCalls++
	if a.onFetch != nil {
		a.onFetch()
	}
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	if a.endlessCursor {
		page := integration.StockPage{NextCursor: "more"}
		if len(a.pages) > 0 {
			page.Records = a.pages[0].Records
		}
		return &page, nil
	}

	index := 0
	if cursor != "" {
		index, _ = strconv.Atoi(cursor)
	}
	if index >= len(a.pages) {
		return &integration.StockPage{}, nil
	}

	page := *a.pages[index]
	if index+1 < len(a.pages) {
		page.NextCursor = strconv.Itoa(index + 1)
	}
	return &page, nil
}

type fakeRegistry struct {
	adapter integration.StockAdapter
}

func (r *fakeRegistry) Adapter(_ integration.AdapterType) (integration.StockAdapter, error) {
	return r.adapter, nil
}

// fakeLock is an in-process run lock with an optional pre-held slot
type fakeLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[uuid.UUID]bool)}
}

func (l *fakeLock) Acquire(_ context.Context, id uuid.UUID, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return false, nil
	}
	l.held[id] = true
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("bad decimal literal %q", s))
	}
	return d
}

func decimalPtr(s string) *decimal.Decimal {
	d := mustDecimal(s)
	return &d
}
