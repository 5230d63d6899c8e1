package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
)

// Ensure WebhookAdapter implements StockAdapter
var _ integration.StockAdapter = (*WebhookAdapter)(nil)

// WebhookAdapter consumes stock payloads pushed by the source system. The
// HTTP layer validates the payload signature and enqueues the body; a sync
// run drains the queue.
type WebhookAdapter struct {
	queue  *PayloadQueue
	logger *zap.Logger
}

// NewWebhookAdapter creates a webhook adapter over the given payload queue
func NewWebhookAdapter(queue *PayloadQueue, logger *zap.Logger) *WebhookAdapter {
	return &WebhookAdapter{
		queue:  queue,
		logger: logger.Named("webhook"),
	}
}

// AdapterType implements StockAdapter
func (a *WebhookAdapter) AdapterType() integration.AdapterType {
	return integration.AdapterTypeWebhook
}

// SupportsPricingSync implements StockAdapter
func (a *WebhookAdapter) SupportsPricingSync() bool {
	return true
}

func webhookConfig(itg *integration.Integration) (*integration.WebhookConfig, error) {
	cfg, ok := itg.Config.(*integration.WebhookConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: webhook config missing", integration.ErrConfigurationInvalid)
	}
	return cfg, nil
}

// TestConnection implements StockAdapter. There is no remote side to probe;
// a valid shared secret means the endpoint is ready.
func (a *WebhookAdapter) TestConnection(_ context.Context, itg *integration.Integration) integration.ConnectionTestResult {
	cfg, err := webhookConfig(itg)
	if err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return integration.ConnectionTestResult{Success: false, Message: err.Error()}
	}
	return integration.ConnectionTestResult{Success: true, Message: "webhook endpoint ready"}
}

type webhookPayload struct {
	Records []struct {
		SKU      string          `json:"sku"`
		Quantity json.RawMessage `json:"quantity"`
		Price    json.RawMessage `json:"price"`
		Name     string          `json:"name"`
	} `json:"records"`
}

// FetchStockRecords implements StockAdapter. One queued payload per page;
// the cursor signals remaining payloads. An empty queue yields an empty run.
func (a *WebhookAdapter) FetchStockRecords(_ context.Context, itg *integration.Integration, _ string) (*integration.StockPage, error) {
	body, ok := a.queue.Dequeue(itg.ID)
	if !ok {
		return &integration.StockPage{}, nil
	}

	result := &integration.StockPage{}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// A signed but unparseable payload is a data problem, not a
		// connection problem
		result.RowErrors = append(result.RowErrors, integration.RowIssue{
			Message: fmt.Sprintf("malformed webhook payload: %v", err),
		})
	} else {
		for _, item := range payload.Records {
			record, issue := convertWireItem(item.SKU, item.Quantity, item.Price, item.Name)
			if issue != nil {
				result.RowErrors = append(result.RowErrors, *issue)
				continue
			}
			result.Records = append(result.Records, *record)
		}
	}

	if a.queue.Pending(itg.ID) > 0 {
		result.NextCursor = "next"
	}
	return result, nil
}

// Enqueue validates the payload signature and queues the body for the next
// sync run. Returns false when the signature does not match.
func (a *WebhookAdapter) Enqueue(itg *integration.Integration, body []byte, signature string) (bool, error) {
	cfg, err := webhookConfig(itg)
	if err != nil {
		return false, err
	}
	if !ValidSignature(cfg.Secret, body, signature) {
		return false, nil
	}
	a.queue.Enqueue(itg.ID, body)
	return true, nil
}

// ValidSignature checks an HMAC-SHA256 hex signature over the raw body. A
// "sha256=" prefix on the header value is accepted.
func ValidSignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
