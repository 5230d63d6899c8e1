package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries the HMAC signature of inbound webhook payloads
const SignatureHeader = "X-Sync-Signature"

// WebhookSink validates and queues an inbound stock payload
type WebhookSink interface {
	Enqueue(itg *integration.Integration, body []byte, signature string) (bool, error)
}

// WebhookHandler receives stock payloads pushed by external systems
type WebhookHandler struct {
	BaseHandler
	integrations integration.IntegrationRepository
	sink         WebhookSink
	runner       SyncRunner
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(integrations integration.IntegrationRepository, sink WebhookSink, runner SyncRunner) *WebhookHandler {
	return &WebhookHandler{
		integrations: integrations,
		sink:         sink,
		runner:       runner,
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/:integration_id/stock", h.ReceiveStock)
}

// WebhookAckResponse acknowledges an accepted payload
type WebhookAckResponse struct {
	SyncID  string `json:"sync_id,omitempty"`
	Message string `json:"message"`
}

// ReceiveStock accepts a signed stock payload and starts a run to apply it.
// A rejected signature is a 401; a run already in flight still accepts the
// payload, which the next run drains.
func (h *WebhookHandler) ReceiveStock(c *gin.Context) {
	id, ok := parseID(c, "integration_id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		h.BadRequest(c, "missing request body")
		return
	}

	itg, err := h.integrations.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if itg.AdapterType != integration.AdapterTypeWebhook {
		h.BadRequest(c, "integration does not accept webhooks")
		return
	}

	accepted, err := h.sink.Enqueue(itg, body, c.GetHeader(SignatureHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !accepted {
		h.Unauthorized(c, "invalid payload signature")
		return
	}

	log, err := h.runner.TriggerSync(c.Request.Context(), id, integration.SyncTriggerWebhook)
	if err != nil {
		// The payload stays queued; the next run picks it up
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(WebhookAckResponse{
			Message: "payload queued for next sync run",
		}))
		return
	}

	h.Success(c, WebhookAckResponse{
		SyncID:  log.ID.String(),
		Message: "payload applied",
	})
}
