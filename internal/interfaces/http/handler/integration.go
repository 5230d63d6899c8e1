package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/modaretail/backend/internal/application/integration"
	"github.com/modaretail/backend/internal/domain/integration"
)

// SyncRunner starts sync runs on demand
type SyncRunner interface {
	TriggerSync(ctx context.Context, integrationID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncLog, error)
}

// ConnectionTester probes an integration's remote side without touching state
type ConnectionTester interface {
	Test(ctx context.Context, integrationID uuid.UUID) (*integration.ConnectionTestResult, error)
}

// IntegrationHandler handles integration lifecycle API endpoints
type IntegrationHandler struct {
	BaseHandler
	service *appintegration.IntegrationService
	runner  SyncRunner
	tester  ConnectionTester
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(service *appintegration.IntegrationService, runner SyncRunner, tester ConnectionTester) *IntegrationHandler {
	return &IntegrationHandler{
		service: service,
		runner:  runner,
		tester:  tester,
	}
}

// RegisterRoutes registers integration routes
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.POST("", h.Create)
		integrations.GET("", h.List)
		integrations.GET("/config-schema/:adapter_type", h.ConfigSchema)
		integrations.GET("/:id", h.Get)
		integrations.PUT("/:id", h.Update)
		integrations.DELETE("/:id", h.Delete)
		integrations.POST("/:id/toggle", h.Toggle)
		integrations.POST("/:id/sync", h.TriggerSync)
		integrations.POST("/:id/test-connection", h.TestConnection)
		integrations.POST("/:id/upload", h.Upload)
	}

	syncLogs := rg.Group("/sync-logs")
	{
		syncLogs.GET("", h.ListSyncLogs)
		syncLogs.GET("/:id", h.GetSyncLog)
	}
}

// TriggerSyncResponse is returned when a run has been started
type TriggerSyncResponse struct {
	SyncID  string `json:"sync_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Create registers a new integration
func (h *IntegrationHandler) Create(c *gin.Context) {
	var req appintegration.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	itg, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, appintegration.ToIntegrationResponse(itg, nil))
}

// List lists integrations with filtering and pagination
func (h *IntegrationHandler) List(c *gin.Context) {
	var filter appintegration.IntegrationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainFilter := filter.ToDomainFilter()
	items, total, err := h.service.List(c.Request.Context(), domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := domainFilter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := domainFilter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, appintegration.ToIntegrationListResponses(items), total, page, pageSize)
}

// Get returns one integration with its aggregated run stats
func (h *IntegrationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	itg, stats, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToIntegrationResponse(itg, stats))
}

// Update applies a partial update to an integration
func (h *IntegrationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	var req appintegration.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	itg, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToIntegrationResponse(itg, nil))
}

// Delete soft-deletes an integration
func (h *IntegrationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Toggle flips the active flag; activation validates the stored config
func (h *IntegrationHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	itg, err := h.service.Toggle(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToIntegrationResponse(itg, nil))
}

// ConfigSchema returns the typed config field schema for an adapter type
func (h *IntegrationHandler) ConfigSchema(c *gin.Context) {
	fields, err := h.service.Schema(c.Param("adapter_type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fields)
}

// TriggerSync starts a manual sync run. A run already in flight for the
// integration is rejected with 409.
func (h *IntegrationHandler) TriggerSync(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	log, err := h.runner.TriggerSync(c.Request.Context(), id, integration.SyncTriggerManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TriggerSyncResponse{
		SyncID:  log.ID.String(),
		Status:  string(log.Status),
		Message: "sync completed",
	})
}

// TestConnection probes the integration's source without mutating any state
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	result, err := h.tester.Test(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Upload accepts one feed file for a file-based integration and starts a run
func (h *IntegrationHandler) Upload(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "missing file upload")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "unreadable file upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "unreadable file upload")
		return
	}

	if err := h.service.SubmitUpload(c.Request.Context(), id, fileHeader.Filename, content); err != nil {
		h.HandleError(c, err)
		return
	}

	log, err := h.runner.TriggerSync(c.Request.Context(), id, integration.SyncTriggerUpload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TriggerSyncResponse{
		SyncID:  log.ID.String(),
		Status:  string(log.Status),
		Message: "feed file processed",
	})
}

// ListSyncLogs lists sync runs with filtering and pagination
func (h *IntegrationHandler) ListSyncLogs(c *gin.Context) {
	var filter appintegration.SyncLogListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainFilter := filter.ToDomainFilter()
	logs, total, err := h.service.ListSyncLogs(c.Request.Context(), domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := domainFilter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := domainFilter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, appintegration.ToSyncLogListResponses(logs), total, page, pageSize)
}

// GetSyncLog returns one sync run with its error detail
func (h *IntegrationHandler) GetSyncLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid sync log id")
		return
	}

	log, err := h.service.GetSyncLog(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToSyncLogResponse(log))
}
