package handler

import (
	"github.com/gin-gonic/gin"

	appintegration "github.com/modaretail/backend/internal/application/integration"
)

// MappingHandler handles SKU mapping API endpoints
type MappingHandler struct {
	BaseHandler
	service *appintegration.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(service *appintegration.MappingService) *MappingHandler {
	return &MappingHandler{service: service}
}

// RegisterRoutes registers mapping routes
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations/:id/mappings")
	{
		integrations.GET("", h.List)
		integrations.POST("", h.Create)
		integrations.POST("/auto-map", h.AutoMap)
	}

	mappings := rg.Group("/mappings")
	{
		mappings.PUT("/:id", h.Update)
		mappings.DELETE("/:id", h.Delete)
	}
}

// List lists the mappings of one integration
func (h *MappingHandler) List(c *gin.Context) {
	integrationID, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	var filter appintegration.MappingListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainFilter := filter.ToDomainFilter()
	mappings, total, err := h.service.List(c.Request.Context(), integrationID, domainFilter)
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
		pageSize = 50
	}
	h.SuccessWithMeta(c, appintegration.ToSKUMappingResponses(mappings), total, page, pageSize)
}

// Create registers a mapping row, optionally bound or ignored from the start
func (h *MappingHandler) Create(c *gin.Context) {
	integrationID, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	var req appintegration.CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mapping, err := h.service.Create(c.Request.Context(), integrationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, appintegration.ToSKUMappingResponse(mapping))
}

// Update rebinds, unbinds or toggles the ignore flag on a mapping
func (h *MappingHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid mapping id")
		return
	}

	var req appintegration.UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mapping, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToSKUMappingResponse(mapping))
}

// Delete removes a mapping row
func (h *MappingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid mapping id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AutoMap binds every unmapped row whose normalized SKU matches exactly one
// variant, and reports the mapped/unmapped split
func (h *MappingHandler) AutoMap(c *gin.Context) {
	integrationID, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "invalid integration id")
		return
	}

	result, err := h.service.AutoMap(c.Request.Context(), integrationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
