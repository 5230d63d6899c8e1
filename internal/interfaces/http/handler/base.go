package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/domain/shared"
	"github.com/modaretail/backend/internal/interfaces/http/dto"
	"github.com/modaretail/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// parseID parses the :id path parameter as a UUID
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, code, message string) {
	h.Error(c, http.StatusConflict, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := errorCode(err)
	h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
}

// errorCode maps domain sentinel errors to API error codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, integration.ErrIntegrationNotFound),
		errors.Is(err, integration.ErrSyncLogNotFound),
		errors.Is(err, integration.ErrSKUMappingNotFound),
		errors.Is(err, shared.ErrNotFound):
		return dto.ErrCodeNotFound

	case errors.Is(err, integration.ErrSKUMappingExists):
		return dto.ErrCodeAlreadyExists

	case errors.Is(err, integration.ErrSyncAlreadyRunning):
		return dto.ErrCodeSyncRunning

	case errors.Is(err, shared.ErrConcurrencyConflict):
		return dto.ErrCodeConcurrencyConflict

	case errors.Is(err, integration.ErrConfigurationInvalid):
		return dto.ErrCodeConfigInvalid

	case errors.Is(err, integration.ErrIntegrationInactive):
		return dto.ErrCodeInvalidState

	case errors.Is(err, integration.ErrInvalidAdapterType),
		errors.Is(err, integration.ErrIntegrationNameRequired),
		errors.Is(err, integration.ErrInvalidBrandID),
		errors.Is(err, integration.ErrInvalidBranchID):
		return dto.ErrCodeValidation

	default:
		return dto.ErrCodeInternal
	}
}
