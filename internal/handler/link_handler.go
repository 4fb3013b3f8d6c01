package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortlink/internal/domain"
	"shortlink/internal/service"
	"shortlink/pkg/logger"
)

// LinkHandler handles HTTP requests for link operations
type LinkHandler struct {
	service service.LinkService
	logger  *logger.Logger
}

// NewLinkHandler creates a new link handler with dependencies
func NewLinkHandler(service service.LinkService, logger *logger.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		logger:  logger,
	}
}

// CreateLink handles POST /api/urls/
// Creates a new short link and returns its admin key, exactly once
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req domain.CreateLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	response, err := h.service.Shorten(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Redirect handles GET /:shortCode
// Issues a 302 to the target for Active links. Dead links get a 410 payload
// carrying the original URL and expiry so the visitor sees the link is gone
// instead of being silently bounced.
func (h *LinkHandler) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	visit := domain.Visit{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}

	resolution, err := h.service.Resolve(c.Request.Context(), shortCode, visit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if resolution.Expired {
		c.JSON(http.StatusGone, domain.ExpiredResponse{
			Error:       "Link expired or inactive",
			OriginalURL: resolution.OriginalURL,
			ExpiredAt:   resolution.ExpiresAt,
			Status:      "expired",
		})
		return
	}

	c.Redirect(http.StatusFound, resolution.OriginalURL)
}

// GetStats handles GET /api/urls/stats/?code=&admin_key=
// Returns aggregated analytics for the link's owner
func (h *LinkHandler) GetStats(c *gin.Context) {
	code, adminKey, ok := h.ownerParams(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), code, adminKey)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DeleteLink handles DELETE /api/urls/delete/?code=&admin_key=
// Removes a link and its click records
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code, adminKey, ok := h.ownerParams(c)
	if !ok {
		return
	}

	response, err := h.service.Delete(c.Request.Context(), code, adminKey)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ownerParams extracts and requires the code and admin_key query parameters
func (h *LinkHandler) ownerParams(c *gin.Context) (code, adminKey string, ok bool) {
	code = c.Query("code")
	adminKey = c.Query("admin_key")

	if code == "" || adminKey == "" {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "missing_parameters",
			Message: "Both code and admin_key parameters are required",
			Code:    http.StatusBadRequest,
		})
		return "", "", false
	}

	return code, adminKey, true
}

// handleError processes domain errors and returns appropriate HTTP responses
func (h *LinkHandler) handleError(c *gin.Context, err error) {
	var appErr *domain.AppError

	switch {
	case errors.As(err, &appErr):
		// Log internal errors but don't expose details to users
		if appErr.Internal {
			h.logger.Error("Internal server error", "error", appErr.Err)
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "internal_error",
				Message: "An internal error occurred",
				Code:    appErr.StatusCode,
			})
		} else {
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "client_error",
				Message: appErr.Message,
				Code:    appErr.StatusCode,
			})
		}

	case errors.Is(err, domain.ErrLinkNotFound):
		// Unknown code and wrong admin key share this shape on purpose
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "not_found",
			Message: "The requested URL was not found",
			Code:    http.StatusNotFound,
		})

	case errors.Is(err, domain.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_url",
			Message: "The provided URL is invalid",
			Code:    http.StatusBadRequest,
		})

	default:
		h.logger.Error("Unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
