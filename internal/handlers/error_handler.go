package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-label-printer/internal/logger"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/services"

	"github.com/gin-gonic/gin"
)

// errorStatus maps domain errors onto an HTTP status and a stable code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrTemplateNotFound, http.StatusNotFound, "TEMPLATE_NOT_FOUND"},
	{services.ErrPricelistNotFound, http.StatusNotFound, "PRICELIST_NOT_FOUND"},
	{services.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{services.ErrNoCode, http.StatusNotFound, "NO_CODE"},
	{services.ErrNoLines, http.StatusBadRequest, "NO_LINES"},
	{services.ErrInvalidLine, http.StatusBadRequest, "INVALID_LINE"},
	{services.ErrInvalidTemplate, http.StatusUnprocessableEntity, "INVALID_TEMPLATE"},
	{services.ErrUnsupportedSymbology, http.StatusUnprocessableEntity, "UNSUPPORTED_SYMBOLOGY"},
	{services.ErrUnsupportedSourceModel, http.StatusBadRequest, "UNSUPPORTED_SOURCE_MODEL"},
	{services.ErrInvalidBarcodeValue, http.StatusUnprocessableEntity, "INVALID_BARCODE_VALUE"},
}

// ErrorHandler renders errors as JSON {error, message} and logs server-side
// failures.
type ErrorHandler struct {
	logger *logger.StructuredLogger
}

func NewErrorHandler(log *logger.StructuredLogger) *ErrorHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ErrorHandler{logger: log}
}

// Respond writes err with the status its kind maps to.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.code, "message": err.Error()})
			return
		}
	}

	h.logger.Error("Request failed", err, map[string]interface{}{
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("request_id"),
	})
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "INTERNAL_ERROR",
		"message": "Internal server error",
	})
}

// BadRequest reports a malformed request.
func (h *ErrorHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": message})
}

// NotFoundHandler handles unmatched routes
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "NOT_FOUND",
			"message": "Resource not found",
			"path":    c.Request.URL.Path,
		})
	}
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_ID",
			"message": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
