package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aescanero/itemapi/internal/application/items"
	"github.com/aescanero/itemapi/pkg/adapters/metrics/prometheus"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes returned in ErrorDetail.Code
const (
	CodeInvalidJSON      = "INVALID_JSON"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
)

// HelloResponse is the fixed greeting payload
type HelloResponse struct {
	Message string `json:"message"`
}

var greeting = HelloResponse{Message: "Hello, world!"}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// DecodeErrorResponse maps an error from items.Validator.Decode to a
// status code and error body
func DecodeErrorResponse(err error) (int, ErrorResponse) {
	var verr *items.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeValidationFailed,
				Message: "item failed schema validation",
				Details: verr.Fields,
			},
		}
	case errors.Is(err, items.ErrMalformed):
		return http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeInvalidJSON,
				Message: err.Error(),
			},
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeInternal,
				Message: "failed to process item",
			},
		}
	}
}

// RejectionReason is the metrics label for an error code
func RejectionReason(code string) string {
	return strings.ToLower(code)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"items_schema": "ok",
		},
	})
}

// handleHello returns the greeting; the request body is never read
func (s *Server) handleHello(c *gin.Context) {
	c.JSON(http.StatusOK, greeting)
}

// handleCreateItem validates the body against the Item schema and echoes it
func (s *Server) handleCreateItem(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(c, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: ErrorDetail{
					Code:    CodePayloadTooLarge,
					Message: "request body exceeds the configured limit",
					Details: gin.H{"limit_bytes": tooLarge.Limit},
				},
			})
			return
		}

		s.reject(c, http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeInvalidJSON,
				Message: "failed to read request body",
			},
		})
		return
	}

	item, err := s.validator.Decode(raw)
	if err != nil {
		status, resp := DecodeErrorResponse(err)
		s.reject(c, status, resp)
		return
	}

	s.metrics.IncItemsAccepted(prometheus.TransportHTTP)
	c.JSON(http.StatusOK, item)
}

// handleNotFound answers unknown routes with the standard error body
func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error: ErrorDetail{
			Code:    CodeNotFound,
			Message: "route not found",
		},
	})
}

func (s *Server) reject(c *gin.Context, status int, resp ErrorResponse) {
	s.logger.Debug("item rejected",
		zap.String("code", resp.Error.Code),
		zap.String("message", resp.Error.Message),
		zap.String("request_id", c.GetString(requestIDKey)))

	s.metrics.IncItemsRejected(prometheus.TransportHTTP, RejectionReason(resp.Error.Code))
	c.JSON(status, resp)
}
