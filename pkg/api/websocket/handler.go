package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/itemapi/internal/application/items"
	"github.com/aescanero/itemapi/pkg/adapters/metrics/prometheus"
	api "github.com/aescanero/itemapi/pkg/api/http"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// Reply statuses
const (
	StatusCreated  = "created"
	StatusRejected = "rejected"
)

// Reply is written for every text frame a client sends
type Reply struct {
	Status string           `json:"status"`
	Item   *items.Item      `json:"item,omitempty"`
	Error  *api.ErrorDetail `json:"error,omitempty"`
}

// Config holds WebSocket handler configuration
type Config struct {
	Validator      *items.Validator
	Metrics        *prometheus.Collector
	AllowedOrigins *api.OriginMatcher
	MaxMessageSize int64
	Logger         *zap.Logger
}

// Handler handles WebSocket connections
type Handler struct {
	upgrader       websocket.Upgrader
	validator      *items.Validator
	metrics        *prometheus.Collector
	maxMessageSize int64
	logger         *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(cfg *Config) *Handler {
	limit := cfg.MaxMessageSize
	if limit <= 0 {
		limit = maxMessageSize
	}

	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || cfg.AllowedOrigins.Allowed(origin)
			},
		},
		validator:      cfg.Validator,
		metrics:        cfg.Metrics,
		maxMessageSize: limit,
		logger:         cfg.Logger,
	}
}

// HandleItemStream validates every text frame as an Item and replies on
// the same connection. Connections share nothing.
func (h *Handler) HandleItemStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.metrics.WebSocketOpened()
	defer h.metrics.WebSocketClosed()

	conn.SetReadLimit(h.maxMessageSize)

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()))

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			// gorilla has already sent close 1009 for this one
			if errors.Is(err, websocket.ErrReadLimit) {
				h.logger.Warn("WebSocket frame exceeds read limit",
					zap.Int64("limit_bytes", h.maxMessageSize))
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			if err := h.writeClose(conn, websocket.CloseUnsupportedData, "text frames only"); err != nil {
				h.logger.Debug("failed to write close frame", zap.Error(err))
			}
			return
		}

		if err := h.writeReply(conn, h.process(data)); err != nil {
			h.logger.Error("failed to write message", zap.Error(err))
			return
		}
	}
}

// process runs one frame through the same validation as POST /items
func (h *Handler) process(data []byte) Reply {
	item, err := h.validator.Decode(data)
	if err != nil {
		_, resp := api.DecodeErrorResponse(err)
		h.metrics.IncItemsRejected(prometheus.TransportWebSocket, api.RejectionReason(resp.Error.Code))
		return Reply{Status: StatusRejected, Error: &resp.Error}
	}

	h.metrics.IncItemsAccepted(prometheus.TransportWebSocket)
	return Reply{Status: StatusCreated, Item: item}
}

func (h *Handler) writeReply(conn *websocket.Conn, reply Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) writeClose(conn *websocket.Conn, code int, text string) error {
	err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
