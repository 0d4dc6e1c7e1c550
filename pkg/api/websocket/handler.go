package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamMetrics tracks open streams
type StreamMetrics interface {
	IncStreams()
	DecStreams()
}

// ClockMessage is pushed to clients on every tick
type ClockMessage struct {
	ServerTime string `json:"serverTime"`
}

// Handler handles WebSocket connections
type Handler struct {
	now      func() string
	interval time.Duration
	metrics  StreamMetrics
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// Config holds Handler configuration
type Config struct {
	// Now returns the formatted server time
	Now      func() string
	Interval time.Duration
	Metrics  StreamMetrics
	Logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(cfg *Config) *Handler {
	h := &Handler{
		now:      cfg.Now,
		interval: cfg.Interval,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}
	if h.interval <= 0 {
		h.interval = time.Second
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// HandleClock streams the server time until the client leaves or the
// handler is closed
func (h *Handler) HandleClock(c *gin.Context) {
	if !h.acquire() {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	defer h.wg.Done()

	// Upgrade connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	if h.metrics != nil {
		h.metrics.IncStreams()
		defer h.metrics.DecStreams()
	}

	h.logger.Debug("clock stream opened", zap.String("client", c.ClientIP()))

	// The client never sends anything useful; reading detects when it leaves.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if !h.send(conn) {
		return
	}

	for {
		select {
		case <-h.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-gone:
			h.logger.Debug("clock stream closed by client", zap.String("client", c.ClientIP()))
			return
		case <-ticker.C:
			if !h.send(conn) {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ClockMessage{ServerTime: h.now()}); err != nil {
		h.logger.Debug("failed to write clock message", zap.Error(err))
		return false
	}
	return true
}

// acquire registers a stream unless the handler is closed
func (h *Handler) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.wg.Add(1)
	return true
}

// Close ends all open streams and waits for them to finish. Later upgrade
// attempts are refused.
func (h *Handler) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
