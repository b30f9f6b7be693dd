package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// feedHeartbeatInterval keeps idle SSE connections alive through proxies
const feedHeartbeatInterval = 15 * time.Second

// OrderFeedHandler streams order lifecycle events to the back-office over
// SSE. Events come from the tenant's Redis feed channel, so every replica
// sees every change.
type OrderFeedHandler struct {
	BaseHandler
	feed *event.RedisOrderFeed
}

// NewOrderFeedHandler creates a new OrderFeedHandler. The feed may be nil
// when Redis is not configured; the stream endpoint then reports the feed
// as unavailable.
func NewOrderFeedHandler(feed *event.RedisOrderFeed) *OrderFeedHandler {
	return &OrderFeedHandler{feed: feed}
}

// Stream sends order events as SSE until the client disconnects
func (h *OrderFeedHandler) Stream(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	if h.feed == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeFeedUnavailable, "Order feed is not available")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	pubsub := h.feed.Subscribe(c.Request.Context(), tenantID)
	defer func() {
		_ = pubsub.Close()
	}()

	messages := pubsub.Channel()
	heartbeat := time.NewTicker(feedHeartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.Render(-1, sseEvent{name: "order", data: msg.Payload})
			return true
		case <-heartbeat.C:
			c.Render(-1, sseComment{})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// sseEvent renders one SSE event carrying a pre-serialized JSON payload.
// gin's SSEvent helper would re-encode the payload as a JSON string, so the
// frame is written directly.
type sseEvent struct {
	name string
	data string
}

func (e sseEvent) Render(w http.ResponseWriter) error {
	_, err := w.Write([]byte("event: " + e.name + "\ndata: " + e.data + "\n\n"))
	return err
}

func (e sseEvent) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
}

// sseComment is a keepalive frame clients ignore
type sseComment struct{}

func (e sseComment) Render(w http.ResponseWriter) error {
	_, err := w.Write([]byte(": keepalive\n\n"))
	return err
}

func (e sseComment) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
}
