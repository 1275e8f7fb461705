package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/pkg/notify"
)

const defaultKeepAlive = 25 * time.Second

type toastBroker interface {
	Subscribe(userID string) *notify.Subscription
	Unsubscribe(sub *notify.Subscription)
}

// EventHandler streams toasts to the browser over server-sent events.
type EventHandler struct {
	broker    toastBroker
	keepAlive time.Duration
}

// NewEventHandler constructs EventHandler. A non-positive keepAlive uses the
// default interval.
func NewEventHandler(broker toastBroker, keepAlive time.Duration) *EventHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &EventHandler{broker: broker, keepAlive: keepAlive}
}

// Stream godoc
// @Summary Toast notification stream
// @Tags Events
// @Produce text/event-stream
// @Success 200
// @Router /events [get]
func (h *EventHandler) Stream(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	sub := h.broker.Subscribe(session.User.ID)
	defer h.broker.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// The server write timeout would cut the stream; clients reconnect if
	// the writer cannot lift it.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case toast, open := <-sub.C():
			if !open {
				return false
			}
			c.SSEvent("toast", toast)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}
