package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/notify"
)

// streamRecorder satisfies http.CloseNotifier, which gin's Stream needs, and
// lets the test read the body while the stream is still writing.
type streamRecorder struct {
	*httptest.ResponseRecorder
	mu     sync.Mutex
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *streamRecorder) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

func (r *streamRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestEventHandlerStreamsToastsForSessionUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broker := notify.NewBroker(nil)
	h := NewEventHandler(broker, time.Hour)

	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	c, _ := gin.CreateTestContext(rec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	withSession(c, testSession("4", models.RoleTeacher))

	done := make(chan struct{})
	go func() {
		h.Stream(c)
		close(done)
	}()

	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	broker.Notify("9", models.ToastInfo, "students", "not for you")
	assert.Equal(t, 1, broker.Publish(models.Toast{UserID: "4", Level: models.ToastSuccess, Resource: "grades", Message: "Grade recorded"}))

	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "Grade recorded")
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := rec.body()
	assert.Contains(t, body, "event:toast")
	assert.Contains(t, body, "Grade recorded")
	assert.NotContains(t, body, "not for you")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, broker.Subscribers())
}

func TestEventHandlerRequiresSession(t *testing.T) {
	h := NewEventHandler(notify.NewBroker(nil), 0)
	c, rec := newTestContext(http.MethodGet, "/api/v1/events", nil)

	h.Stream(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
