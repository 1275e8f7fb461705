package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *responseError         `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sentToast struct {
	userID   string
	level    models.ToastLevel
	resource string
	message  string
}

type recordingToaster struct {
	mu     sync.Mutex
	toasts []sentToast
}

func (r *recordingToaster) Notify(userID string, level models.ToastLevel, resource, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, sentToast{userID: userID, level: level, resource: resource, message: message})
}

func (r *recordingToaster) last(t *testing.T) sentToast {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.toasts)
	return r.toasts[len(r.toasts)-1]
}

func newTestContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, reader)
	if reader != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func testSession(id string, role models.UserRole) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		User: models.Identity{
			ID:       id,
			Username: "user" + id,
			Email:    "user" + id + "@edutrack.com",
			Name:     "User " + id,
			Role:     role,
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func withSession(c *gin.Context, session *models.Session) {
	c.Set(middleware.ContextSessionKey, session)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
