package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/notify"
)

func TestWriteResultToastsSuccessThroughBroker(t *testing.T) {
	broker := notify.NewBroker(nil)
	sub := broker.Subscribe("7")
	defer broker.Unsubscribe(sub)
	c, rec := newTestContext(http.MethodPost, "/api/v1/classes", nil)

	ok := writeResult(c, broker, testSession("7", models.RoleAdmin), "classes", "Class created", nil)

	require.True(t, ok)
	assert.Empty(t, rec.Body.String())
	select {
	case toast := <-sub.C():
		assert.Equal(t, models.ToastSuccess, toast.Level)
		assert.Equal(t, "classes", toast.Resource)
		assert.Equal(t, "Class created", toast.Message)
	case <-time.After(time.Second):
		t.Fatal("no toast delivered")
	}
}

func TestWriteResultToastsAndWritesError(t *testing.T) {
	toasts := &recordingToaster{}
	c, rec := newTestContext(http.MethodPost, "/api/v1/subjects", nil)

	ok := writeResult(c, toasts, testSession("3", models.RoleTeacher), "subjects", "Subject created",
		appErrors.Clone(appErrors.ErrConflict, "a subject with this code already exists"))

	require.False(t, ok)
	assert.Equal(t, http.StatusConflict, rec.Code)
	got := toasts.last(t)
	assert.Equal(t, "3", got.userID)
	assert.Equal(t, models.ToastError, got.level)
	assert.Equal(t, "a subject with this code already exists", got.message)
}

func TestSendToastWithoutSessionIsSilent(t *testing.T) {
	toasts := &recordingToaster{}
	c, _ := newTestContext(http.MethodGet, "/", nil)

	sendToast(c, toasts, nil, models.ToastInfo, "students", "ignored")

	assert.Empty(t, toasts.toasts)
}
