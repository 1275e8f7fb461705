package models

import "time"

// ToastLevel classifies a UI notification.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast is a short notification pushed to connected UI sessions. An empty
// UserID addresses every subscriber.
type Toast struct {
	ID        string     `json:"id"`
	Level     ToastLevel `json:"level"`
	Message   string     `json:"message"`
	Resource  string     `json:"resource,omitempty"`
	UserID    string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}
