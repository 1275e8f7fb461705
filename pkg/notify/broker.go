package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const defaultBuffer = 16

// Subscription receives toasts addressed to its user.
type Subscription struct {
	id     uint64
	userID string
	ch     chan models.Toast
}

// C returns the channel toasts are delivered on. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan models.Toast {
	return s.ch
}

// Broker fans toasts out to subscribed UI sessions. Slow subscribers drop
// toasts rather than block publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	logger *zap.Logger
	now    func() time.Time
}

// NewBroker constructs an empty broker.
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		subs:   make(map[uint64]*Subscription),
		buffer: defaultBuffer,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a listener for userID.
func (b *Broker) Subscribe(userID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, userID: userID, ch: make(chan models.Toast, b.buffer)}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is safe.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)
}

// Publish delivers toast to matching subscribers and returns how many
// received it. ID and CreatedAt are filled in when empty.
func (b *Broker) Publish(toast models.Toast) int {
	if b == nil {
		return 0
	}
	if toast.ID == "" {
		toast.ID = uuid.NewString()
	}
	if toast.CreatedAt.IsZero() {
		toast.CreatedAt = b.now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, sub := range b.subs {
		if toast.UserID != "" && sub.userID != toast.UserID {
			continue
		}
		select {
		case sub.ch <- toast:
			delivered++
		default:
			b.logger.Debug("dropping toast for slow subscriber", zap.String("user_id", sub.userID))
		}
	}
	return delivered
}

// Notify publishes a toast of level to userID.
func (b *Broker) Notify(userID string, level models.ToastLevel, resource, message string) {
	b.Publish(models.Toast{Level: level, Resource: resource, Message: message, UserID: userID})
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
