package messaging

import (
	"context"
	"strings"
	"sync"
	"time"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPageSize caps notification listings
const DefaultPageSize = 50

// MessageStore persists conversation messages. Every mutation must be a
// single atomic statement on the backing store.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) error
	// QueryConversation returns the pair's messages oldest first.
	QueryConversation(ctx context.Context, pair models.Pair) ([]models.Message, error)
	// MarkConversationRead flips is_read on unread messages of the pair
	// authored by sender and returns the number of rows changed.
	MarkConversationRead(ctx context.Context, pair models.Pair, sender models.SenderType, at time.Time) (int64, error)
	// SummarizeConversations groups the viewer's messages per
	// counterpart, newest conversation first. Only the counterpart id
	// and kind are filled in.
	SummarizeConversations(ctx context.Context, viewer models.Actor) ([]models.ConversationSummary, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	// QueryNotifications returns the newest notifications first.
	QueryNotifications(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error)
	// MarkNotificationRead reports how many rows matched the id for the
	// recipient and how many were actually flipped.
	MarkNotificationRead(ctx context.Context, recipient models.Actor, id primitive.ObjectID) (matched, modified int64, err error)
	MarkAllNotificationsRead(ctx context.Context, recipient models.Actor) (int64, error)
	CountUnreadNotifications(ctx context.Context, recipient models.Actor) (int64, error)
}

// Directory resolves display metadata for users and sellers. It returns
// models.ErrNotFound for unknown ids.
type Directory interface {
	Lookup(ctx context.Context, kind models.ActorKind, id primitive.ObjectID) (models.Counterpart, error)
	LookupMany(ctx context.Context, kind models.ActorKind, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Counterpart, error)
}

// Alerter delivers a side-channel alert (email) for a persisted
// notification. Implementations handle their own failures.
type Alerter interface {
	NotificationCreated(recipient models.Counterpart, n models.Notification)
}

// EventPublisher broadcasts domain events to other backend components.
type EventPublisher interface {
	Publish(event string, payload interface{}) error
}

// Event names
const (
	EventMessageSent         = "message.sent"
	EventNotificationCreated = "notification.created"
	EventConversationRead    = "conversation.read"
	EventNotificationsRead   = "notifications.read"
)

// Service implements conversations, read state and notifications
type Service struct {
	messages      MessageStore
	notifications NotificationStore
	directory     Directory
	alerter       Alerter
	publisher     EventPublisher
	pageSize      int
	now           func() time.Time
	async         func(func())
	inflight      sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithAlerter enables side-channel alerts for new message notifications
func WithAlerter(a Alerter) Option {
	return func(s *Service) { s.alerter = a }
}

// WithPublisher enables domain events
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithPageSize sets the notification listing cap
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAsync replaces the goroutine launcher used for alerts
func WithAsync(run func(func())) Option {
	return func(s *Service) { s.async = run }
}

// NewService returns a messaging service
func NewService(messages MessageStore, notifications NotificationStore, directory Directory, opts ...Option) *Service {
	s := &Service{
		messages:      messages,
		notifications: notifications,
		directory:     directory,
		pageSize:      DefaultPageSize,
		now:           func() time.Time { return time.Now().UTC() },
		async:         func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dispatch runs f through the async launcher and tracks it until done
func (s *Service) dispatch(f func()) {
	s.inflight.Add(1)
	s.async(func() {
		defer s.inflight.Done()
		f()
	})
}

// Drain waits for in-flight alerts to finish or ctx to expire
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PageSize returns the notification listing cap
func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) publish(ctx context.Context, event string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event, payload); err != nil {
		logger(ctx).Warn("failed to publish event", "event", event, "error", err)
	}
}

func authenticated(actor *models.Actor) bool {
	return actor != nil && actor.Kind.Valid() && !actor.ID.IsZero()
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, invalid(what + " is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, invalid("Invalid " + strings.ToLower(what))
	}
	return id, nil
}
