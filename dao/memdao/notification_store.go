package memdao

import (
	"context"
	"sync"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStore is an in-memory messaging.NotificationStore
type NotificationStore struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

// NewNotificationStore creates an empty NotificationStore
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, *n)
	return nil
}

// QueryNotifications walks the log backwards so the newest insert comes first
func (s *NotificationStore) QueryNotifications(_ context.Context, q models.NotificationQuery) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.Recipient() != q.Recipient {
			continue
		}
		if q.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *NotificationStore) MarkNotificationRead(_ context.Context, recipient models.Actor, id primitive.ObjectID) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID != id || n.Recipient() != recipient {
			continue
		}
		if n.IsRead {
			return 1, 0, nil
		}
		n.IsRead = true
		return 1, 1, nil
	}
	return 0, 0, nil
}

func (s *NotificationStore) MarkAllNotificationsRead(_ context.Context, recipient models.Actor) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.Recipient() == recipient && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *NotificationStore) CountUnreadNotifications(_ context.Context, recipient models.Actor) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.Recipient() == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// Notifications returns a copy of every stored notification in insertion order
func (s *NotificationStore) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
