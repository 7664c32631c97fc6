// Package memdao holds in-memory stores for local mode and tests. They
// are NOT persistent.
package memdao

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStore is an in-memory messaging.MessageStore
type MessageStore struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewMessageStore creates an empty MessageStore
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) InsertMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MessageStore) QueryConversation(_ context.Context, pair models.Pair) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Message{}
	for _, m := range s.messages {
		if m.Pair() == pair {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MessageStore) MarkConversationRead(_ context.Context, pair models.Pair, sender models.SenderType, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.Pair() == pair && m.SenderType == sender && !m.IsRead {
			m.IsRead = true
			m.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *MessageStore) SummarizeConversations(_ context.Context, viewer models.Actor) ([]models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCounterpart := make(map[primitive.ObjectID]*models.ConversationSummary)
	var order []primitive.ObjectID

	for _, m := range s.messages {
		if !involves(m, viewer) {
			continue
		}

		cid := m.CounterpartOf(viewer.Kind)
		sum, ok := byCounterpart[cid]
		if !ok {
			sum = &models.ConversationSummary{
				Counterpart: models.Counterpart{ID: cid, Kind: viewer.Kind.Opposite()},
			}
			byCounterpart[cid] = sum
			order = append(order, cid)
		}

		// later inserts win ties, like the _id tiebreak in mongo
		if !m.CreatedAt.Before(sum.LastMessage.CreatedAt) {
			sum.LastMessage = models.LastMessage{
				ID:         m.ID,
				Body:       m.Body,
				SenderType: m.SenderType,
				CreatedAt:  m.CreatedAt,
			}
		}

		if m.SenderType != viewer.Kind && !m.IsRead {
			sum.UnreadCount++
		}
	}

	out := make([]models.ConversationSummary, 0, len(order))
	for _, cid := range order {
		out = append(out, *byCounterpart[cid])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out, nil
}

// Messages returns a copy of every stored message in insertion order
func (s *MessageStore) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func involves(m models.Message, viewer models.Actor) bool {
	if viewer.Kind == models.KindSeller {
		return m.SellerID == viewer.ID
	}
	return m.UserID == viewer.ID
}
