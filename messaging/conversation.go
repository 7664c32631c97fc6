package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"marketplace-messaging/models"
	"marketplace-messaging/observability"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func logger(ctx context.Context) *slog.Logger {
	return observability.LoggerFromContext(ctx)
}

// SendMessage appends a message from sender to the conversation with
// counterpartID and notifies the counterpart. When the notification
// cannot be stored the message stays persisted, the returned message is
// non-nil and the error wraps ErrStore.
func (s *Service) SendMessage(ctx context.Context, sender *models.Actor, counterpartID, body string) (*models.Message, error) {
	if !authenticated(sender) {
		return nil, unauthenticated()
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("Message body is required")
	}

	cid, err := parseID(counterpartID, "Recipient id")
	if err != nil {
		return nil, err
	}

	log := logger(ctx).With(
		"sender_id", sender.ID.Hex(),
		"sender_type", sender.Kind,
		"counterpart_id", cid.Hex(),
	)

	counterpart, err := s.directory.Lookup(ctx, sender.Kind.Opposite(), cid)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, notFound(fmt.Sprintf("%s not found", displayKind(sender.Kind.Opposite())))
		}
		log.Error("failed to resolve counterpart", "error", err)
		return nil, storeFailure("Failed to send message, please try again", err)
	}
	counterpart.Kind = sender.Kind.Opposite()

	now := s.now()
	pair := models.PairOf(*sender, cid)
	msg := models.Message{
		ID:         primitive.NewObjectID(),
		UserID:     pair.UserID,
		SellerID:   pair.SellerID,
		SenderType: sender.Kind,
		Body:       body,
		IsRead:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.messages.InsertMessage(ctx, &msg); err != nil {
		log.Error("failed to insert message", "error", err)
		return nil, storeFailure("Failed to send message, please try again", err)
	}
	log.Info("message sent", "message_id", msg.ID.Hex())
	s.publish(ctx, EventMessageSent, msg)

	title := "New message from " + s.senderName(ctx, *sender)
	n, err := s.notify(ctx, counterpart.Kind, cid, models.MessageN, title, body, msg.ID.Hex(), models.RelatedMessage)
	if err != nil {
		log.Error("failed to create message notification", "message_id", msg.ID.Hex(), "error", err)
		return &msg, storeFailure("Message saved but the recipient could not be notified", err)
	}

	if s.alerter != nil {
		recipient := counterpart
		s.dispatch(func() { s.alerter.NotificationCreated(recipient, *n) })
	}

	return &msg, nil
}

// GetConversation returns the viewer's messages with counterpartID,
// oldest first. Store failures yield an empty list.
func (s *Service) GetConversation(ctx context.Context, viewer *models.Actor, counterpartID string) ([]models.Message, error) {
	if !authenticated(viewer) {
		return nil, unauthenticated()
	}

	cid, err := parseID(counterpartID, "Counterpart id")
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.QueryConversation(ctx, models.PairOf(*viewer, cid))
	if err != nil {
		logger(ctx).Error("failed to load conversation",
			"viewer_id", viewer.ID.Hex(),
			"counterpart_id", cid.Hex(),
			"error", err)
		return []models.Message{}, nil
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

// ListConversations returns one summary per counterpart the viewer has
// exchanged messages with, most recently active first. The unread count
// is the number of messages from the counterpart the viewer has not
// read, for users and sellers alike. Store failures yield an empty list.
func (s *Service) ListConversations(ctx context.Context, viewer *models.Actor) ([]models.ConversationSummary, error) {
	if !authenticated(viewer) {
		return nil, unauthenticated()
	}

	log := logger(ctx).With("viewer_id", viewer.ID.Hex(), "viewer_type", viewer.Kind)

	summaries, err := s.messages.SummarizeConversations(ctx, *viewer)
	if err != nil {
		log.Error("failed to summarize conversations", "error", err)
		return []models.ConversationSummary{}, nil
	}
	if len(summaries) == 0 {
		return []models.ConversationSummary{}, nil
	}

	kind := viewer.Kind.Opposite()
	ids := make([]primitive.ObjectID, 0, len(summaries))
	for _, sum := range summaries {
		ids = append(ids, sum.Counterpart.ID)
	}

	profiles, err := s.directory.LookupMany(ctx, kind, ids)
	if err != nil {
		// summaries are still useful without display names
		log.Warn("failed to resolve counterparts", "error", err)
	}

	for i := range summaries {
		summaries[i].Counterpart.Kind = kind
		if p, ok := profiles[summaries[i].Counterpart.ID]; ok {
			p.Kind = kind
			summaries[i].Counterpart = p
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})
	return summaries, nil
}

// UnreadMessageCount sums the unread counts of all the viewer's
// conversations. Counterparts are not resolved. Store failures yield 0.
func (s *Service) UnreadMessageCount(ctx context.Context, viewer *models.Actor) (int64, error) {
	if !authenticated(viewer) {
		return 0, unauthenticated()
	}

	summaries, err := s.messages.SummarizeConversations(ctx, *viewer)
	if err != nil {
		logger(ctx).Error("failed to count unread messages", "viewer_id", viewer.ID.Hex(), "error", err)
		return 0, nil
	}

	var total int64
	for _, sum := range summaries {
		total += sum.UnreadCount
	}
	return total, nil
}

func (s *Service) senderName(ctx context.Context, sender models.Actor) string {
	p, err := s.directory.Lookup(ctx, sender.Kind, sender.ID)
	if err != nil || p.Name == "" {
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			logger(ctx).Warn("failed to resolve sender name", "sender_id", sender.ID.Hex(), "error", err)
		}
		return "a " + string(sender.Kind)
	}
	return p.Name
}

func displayKind(k models.ActorKind) string {
	if k == models.KindSeller {
		return "Seller"
	}
	return "User"
}
