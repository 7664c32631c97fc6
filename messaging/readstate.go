package messaging

import (
	"context"

	"marketplace-messaging/models"
)

// ReadEvent is published when a viewer reads messages or notifications
type ReadEvent struct {
	Reader      models.Actor `json:"reader"`
	Counterpart string       `json:"counterpart_id,omitempty"`
	Count       int64        `json:"count"`
}

// MarkAsRead marks every unread message the counterpart sent to the
// viewer as read and returns the number of messages changed. The
// viewer's own messages are never touched, and a repeated call changes
// nothing.
func (s *Service) MarkAsRead(ctx context.Context, viewer *models.Actor, counterpartID string) (int64, error) {
	if !authenticated(viewer) {
		return 0, unauthenticated()
	}

	cid, err := parseID(counterpartID, "Counterpart id")
	if err != nil {
		return 0, err
	}

	pair := models.PairOf(*viewer, cid)
	count, err := s.messages.MarkConversationRead(ctx, pair, viewer.Kind.Opposite(), s.now())
	if err != nil {
		logger(ctx).Error("failed to mark conversation read",
			"viewer_id", viewer.ID.Hex(),
			"counterpart_id", cid.Hex(),
			"error", err)
		return 0, storeFailure("Failed to update conversation, please try again", err)
	}

	if count > 0 {
		s.publish(ctx, EventConversationRead, ReadEvent{Reader: *viewer, Counterpart: cid.Hex(), Count: count})
	}
	return count, nil
}
