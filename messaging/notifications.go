package messaging

import (
	"context"
	"strings"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotifyReq describes a notification raised by another part of the app
type NotifyReq struct {
	RecipientID   string
	RecipientType models.ActorKind
	Type          models.NotificationType
	Title         string
	Body          string
	RelatedID     string
	RelatedType   string
}

// ListOptions narrows a notification listing
type ListOptions struct {
	Limit      int
	UnreadOnly bool
}

// Notify is the in-process hook other marketplace components (orders,
// products) call to notify a user or seller. It stores one notification
// for the recipient and never merges with earlier ones; the body is
// shortened with Preview.
func (s *Service) Notify(ctx context.Context, req NotifyReq) (*models.Notification, error) {
	if !req.RecipientType.Valid() {
		return nil, invalid("Recipient type must be user or seller")
	}

	rid, err := parseID(req.RecipientID, "Recipient id")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, invalid("Notification title is required")
	}

	if req.Type == "" {
		req.Type = models.MessageN
	}

	n, err := s.notify(ctx, req.RecipientType, rid, req.Type, req.Title, req.Body, req.RelatedID, req.RelatedType)
	if err != nil {
		logger(ctx).Error("failed to insert notification",
			"recipient_id", rid.Hex(),
			"recipient_type", req.RecipientType,
			"error", err)
		return nil, storeFailure("Failed to create notification, please try again", err)
	}
	return n, nil
}

func (s *Service) notify(
	ctx context.Context,
	recipientType models.ActorKind,
	recipientID primitive.ObjectID,
	_type models.NotificationType,
	title,
	body,
	relatedID,
	relatedType string,
) (*models.Notification, error) {

	n := models.Notification{
		ID:            primitive.NewObjectID(),
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Type:          _type,
		Title:         title,
		Body:          Preview(body),
		RelatedID:     relatedID,
		RelatedType:   relatedType,
		IsRead:        false,
		CreatedAt:     s.now(),
	}

	if err := s.notifications.InsertNotification(ctx, &n); err != nil {
		return nil, err
	}
	s.publish(ctx, EventNotificationCreated, n)

	return &n, nil
}

// ListNotifications returns the recipient's notifications, newest
// first, capped at the page size. Store failures yield an empty list.
func (s *Service) ListNotifications(ctx context.Context, recipient *models.Actor, opts ListOptions) ([]models.Notification, error) {
	if !authenticated(recipient) {
		return nil, unauthenticated()
	}

	limit := opts.Limit
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}

	list, err := s.notifications.QueryNotifications(ctx, models.NotificationQuery{
		Recipient:  *recipient,
		UnreadOnly: opts.UnreadOnly,
		Limit:      limit,
	})
	if err != nil {
		logger(ctx).Error("failed to query notifications", "recipient_id", recipient.ID.Hex(), "error", err)
		return []models.Notification{}, nil
	}

	if list == nil {
		list = []models.Notification{}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// MarkNotificationRead marks one of the recipient's notifications as
// read. Notifications addressed to someone else are reported as not
// found. Marking an already read notification changes nothing.
func (s *Service) MarkNotificationRead(ctx context.Context, recipient *models.Actor, id string) (int64, error) {
	if !authenticated(recipient) {
		return 0, unauthenticated()
	}

	nid, err := parseID(id, "Notification id")
	if err != nil {
		return 0, err
	}

	matched, modified, err := s.notifications.MarkNotificationRead(ctx, *recipient, nid)
	if err != nil {
		logger(ctx).Error("failed to mark notification read",
			"recipient_id", recipient.ID.Hex(),
			"notification_id", nid.Hex(),
			"error", err)
		return 0, storeFailure("Failed to update notification, please try again", err)
	}
	if matched == 0 {
		return 0, notFound("Notification not found")
	}

	if modified > 0 {
		s.publish(ctx, EventNotificationsRead, ReadEvent{Reader: *recipient, Count: modified})
	}
	return modified, nil
}

// MarkAllRead marks every unread notification of the recipient as read
// and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, recipient *models.Actor) (int64, error) {
	if !authenticated(recipient) {
		return 0, unauthenticated()
	}

	count, err := s.notifications.MarkAllNotificationsRead(ctx, *recipient)
	if err != nil {
		logger(ctx).Error("failed to mark notifications read", "recipient_id", recipient.ID.Hex(), "error", err)
		return 0, storeFailure("Failed to update notifications, please try again", err)
	}

	if count > 0 {
		s.publish(ctx, EventNotificationsRead, ReadEvent{Reader: *recipient, Count: count})
	}
	return count, nil
}

// UnreadCount returns the number of unread notifications of the
// recipient. Store failures yield zero.
func (s *Service) UnreadCount(ctx context.Context, recipient *models.Actor) (int64, error) {
	if !authenticated(recipient) {
		return 0, unauthenticated()
	}

	count, err := s.notifications.CountUnreadNotifications(ctx, *recipient)
	if err != nil {
		logger(ctx).Error("failed to count unread notifications", "recipient_id", recipient.ID.Hex(), "error", err)
		return 0, nil
	}
	return count, nil
}
