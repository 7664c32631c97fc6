package dao

import (
	"context"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationDAO stores notifications
type NotificationDAO struct {
	Collection *mongo.Collection
}

// InsertNotification ...
func (dao *NotificationDAO) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := dao.Collection.InsertOne(ctx, n)
	return err
}

// QueryNotifications returns a recipient's notifications newest first
func (dao *NotificationDAO) QueryNotifications(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error) {
	notifications := []models.Notification{}

	filter := recipientFilter(q.Recipient)
	if q.UnreadOnly {
		filter["is_read"] = false
	}

	opts := options.Find()
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := dao.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &notifications)
	return notifications, err
}

// MarkNotificationRead flips one notification owned by the recipient
func (dao *NotificationDAO) MarkNotificationRead(ctx context.Context, recipient models.Actor, id primitive.ObjectID) (int64, int64, error) {
	filter := recipientFilter(recipient)
	filter["_id"] = id

	res, err := dao.Collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// MarkAllNotificationsRead flips every unread notification of the recipient
func (dao *NotificationDAO) MarkAllNotificationsRead(ctx context.Context, recipient models.Actor) (int64, error) {
	filter := recipientFilter(recipient)
	filter["is_read"] = false

	res, err := dao.Collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountUnreadNotifications ...
func (dao *NotificationDAO) CountUnreadNotifications(ctx context.Context, recipient models.Actor) (int64, error) {
	filter := recipientFilter(recipient)
	filter["is_read"] = false

	return dao.Collection.CountDocuments(ctx, filter)
}

func recipientFilter(recipient models.Actor) bson.M {
	return bson.M{
		"recipient_id":   recipient.ID,
		"recipient_type": recipient.Kind,
	}
}
