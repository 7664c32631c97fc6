package dao

import (
	"context"
	"time"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageDAO stores conversation messages
type MessageDAO struct {
	Collection *mongo.Collection
}

// InsertMessage ...
func (dao *MessageDAO) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := dao.Collection.InsertOne(ctx, msg)
	return err
}

// QueryConversation returns the messages of a user/seller pair oldest first
func (dao *MessageDAO) QueryConversation(ctx context.Context, pair models.Pair) ([]models.Message, error) {
	messages := []models.Message{}

	opts := options.Find()
	opts.SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := dao.Collection.Find(ctx, pairFilter(pair), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &messages)
	return messages, err
}

// MarkConversationRead flips is_read on the pair's unread messages sent
// by sender. The is_read condition lives in the filter so concurrent
// calls never double count.
func (dao *MessageDAO) MarkConversationRead(ctx context.Context, pair models.Pair, sender models.SenderType, at time.Time) (int64, error) {
	filter := pairFilter(pair)
	filter["sender_type"] = sender
	filter["is_read"] = false

	res, err := dao.Collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"is_read": true, "updated_at": at},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

type conversationGroup struct {
	CounterpartID  primitive.ObjectID `bson:"_id"`
	LastID         primitive.ObjectID `bson:"last_id"`
	LastBody       string             `bson:"last_body"`
	LastSenderType models.SenderType  `bson:"last_sender_type"`
	LastAt         time.Time          `bson:"last_at"`
	UnreadCount    int64              `bson:"unread_count"`
}

// summaryPipeline groups the viewer's messages per counterpart, keeping
// the newest message and counting the counterpart's unread ones
func summaryPipeline(viewer models.Actor) []bson.M {
	viewerField, counterpartField := "user_id", "$seller_id"
	if viewer.Kind == models.KindSeller {
		viewerField, counterpartField = "seller_id", "$user_id"
	}

	match := bson.M{
		"$match": bson.M{viewerField: viewer.ID},
	}
	newestFirst := bson.M{
		"$sort": bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	}
	unreadFromCounterpart := bson.M{
		"$cond": bson.A{
			bson.M{"$and": bson.A{
				bson.M{"$eq": bson.A{"$sender_type", viewer.Kind.Opposite()}},
				bson.M{"$eq": bson.A{"$is_read", false}},
			}},
			1,
			0,
		},
	}
	group := bson.M{
		"$group": bson.M{
			"_id":              counterpartField,
			"last_id":          bson.M{"$first": "$_id"},
			"last_body":        bson.M{"$first": "$body"},
			"last_sender_type": bson.M{"$first": "$sender_type"},
			"last_at":          bson.M{"$first": "$created_at"},
			"unread_count":     bson.M{"$sum": unreadFromCounterpart},
		},
	}
	byActivity := bson.M{
		"$sort": bson.D{{Key: "last_at", Value: -1}},
	}

	return []bson.M{match, newestFirst, group, byActivity}
}

// SummarizeConversations groups the viewer's messages per counterpart
func (dao *MessageDAO) SummarizeConversations(ctx context.Context, viewer models.Actor) ([]models.ConversationSummary, error) {
	pipeline := summaryPipeline(viewer)
	cursor, err := dao.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []conversationGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, models.ConversationSummary{
			Counterpart: models.Counterpart{ID: g.CounterpartID, Kind: viewer.Kind.Opposite()},
			LastMessage: models.LastMessage{
				ID:         g.LastID,
				Body:       g.LastBody,
				SenderType: g.LastSenderType,
				CreatedAt:  g.LastAt,
			},
			UnreadCount: g.UnreadCount,
		})
	}
	return summaries, nil
}

func pairFilter(pair models.Pair) bson.M {
	return bson.M{
		"user_id":   pair.UserID,
		"seller_id": pair.SellerID,
	}
}
