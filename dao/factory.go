package dao

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FactoryDAO holds the collections used by the messaging service and
// builds the typed DAOs on top of them
type FactoryDAO struct {
	db          *mongo.Database
	Collections map[string]*mongo.Collection
}

// NewFactoryDAO returns a new FactoryDAO
func NewFactoryDAO(db *mongo.Database) *FactoryDAO {
	collections := []string{
		MessagesCollection,
		NotificationsCollection,
		UserCollection,
		SellerCollection,
	}
	dao := &FactoryDAO{
		db:          db,
		Collections: make(map[string]*mongo.Collection),
	}

	for _, opt := range collections {
		dao.Add(opt)
	}

	return dao
}

// Add collection to list
func (dao *FactoryDAO) Add(key string) {
	c := dao.db.Collection(key)
	dao.Collections[key] = c
}

// Collection returns a registered collection
func (dao *FactoryDAO) Collection(key string) (*mongo.Collection, error) {
	c, ok := dao.Collections[key]
	if !ok {
		return nil, errors.New("Invalid collection")
	}
	return c, nil
}

// Messages returns the message DAO
func (dao *FactoryDAO) Messages() *MessageDAO {
	return &MessageDAO{Collection: dao.Collections[MessagesCollection]}
}

// Notifications returns the notification DAO
func (dao *FactoryDAO) Notifications() *NotificationDAO {
	return &NotificationDAO{Collection: dao.Collections[NotificationsCollection]}
}

// Directory returns the read-only user/seller lookup
func (dao *FactoryDAO) Directory() *DirectoryDAO {
	return &DirectoryDAO{
		users:   dao.Collections[UserCollection],
		sellers: dao.Collections[SellerCollection],
	}
}

// EnsureIndexes creates the indexes backing the conversation and
// notification aggregations
func (dao *FactoryDAO) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		MessagesCollection: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "seller_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("pair_created_at"),
			},
			{
				Keys:    bson.D{{Key: "seller_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("seller_created_at"),
			},
		},
		NotificationsCollection: {
			{
				Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "recipient_type", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("recipient_created_at"),
			},
		},
	}

	for key, idx := range indexes {
		c, err := dao.Collection(key)
		if err != nil {
			return err
		}
		if _, err := c.Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
