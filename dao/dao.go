package dao

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	MessagesCollection      = "messages"
	NotificationsCollection = "notifications"
	UserCollection          = "user"
	SellerCollection        = "seller"
)

// Initialize a connection
func Initialize(dbURI, user, serverPass string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(dbURI)
	if user != "" {
		clientOpts.SetAuth(options.Credential{
			AuthMechanism: "SCRAM-SHA-1",
			Username:      user,
			Password:      serverPass,
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	// ping primary
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	return client, nil
}
