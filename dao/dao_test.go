package dao

import (
	"context"
	"os"
	"testing"
	"time"

	"marketplace-messaging/messaging"
	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	_ messaging.MessageStore      = (*MessageDAO)(nil)
	_ messaging.NotificationStore = (*NotificationDAO)(nil)
	_ messaging.Directory         = (*DirectoryDAO)(nil)
)

func TestSummaryPipelineFollowsViewer(t *testing.T) {
	seller := models.Actor{ID: primitive.NewObjectID(), Kind: models.KindSeller}
	pipeline := summaryPipeline(seller)

	if len(pipeline) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(pipeline))
	}
	match := pipeline[0]["$match"].(bson.M)
	if match["seller_id"] != seller.ID {
		t.Fatalf("expected a seller match, got %v", match)
	}
	group := pipeline[2]["$group"].(bson.M)
	if group["_id"] != "$user_id" {
		t.Fatalf("seller inbox must group by user, got %v", group["_id"])
	}

	user := models.Actor{ID: primitive.NewObjectID(), Kind: models.KindUser}
	pipeline = summaryPipeline(user)
	if _, ok := pipeline[0]["$match"].(bson.M)["user_id"]; !ok {
		t.Fatalf("expected a user match, got %v", pipeline[0])
	}
	if pipeline[2]["$group"].(bson.M)["_id"] != "$seller_id" {
		t.Fatalf("user inbox must group by seller")
	}
}

func TestFiltersScopeToOwner(t *testing.T) {
	recipient := models.Actor{ID: primitive.NewObjectID(), Kind: models.KindUser}
	f := recipientFilter(recipient)
	if f["recipient_id"] != recipient.ID || f["recipient_type"] != models.KindUser {
		t.Fatalf("unexpected recipient filter %v", f)
	}

	pair := models.Pair{UserID: primitive.NewObjectID(), SellerID: primitive.NewObjectID()}
	f = pairFilter(pair)
	if f["user_id"] != pair.UserID || f["seller_id"] != pair.SellerID || len(f) != 2 {
		t.Fatalf("unexpected pair filter %v", f)
	}
}

// TestMongoStores runs the service against a live server when
// MONGO_TEST_URI is set.
func TestMongoStores(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := Initialize(uri, "", "")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	ctx := context.Background()
	db := client.Database("messaging_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	factoryDAO := NewFactoryDAO(db)
	if err := factoryDAO.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	user := models.Actor{ID: primitive.NewObjectID(), Kind: models.KindUser}
	seller := models.Actor{ID: primitive.NewObjectID(), Kind: models.KindSeller}
	insert := func(c *mongo.Collection, doc interface{}) {
		if _, err := c.InsertOne(ctx, doc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	insert(factoryDAO.Collections[UserCollection], models.DirectoryUser{ID: user.ID, Username: "ada", Email: "ada@example.com"})
	insert(factoryDAO.Collections[SellerCollection], models.DirectorySeller{ID: seller.ID, ShopName: "Corner Shop"})

	svc := messaging.NewService(factoryDAO.Messages(), factoryDAO.Notifications(), factoryDAO.Directory())

	for _, body := range []string{"hi", "still there?"} {
		if _, err := svc.SendMessage(ctx, &user, seller.ID.Hex(), body); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := svc.SendMessage(ctx, &seller, user.ID.Hex(), "yes"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	convs, err := svc.ListConversations(ctx, &seller)
	if err != nil || len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %v (err=%v)", convs, err)
	}
	if convs[0].UnreadCount != 2 || convs[0].Counterpart.Name != "ada" || convs[0].LastMessage.Body != "yes" {
		t.Fatalf("unexpected summary %+v", convs[0])
	}

	changed, err := svc.MarkAsRead(ctx, &seller, user.ID.Hex())
	if err != nil || changed != 2 {
		t.Fatalf("expected 2 changes, got %d (err=%v)", changed, err)
	}

	count, _ := svc.UnreadCount(ctx, &seller)
	if count != 2 {
		t.Fatalf("expected 2 unread notifications, got %d", count)
	}
	list, _ := svc.ListNotifications(ctx, &seller, messaging.ListOptions{UnreadOnly: true})
	if len(list) != 2 || list[0].Body != "still there?" {
		t.Fatalf("unexpected notifications %+v", list)
	}
	if _, err := svc.MarkNotificationRead(ctx, &seller, list[0].ID.Hex()); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	if changed, _ := svc.MarkAllRead(ctx, &seller); changed != 1 {
		t.Fatalf("expected 1 remaining change, got %d", changed)
	}
}
