package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType ...
type NotificationType string

// Notification types
const (
	MessageN NotificationType = "message"
	OrderN   NotificationType = "order"
	ProductN NotificationType = "product"
)

// Related entity types
const (
	RelatedMessage = "message"
	RelatedOrder   = "order"
	RelatedProduct = "product"
)

// Notification is addressed to one user or seller
type Notification struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	RecipientID   primitive.ObjectID `json:"recipient_id" bson:"recipient_id"`
	RecipientType ActorKind          `json:"recipient_type" bson:"recipient_type"`
	Type          NotificationType   `json:"type" bson:"type"`
	Title         string             `json:"title" bson:"title"`
	Body          string             `json:"body" bson:"body"`
	RelatedID     string             `json:"related_id" bson:"related_id"`
	RelatedType   string             `json:"related_type" bson:"related_type"`
	IsRead        bool               `json:"is_read" bson:"is_read"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// Recipient returns the actor the notification is addressed to
func (n Notification) Recipient() Actor {
	return Actor{ID: n.RecipientID, Kind: n.RecipientType}
}

// NotificationQuery filters a recipient's notification list
type NotificationQuery struct {
	Recipient  Actor
	UnreadOnly bool
	Limit      int
}
