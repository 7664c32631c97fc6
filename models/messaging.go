package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SenderType records which participant authored a message
type SenderType = ActorKind

// Message is a single entry in a user/seller conversation
type Message struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	SellerID   primitive.ObjectID `json:"seller_id" bson:"seller_id"`
	SenderType SenderType         `json:"sender_type" bson:"sender_type"`
	Body       string             `json:"body" bson:"body"`
	IsRead     bool               `json:"is_read" bson:"is_read"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// Pair identifies a conversation thread
type Pair struct {
	UserID   primitive.ObjectID
	SellerID primitive.ObjectID
}

// PairOf builds the thread key for an actor talking to a counterpart
func PairOf(actor Actor, counterpartID primitive.ObjectID) Pair {
	if actor.Kind == KindSeller {
		return Pair{UserID: counterpartID, SellerID: actor.ID}
	}
	return Pair{UserID: actor.ID, SellerID: counterpartID}
}

// Pair returns the thread key of the message
func (m Message) Pair() Pair {
	return Pair{UserID: m.UserID, SellerID: m.SellerID}
}

// CounterpartOf returns the id of the participant that is not the viewer
func (m Message) CounterpartOf(kind ActorKind) primitive.ObjectID {
	if kind == KindSeller {
		return m.UserID
	}
	return m.SellerID
}

// LastMessage is the preview of the newest message in a conversation
type LastMessage struct {
	ID         primitive.ObjectID `json:"id"`
	Body       string             `json:"body"`
	SenderType SenderType         `json:"sender_type"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ConversationSummary is one row of an inbox list
type ConversationSummary struct {
	Counterpart Counterpart `json:"counterpart"`
	LastMessage LastMessage `json:"last_message"`
	UnreadCount int64       `json:"unread_count"`
}

// SendMessageReq is the request payload for a new message
type SendMessageReq struct {
	Body string `json:"body"`
}

// SyncSnapshot is everything a polling client refreshes in one request
type SyncSnapshot struct {
	Conversations       []ConversationSummary `json:"conversations"`
	Notifications       []Notification        `json:"notifications"`
	UnreadCount         int64                 `json:"unread_count"`
	PollIntervalSeconds int                   `json:"poll_interval_seconds"`
}
