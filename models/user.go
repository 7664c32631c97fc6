package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActorKind identifies which side of the marketplace an actor is on
type ActorKind string

// Actor kinds
const (
	KindUser   ActorKind = "user"
	KindSeller ActorKind = "seller"
)

// Valid reports whether k is one of the known kinds
func (k ActorKind) Valid() bool {
	return k == KindUser || k == KindSeller
}

// Opposite returns the kind on the other side of a conversation
func (k ActorKind) Opposite() ActorKind {
	if k == KindUser {
		return KindSeller
	}
	return KindUser
}

// Actor is an authenticated caller as resolved from a session token
type Actor struct {
	ID   primitive.ObjectID `json:"id"`
	Kind ActorKind          `json:"kind"`
}

// Counterpart carries display metadata for the other participant of a
// conversation. Users fill Name from username, sellers from shop name.
type Counterpart struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Kind      ActorKind          `json:"kind" bson:"-"`
	Name      string             `json:"name" bson:"-"`
	Email     string             `json:"-" bson:"email"`
	AvatarURL string             `json:"avatar_url" bson:"avatar_url"`
}

// DirectoryUser is the read-only projection of the user collection
type DirectoryUser struct {
	ID        primitive.ObjectID `bson:"_id"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	AvatarURL string             `bson:"avatar_url"`
}

// DirectorySeller is the read-only projection of the seller collection
type DirectorySeller struct {
	ID        primitive.ObjectID `bson:"_id"`
	ShopName  string             `bson:"shop_name"`
	Email     string             `bson:"email"`
	AvatarURL string             `bson:"avatar_url"`
}

// Counterpart converts the user document into display metadata
func (u DirectoryUser) Counterpart() Counterpart {
	return Counterpart{ID: u.ID, Kind: KindUser, Name: u.Username, Email: u.Email, AvatarURL: u.AvatarURL}
}

// Counterpart converts the seller document into display metadata
func (s DirectorySeller) Counterpart() Counterpart {
	return Counterpart{ID: s.ID, Kind: KindSeller, Name: s.ShopName, Email: s.Email, AvatarURL: s.AvatarURL}
}
