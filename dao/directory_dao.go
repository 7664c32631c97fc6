package dao

import (
	"context"
	"errors"
	"fmt"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DirectoryDAO reads display metadata from the user and seller
// collections owned by the rest of the marketplace
type DirectoryDAO struct {
	users   *mongo.Collection
	sellers *mongo.Collection
}

// Lookup resolves a single user or seller by id
func (dao *DirectoryDAO) Lookup(ctx context.Context, kind models.ActorKind, id primitive.ObjectID) (models.Counterpart, error) {
	switch kind {
	case models.KindUser:
		var user models.DirectoryUser
		if err := dao.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			return models.Counterpart{}, notFound(err)
		}
		return user.Counterpart(), nil
	case models.KindSeller:
		var seller models.DirectorySeller
		if err := dao.sellers.FindOne(ctx, bson.M{"_id": id}).Decode(&seller); err != nil {
			return models.Counterpart{}, notFound(err)
		}
		return seller.Counterpart(), nil
	}
	return models.Counterpart{}, fmt.Errorf("unknown actor kind %q", kind)
}

// LookupMany resolves a batch of ids of one kind. Unknown ids are left
// out of the result.
func (dao *DirectoryDAO) LookupMany(ctx context.Context, kind models.ActorKind, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Counterpart, error) {
	out := make(map[primitive.ObjectID]models.Counterpart, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}

	switch kind {
	case models.KindUser:
		var users []models.DirectoryUser
		if err := findAll(ctx, dao.users, filter, &users); err != nil {
			return nil, err
		}
		for _, u := range users {
			out[u.ID] = u.Counterpart()
		}
	case models.KindSeller:
		var sellers []models.DirectorySeller
		if err := findAll(ctx, dao.sellers, filter, &sellers); err != nil {
			return nil, err
		}
		for _, s := range sellers {
			out[s.ID] = s.Counterpart()
		}
	default:
		return nil, fmt.Errorf("unknown actor kind %q", kind)
	}

	return out, nil
}

func findAll(ctx context.Context, c *mongo.Collection, filter bson.M, results interface{}) error {
	cursor, err := c.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}
