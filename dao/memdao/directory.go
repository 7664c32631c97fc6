package memdao

import (
	"context"
	"fmt"
	"sync"

	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type directoryKey struct {
	kind models.ActorKind
	id   primitive.ObjectID
}

// Directory is an in-memory messaging.Directory
type Directory struct {
	mu      sync.RWMutex
	entries map[directoryKey]models.Counterpart
}

// NewDirectory creates an empty Directory
func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[directoryKey]models.Counterpart),
	}
}

// AddUser registers a user and returns its id
func (d *Directory) AddUser(username, email string) primitive.ObjectID {
	return d.add(models.Counterpart{ID: primitive.NewObjectID(), Kind: models.KindUser, Name: username, Email: email})
}

// AddSeller registers a seller shop and returns its id
func (d *Directory) AddSeller(shopName, email string) primitive.ObjectID {
	return d.add(models.Counterpart{ID: primitive.NewObjectID(), Kind: models.KindSeller, Name: shopName, Email: email})
}

func (d *Directory) add(c models.Counterpart) primitive.ObjectID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[directoryKey{kind: c.Kind, id: c.ID}] = c
	return c.ID
}

func (d *Directory) Lookup(_ context.Context, kind models.ActorKind, id primitive.ObjectID) (models.Counterpart, error) {
	if !kind.Valid() {
		return models.Counterpart{}, fmt.Errorf("unknown actor kind %q", kind)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.entries[directoryKey{kind: kind, id: id}]
	if !ok {
		return models.Counterpart{}, models.ErrNotFound
	}
	return c, nil
}

func (d *Directory) LookupMany(ctx context.Context, kind models.ActorKind, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Counterpart, error) {
	out := make(map[primitive.ObjectID]models.Counterpart, len(ids))
	for _, id := range ids {
		c, err := d.Lookup(ctx, kind, id)
		if err == models.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, nil
}
