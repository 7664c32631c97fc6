package models

import "errors"

// ContextKey is a string type used in context.WithValue
type ContextKey string

func (c ContextKey) String() string {
	return string(c)
}

// Context keys set by the auth middleware
const (
	ActorKey ContextKey = "actor"
)

// ErrNotFound is returned by stores and the directory when no document
// matches the lookup
var ErrNotFound = errors.New("document not found")
