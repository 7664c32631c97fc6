package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace-messaging/models"
	"marketplace-messaging/observability"
	"marketplace-messaging/utils"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const unauthorizedMsg = "Please sign in to continue"

// Authenticator resolves the acting user or seller from a bearer token
type Authenticator struct {
	secret []byte
}

// New returns an Authenticator verifying HS256 tokens signed with secret
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Resolve parses a token and returns the actor it carries. The claims
// must hold an object id under "id" and "user" or "seller" under "kind".
func (a *Authenticator) Resolve(raw string) (*models.Actor, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, fmt.Errorf("missing token")
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	id, ok := claims["id"].(string)
	if !ok {
		return nil, fmt.Errorf("id claim is not a string")
	}
	kind, ok := claims["kind"].(string)
	if !ok {
		return nil, fmt.Errorf("kind claim is not a string")
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("id claim: %w", err)
	}
	actor := &models.Actor{ID: oid, Kind: models.ActorKind(kind)}
	if !actor.Kind.Valid() {
		return nil, fmt.Errorf("unknown actor kind %q", kind)
	}
	return actor, nil
}

// UseAuth validates the Authorization header for protected routes and
// stores the actor in the request context
func (a *Authenticator) UseAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, unauthorizedMsg)
			return
		}

		actor, err := a.Resolve(header)
		if err != nil {
			observability.LoggerFromContext(r.Context()).Warn("auth parse err", "error", err)
			utils.RespondWithError(w, http.StatusUnauthorized, unauthorizedMsg)
			return
		}

		ctx := context.WithValue(r.Context(), models.ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ActorFrom returns the actor stored by UseAuth, or nil
func ActorFrom(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(models.ActorKey).(*models.Actor)
	return actor
}

// Sign issues a token for actor valid for ttl
func (a *Authenticator) Sign(actor models.Actor, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   actor.ID.Hex(),
		"kind": string(actor.Kind),
		"exp":  time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(a.secret)
}
