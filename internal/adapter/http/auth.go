package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neomorfeo/kidvo/internal/domain"
)

type contextKey string

const actorContextKey = contextKey("actor")

// Claims is the bearer token payload. The subject is the user ID.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFrom returns the actor stored in ctx, or the anonymous actor.
func ActorFrom(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorContextKey).(domain.Actor)
	return actor
}

// Authenticate verifies HS256 bearer tokens and stores the caller as a
// domain.Actor in the request context. Requests without a token continue
// anonymously; a token that fails verification is rejected with 401.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeUnauthorized(w, "invalid Authorization header format")
				return
			}

			var claims Claims
			_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}

			actor, err := claims.actor()
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func (c Claims) actor() (domain.Actor, error) {
	if c.Subject == "" {
		return domain.Actor{}, errors.New("token has no subject")
	}
	role := domain.Role(c.Role)
	if role == "" {
		role = domain.RoleParent
	}
	if !role.Valid() {
		return domain.Actor{}, errors.New("token has an unknown role")
	}
	return domain.Actor{UserID: c.Subject, Role: role, Email: c.Email}, nil
}

// SignToken issues an HS256 token for actor. It is used by tests and local
// tooling; production tokens come from the identity provider.
func SignToken(secret []byte, actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  string(actor.Role),
		Email: actor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(&APIError{
		Status:  http.StatusUnauthorized,
		Kind:    string(domain.KindUnauthorized),
		Message: message,
	})
}
