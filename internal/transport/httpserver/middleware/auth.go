package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"school-sos-go/internal/domain/access"
	staffdomain "school-sos-go/internal/domain/staff"
	"school-sos-go/internal/identity"
	"school-sos-go/pkg/logger"
)

// SessionCookieName is read when no Authorization header is present.
const SessionCookieName = "__session"

type SessionParser interface {
	Parse(token string) (*identity.Claims, error)
}

type ActorResolver interface {
	ResolveActor(ctx context.Context, identityID string) (access.Actor, error)
}

type Auth struct {
	sessions SessionParser
	actors   ActorResolver
	log      logger.Logger
}

type contextKey int

const (
	actorKey contextKey = iota
)

func NewAuth(sessions SessionParser, actors ActorResolver, log logger.Logger) *Auth {
	if log == nil {
		log = logger.Nop()
	}
	return &Auth{sessions: sessions, actors: actors, log: log}
}

// Middleware turns the session token into an actor. The token only proves
// identity; role and school always come from the staff directory.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessionToken(r)
		if !ok {
			unauthorized(w)
			return
		}

		claims, err := a.sessions.Parse(token)
		if err != nil || claims.Subject == "" {
			unauthorized(w)
			return
		}

		actor, err := a.actors.ResolveActor(r.Context(), claims.Subject)
		if err != nil {
			log := logger.FromContext(r.Context(), a.log)
			switch {
			case errors.Is(err, staffdomain.ErrNotRegistered):
				log.BusinessError("auth: identity without staff record", err, "identity_id", claims.Subject)
				writeError(w, http.StatusForbidden, "not_registered", "account is not registered as staff")
			case errors.Is(err, access.ErrForbidden):
				log.BusinessError("auth: staff inactive", err, "identity_id", claims.Subject)
				writeError(w, http.StatusForbidden, "access_denied", "access denied")
			default:
				log.InternalError("auth: resolve actor failed", err, "identity_id", claims.Subject)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
			return
		}

		ctx := WithActor(r.Context(), actor)
		ctx = logger.IntoContext(ctx, logger.FromContext(ctx, a.log).With("actor_id", actor.ID, "role", string(actor.Role)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		return bearerToken(header)
	}
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return strings.TrimSpace(cookie.Value), true
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or missing session")
}

func WithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(access.Actor)
	if !ok || actor.IsZero() {
		return access.Actor{}, false
	}
	return actor, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
