package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"school-sos-go/internal/domain/access"
	staffdomain "school-sos-go/internal/domain/staff"
	"school-sos-go/internal/identity"
)

type fakeSessions map[string]string

func (f fakeSessions) Parse(token string) (*identity.Claims, error) {
	subject, ok := f[token]
	if !ok {
		return nil, identity.ErrInvalidSession
	}
	return &identity.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}, nil
}

type fakeResolver struct {
	actors map[string]access.Actor
	errs   map[string]error
}

func (f fakeResolver) ResolveActor(ctx context.Context, identityID string) (access.Actor, error) {
	if err, ok := f.errs[identityID]; ok {
		return access.Actor{}, err
	}
	return f.actors[identityID], nil
}

func newTestAuth() *Auth {
	return NewAuth(
		fakeSessions{"good": "T1", "orphan": "X1", "inactive": "I1"},
		fakeResolver{
			actors: map[string]access.Actor{
				"T1": {ID: "T1", Role: access.RoleTeacher, TenantID: "S1", ClassIDs: []string{"C1"}},
			},
			errs: map[string]error{
				"X1": staffdomain.ErrNotRegistered,
				"I1": staffdomain.ErrInactive,
			},
		},
		nil,
	)
}

func serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, access.Actor) {
	t.Helper()
	var seen access.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		seen = actor
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	newTestAuth().Middleware(next).ServeHTTP(rec, req)
	return rec, seen
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec, actor := serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "T1", actor.ID)
	require.Equal(t, access.RoleTeacher, actor.Role)
	require.Equal(t, "S1", actor.TenantID)
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})

	rec, actor := serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "T1", actor.ID)
}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	cases := map[string]func(*http.Request){
		"missing":   func(*http.Request) {},
		"malformed": func(r *http.Request) { r.Header.Set("Authorization", "Token good") },
		"unknown":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			setup(req)
			rec, _ := serve(t, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "unauthenticated", errorCode(t, rec))
		})
	}
}

func TestAuthDistinguishesUnregisteredFromDenied(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer orphan")
	rec, _ := serve(t, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_registered", errorCode(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer inactive")
	rec, _ = serve(t, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "access_denied", errorCode(t, rec))
}

func TestCORSAllowsConfiguredOriginWithCredentials(t *testing.T) {
	handler := NewCORS([]string{"https://app.school.example/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/students", nil)
	req.Header.Set("Origin", "https://app.school.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.school.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
