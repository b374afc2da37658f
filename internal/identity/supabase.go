package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseProvider talks to a GoTrue instance. Password sign-in uses the
// publishable key; account administration uses the service role key.
type SupabaseProvider struct {
	baseURL    string
	anonKey    string
	serviceKey string
	client     *http.Client
}

type SupabaseConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string
	Timeout    time.Duration
}

type supabaseUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

type supabaseTokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        supabaseUser `json:"user"`
}

type supabaseUserList struct {
	Users []supabaseUser `json:"users"`
}

type supabaseError struct {
	Code      any    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

const supabaseUsersPerPage = 200

func NewSupabaseProvider(cfg SupabaseConfig) *SupabaseProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &SupabaseProvider{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *SupabaseProvider) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	body := map[string]string{"email": NormalizeEmail(email), "password": password}
	apiKey := p.anonKey
	if apiKey == "" {
		apiKey = p.serviceKey
	}

	var payload supabaseTokenResponse
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", apiKey, false, body, &payload)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if payload.User.ID == "" {
		return Identity{}, ErrInvalidCredentials
	}
	return toIdentity(payload.User), nil
}

func (p *SupabaseProvider) CreateAccount(ctx context.Context, email, password, name string) (Identity, error) {
	if err := CheckPassword(password); err != nil {
		return Identity{}, err
	}
	body := map[string]interface{}{
		"email":         NormalizeEmail(email),
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]string{"name": name},
	}

	var user supabaseUser
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/admin/users", p.serviceKey, true, body, &user)
	if err != nil {
		if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
			return Identity{}, ErrAccountExists
		}
		return Identity{}, err
	}
	return toIdentity(user), nil
}

// LookupByEmail pages through the admin user list; GoTrue has no exact
// email filter on this endpoint.
func (p *SupabaseProvider) LookupByEmail(ctx context.Context, email string) (Identity, error) {
	email = NormalizeEmail(email)
	for page := 1; ; page++ {
		var list supabaseUserList
		path := fmt.Sprintf("/auth/v1/admin/users?page=%d&per_page=%d", page, supabaseUsersPerPage)
		if _, err := p.do(ctx, http.MethodGet, path, p.serviceKey, true, nil, &list); err != nil {
			return Identity{}, err
		}
		for _, user := range list.Users {
			if NormalizeEmail(user.Email) == email {
				return toIdentity(user), nil
			}
		}
		if len(list.Users) < supabaseUsersPerPage {
			return Identity{}, ErrAccountNotFound
		}
	}
}

func (p *SupabaseProvider) SetPassword(ctx context.Context, id, password string) error {
	if err := CheckPassword(password); err != nil {
		return err
	}
	body := map[string]string{"password": password}
	status, err := p.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+url.PathEscape(id), p.serviceKey, true, body, nil)
	switch status {
	case http.StatusNotFound:
		return ErrAccountNotFound
	case http.StatusUnprocessableEntity:
		return ErrWeakPassword
	}
	return err
}

func (p *SupabaseProvider) DeleteAccount(ctx context.Context, id string) error {
	status, err := p.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), p.serviceKey, true, nil, nil)
	if status == http.StatusNotFound {
		return ErrAccountNotFound
	}
	return err
}

func (p *SupabaseProvider) do(ctx context.Context, method, path, apiKey string, bearer bool, body any, dst any) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", apiKey)
	if bearer {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("supabase %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr supabaseError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return resp.StatusCode, fmt.Errorf("supabase %s %s: status %d: %s", method, path, resp.StatusCode, firstNonEmpty(apiErr.Msg, apiErr.Message, apiErr.ErrorCode))
	}
	if dst == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("supabase %s %s: decode: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

func toIdentity(user supabaseUser) Identity {
	return Identity{
		ID:    user.ID,
		Email: NormalizeEmail(user.Email),
		Name:  firstNonEmpty(stringFromMap(user.UserMetadata, "name"), stringFromMap(user.UserMetadata, "full_name")),
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func stringFromMap(values map[string]interface{}, key string) string {
	if values == nil {
		return ""
	}
	parsed, _ := values[key].(string)
	return parsed
}
