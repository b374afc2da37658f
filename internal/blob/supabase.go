package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore uploads to a public Supabase Storage bucket.
type SupabaseStore struct {
	baseURL  string
	key      string
	bucket   string
	maxBytes int64
	client   *http.Client
}

type SupabaseConfig struct {
	URL      string
	Key      string
	Bucket   string
	MaxBytes int64
	Timeout  time.Duration
}

func NewSupabaseStore(cfg SupabaseConfig) *SupabaseStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SupabaseStore{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		key:      cfg.Key,
		bucket:   cfg.Bucket,
		maxBytes: cfg.MaxBytes,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *SupabaseStore) Put(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	path, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	data, err := readLimited(body, s.maxBytes)
	if err != nil {
		return "", err
	}

	endpoint := s.baseURL + "/storage/v1/object/" + s.bucket + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	s.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	if err := s.do(req); err != nil {
		return "", err
	}
	return s.publicURL(path), nil
}

func (s *SupabaseStore) Delete(ctx context.Context, url string) error {
	prefix := s.publicURL("")
	if !strings.HasPrefix(url, prefix) {
		return ErrForeignURL
	}
	path, err := cleanPath(strings.TrimPrefix(url, prefix))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/storage/v1/object/"+s.bucket+"/"+path, nil)
	if err != nil {
		return err
	}
	s.authorize(req)
	return s.do(req)
}

func (s *SupabaseStore) publicURL(path string) string {
	return s.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + path
}

func (s *SupabaseStore) authorize(req *http.Request) {
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
}

func (s *SupabaseStore) do(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase storage %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if req.Method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	message := apiErr.Message
	if message == "" {
		message = apiErr.Error
	}
	return fmt.Errorf("supabase storage %s: status %d: %s", req.Method, resp.StatusCode, message)
}
