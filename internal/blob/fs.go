package blob

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes objects under a local directory and serves them from
// publicURL. Meant for development and tests.
type FSStore struct {
	root      string
	publicURL string
	maxBytes  int64
}

func NewFSStore(root, publicURL string, maxBytes int64) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root, publicURL: strings.TrimRight(publicURL, "/"), maxBytes: maxBytes}, nil
}

func (s *FSStore) Put(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	path, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	data, err := readLimited(body, s.maxBytes)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return s.publicURL + "/" + path, nil
}

func (s *FSStore) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicURL+"/") {
		return ErrForeignURL
	}
	path, err := cleanPath(strings.TrimPrefix(url, s.publicURL+"/"))
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Handler serves stored objects. Mount it under the public URL path.
func (s *FSStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.root))
}
