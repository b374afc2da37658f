// Package blob stores student photos. Paths are caller-chosen and stable,
// so writing the same path twice replaces the object.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrInvalidPath = errors.New("blob: invalid path")
	ErrTooLarge    = errors.New("blob: object too large")
	ErrForeignURL  = errors.New("blob: url not served by this store")
)

type Store interface {
	Put(ctx context.Context, path, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// cleanPath rejects absolute paths and parent segments.
func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "/") || strings.Contains(path, "\\") {
		return "", ErrInvalidPath
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", ErrInvalidPath
		}
	}
	return path, nil
}

// readLimited reads at most limit bytes and fails when body holds more.
func readLimited(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(body)
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
