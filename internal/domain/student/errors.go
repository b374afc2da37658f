package student

import (
	"fmt"

	"school-sos-go/internal/domain/access"
)

var (
	ErrStudentNotFound = fmt.Errorf("student %w", access.ErrNotFound)
	ErrClassNotFound   = fmt.Errorf("class %w", access.ErrNotFound)
	ErrSlugTaken       = fmt.Errorf("student slug %w", access.ErrConflict)
	ErrSlugExhausted   = fmt.Errorf("student slug: no free slug after retries: %w", access.ErrConflict)
	// ErrSlugAlreadySet means the row got a slug since it was listed.
	ErrSlugAlreadySet = fmt.Errorf("student slug already set: %w", access.ErrConflict)
)
