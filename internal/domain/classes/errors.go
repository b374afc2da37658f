package classes

import (
	"fmt"

	"school-sos-go/internal/domain/access"
)

var (
	ErrClassNotFound    = fmt.Errorf("class %w", access.ErrNotFound)
	ErrTeacherNotFound  = fmt.Errorf("teacher %w", access.ErrNotFound)
	ErrClassHasStudents = fmt.Errorf("class still has students: %w", access.ErrConflict)
)
