package school

import (
	"fmt"

	"school-sos-go/internal/domain/access"
)

var (
	ErrSchoolNotFound = fmt.Errorf("school %w", access.ErrNotFound)
	ErrSlugTaken      = fmt.Errorf("school slug %w", access.ErrConflict)
	ErrSchoolInactive = fmt.Errorf("school inactive: %w", access.ErrForbidden)
)
