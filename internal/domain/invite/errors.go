package invite

import (
	"fmt"

	"school-sos-go/internal/domain/access"
)

var (
	// ErrInviteNotFound covers unknown, malformed and already used tokens.
	ErrInviteNotFound = fmt.Errorf("invite %w", access.ErrNotFound)
	ErrEmailMismatch  = access.Invalid("email", "does not match the invitation")
)
