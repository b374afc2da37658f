package staff

import (
	"errors"
	"fmt"

	"school-sos-go/internal/domain/access"
)

var (
	ErrStaffNotFound = fmt.Errorf("staff %w", access.ErrNotFound)
	ErrStaffExists   = fmt.Errorf("staff %w: already registered", access.ErrConflict)
	// ErrNotRegistered means the identity authenticated but has no staff
	// record. It is distinct from ErrUnauthenticated.
	ErrNotRegistered = errors.New("identity not registered as staff")
	ErrInactive      = fmt.Errorf("staff inactive: %w", access.ErrForbidden)
	ErrProvisioning  = fmt.Errorf("staff provisioning: %w", access.ErrUpstream)
)

// ProvisioningError reports an identity account that was created while the
// staff record was not. Retrying the same creation binds the orphan.
type ProvisioningError struct {
	IdentityID string
	Err        error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("staff provisioning: identity %s created but staff write failed: %v", e.IdentityID, e.Err)
}

func (e *ProvisioningError) Unwrap() []error {
	return []error{ErrProvisioning, e.Err}
}
