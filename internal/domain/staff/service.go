package staff

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"school-sos-go/internal/domain/access"
	"school-sos-go/internal/identity"
	"school-sos-go/pkg/logger"
)

type Service struct {
	repo       Repository
	identities identity.Provider
	schools    SchoolStatus
	cache      ActorCache
	cacheTTL   time.Duration
	log        logger.Logger
}

type Option func(*Service)

func WithActorCache(cache ActorCache, ttl time.Duration) Option {
	return func(s *Service) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(repo Repository, identities identity.Provider, schools SchoolStatus, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		identities: identities,
		schools:    schools,
		cache:      noopCache{},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProfile resolves an authenticated identity to its staff record.
func (s *Service) GetProfile(ctx context.Context, identityID string) (*Staff, error) {
	member, err := s.repo.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	return member, nil
}

// CurrentTenantID returns "" for owners.
func (s *Service) CurrentTenantID(ctx context.Context, identityID string) (string, error) {
	member, err := s.GetProfile(ctx, identityID)
	if err != nil {
		return "", err
	}
	return member.Tenant(), nil
}

// ResolveActor is called on every authenticated request. The cached actor
// is revalidated against the directory once the TTL lapses.
func (s *Service) ResolveActor(ctx context.Context, identityID string) (access.Actor, error) {
	if actor, ok := s.cache.Get(ctx, identityID); ok {
		return actor, nil
	}

	member, err := s.GetProfile(ctx, identityID)
	if err != nil {
		return access.Actor{}, err
	}
	if !member.Active {
		return access.Actor{}, ErrInactive
	}

	actor := member.Actor()
	s.cache.Set(ctx, identityID, actor, s.cacheTTL)
	return actor, nil
}

// Invalidate drops the cached actor; the roster calls it after touching a
// teacher's class ids.
func (s *Service) Invalidate(ctx context.Context, staffID string) {
	s.cache.Delete(ctx, staffID)
}

// Authenticate performs the login policy: valid credentials, a registered
// and active staff record, and an active school for tenant-scoped roles.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Staff, identity.Identity, error) {
	id, err := s.identities.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, identity.Identity{}, access.ErrUnauthenticated
		}
		return nil, identity.Identity{}, access.Upstream("identity.authenticate", err)
	}

	member, err := s.GetProfile(ctx, id.ID)
	if err != nil {
		return nil, id, err
	}
	if !member.Active {
		return nil, id, ErrInactive
	}
	if tenantID := member.Tenant(); tenantID != "" {
		if err := s.schools.EnsureActive(ctx, tenantID); err != nil {
			return nil, id, err
		}
	}

	s.cache.Delete(ctx, member.ID)
	return member, id, nil
}

// CreateOwner bootstraps a platform owner. There is no actor: it is only
// reachable from the operator CLI.
func (s *Service) CreateOwner(ctx context.Context, input NewStaff) (*Staff, error) {
	return s.provision(ctx, input, access.RoleOwner, "", true)
}

func (s *Service) CreateAdmin(ctx context.Context, actor access.Actor, tenantID string, input NewStaff) (*Staff, error) {
	if !access.CanManageAdmins(actor.Role) {
		return nil, access.ErrForbidden
	}
	if err := s.schools.EnsureActive(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.provision(ctx, input, access.RoleAdmin, tenantID, true)
}

func (s *Service) CreateTeacher(ctx context.Context, actor access.Actor, input NewStaff) (*Staff, error) {
	if !access.CanManageTeachers(actor.Role) || actor.TenantID == "" {
		return nil, access.ErrForbidden
	}
	return s.provision(ctx, input, access.RoleTeacher, actor.TenantID, true)
}

// RegisterAdmin creates an admin from a redeemed invite. It never binds an
// existing account: the registrant has not proven ownership of it.
func (s *Service) RegisterAdmin(ctx context.Context, tenantID string, input NewStaff) (*Staff, error) {
	if err := s.schools.EnsureActive(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.provision(ctx, input, access.RoleAdmin, tenantID, false)
}

// provision creates the identity account and the staff record as one unit.
// The identity provider cannot roll back, so a failed staff write leaves an
// orphaned account; repairOrphan lets a retry bind to it because staff id
// equals identity id. The retry's password replaces the orphan's.
func (s *Service) provision(ctx context.Context, input NewStaff, role access.Role, tenantID string, repairOrphan bool) (*Staff, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, access.Invalid("name", "is required")
	}
	email := identity.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, access.Invalid("email", "is not a valid email")
	}
	if err := identity.CheckPassword(input.Password); err != nil {
		return nil, access.Invalid("password", "must be at least 8 characters")
	}

	account, err := s.identities.CreateAccount(ctx, email, input.Password, name)
	switch {
	case errors.Is(err, identity.ErrAccountExists):
		if !repairOrphan {
			return nil, ErrStaffExists
		}
		account, err = s.adoptOrphan(ctx, email, input.Password)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, identity.ErrWeakPassword):
		return nil, access.Invalid("password", "must be at least 8 characters")
	case err != nil:
		return nil, access.Upstream("identity.create_account", err)
	}

	member := Staff{
		ID:       account.ID,
		Role:     role,
		Name:     name,
		Email:    email,
		Phone:    strings.TrimSpace(input.Phone),
		ClassIDs: []string{},
		Active:   true,
	}
	if tenantID != "" {
		member.TenantID = &tenantID
	}

	if err := s.repo.Create(ctx, &member); err != nil {
		s.log.InternalError("staff.provision: identity created but staff write failed", err,
			"identity_id", account.ID, "email", email, "role", role, "tenant_id", tenantID)
		return nil, &ProvisioningError{IdentityID: account.ID, Err: err}
	}

	s.log.Info("staff.provision: staff created", "staff_id", member.ID, "role", role, "tenant_id", tenantID)
	return &member, nil
}

func (s *Service) adoptOrphan(ctx context.Context, email, password string) (identity.Identity, error) {
	account, err := s.identities.LookupByEmail(ctx, email)
	if err != nil {
		return identity.Identity{}, access.Upstream("identity.lookup", err)
	}
	_, err = s.repo.Get(ctx, account.ID)
	if err == nil {
		return identity.Identity{}, ErrStaffExists
	}
	if !errors.Is(err, ErrStaffNotFound) {
		return identity.Identity{}, err
	}
	if err := s.identities.SetPassword(ctx, account.ID, password); err != nil {
		if errors.Is(err, identity.ErrWeakPassword) {
			return identity.Identity{}, access.Invalid("password", "must be at least 8 characters")
		}
		return identity.Identity{}, access.Upstream("identity.set_password", err)
	}
	s.log.Warn("staff.provision: binding orphaned identity", "identity_id", account.ID, "email", email)
	return account, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*Staff, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, member) {
		return nil, ErrStaffNotFound
	}
	return member, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]Staff, error) {
	switch actor.Role {
	case access.RoleOwner:
	case access.RoleAdmin:
		if filter.Role == access.RoleOwner {
			return []Staff{}, nil
		}
		filter.TenantID = actor.TenantID
	default:
		return nil, access.ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id string, input UpdateStaff) (*Staff, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeManage(actor, member); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, access.Invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.cache.Delete(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a staff member. Classes taught by a deleted teacher are
// unassigned first so no teacher_id dangles; the identity account is
// removed best-effort afterwards.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeManage(actor, member); err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if member.Role == access.RoleTeacher {
			cleared, err := tx.ClearClassTeacher(ctx, id)
			if err != nil {
				return err
			}
			if cleared > 0 {
				s.log.Info("staff.delete: unassigned classes", "staff_id", id, "classes", cleared)
			}
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.Delete(ctx, id)

	if err := s.identities.DeleteAccount(ctx, id); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		s.log.InternalError("staff.delete: identity account left behind", err, "staff_id", id)
	}
	return nil
}

func canSee(actor access.Actor, member *Staff) bool {
	switch actor.Role {
	case access.RoleOwner:
		return true
	case access.RoleAdmin:
		return member.Role != access.RoleOwner && actor.SameTenant(member.Tenant())
	case access.RoleTeacher:
		return actor.ID == member.ID
	}
	return false
}

// authorizeManage: owners manage admins, admins manage teachers of their
// own school. Nobody manages themselves or owners through this path.
func authorizeManage(actor access.Actor, member *Staff) error {
	if !canSee(actor, member) {
		return ErrStaffNotFound
	}
	if actor.ID == member.ID {
		return access.ErrForbidden
	}
	switch member.Role {
	case access.RoleAdmin:
		if access.CanManageAdmins(actor.Role) {
			return nil
		}
	case access.RoleTeacher:
		if access.CanManageTeachers(actor.Role) {
			return nil
		}
	}
	return access.ErrForbidden
}
