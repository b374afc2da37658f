package invite

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"school-sos-go/internal/domain/access"
	"school-sos-go/internal/domain/school"
	"school-sos-go/internal/domain/staff"
	"school-sos-go/internal/identity"
	"school-sos-go/pkg/logger"
)

// Schools is the registry lookup used to check the target school exists.
type Schools interface {
	Get(ctx context.Context, actor access.Actor, id string) (*school.School, error)
}

// Registrar creates the admin account and staff record for a redemption.
type Registrar interface {
	RegisterAdmin(ctx context.Context, tenantID string, input staff.NewStaff) (*staff.Staff, error)
}

type Service struct {
	repo      Repository
	schools   Schools
	registrar Registrar
	log       logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, schools Schools, registrar Registrar, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, schools: schools, registrar: registrar, log: log, now: time.Now}
}

// Create issues an invite for a school. The returned token is the only
// copy of it; the store keeps its hash.
func (s *Service) Create(ctx context.Context, actor access.Actor, tenantID, email string) (*Created, error) {
	if !access.CanManageAdmins(actor.Role) {
		return nil, access.ErrForbidden
	}
	email = identity.NormalizeEmail(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, access.Invalid("email", "is not a valid email")
		}
	}
	if _, err := s.schools.Get(ctx, actor, tenantID); err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invite token: %w", err)
	}
	invite := Invite{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Email:     email,
		TokenHash: hashToken(token),
		Status:    StatusPending,
	}
	if err := s.repo.Create(ctx, &invite); err != nil {
		return nil, err
	}
	s.log.Info("invite.create: invite issued", "invite_id", invite.ID, "tenant_id", tenantID)
	return &Created{Invite: invite, Token: token}, nil
}

// Verify resolves a redeemable invite. Used and unknown tokens are
// reported the same way.
func (s *Service) Verify(ctx context.Context, token string) (*Invite, error) {
	token = strings.TrimSpace(token)
	if !wellFormed(token) {
		return nil, ErrInviteNotFound
	}
	invite, err := s.repo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if !invite.Redeemable(s.now()) {
		return nil, ErrInviteNotFound
	}
	return invite, nil
}

// Redeem claims the invite, creates the admin and only then consumes it.
// A failed registration releases the claim so the token can be retried.
// Concurrent redemptions of one token lose at the claim.
func (s *Service) Redeem(ctx context.Context, token string, reg Registration) (*staff.Staff, error) {
	invite, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	email := identity.NormalizeEmail(reg.Email)
	if email == "" {
		email = invite.Email
	}
	if invite.Email != "" && email != invite.Email {
		return nil, ErrEmailMismatch
	}

	// Postgres keeps microseconds; the stamp must compare equal after a
	// round trip.
	claimedAt := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.Claim(ctx, invite.ID, claimedAt, claimedAt.Add(-ClaimTTL)); err != nil {
		return nil, err
	}

	member, err := s.registrar.RegisterAdmin(ctx, invite.TenantID, staff.NewStaff{
		Name:     reg.Name,
		Email:    email,
		Phone:    reg.Phone,
		Password: reg.Password,
	})
	if err != nil {
		if releaseErr := s.repo.Release(context.WithoutCancel(ctx), invite.ID, claimedAt); releaseErr != nil {
			s.log.InternalError("invite.redeem: release claim", releaseErr, "invite_id", invite.ID)
		}
		return nil, err
	}

	if err := s.repo.MarkUsed(ctx, invite.ID, claimedAt, member.ID, s.now().UTC()); err != nil {
		if errors.Is(err, ErrInviteNotFound) {
			s.log.Critical("invite.redeem: claim expired before the invite was consumed",
				"invite_id", invite.ID, "staff_id", member.ID, "tenant_id", invite.TenantID)
		}
		return nil, err
	}
	s.log.Info("invite.redeem: admin registered", "invite_id", invite.ID, "staff_id", member.ID, "tenant_id", invite.TenantID)
	return member, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, tenantID string) ([]Invite, error) {
	if !access.CanManageAdmins(actor.Role) {
		return nil, access.ErrForbidden
	}
	if _, err := s.schools.Get(ctx, actor, tenantID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}
