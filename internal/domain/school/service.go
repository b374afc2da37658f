package school

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"school-sos-go/internal/domain/access"
	"school-sos-go/pkg/slugify"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, actor access.Actor, input NewSchool) (*School, error) {
	if !access.CanManageSchools(actor.Role) {
		return nil, access.ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, access.Invalid("name", "is required")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify.Make(name)
	}
	if !slugify.Valid(slug) {
		return nil, access.Invalid("slug", "must be lowercase letters, digits and single hyphens")
	}
	email, err := normalizeEmail(input.ContactEmail)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.IsSlugTaken(ctx, slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	school := School{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         slug,
		Address:      strings.TrimSpace(input.Address),
		Phone:        strings.TrimSpace(input.Phone),
		ContactEmail: email,
		Active:       true,
	}
	if err := s.repo.Create(ctx, &school); err != nil {
		return nil, err
	}
	return &school, nil
}

// Get returns any school to the owner and only their own school to staff.
// Inactive schools stay readable.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*School, error) {
	if !access.CanReadSchool(actor, id) {
		return nil, ErrSchoolNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]School, error) {
	if !access.CanManageSchools(actor.Role) {
		return nil, access.ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id string, input UpdateSchool) (*School, error) {
	if !access.CanManageSchools(actor.Role) {
		return nil, access.ErrForbidden
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
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
	if input.Slug != nil && *input.Slug != current.Slug {
		slug := strings.TrimSpace(*input.Slug)
		if !slugify.Valid(slug) {
			return nil, access.Invalid("slug", "must be lowercase letters, digits and single hyphens")
		}
		taken, err := s.repo.IsSlugTaken(ctx, slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlugTaken
		}
		updates["slug"] = slug
	}
	if input.ContactEmail != nil {
		email, err := normalizeEmail(*input.ContactEmail)
		if err != nil {
			return nil, err
		}
		updates["contact_email"] = email
	}
	setTrimmed(updates, "address", input.Address)
	setTrimmed(updates, "phone", input.Phone)
	setTrimmed(updates, "logo_url", input.LogoURL)
	setTrimmed(updates, "cover_image_url", input.CoverImageURL)
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Stats(ctx context.Context, actor access.Actor, id string) (*Stats, error) {
	if !access.CanReadSchool(actor, id) || actor.Role == access.RoleTeacher {
		return nil, ErrSchoolNotFound
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, id)
}

// EnsureActive is consulted at login: staff of a deactivated school cannot
// start new sessions.
func (s *Service) EnsureActive(ctx context.Context, id string) error {
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !school.Active {
		return ErrSchoolInactive
	}
	return nil
}

// Name resolves a display name without access checks; used for denormalized
// snapshots on student records.
func (s *Service) Name(ctx context.Context, id string) (string, error) {
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return school.Name, nil
}

func setTrimmed(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = strings.TrimSpace(*value)
	}
}

func normalizeEmail(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return "", access.Invalid("contact_email", "is not a valid email")
	}
	return value, nil
}
