package staff

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"school-sos-go/internal/domain/access"
	"school-sos-go/internal/identity"
)

type fakeStaffRepo struct {
	members       map[string]*Staff
	classTeachers map[string]string
	failCreate    error
	gets          int
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{members: make(map[string]*Staff), classTeachers: make(map[string]string)}
}

func (r *fakeStaffRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeStaffRepo) Create(ctx context.Context, member *Staff) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) Get(ctx context.Context, id string) (*Staff, error) {
	r.gets++
	member, ok := r.members[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	copied := *member
	return &copied, nil
}

func (r *fakeStaffRepo) List(ctx context.Context, filter ListFilter) ([]Staff, error) {
	result := []Staff{}
	for _, member := range r.members {
		if filter.TenantID != "" && member.Tenant() != filter.TenantID {
			continue
		}
		if filter.Role != "" && member.Role != filter.Role {
			continue
		}
		result = append(result, *member)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeStaffRepo) Update(ctx context.Context, id string, updates map[string]any) error {
	member, ok := r.members[id]
	if !ok {
		return ErrStaffNotFound
	}
	for column, value := range updates {
		switch column {
		case "name":
			member.Name = value.(string)
		case "phone":
			member.Phone = value.(string)
		case "active":
			member.Active = value.(bool)
		}
	}
	return nil
}

func (r *fakeStaffRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.members[id]; !ok {
		return ErrStaffNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeStaffRepo) ClearClassTeacher(ctx context.Context, teacherID string) (int64, error) {
	var cleared int64
	for classID, id := range r.classTeachers {
		if id == teacherID {
			delete(r.classTeachers, classID)
			cleared++
		}
	}
	return cleared, nil
}

type fakeProvider struct {
	accounts  map[string]identity.Identity
	passwords map[string]string
	deleted   []string
	nextID    int
	deleteErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: make(map[string]identity.Identity), passwords: make(map[string]string)}
}

func (p *fakeProvider) Authenticate(ctx context.Context, email, password string) (identity.Identity, error) {
	email = identity.NormalizeEmail(email)
	account, ok := p.accounts[email]
	if !ok || p.passwords[email] != password {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	return account, nil
}

func (p *fakeProvider) CreateAccount(ctx context.Context, email, password, name string) (identity.Identity, error) {
	email = identity.NormalizeEmail(email)
	if _, ok := p.accounts[email]; ok {
		return identity.Identity{}, identity.ErrAccountExists
	}
	p.nextID++
	account := identity.Identity{ID: "id-" + string(rune('0'+p.nextID)), Email: email, Name: name}
	p.accounts[email] = account
	p.passwords[email] = password
	return account, nil
}

func (p *fakeProvider) LookupByEmail(ctx context.Context, email string) (identity.Identity, error) {
	account, ok := p.accounts[identity.NormalizeEmail(email)]
	if !ok {
		return identity.Identity{}, identity.ErrAccountNotFound
	}
	return account, nil
}

func (p *fakeProvider) SetPassword(ctx context.Context, id, password string) error {
	for email, account := range p.accounts {
		if account.ID == id {
			p.passwords[email] = password
			return nil
		}
	}
	return identity.ErrAccountNotFound
}

func (p *fakeProvider) DeleteAccount(ctx context.Context, id string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, id)
	for email, account := range p.accounts {
		if account.ID == id {
			delete(p.accounts, email)
		}
	}
	return nil
}

type fakeSchools struct {
	inactive map[string]bool
}

func (f fakeSchools) EnsureActive(ctx context.Context, id string) error {
	if f.inactive[id] {
		return errSchoolInactive
	}
	return nil
}

var errSchoolInactive = errors.New("school inactive: access denied")

type mapCache struct {
	entries map[string]access.Actor
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]access.Actor)}
}

func (c *mapCache) Get(ctx context.Context, id string) (access.Actor, bool) {
	actor, ok := c.entries[id]
	return actor, ok
}

func (c *mapCache) Set(ctx context.Context, id string, actor access.Actor, ttl time.Duration) {
	c.entries[id] = actor
}

func (c *mapCache) Delete(ctx context.Context, id string) {
	delete(c.entries, id)
}

var (
	owner   = access.Actor{ID: "owner-1", Role: access.RoleOwner}
	adminS1 = access.Actor{ID: "admin-1", Role: access.RoleAdmin, TenantID: "S1"}
)

func strPtr(value string) *string {
	return &value
}

func seed(repo *fakeStaffRepo, members ...Staff) {
	for i := range members {
		member := members[i]
		repo.members[member.ID] = &member
	}
}

func TestCreateTeacherProvisionsIdentityAndStaff(t *testing.T) {
	repo := newFakeStaffRepo()
	provider := newFakeProvider()
	svc := NewService(repo, provider, fakeSchools{})

	member, err := svc.CreateTeacher(context.Background(), adminS1, NewStaff{
		Name: " Ada Teacher ", Email: "Ada@School.example", Password: "long-enough",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if member.Role != access.RoleTeacher || member.Tenant() != "S1" || member.Email != "ada@school.example" {
		t.Fatalf("unexpected staff %+v", member)
	}
	account := provider.accounts["ada@school.example"]
	if account.ID != member.ID {
		t.Fatalf("expected staff id to equal identity id %s, got %s", account.ID, member.ID)
	}
	if _, ok := repo.members[member.ID]; !ok {
		t.Fatalf("expected staff record stored")
	}
}

func TestCreateTeacherDeniedForTeacherAndOwner(t *testing.T) {
	repo := newFakeStaffRepo()
	provider := newFakeProvider()
	svc := NewService(repo, provider, fakeSchools{})
	teacher := access.Actor{ID: "t-1", Role: access.RoleTeacher, TenantID: "S1"}

	for _, actor := range []access.Actor{teacher, owner} {
		_, err := svc.CreateTeacher(context.Background(), actor, NewStaff{Name: "X", Email: "x@school.example", Password: "long-enough"})
		if !errors.Is(err, access.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s, got %v", actor.Role, err)
		}
	}
	if len(provider.accounts) != 0 {
		t.Fatalf("expected no identity created on denial")
	}
}

func TestProvisioningFailureLeavesRepairableOrphan(t *testing.T) {
	repo := newFakeStaffRepo()
	repo.failCreate = errors.New("connection reset")
	provider := newFakeProvider()
	svc := NewService(repo, provider, fakeSchools{})
	input := NewStaff{Name: "Ada", Email: "ada@school.example", Password: "long-enough"}

	_, err := svc.CreateTeacher(context.Background(), adminS1, input)
	var provisioning *ProvisioningError
	if !errors.As(err, &provisioning) {
		t.Fatalf("expected ProvisioningError, got %v", err)
	}
	if !errors.Is(err, ErrProvisioning) || !errors.Is(err, access.ErrUpstream) {
		t.Fatalf("expected provisioning error to classify as upstream, got %v", err)
	}
	orphan := provider.accounts["ada@school.example"]
	if provisioning.IdentityID != orphan.ID {
		t.Fatalf("expected orphan id %s, got %s", orphan.ID, provisioning.IdentityID)
	}

	repo.failCreate = nil
	member, err := svc.CreateTeacher(context.Background(), adminS1, input)
	if err != nil {
		t.Fatalf("expected retry to bind orphan, got %v", err)
	}
	if member.ID != orphan.ID {
		t.Fatalf("expected staff bound to orphan %s, got %s", orphan.ID, member.ID)
	}
	if len(provider.accounts) != 1 {
		t.Fatalf("expected no second account, got %d", len(provider.accounts))
	}

	_, err = svc.CreateTeacher(context.Background(), adminS1, input)
	if !errors.Is(err, ErrStaffExists) || !errors.Is(err, access.ErrConflict) {
		t.Fatalf("expected ErrStaffExists on third attempt, got %v", err)
	}
}

func TestOrphanRepairTakesRetryPassword(t *testing.T) {
	repo := newFakeStaffRepo()
	repo.failCreate = errors.New("connection reset")
	provider := newFakeProvider()
	svc := NewService(repo, provider, fakeSchools{})
	ctx := context.Background()

	if _, err := svc.CreateTeacher(ctx, adminS1, NewStaff{Name: "Ada", Email: "ada@school.example", Password: "first-password"}); err == nil {
		t.Fatalf("expected the first attempt to fail")
	}

	repo.failCreate = nil
	member, err := svc.CreateTeacher(ctx, adminS1, NewStaff{Name: "Ada", Email: "ada@school.example", Password: "second-password"})
	if err != nil {
		t.Fatalf("expected retry to bind orphan, got %v", err)
	}
	account, err := provider.Authenticate(ctx, "ada@school.example", "second-password")
	if err != nil || account.ID != member.ID {
		t.Fatalf("expected the retry password to sign in, got %+v %v", account, err)
	}
	if _, err := provider.Authenticate(ctx, "ada@school.example", "first-password"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected the abandoned password rejected, got %v", err)
	}
}

func TestRegisterAdminNeverBindsExistingAccount(t *testing.T) {
	repo := newFakeStaffRepo()
	provider := newFakeProvider()
	provider.accounts["taken@school.example"] = identity.Identity{ID: "id-x", Email: "taken@school.example"}
	svc := NewService(repo, provider, fakeSchools{})

	_, err := svc.RegisterAdmin(context.Background(), "S1", NewStaff{Name: "X", Email: "taken@school.example", Password: "long-enough"})
	if !errors.Is(err, ErrStaffExists) {
		t.Fatalf("expected ErrStaffExists, got %v", err)
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected no staff bound to existing account")
	}
}

func TestProvisionValidation(t *testing.T) {
	svc := NewService(newFakeStaffRepo(), newFakeProvider(), fakeSchools{})
	cases := []NewStaff{
		{Name: "", Email: "a@school.example", Password: "long-enough"},
		{Name: "A", Email: "not-an-email", Password: "long-enough"},
		{Name: "A", Email: "a@school.example", Password: "short"},
	}
	for _, input := range cases {
		if _, err := svc.CreateTeacher(context.Background(), adminS1, input); !errors.Is(err, access.ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %+v, got %v", input, err)
		}
	}
}

func TestCreateAdminRequiresActiveSchool(t *testing.T) {
	svc := NewService(newFakeStaffRepo(), newFakeProvider(), fakeSchools{inactive: map[string]bool{"S2": true}})

	if _, err := svc.CreateAdmin(context.Background(), owner, "S2", NewStaff{Name: "A", Email: "a@school.example", Password: "long-enough"}); !errors.Is(err, errSchoolInactive) {
		t.Fatalf("expected inactive school error, got %v", err)
	}
	member, err := svc.CreateAdmin(context.Background(), owner, "S1", NewStaff{Name: "A", Email: "a@school.example", Password: "long-enough"})
	if err != nil || member.Role != access.RoleAdmin {
		t.Fatalf("expected admin created, got %+v %v", member, err)
	}
	if _, err := svc.CreateAdmin(context.Background(), adminS1, "S1", NewStaff{Name: "B", Email: "b@school.example", Password: "long-enough"}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected admin unable to create admins, got %v", err)
	}
}

func TestResolveActor(t *testing.T) {
	repo := newFakeStaffRepo()
	tenant := "S1"
	seed(repo,
		Staff{ID: "t-1", Role: access.RoleTeacher, TenantID: &tenant, ClassIDs: []string{"C1"}, Active: true},
		Staff{ID: "t-2", Role: access.RoleTeacher, TenantID: &tenant, Active: false},
		Staff{ID: "owner-1", Role: access.RoleOwner, Active: true},
	)
	cache := newMapCache()
	svc := NewService(repo, newFakeProvider(), fakeSchools{}, WithActorCache(cache, time.Minute))
	ctx := context.Background()

	actor, err := svc.ResolveActor(ctx, "t-1")
	if err != nil {
		t.Fatalf("expected actor, got %v", err)
	}
	if actor.Role != access.RoleTeacher || actor.TenantID != "S1" || !actor.TeachesClass("C1") {
		t.Fatalf("unexpected actor %+v", actor)
	}

	gets := repo.gets
	if _, err := svc.ResolveActor(ctx, "t-1"); err != nil {
		t.Fatalf("expected cached actor, got %v", err)
	}
	if repo.gets != gets {
		t.Fatalf("expected cache hit without store read")
	}

	svc.Invalidate(ctx, "t-1")
	if _, err := svc.ResolveActor(ctx, "t-1"); err != nil || repo.gets != gets+1 {
		t.Fatalf("expected store read after invalidation, got %v", err)
	}

	if _, err := svc.ResolveActor(ctx, "t-2"); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	if _, err := svc.ResolveActor(ctx, "ghost"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}

	tenantID, err := svc.CurrentTenantID(ctx, "owner-1")
	if err != nil || tenantID != "" {
		t.Fatalf("expected owner without tenant, got %q %v", tenantID, err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeStaffRepo()
	provider := newFakeProvider()
	schools := fakeSchools{inactive: map[string]bool{"S2": true}}
	svc := NewService(repo, provider, schools)
	ctx := context.Background()

	a1, _ := provider.CreateAccount(ctx, "a1@school.example", "long-enough", "A1")
	a2, _ := provider.CreateAccount(ctx, "a2@school.example", "long-enough", "A2")
	_, _ = provider.CreateAccount(ctx, "stranger@school.example", "long-enough", "S")
	s1, s2 := "S1", "S2"
	seed(repo,
		Staff{ID: a1.ID, Role: access.RoleAdmin, TenantID: &s1, Email: a1.Email, Active: true},
		Staff{ID: a2.ID, Role: access.RoleAdmin, TenantID: &s2, Email: a2.Email, Active: true},
	)

	member, _, err := svc.Authenticate(ctx, "A1@school.example", "long-enough")
	if err != nil || member.ID != a1.ID {
		t.Fatalf("expected login for a1, got %+v %v", member, err)
	}
	if _, _, err := svc.Authenticate(ctx, "a1@school.example", "wrong-password"); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "stranger@school.example", "long-enough"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "a2@school.example", "long-enough"); !errors.Is(err, errSchoolInactive) {
		t.Fatalf("expected login blocked for inactive school, got %v", err)
	}
}

func TestListScope(t *testing.T) {
	repo := newFakeStaffRepo()
	s1, s2 := "S1", "S2"
	seed(repo,
		Staff{ID: "owner-1", Role: access.RoleOwner, Active: true},
		Staff{ID: "admin-1", Role: access.RoleAdmin, TenantID: &s1, Active: true},
		Staff{ID: "t-1", Role: access.RoleTeacher, TenantID: &s1, Active: true},
		Staff{ID: "t-2", Role: access.RoleTeacher, TenantID: &s2, Active: true},
	)
	svc := NewService(repo, newFakeProvider(), fakeSchools{})
	ctx := context.Background()

	all, err := svc.List(ctx, owner, ListFilter{})
	if err != nil || len(all) != 4 {
		t.Fatalf("expected owner to list everyone, got %d %v", len(all), err)
	}

	scoped, err := svc.List(ctx, adminS1, ListFilter{TenantID: "S2"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, member := range scoped {
		if member.Tenant() != "S1" {
			t.Fatalf("expected admin listing confined to S1, got %+v", member)
		}
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 staff in S1, got %d", len(scoped))
	}

	owners, _ := svc.List(ctx, adminS1, ListFilter{Role: access.RoleOwner})
	if len(owners) != 0 {
		t.Fatalf("expected admin never to list owners")
	}

	teacher := access.Actor{ID: "t-1", Role: access.RoleTeacher, TenantID: "S1"}
	if _, err := svc.List(ctx, teacher, ListFilter{}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for teacher, got %v", err)
	}
}

func TestGetAndUpdateScope(t *testing.T) {
	repo := newFakeStaffRepo()
	s1, s2 := "S1", "S2"
	seed(repo,
		Staff{ID: "admin-1", Role: access.RoleAdmin, TenantID: &s1, Name: "Admin", Active: true},
		Staff{ID: "t-1", Role: access.RoleTeacher, TenantID: &s1, Name: "T1", Active: true},
		Staff{ID: "t-2", Role: access.RoleTeacher, TenantID: &s2, Name: "T2", Active: true},
	)
	cache := newMapCache()
	cache.entries["t-1"] = access.Actor{ID: "t-1", Role: access.RoleTeacher, TenantID: "S1"}
	svc := NewService(repo, newFakeProvider(), fakeSchools{}, WithActorCache(cache, time.Minute))
	ctx := context.Background()

	if _, err := svc.Get(ctx, adminS1, "t-2"); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("expected cross-tenant get to be not found, got %v", err)
	}
	teacher := access.Actor{ID: "t-1", Role: access.RoleTeacher, TenantID: "S1"}
	if _, err := svc.Get(ctx, teacher, "t-1"); err != nil {
		t.Fatalf("expected teacher to read self, got %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, adminS1, "t-1", UpdateStaff{Name: strPtr("Renamed"), Active: &inactive})
	if err != nil {
		t.Fatalf("expected update, got %v", err)
	}
	if updated.Name != "Renamed" || updated.Active {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, ok := cache.entries["t-1"]; ok {
		t.Fatalf("expected cached actor dropped on update")
	}

	if _, err := svc.Update(ctx, adminS1, "admin-1", UpdateStaff{Name: strPtr("Me")}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected self-update via management path forbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, owner, "t-1", UpdateStaff{Name: strPtr("X")}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected owner unable to manage teachers, got %v", err)
	}
}

func TestDeleteTeacherUnassignsClasses(t *testing.T) {
	repo := newFakeStaffRepo()
	provider := newFakeProvider()
	s1 := "S1"
	seed(repo,
		Staff{ID: "t-1", Role: access.RoleTeacher, TenantID: &s1, ClassIDs: []string{"C1", "C2"}, Active: true},
		Staff{ID: "t-2", Role: access.RoleTeacher, TenantID: &s1, ClassIDs: []string{"C3"}, Active: true},
	)
	repo.classTeachers = map[string]string{"C1": "t-1", "C2": "t-1", "C3": "t-2"}
	svc := NewService(repo, provider, fakeSchools{})

	if err := svc.Delete(context.Background(), adminS1, "t-1"); err != nil {
		t.Fatalf("expected delete, got %v", err)
	}
	if _, ok := repo.members["t-1"]; ok {
		t.Fatalf("expected staff removed")
	}
	for classID, teacherID := range repo.classTeachers {
		if teacherID == "t-1" {
			t.Fatalf("expected class %s unassigned", classID)
		}
	}
	if repo.classTeachers["C3"] != "t-2" {
		t.Fatalf("expected unrelated class untouched")
	}
	if len(provider.deleted) != 1 || provider.deleted[0] != "t-1" {
		t.Fatalf("expected identity account deleted, got %v", provider.deleted)
	}
}

func TestDeleteSurvivesIdentityFailure(t *testing.T) {
	repo := newFakeStaffRepo()
	provider := newFakeProvider()
	provider.deleteErr = errors.New("provider down")
	s1 := "S1"
	seed(repo, Staff{ID: "t-1", Role: access.RoleTeacher, TenantID: &s1, Active: true})
	svc := NewService(repo, provider, fakeSchools{})

	if err := svc.Delete(context.Background(), adminS1, "t-1"); err != nil {
		t.Fatalf("expected identity failure to be logged not returned, got %v", err)
	}
	if _, ok := repo.members["t-1"]; ok {
		t.Fatalf("expected staff removed")
	}
}

func TestDeleteOwnerForbidden(t *testing.T) {
	repo := newFakeStaffRepo()
	seed(repo, Staff{ID: "owner-2", Role: access.RoleOwner, Active: true})
	svc := NewService(repo, newFakeProvider(), fakeSchools{})

	if err := svc.Delete(context.Background(), owner, "owner-2"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), owner, "owner-1"); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("expected not found for missing owner, got %v", err)
	}
}
