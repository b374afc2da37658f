package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"school-sos-go/internal/blob"
	"school-sos-go/internal/config"
	classesdomain "school-sos-go/internal/domain/classes"
	invitedomain "school-sos-go/internal/domain/invite"
	schooldomain "school-sos-go/internal/domain/school"
	staffdomain "school-sos-go/internal/domain/staff"
	studentdomain "school-sos-go/internal/domain/student"
	"school-sos-go/internal/identity"
	"school-sos-go/internal/repository/inmemory"
	classesrepo "school-sos-go/internal/repository/postgres/classes"
	credentialrepo "school-sos-go/internal/repository/postgres/credential"
	inviterepo "school-sos-go/internal/repository/postgres/invite"
	schoolrepo "school-sos-go/internal/repository/postgres/school"
	staffrepo "school-sos-go/internal/repository/postgres/staff"
	studentrepo "school-sos-go/internal/repository/postgres/student"
	redisrepo "school-sos-go/internal/repository/redis"
	"school-sos-go/pkg/logger"
)

// Services is the domain layer shared by the HTTP server and schoolctl.
type Services struct {
	Schools    *schooldomain.Service
	Staff      *staffdomain.Service
	Classes    *classesdomain.Service
	Reconciler *classesdomain.Reconciler
	Students   *studentdomain.Service
	Invites    *invitedomain.Service
	Sessions   *identity.Sessions
	// FSBlobs is set when photos are stored on local disk.
	FSBlobs *blob.FSStore
}

// NewServices wires repositories into services. redisClient may be nil, in
// which case resolved actors are cached per process.
func NewServices(cfg config.Config, gormDB *gorm.DB, redisClient *goredis.Client, log logger.Logger) (*Services, error) {
	identities, err := newIdentityProvider(cfg, gormDB)
	if err != nil {
		return nil, err
	}

	var blobs studentdomain.BlobStore
	var fsBlobs *blob.FSStore
	switch cfg.Blob.Provider {
	case "supabase":
		blobs = blob.NewSupabaseStore(blob.SupabaseConfig{
			URL:      cfg.Blob.SupabaseURL,
			Key:      cfg.Blob.SupabaseKey,
			Bucket:   cfg.Blob.SupabaseBucket,
			MaxBytes: cfg.Blob.MaxUploadBytes,
			Timeout:  cfg.Blob.Timeout,
		})
	default:
		fsBlobs, err = blob.NewFSStore(cfg.Blob.Dir, cfg.Blob.PublicURL, cfg.Blob.MaxUploadBytes)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		blobs = fsBlobs
	}

	var actorCache staffdomain.ActorCache = inmemory.NewInMemoryActorCache()
	if redisClient != nil {
		actorCache = redisrepo.NewActorCache(redisClient, log)
	}

	schools := schooldomain.NewService(schoolrepo.NewPostgres(gormDB))
	staff := staffdomain.NewService(
		staffrepo.NewPostgres(gormDB),
		identities,
		schools,
		staffdomain.WithActorCache(actorCache, cfg.Auth.RoleCacheTTL),
		staffdomain.WithLogger(log),
	)
	roster := classesrepo.NewPostgres(gormDB)

	return &Services{
		Schools:    schools,
		Staff:      staff,
		Classes:    classesdomain.NewService(roster, staff, log),
		Reconciler: classesdomain.NewReconciler(roster, staff, log),
		Students:   studentdomain.NewService(studentrepo.NewPostgres(gormDB), blobs, log),
		Invites:    invitedomain.NewService(inviterepo.NewPostgres(gormDB), schools, staff, log),
		Sessions:   identity.NewSessions(cfg.Auth.SigningSecret(), cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL),
		FSBlobs:    fsBlobs,
	}, nil
}

func newIdentityProvider(cfg config.Config, gormDB *gorm.DB) (identity.Provider, error) {
	switch cfg.Identity.Provider {
	case "local":
		return identity.NewLocalProvider(credentialrepo.NewPostgres(gormDB)), nil
	case "supabase":
		return identity.NewSupabaseProvider(identity.SupabaseConfig{
			URL:        cfg.Identity.SupabaseURL,
			AnonKey:    cfg.Identity.SupabaseAnonKey,
			ServiceKey: cfg.Identity.SupabaseServiceKey,
			Timeout:    cfg.Identity.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Identity.Provider)
	}
}
