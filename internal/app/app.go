package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"school-sos-go/internal/config"
	"school-sos-go/internal/db"
	"school-sos-go/internal/jobs"
	"school-sos-go/internal/metrics"
	"school-sos-go/internal/transport/httpserver"
	"school-sos-go/internal/transport/httpserver/handler"
	classeshandler "school-sos-go/internal/transport/httpserver/handler/classes"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
	schoolshandler "school-sos-go/internal/transport/httpserver/handler/schools"
	staffhandler "school-sos-go/internal/transport/httpserver/handler/staff"
	studentshandler "school-sos-go/internal/transport/httpserver/handler/students"
	authmw "school-sos-go/internal/transport/httpserver/middleware"
	"school-sos-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	redis      *goredis.Client
	services   *Services
	metrics    *metrics.Metrics
	jobs       []*sync.WaitGroup
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	core, err := NewCore(cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing router")
	m := metrics.New()
	router := NewHandler(cfg, core.Services, m, log)

	log.Info("app: initializing http server")
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpserver.New(cfg, router),
		db:         core.DB,
		redis:      core.Redis,
		services:   core.Services,
		metrics:    m,
	}, nil
}

// NewHandler builds the HTTP router on top of the domain services. m may
// be nil.
func NewHandler(cfg config.Config, services *Services, m *metrics.Metrics, log logger.Logger) http.Handler {
	handlers := handler.New(
		commonhandler.New(services.Staff, services.Schools, services.Sessions, cfg.Auth.CookieSecure, log),
		schoolshandler.New(services.Schools, services.Staff, services.Invites, services.Reconciler, services.Students, cfg.PublicBaseURL, log),
		staffhandler.New(services.Staff, services.Classes, log),
		classeshandler.New(services.Classes, services.Students, log),
		studentshandler.New(services.Students, cfg.Blob.MaxUploadBytes, log),
	)
	deps := httpserver.RouterDeps{
		Handlers: handlers,
		Auth:     authmw.NewAuth(services.Sessions, services.Staff, log),
		Metrics:  m,
	}
	if services.FSBlobs != nil {
		deps.Files = services.FSBlobs.Handler()
	}
	return httpserver.NewRouter(cfg, deps, log)
}

// Core is the database, cache and domain layer without any transport.
type Core struct {
	DB       *gorm.DB
	Redis    *goredis.Client
	Services *Services
}

func NewCore(cfg config.Config, log logger.Logger) (*Core, error) {
	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(dbConn, log); err != nil {
			_ = db.Close(dbConn)
			return nil, err
		}
	}

	redisClient, err := newRedis(cfg.Redis, log)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}

	services, err := NewServices(cfg, dbConn, redisClient, log)
	if err != nil {
		_ = db.Close(dbConn)
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	return &Core{DB: dbConn, Redis: redisClient, Services: services}, nil
}

func (c *Core) Close() error {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	return db.Close(c.DB)
}

func newRedis(cfg config.RedisConfig, log logger.Logger) (*goredis.Client, error) {
	if cfg.Addr == "" {
		log.Info("app: redis not configured, caching actors in memory")
		return nil, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("app: redis connected", "addr", cfg.Addr)
	return client, nil
}

// StartBackground launches periodic jobs bound to ctx.
func (a *App) StartBackground(ctx context.Context) {
	a.jobs = append(a.jobs, jobs.StartReconcileJob(ctx, a.cfg.Reconcile, a.services.Reconciler, a.metrics, a.log))
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	for _, wg := range a.jobs {
		wg.Wait()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("app: redis close failed", "err", err)
		}
	}
	if a.db == nil {
		return nil
	}
	return db.Close(a.db)
}
