package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"school-sos-go/internal/config"
	"school-sos-go/internal/metrics"
	"school-sos-go/internal/transport/httpserver/handler"
	authmw "school-sos-go/internal/transport/httpserver/middleware"
	"school-sos-go/pkg/logger"
)

type RouterDeps struct {
	Handlers *handler.Handlers
	Auth     *authmw.Auth
	Metrics  *metrics.Metrics
	// Files serves locally stored blobs; nil when blobs live elsewhere.
	Files http.Handler
}

func NewRouter(cfg config.Config, deps RouterDeps, log logger.Logger) http.Handler {
	handlers := deps.Handlers

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(authmw.NewCORS(cfg.AllowedOrigins))

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	if deps.Files != nil {
		r.Handle("/files/*", http.StripPrefix("/files/", deps.Files))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/health", handlers.Common.Health)
		r.Post("/auth/login", handlers.Common.Login)
		r.Post("/auth/logout", handlers.Common.Logout)

		r.Get("/public/students/{slug}", handlers.Students.PublicProfile)
		r.Get("/invites/{token}", handlers.Schools.VerifyInvite)
		r.Post("/invites/{token}/redeem", handlers.Schools.RedeemInvite)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/schools", handlers.Schools.ListSchools)
			r.Post("/schools", handlers.Schools.CreateSchool)
			r.Get("/schools/{id}", handlers.Schools.GetSchool)
			r.Patch("/schools/{id}", handlers.Schools.UpdateSchool)
			r.Get("/schools/{id}/stats", handlers.Schools.SchoolStats)
			r.Post("/schools/{id}/admins", handlers.Schools.CreateAdmin)
			r.Get("/schools/{id}/invites", handlers.Schools.ListInvites)
			r.Post("/schools/{id}/invites", handlers.Schools.CreateInvite)

			r.Post("/admin/reconcile", handlers.Schools.Reconcile)
			r.Post("/admin/backfill-slugs", handlers.Schools.BackfillSlugs)

			r.Get("/staff", handlers.Staff.ListStaff)
			r.Post("/staff/teachers", handlers.Staff.CreateTeacher)
			r.Get("/staff/{id}", handlers.Staff.GetStaff)
			r.Patch("/staff/{id}", handlers.Staff.UpdateStaff)
			r.Delete("/staff/{id}", handlers.Staff.DeleteStaff)
			r.Put("/staff/{id}/classes", handlers.Staff.AssignClasses)

			r.Get("/classes", handlers.Classes.ListClasses)
			r.Post("/classes", handlers.Classes.CreateClass)
			r.Get("/classes/{id}", handlers.Classes.GetClass)
			r.Patch("/classes/{id}", handlers.Classes.UpdateClass)
			r.Delete("/classes/{id}", handlers.Classes.DeleteClass)
			r.Get("/classes/{id}/students", handlers.Classes.ListClassStudents)

			r.Get("/students", handlers.Students.ListStudents)
			r.Post("/students", handlers.Students.CreateStudent)
			r.Get("/students/{id}", handlers.Students.GetStudent)
			r.Patch("/students/{id}", handlers.Students.UpdateStudent)
			r.Delete("/students/{id}", handlers.Students.DeleteStudent)
			r.Patch("/students/{id}/records", handlers.Students.UpdateRecords)
			r.Put("/students/{id}/photo", handlers.Students.UploadPhoto)
		})
	})

	return r
}
