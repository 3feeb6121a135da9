package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/garnizeh/intake/internal/config"
	"github.com/garnizeh/intake/internal/content"
	"github.com/garnizeh/intake/internal/intake"
	"github.com/garnizeh/intake/internal/lifecycle"
	"github.com/garnizeh/intake/internal/ratelimit"
	"github.com/garnizeh/intake/pkg/repository"
	"github.com/gorilla/mux"
)

// Store is the full Persistence Gateway the HTTP layer is wired to.
type Store interface {
	repository.QuoteRepo
	repository.JobListingRepo
	repository.ApplicationRepo
	repository.ContactRepo
	repository.UploadRepo
	repository.UserRepo
	repository.SettingRepo
	repository.ServiceRepo
	repository.ProjectRepo
}

// Deps are the collaborators SetupRoutes wires together. Limiter may be
// nil to disable throttling of public submissions.
type Deps struct {
	Config    *config.Config
	Version   string
	BuildTime string
	Store     Store
	Intake    *intake.Service
	Limiter   *ratelimit.Limiter
	// Ping backs the health check; nil reports healthy unconditionally.
	Ping func(ctx context.Context) error
}

func SetupRoutes(d Deps) *mux.Router {
	r := mux.NewRouter()
	cfg := d.Config

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	lm := lifecycle.NewManager(d.Store, logger)
	cs := content.New(d.Store, logger)

	// Create handlers
	systemHandler := &SystemHandler{Ping: d.Ping}
	authHandler := NewAuthHandler(d.Store, cfg.JWTSecret, cfg.TokenDuration)
	intakeHandler := NewIntakeHandler(d.Intake, cfg.Upload.MaxBytes)
	publicHandler := NewPublicHandler(cs)
	adminHandler := NewAdminHandler(d.Store, lm, cs)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(d.Version, d.BuildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", blobFiles(cfg.Upload.Dir))).Methods("GET", "HEAD")

	pub := r.PathPrefix("/v1").Subrouter()
	pub.HandleFunc("/jobs", publicHandler.ListJobs).Methods("GET")
	pub.HandleFunc("/jobs/{id}", publicHandler.GetJob).Methods("GET")
	pub.HandleFunc("/services", publicHandler.ListServices).Methods("GET")
	pub.HandleFunc("/projects", publicHandler.ListProjects).Methods("GET")
	pub.HandleFunc("/settings", publicHandler.Settings).Methods("GET")

	// Public submissions share one throttle per client
	submit := r.PathPrefix("/v1").Subrouter()
	if d.Limiter != nil {
		submit.Use(d.Limiter.Middleware(ratelimit.ClientIP(cfg.RateLimit.TrustProxy)))
	}
	submit.HandleFunc("/uploads", intakeHandler.Upload).Methods("POST")
	submit.HandleFunc("/quote-requests", intakeHandler.SubmitQuote).Methods("POST")
	submit.HandleFunc("/applications", intakeHandler.SubmitApplication).Methods("POST")
	submit.HandleFunc("/contact", intakeHandler.SubmitContact).Methods("POST")
	submit.HandleFunc("/auth/signin", authHandler.Signin).Methods("POST")

	// Staff routes
	admin := r.PathPrefix("/v1/admin").Subrouter()
	admin.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	admin.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")

	admin.HandleFunc("/quote-requests", adminHandler.ListQuotes).Methods("GET")
	admin.HandleFunc("/quote-requests/{id}", adminHandler.GetQuote).Methods("GET")
	admin.HandleFunc("/quote-requests/{id}/status", adminHandler.TransitionQuote).Methods("POST")

	admin.HandleFunc("/jobs", adminHandler.CreateJob).Methods("POST")
	admin.HandleFunc("/jobs", adminHandler.ListJobs).Methods("GET")
	admin.HandleFunc("/jobs/{id}", adminHandler.GetJob).Methods("GET")
	admin.HandleFunc("/jobs/{id}", adminHandler.UpdateJob).Methods("PUT")
	admin.HandleFunc("/jobs/{id}", adminHandler.DeleteJob).Methods("DELETE")
	admin.HandleFunc("/jobs/{id}/status", adminHandler.TransitionJob).Methods("POST")

	admin.HandleFunc("/applications", adminHandler.ListApplications).Methods("GET")
	admin.HandleFunc("/applications/{id}", adminHandler.GetApplication).Methods("GET")
	admin.HandleFunc("/applications/{id}/status", adminHandler.TransitionApplication).Methods("POST")
	admin.HandleFunc("/applications/{id}/notes", adminHandler.UpdateNotes).Methods("PUT")

	admin.HandleFunc("/contact-messages", adminHandler.ListContactMessages).Methods("GET")
	admin.HandleFunc("/contact-messages/{id}", adminHandler.GetContactMessage).Methods("GET")

	admin.HandleFunc("/services", adminHandler.CreateService).Methods("POST")
	admin.HandleFunc("/services", adminHandler.ListServices).Methods("GET")
	admin.HandleFunc("/services/{id}", adminHandler.UpdateService).Methods("PUT")
	admin.HandleFunc("/services/{id}", adminHandler.DeleteService).Methods("DELETE")

	admin.HandleFunc("/projects", adminHandler.CreateProject).Methods("POST")
	admin.HandleFunc("/projects", adminHandler.ListProjects).Methods("GET")
	admin.HandleFunc("/projects/{id}", adminHandler.UpdateProject).Methods("PUT")
	admin.HandleFunc("/projects/{id}", adminHandler.DeleteProject).Methods("DELETE")

	admin.HandleFunc("/settings/{key}", adminHandler.PutSetting).Methods("PUT")

	return r
}

// blobFiles serves stored uploads without directory listings.
func blobFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fs.ServeHTTP(w, r)
	})
}
