package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/resto-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

type Handlers struct {
	Employee   EmployeeHandler
	Payroll    PayrollHandler
	Payment    PaymentHandler
	Adjustment AdjustmentHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, db Pinger, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			response.ServiceUnavailable(w, "Database unavailable")
			return
		}
		response.Success(w, map[string]string{"status": "ready"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)

		r.Get("/employees", h.Employee.ListActive)

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/compute", h.Payroll.Compute)
			r.Post("/compute-all", h.Payroll.ComputeAll)
			r.Post("/", h.Payroll.Save)
			r.Get("/unpaid", h.Payroll.ListUnpaid)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Payroll.GetRecord)
				r.Post("/pay", h.Payroll.Pay)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.Payment.List)
			r.Get("/export", h.Payment.ExportCSV)
		})

		r.Route("/adjustments", func(r chi.Router) {
			r.Get("/", h.Adjustment.List)
			r.Get("/pending", h.Adjustment.ListPending)
			r.Post("/{category}", h.Adjustment.Create)
		})
	})
	return r
}
