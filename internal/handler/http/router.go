package http

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/jwt"
)

type RouterOptions struct {
	AllowedOrigins []string
	LogLevel       slog.Level
	RequestTimeout time.Duration
}

type Handlers struct {
	Auth       AuthHandler
	Attendance AttendanceHandler
	AccessLog  AccessLogHandler
	Employee   EmployeeHandler
	Schedule   ScheduleHandler
}

// NewLogger builds the JSON logger in ECS shape shared by request logs and
// application logs.
func NewLogger(env string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "rfid-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}

func NewRouter(logger *slog.Logger, opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Live scan feed. Long-lived, so it stays outside the request timeout.
		// EventSource cannot set headers; the token may come in the "jwt" query param.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireManager)

			r.Get("/attendance/stream", h.Attendance.Stream)
		})

		r.Group(func(r chi.Router) {
			if opts.RequestTimeout > 0 {
				r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
			}
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Route("/auth/managers", func(r chi.Router) {
				// Open while no manager exists; afterwards the caller's token
				// must belong to a manager.
				r.With(jwtauth.Verifier(JWTService.JWTAuth())).Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})

			// Badge readers post scans without a session.
			r.Post("/attendance/rfid", h.Attendance.RFIDScan)

			// Requires authentication
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
				r.Use(middleware.RequireManager)

				r.Route("/attendance", func(r chi.Router) {
					r.Post("/events", h.Attendance.RecordEvent)
					r.Route("/sessions", func(r chi.Router) {
						r.Get("/", h.Attendance.List)
						r.Get("/{id}", h.Attendance.Get)
						r.Delete("/{id}", h.Attendance.Delete)
					})
				})

				r.Get("/access-logs", h.AccessLog.List)

				r.Route("/employees", func(r chi.Router) {
					r.Get("/", h.Employee.ListEmployees)
					r.Post("/", h.Employee.CreateEmployee)
					r.Route("/{type}/{id}", func(r chi.Router) {
						r.Get("/", h.Employee.GetEmployee)
						r.Put("/", h.Employee.UpdateEmployee)
						r.Delete("/", h.Employee.DeactivateEmployee)
						r.Post("/badge", h.Employee.AssignBadge)
						r.Delete("/badge", h.Employee.UnassignBadge)
					})
				})

				r.Route("/schedules", func(r chi.Router) {
					r.Get("/", h.Schedule.List)
					r.Post("/", h.Schedule.Create)
					r.Get("/{id}", h.Schedule.Get)
					r.Put("/{id}", h.Schedule.Update)
					r.Delete("/{id}", h.Schedule.Delete)
				})
			})
		})
	})
	return r
}
