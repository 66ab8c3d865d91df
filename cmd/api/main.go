package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/repository/postgresql"
	accessLogService "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/service/accesslog"
	attendanceService "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/service/auth"
	employeeService "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/service/employee"
	scheduleService "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/service/schedule"
)

const (
	shutdownTimeout   = 15 * time.Second
	requestTimeout    = 30 * time.Second
	staleJobTimeout   = 2 * time.Minute
	dbConnectTimeout  = 10 * time.Second
	dbConnMaxLifetime = time.Hour
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := appHTTP.NewLogger(cfg.App.Env, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	db, err := database.NewPostgreSQLDB(connectCtx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: dbConnMaxLifetime,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	accessLogRepo := postgresql.NewAccessLogRepository(db)
	managerRepo := postgresql.NewManagerRepository(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}

	// The engine and the stale closer share one lock table so a closing job
	// never races a live scan for the same employee.
	locks := keylock.New()
	engineCfg := attendanceService.EngineConfig{
		Location:         cfg.Attendance.Location,
		LateGraceMinutes: cfg.Attendance.LateGraceMinutes,
		MaxSessionAge:    cfg.Attendance.MaxSessionAge,
		OperationTimeout: cfg.Attendance.OperationTimeout,
		ConflictRetries:  cfg.Attendance.ConflictRetries,
	}
	engine := attendanceService.NewSessionEngine(attendanceRepo, employeeRepo, scheduleRepo, locks, engineCfg)
	staleCloser := attendanceService.NewStaleSessionCloser(attendanceRepo, employeeRepo, scheduleRepo, locks, engineCfg)

	authService := serviceAuth.NewAuthService(managerRepo, JWTService)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo)
	accessLogSvc := accessLogService.NewAccessLogService(accessLogRepo)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo, scheduleRepo, postgresql.NewTransactor(db))
	scheduleSvc := scheduleService.NewScheduleService(scheduleRepo, employeeRepo)

	scanFeed := sse.NewHub()

	router := appHTTP.NewRouter(logger, appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		LogLevel:       level,
		RequestTimeout: requestTimeout,
	}, JWTService, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(authService),
		Attendance: appHTTP.NewAttendanceHandler(engine, attendanceSvc, accessLogSvc, scanFeed),
		AccessLog:  appHTTP.NewAccessLogHandler(accessLogSvc),
		Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
		Schedule:   appHTTP.NewScheduleHandler(scheduleSvc),
	})

	scheduler := cron.NewScheduler(logger)
	cron.NewAttendanceJobs(staleCloser, cfg.Attendance.StaleJobInterval, staleJobTimeout, logger).RegisterJobs(scheduler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(scanFeed.Close)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server running", "addr", server.Addr, "timezone", cfg.Attendance.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
