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

	"github.com/cmlabs-hris/resto-payroll/internal/config"
	appHTTP "github.com/cmlabs-hris/resto-payroll/internal/handler/http"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/logger"
	"github.com/cmlabs-hris/resto-payroll/internal/repository/postgresql"
	adjustmentService "github.com/cmlabs-hris/resto-payroll/internal/service/adjustment"
	attendanceService "github.com/cmlabs-hris/resto-payroll/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/resto-payroll/internal/service/employee"
	payrollService "github.com/cmlabs-hris/resto-payroll/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.Env)
	slog.SetDefault(log)

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	loc := cfg.Location()
	transactor := postgresql.NewTransactor(db)

	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	adjustmentRepo := postgresql.NewAdjustmentRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	paymentRepo := postgresql.NewPaymentRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo)
	adjustmentSvc := adjustmentService.NewAdjustmentService(transactor, adjustmentRepo, employeeRepo, loc)
	payrollSvc := payrollService.NewPayrollService(
		transactor,
		payrollRepo,
		paymentRepo,
		employeeRepo,
		adjustmentRepo,
		attendanceSvc,
		payrollService.Config{
			Location:           loc,
			ComputeConcurrency: cfg.Payroll.ComputeConcurrency,
		},
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Logger:         log,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		db,
		appHTTP.Handlers{
			Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
			Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
			Payment:    appHTTP.NewPaymentHandler(payrollSvc, loc),
			Adjustment: appHTTP.NewAdjustmentHandler(adjustmentSvc),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server started", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
