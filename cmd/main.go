package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/config"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/engine"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/handler"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/repository"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/scheduler"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer closeDatabase(db)

	if err := migrate(db); err != nil {
		logger.Fatal("Failed to migrate schema:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.New(ctx, db, cfg.Engine)
	if err != nil {
		logger.Fatal("Failed to initialize engine:", err)
	}

	refreshScheduler := scheduler.NewRefreshScheduler(eng, cfg.Engine)
	if err := refreshScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler:", err)
	}
	defer refreshScheduler.Stop()

	router := setupHTTPRouter(db, eng, refreshScheduler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting on port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error:", err)
	}

	logger.Info("Server stopped")
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// TranslateError maps driver duplicate-key errors onto
	// gorm.ErrDuplicatedKey, which the ledger relies on to reject
	// double-recorded attendance.
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get database instance:", err)
		return
	}
	sqlDB.Close()
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Raid{},
		&models.RaidEvent{},
		&models.RaidEventAttendance{},
		&models.RaidLoot{},
		&models.CharacterAccount{},
		&models.DKPAdjustment{},
		&models.DKPSummary{},
		&models.AccountSummary{},
		&models.RaidDKPTotal{},
		&models.RaidAttendanceDKP{},
		&models.DKPPeriodTotal{},
		&models.EngineState{},
	)
}

func setupHTTPRouter(db *gorm.DB, eng *engine.Engine, sched *scheduler.RefreshScheduler) http.Handler {
	router := http.NewServeMux()

	summaryHandler := handler.NewSummaryHandler(repository.NewSummaryRepository(db), repository.NewAccountRepository(db))
	totalsHandler := handler.NewTotalsHandler(repository.NewRaidTotalsRepository(db), repository.NewPeriodRepository(db))
	recomputeHandler := handler.NewRecomputeHandler(eng, sched)
	bulkLoadHandler := handler.NewBulkLoadHandler(eng)

	router.HandleFunc("/api/summary/", summaryHandler.GetSummary)
	router.HandleFunc("/api/summary/list", summaryHandler.ListSummaries)
	router.HandleFunc("/api/accounts/list", summaryHandler.ListAccounts)
	router.HandleFunc("/api/raids/", totalsHandler.GetRaidTotals)
	router.HandleFunc("/api/periods", totalsHandler.GetPeriodTotals)
	router.HandleFunc("/api/recompute", recomputeHandler.TriggerRecompute)
	router.HandleFunc("/api/recompute/raid", recomputeHandler.TriggerScopedRecompute)
	router.HandleFunc("/api/bulkload/state", bulkLoadHandler.GetState)
	router.HandleFunc("/api/bulkload/begin", bulkLoadHandler.Begin)
	router.HandleFunc("/api/bulkload/end", bulkLoadHandler.End)
	router.HandleFunc("/health", handler.HandleHealth)

	return router
}
