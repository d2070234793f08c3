package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantumexchange8/bankofgold/internal/db"
	"github.com/quantumexchange8/bankofgold/internal/dedupe"
	"github.com/quantumexchange8/bankofgold/internal/handlers"
	"github.com/quantumexchange8/bankofgold/internal/jobs"
	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/middleware"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/server"
	"github.com/quantumexchange8/bankofgold/internal/services"
	"github.com/quantumexchange8/bankofgold/internal/sse"
	"github.com/quantumexchange8/bankofgold/internal/utils"

	redisclient "github.com/quantumexchange8/bankofgold/internal/clients/redis"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	leadRepo := repos.NewLeadRepo(thePG, log)
	importRunRepo := repos.NewImportRunRepo(thePG, log)
	duplicateRecordRepo := repos.NewDuplicateRecordRepo(thePG, log)
	duplicateLinkRepo := repos.NewDuplicateLinkRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)
	sseBus, err := redisclient.NewSSEBus(log)
	if err != nil {
		log.Warn("Redis bus unavailable, events stay in-process", "error", err)
		sseBus = nil
	}
	if sseBus != nil {
		if err := sseBus.StartForwarder(ctx, sseHub.Broadcast); err != nil {
			log.Warn("Redis forwarder failed to start", "error", err)
		}
	}

	// Dedupe engine
	groupsFile := utils.GetEnv("DEDUPE_GROUPS_FILE", "", log)
	dedupeCfg, err := dedupe.LoadConfig(groupsFile)
	if err != nil {
		log.Error("Could not load field group config", "path", groupsFile, "error", err)
		os.Exit(1)
	}
	engine, err := dedupe.NewEngine(thePG, log, dedupeCfg, leadRepo, duplicateRecordRepo, duplicateLinkRepo)
	if err != nil {
		log.Error("Could not init dedupe engine", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	notifier := services.NewImportNotifier(log, sseHub, sseBus)
	spoolDir := utils.GetEnv("IMPORT_SPOOL_DIR", "/tmp/bankofgold/imports", log)
	importService := services.NewImportService(thePG, log, importRunRepo, notifier, spoolDir)
	duplicateService := services.NewDuplicateService(log, duplicateRecordRepo, duplicateLinkRepo)
	leadService := services.NewLeadService(thePG, log, leadRepo, duplicateRecordRepo, duplicateLinkRepo)

	// Worker
	importJob := jobs.NewImportJob(log, engine, importRunRepo, notifier, utils.GetEnvAsInt("IMPORT_MAX_ATTEMPTS", jobs.DefaultMaxAttempts, log))
	worker := jobs.NewWorker(thePG, log, importRunRepo, importJob)
	worker.Start(ctx)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:   middleware.NewAuthMiddleware(log),
		ImportHandler:    handlers.NewImportHandler(log, importService),
		DuplicateHandler: handlers.NewDuplicateHandler(log, duplicateService),
		LeadHandler:      handlers.NewLeadHandler(log, leadService),
		SSEHandler:       handlers.NewSSEHandler(log, sseHub),
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if sseBus != nil {
			_ = sseBus.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
