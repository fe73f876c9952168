package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appService "tickler/internal/application/service"
	"tickler/internal/config"
	"tickler/internal/infrastructure/database/sqlite"
	"tickler/internal/infrastructure/notify"
	"tickler/internal/interfaces/api/handler"
	"tickler/internal/interfaces/api/router"
	appLogger "tickler/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"gorm.io/gorm"
)

func gracefulShutdown(apiServer *http.Server, engine appService.Engine, gateway *notify.CronGateway, db *gorm.DB, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	// Stop the gateway first so no new events arrive, then the engine's
	// event pump.
	log.Println("Stopping notification gateway...")
	gateway.Stop()
	engine.Close()
	log.Println("Notification gateway stopped.")

	log.Println("Closing database connection...")
	if err := sqlite.CloseDB(db); err != nil {
		log.Printf("Error closing database: %v", err)
	} else {
		log.Println("Database connection closed.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {
	cfg, err := config.Load(os.Getenv("TICKLER_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := appLogger.New(cfg.Debug)
	appLog.Info("Logger initialized.")

	// --- Infrastructure ---
	db, err := sqlite.NewDB(cfg.DB.Path)
	if err != nil {
		appLog.Error("Failed to open database", err)
		os.Exit(1)
	}
	snapshotStore := sqlite.NewSnapshotStore(db, appLog)
	appLog.Info(fmt.Sprintf("Database initialized at %s", cfg.DB.Path))

	gateway := notify.NewCronGateway(cfg.Notify.Enabled, appLog)
	if !cfg.Notify.Enabled {
		appLog.Warn("Notifications disabled: reminders will be created without schedules")
	}

	// --- Engine ---
	// One engine per running app, constructed here and passed by reference;
	// no package-level singleton.
	engine := appService.NewEngine(snapshotStore, gateway, cfg.Notify.Body, appLog)
	if err := engine.Initialize(context.Background()); err != nil {
		appLog.Error("Failed to initialize engine", err)
		os.Exit(1)
	}

	// --- API Handlers & Router ---
	reminderHandler := handler.NewReminderHandler(engine, appLog)
	echoRouter := router.NewRouter(&router.Config{
		ReminderHandler: reminderHandler,
		Logger:          appLog,
	})

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     echoRouter,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// No write timeout: /reminders/events holds a long-lived SSE stream.
	}

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, engine, gateway, db, done)

	appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server ListenAndServe error", err)
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	appLog.Info("Graceful shutdown complete.")
}
