package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-relay/internal/api"
	"whatsapp-relay/internal/config"
	"whatsapp-relay/internal/database"
	"whatsapp-relay/internal/dispatch"
	"whatsapp-relay/internal/logging"
	"whatsapp-relay/internal/qr"
	"whatsapp-relay/internal/session"
	"whatsapp-relay/internal/store"
	"whatsapp-relay/internal/whatsapp"
	"whatsapp-relay/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fallback := logging.New("info", "console")
		fallback.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenMemory(log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	if cfg.SeedData {
		if err := database.Seed(db, time.Now()); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed record store")
		}
	}
	records := store.New(db, nil)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	manager := session.NewManager(whatsapp.Factory(cfg, log), qr.NewRenderer(), hub, log)
	engine := dispatch.NewEngine(manager, records.Templates, hub, dispatch.Options{
		Interval:  cfg.SendInterval,
		DemoDelay: cfg.DemoDelay,
	}, log)

	router := api.NewRouter(api.RouterConfig{
		Store:      records,
		Session:    manager,
		Dispatcher: engine,
		Events:     hub.ServeWs,
		UploadDir:  cfg.UploadDir,
		PublicDir:  cfg.PublicDir,
		Log:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to run server")
		}
	}()

	// The session comes up after the listener so the UI can show its progress.
	initTimer := time.AfterFunc(cfg.InitDelay, func() {
		if err := manager.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("WhatsApp session unavailable, serving in demo mode")
		}
	})

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	initTimer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown did not complete")
	}
	if err := manager.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close WhatsApp session")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
