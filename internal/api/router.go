package api

import (
	"net/http"
	"os"
	"path/filepath"

	"whatsapp-relay/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Store      *store.Store
	Session    SessionControl
	Dispatcher Dispatcher
	// Events serves GET /ws. Optional.
	Events    http.HandlerFunc
	UploadDir string
	PublicDir string
	Log       zerolog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log.With().Str("component", "http").Logger()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), corsMiddleware())

	dashboardHandler := NewDashboardHandler(cfg.Session, cfg.Dispatcher)
	broadcastHandler := NewBroadcastHandler(cfg.Dispatcher, cfg.UploadDir, log)
	whatsappHandler := NewWhatsAppHandler(cfg.Session, cfg.Events)

	r.GET("/status", dashboardHandler.GetStatus)
	r.GET("/health", dashboardHandler.Health)

	r.POST("/send-message", broadcastHandler.SendMessage)
	r.POST("/send-bulk-template", broadcastHandler.SendBulkTemplate)
	r.POST("/demo-message", broadcastHandler.DemoMessage)

	r.POST("/session/restart", whatsappHandler.RestartSession)
	r.GET("/ws", whatsappHandler.StreamEvents)

	apiGroup := r.Group("/api")
	{
		NewTemplateHandler(cfg.Store.Templates).register(apiGroup.Group("/templates"))
		NewContactHandler(cfg.Store.Contacts).register(apiGroup.Group("/contacts"))
		NewGroupHandler(cfg.Store.Groups).register(apiGroup.Group("/groups"))
	}

	if cfg.PublicDir != "" {
		if info, err := os.Stat(cfg.PublicDir); err == nil && info.IsDir() {
			r.Static("/public", cfg.PublicDir)
			index := filepath.Join(cfg.PublicDir, "index.html")
			if _, err := os.Stat(index); err == nil {
				r.StaticFile("/", index)
			}
		}
	}

	return r
}
