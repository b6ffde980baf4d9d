package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/config"
	"github.com/convosphere/convosphere-server/internal/relay"
)

// NewServer builds the HTTP server: a root banner, health, the online
// listing and the websocket endpoint.
func NewServer(hub *relay.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	handlers := NewHandlers(hub)
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/api/online", handlers.Online)

	ws := NewWSHandler(hub, cfg, logger)
	router.GET("/ws", ws.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// LoggerMiddleware logs HTTP requests after they complete.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
