package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/codepad-io/codepad-server/internal/config"
	"github.com/codepad-io/codepad-server/internal/core"
	"github.com/codepad-io/codepad-server/internal/runner"
	"github.com/codepad-io/codepad-server/internal/store"
)

// NewServer builds the HTTP server: room management endpoints, the
// websocket upgrade, run history, health and metrics.
func NewServer(reg *core.Registry, run *runner.Runner, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	rooms := NewRoomHandlers(reg, st, logger)
	router.POST("/create-room", rooms.CreateRoom)
	router.GET("/join-room/:room_id", rooms.JoinRoom)
	router.GET("/api/rooms/:room_id/runs", rooms.ListRuns)

	ws := NewWSHandler(reg, run, st, cfg.MaxMessageBytes, logger)
	router.GET("/ws/:room_id", ws.Serve)

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
