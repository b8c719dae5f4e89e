package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/pingroom/internal/adapters/signal"
	"github.com/avdeyev/pingroom/internal/app"
	"github.com/avdeyev/pingroom/internal/catalog"
	"github.com/avdeyev/pingroom/internal/config"
	"github.com/avdeyev/pingroom/internal/domain"
)

// ClientTokenMiddleware assigns every browser a stable uuid token; the token
// doubles as the WebSocket session identity.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	ctl *signal.Controller,
	coord *app.Coordinator,
	cat *catalog.Catalog,
	metrics *prometheus.Registry,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PingroomSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})
	api.GET("/servers", func(c *gin.Context) {
		c.JSON(http.StatusOK, cat.Servers())
	})
	api.GET("/servers/:name", func(c *gin.Context) {
		server, ok := cat.Lookup(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusOK, server)
	})
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.Rooms())
	})
	api.GET("/rooms/:id", func(c *gin.Context) {
		summary, ok := coord.RoomInfo(domain.RoomID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	log.Info().Str("module", "adapters.http").Int("servers", cat.Len()).Msg("router setup")
	return r
}
