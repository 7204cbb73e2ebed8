package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/adapters/signal"
	"github.com/recapcall/signal-server/internal/config"
	"github.com/recapcall/signal-server/internal/core"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type Controllers struct {
	Signal   *signal.SignalWSController
	Token    *TokenController
	Votes    *VoteController
	Sessions *SessionController
	Rooms    *core.RoomRegistry
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl Controllers) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RecapSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws signal endpoint hit")
		ctl.Signal.HandleSignal(ctx, c)
	})

	r.POST("/livekit/token", ctl.Token.CreateJoinToken)

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(200, ctl.Rooms.List())
	})

	votes := api.Group("/votes")
	votes.POST("/start", ctl.Votes.Start)
	votes.POST("/cast", ctl.Votes.Cast)
	votes.POST("/:id/close", ctl.Votes.Close)
	votes.GET("/room/:roomName", ctl.Votes.ByRoom)

	sess := api.Group("/sessions")
	sess.POST("", ctl.Sessions.Create)
	sess.PATCH("/status", ctl.Sessions.UpdateStatus)
	sess.GET("/:roomName/status", ctl.Sessions.Status)
	sess.GET("/:roomName/recap", ctl.Sessions.Recap)

	return r
}
