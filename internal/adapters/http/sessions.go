package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/app"
	"github.com/recapcall/signal-server/internal/domain"
)

type SessionController struct {
	Sessions *app.SessionService
}

type sessionCreateRequest struct {
	RoomName     string   `json:"roomName" binding:"required"`
	Participants []string `json:"participants" binding:"required"`
}

type sessionStatusRequest struct {
	RoomName string `json:"roomName" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

func (ctl *SessionController) Create(c *gin.Context) {
	var req sessionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session request"})
		return
	}
	sess := ctl.Sessions.Create(domain.RoomName(req.RoomName), req.Participants)
	c.JSON(http.StatusOK, sess)
}

func (ctl *SessionController) UpdateStatus(c *gin.Context) {
	var req sessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status request"})
		return
	}
	status, err := domain.ValidSessionStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Sessions.UpdateStatus(domain.RoomName(req.RoomName), status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (ctl *SessionController) Status(c *gin.Context) {
	status, err := ctl.Sessions.Status(domain.RoomName(c.Param("roomName")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (ctl *SessionController) Recap(c *gin.Context) {
	recap, err := ctl.Sessions.Recap(c.Request.Context(), domain.RoomName(c.Param("roomName")))
	if err != nil {
		if errors.Is(err, app.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Str("room", c.Param("roomName")).Msg("recap lookup")
		c.JSON(http.StatusBadGateway, gin.H{"error": "recap lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recap": recap})
}
