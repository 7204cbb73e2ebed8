package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/adapters/livekit"
	"github.com/recapcall/signal-server/internal/domain"
	"github.com/recapcall/signal-server/internal/egress"
)

type TokenController struct {
	LiveKit *livekit.Client
	Egress  *egress.Manager
}

type tokenRequest struct {
	Name     string `json:"name" binding:"required"`
	Identity string `json:"identity" binding:"required"`
	Metadata string `json:"metadata" binding:"required"`
	RoomName string `json:"roomName" binding:"required"`
}

// CreateJoinToken provisions the media room, starts (or retargets) its
// capture cycle and hands the client a signed join token.
func (ctl *TokenController) CreateJoinToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token request"})
		return
	}
	room := domain.RoomName(req.RoomName)

	if err := ctl.LiveKit.CreateRoom(c.Request.Context(), room); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", req.RoomName).Msg("create room")
		c.JSON(http.StatusBadGateway, gin.H{"error": "room creation failed"})
		return
	}

	ctl.Egress.Start(room, req.Identity)

	token, err := ctl.LiveKit.MintJoinToken(req.Name, req.Identity, req.Metadata, room)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", req.RoomName).Msg("mint token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token minting failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity": req.Identity,
		"token":    token,
	})
}
