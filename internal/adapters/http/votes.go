package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recapcall/signal-server/internal/app"
	"github.com/recapcall/signal-server/internal/domain"
)

type VoteController struct {
	Votes *app.VoteService
}

type voteStartRequest struct {
	RoomName   string   `json:"roomName" binding:"required"`
	Topic      string   `json:"topic" binding:"required"`
	Options    []string `json:"options" binding:"required"`
	ProposerID string   `json:"proposerId" binding:"required"`
}

type voteCastRequest struct {
	VoteID         string `json:"voteId" binding:"required"`
	VoterID        string `json:"voterId" binding:"required"`
	SelectedOption string `json:"selectedOption" binding:"required"`
}

func (ctl *VoteController) Start(c *gin.Context) {
	var req voteStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vote request"})
		return
	}
	id, err := ctl.Votes.Start(c.Request.Context(), domain.RoomName(req.RoomName), req.Topic, req.Options, req.ProposerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"voteId": id})
}

func (ctl *VoteController) Cast(c *gin.Context) {
	var req voteCastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cast request"})
		return
	}
	if err := ctl.Votes.Cast(domain.VoteID(req.VoteID), req.VoterID, req.SelectedOption); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, app.ErrVoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

func (ctl *VoteController) Close(c *gin.Context) {
	id := domain.VoteID(c.Param("id"))
	if err := ctl.Votes.Close(c.Request.Context(), id); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, app.ErrVoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

func (ctl *VoteController) ByRoom(c *gin.Context) {
	room := domain.RoomName(c.Param("roomName"))
	c.JSON(http.StatusOK, ctl.Votes.ByRoom(room))
}
