// Package livekit adapts the LiveKit server SDK to the collaborator
// interfaces the core consumes: room provisioning, join-token minting,
// data relay, participant listing and track capture.
package livekit

import (
	"context"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/domain"
)

type Client struct {
	rooms     *lksdk.RoomServiceClient
	egress    *lksdk.EgressClient
	apiKey    string
	apiSecret string
}

func New(host, apiKey, apiSecret string) *Client {
	return &Client{
		rooms:     lksdk.NewRoomServiceClient(host, apiKey, apiSecret),
		egress:    lksdk.NewEgressClient(host, apiKey, apiSecret),
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// CreateRoom provisions the room on the media server. Creating a room
// that already exists returns the existing one, so the call is idempotent.
func (c *Client) CreateRoom(ctx context.Context, room domain.RoomName) error {
	_, err := c.rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{Name: string(room)})
	if err != nil {
		return err
	}
	log.Info().Str("module", "adapters.livekit").Str("room", string(room)).Msg("room created")
	return nil
}

// MintJoinToken signs a capability token granting join on the named room.
// Signing is local; no request reaches the media server.
func (c *Client) MintJoinToken(name, identity, metadata string, room domain.RoomName) (string, error) {
	at := auth.NewAccessToken(c.apiKey, c.apiSecret).
		SetName(name).
		SetIdentity(identity).
		SetMetadata(metadata).
		SetVideoGrant(&auth.VideoGrant{RoomJoin: true, Room: string(room)})
	return at.ToJWT()
}

// SendData pushes a reliable data packet to every participant of the room.
func (c *Client) SendData(ctx context.Context, room domain.RoomName, payload []byte) error {
	_, err := c.rooms.SendData(ctx, &livekit.SendDataRequest{
		Room: string(room),
		Data: payload,
		Kind: livekit.DataPacket_RELIABLE,
	})
	return err
}
