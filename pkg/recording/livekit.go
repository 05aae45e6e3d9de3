package recording

import (
	"context"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// LiveKitEgress adapts the LiveKit egress client to EgressAPI.
type LiveKitEgress struct {
	client *lksdk.EgressClient
}

func NewLiveKitEgress(url, apiKey, apiSecret string) *LiveKitEgress {
	return &LiveKitEgress{client: lksdk.NewEgressClient(url, apiKey, apiSecret)}
}

func (e *LiveKitEgress) ListEgress(ctx context.Context, roomName string) ([]*livekit.EgressInfo, error) {
	res, err := e.client.ListEgress(ctx, &livekit.ListEgressRequest{RoomName: roomName})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (e *LiveKitEgress) StartRoomComposite(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error) {
	return e.client.StartRoomCompositeEgress(ctx, req)
}

func (e *LiveKitEgress) StopEgress(ctx context.Context, egressID string) (*livekit.EgressInfo, error) {
	return e.client.StopEgress(ctx, &livekit.StopEgressRequest{EgressId: egressID})
}

// LiveKitRooms adapts the LiveKit room service client to RoomAPI.
type LiveKitRooms struct {
	client *lksdk.RoomServiceClient
}

func NewLiveKitRooms(url, apiKey, apiSecret string) *LiveKitRooms {
	return &LiveKitRooms{client: lksdk.NewRoomServiceClient(url, apiKey, apiSecret)}
}

func (r *LiveKitRooms) ListParticipants(ctx context.Context, roomName string) ([]*livekit.ParticipantInfo, error) {
	res, err := r.client.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: roomName})
	if err != nil {
		return nil, err
	}
	return res.Participants, nil
}
