package app

import "github.com/avdeyev/pingroom/internal/domain"

// Wire event names. These are the compatibility contract with existing
// clients and must not be renamed.
const (
	EventRoomCreated  = "room-created"
	EventRoomNotFound = "room-not-found"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventBestPing     = "best-ping"
	EventPingStarted  = "ping-started"
	EventPingUpdated  = "ping-updated"
	EventError        = "error"
)

// Sender delivers one event to one attached connection. Implemented by the
// signal adapter; delivery to a connection that is already gone is a silent
// no-op.
type Sender interface {
	Send(sid domain.SessionID, event string, payload any)
}

// RoomView is the full room snapshot sent back to a room creator.
type RoomView struct {
	RoomID      string   `json:"roomId"`
	OwnerID     string   `json:"ownerId"`
	Members     []string `json:"members"`
	MemberCount int      `json:"memberCount"`
}

// JoinView is the membership snapshot broadcast on a successful join.
type JoinView struct {
	RoomID      string   `json:"roomId"`
	Members     []string `json:"members"`
	MemberCount int      `json:"memberCount"`
}

type ErrorView struct {
	Error string `json:"error"`
}

// RoomSummary backs the live room listing on the REST surface.
type RoomSummary struct {
	RoomID      string   `json:"roomId"`
	OwnerID     string   `json:"ownerId"`
	Members     []string `json:"members"`
	MemberCount int      `json:"memberCount"`
}

func memberIDs(room *domain.Room) []string {
	members := room.Members()
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = string(m)
	}
	return out
}

func roomView(room *domain.Room) RoomView {
	return RoomView{
		RoomID:      string(room.ID),
		OwnerID:     string(room.OwnerID),
		Members:     memberIDs(room),
		MemberCount: room.MemberCount(),
	}
}

func joinView(room *domain.Room) JoinView {
	return JoinView{
		RoomID:      string(room.ID),
		Members:     memberIDs(room),
		MemberCount: room.MemberCount(),
	}
}
