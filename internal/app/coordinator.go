// Package app hosts the session coordinator: the single component that ties
// connection lifecycle events to room and ledger mutations and triggers the
// resulting broadcasts.
package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/pingroom/internal/core"
	"github.com/avdeyev/pingroom/internal/domain"
	"github.com/avdeyev/pingroom/internal/monitoring"
)

// Coordinator owns the room registry and the ping ledger. One mutex
// serializes every event, so no interleaving can observe a half-applied
// membership change or aggregate a room mid-teardown. Broadcasts happen
// under the same lock, after the mutation they announce.
type Coordinator struct {
	mu       sync.Mutex
	registry *core.RoomRegistry
	ledger   *core.PingLedger
	sender   Sender
	metrics  *monitoring.Metrics
}

func NewCoordinator(sender Sender, metrics *monitoring.Metrics) *Coordinator {
	return &Coordinator{
		registry: core.NewRoomRegistry(),
		ledger:   core.NewPingLedger(),
		sender:   sender,
		metrics:  metrics,
	}
}

// CreateRoom registers a room keyed by the requesting connection's id and
// answers the requester only.
func (c *Coordinator) CreateRoom(sid domain.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.registry.CreateRoom(sid)
	if err != nil {
		log.Warn().Str("module", "app.coordinator").Str("sid", string(sid)).Err(err).Msg("create room rejected")
		c.sendError(sid, err)
		return
	}
	if c.metrics != nil {
		c.metrics.LiveRooms.Inc()
	}
	log.Info().Str("module", "app.coordinator").Str("room", string(room.ID)).Msg("room created")
	c.sender.Send(sid, EventRoomCreated, roomView(room))
}

// JoinRoom adds the connection to an existing room and announces the new
// membership to every member, the joiner included.
func (c *Coordinator) JoinRoom(sid domain.SessionID, roomID domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.registry.JoinRoom(roomID, sid)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("join to missing room")
		c.sender.Send(sid, EventRoomNotFound, string(roomID))
		return
	case err != nil:
		log.Warn().Str("module", "app.coordinator").Str("sid", string(sid)).Err(err).Msg("join rejected")
		c.sendError(sid, err)
		return
	}

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(room.ID)).Int("members", room.MemberCount()).Msg("member joined")
	view := joinView(room)
	for _, member := range room.Members() {
		c.sender.Send(member, EventUserJoined, view)
	}
}

// ReportPings replaces the member's ledger entry with a fresh snapshot of
// its measurements. Reports from connections outside any room are ignored.
func (c *Coordinator) ReportPings(sid domain.SessionID, samples []domain.LatencySample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.registry.LookupRoom(sid)
	if !ok {
		log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Msg("ping report from roomless connection ignored")
		return
	}
	c.ledger.Record(room.ID, sid, samples)
	log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(room.ID)).Int("samples", len(samples)).Msg("ping report recorded")
}

// BestPing aggregates the room's current ledger and broadcasts the ranking
// to every member. Entries retained for connections that have since left the
// room are excluded from both the sums and the divisor.
func (c *Coordinator) BestPing(sid domain.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.registry.LookupRoom(sid)
	if !ok {
		log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Msg("best-ping request from roomless connection ignored")
		return
	}

	snapshot := c.ledger.Snapshot(room.ID)
	reports := make([]core.MemberReport, 0, len(snapshot))
	for _, member := range room.Members() {
		if samples, reported := snapshot[member]; reported {
			reports = append(reports, core.MemberReport{Member: member, Samples: samples})
		}
	}
	means := core.Aggregate(reports)

	log.Info().Str("module", "app.coordinator").Str("room", string(room.ID)).Int("servers", len(means)).Msg("best ping computed")
	for _, member := range room.Members() {
		c.sender.Send(member, EventBestPing, means)
	}
}

// NotifyPingStart tells the whole room to begin probing. The named room must
// be the sender's own; anything else is dropped.
func (c *Coordinator) NotifyPingStart(sid domain.SessionID, roomID domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.lookupOwn(sid, roomID)
	if !ok {
		return
	}
	for _, member := range room.Members() {
		c.sender.Send(member, EventPingStarted, nil)
	}
}

// UpdatePing relays one member's probing progress to the room.
func (c *Coordinator) UpdatePing(sid domain.SessionID, roomID domain.RoomID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.lookupOwn(sid, roomID)
	if !ok {
		return
	}
	for _, member := range room.Members() {
		c.sender.Send(member, EventPingUpdated, userID)
	}
}

// Disconnect is the unconditional cancellation signal for a connection. The
// departure is announced to the room before membership is finalized, so a
// still-attached listener always hears about it. A room left with fewer than
// two members is destroyed and its ledger purged.
func (c *Coordinator) Disconnect(sid domain.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.registry.LookupRoom(sid)
	if !ok {
		return
	}
	for _, member := range room.Members() {
		c.sender.Send(member, EventUserLeft, string(sid))
	}

	room, destroyed := c.registry.Leave(sid)
	if destroyed {
		c.ledger.Purge(room.ID)
		if c.metrics != nil {
			c.metrics.LiveRooms.Dec()
		}
		log.Info().Str("module", "app.coordinator").Str("room", string(room.ID)).Msg("room destroyed")
		return
	}
	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(room.ID)).Int("members", room.MemberCount()).Msg("member left")
}

// Rooms snapshots the live rooms for the REST listing.
func (c *Coordinator) Rooms() []RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := c.registry.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomSummary{
			RoomID:      string(room.ID),
			OwnerID:     string(room.OwnerID),
			Members:     memberIDs(room),
			MemberCount: room.MemberCount(),
		})
	}
	return out
}

// RoomInfo resolves one room by id for the REST surface.
func (c *Coordinator) RoomInfo(id domain.RoomID) (RoomSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.registry.Room(id)
	if !ok {
		return RoomSummary{}, false
	}
	return RoomSummary{
		RoomID:      string(room.ID),
		OwnerID:     string(room.OwnerID),
		Members:     memberIDs(room),
		MemberCount: room.MemberCount(),
	}, true
}

// lookupOwn resolves the sender's room and checks it is the one the event
// names. Callers hold the lock.
func (c *Coordinator) lookupOwn(sid domain.SessionID, roomID domain.RoomID) (*domain.Room, bool) {
	room, ok := c.registry.LookupRoom(sid)
	if !ok || room.ID != roomID {
		log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("event for foreign room ignored")
		return nil, false
	}
	return room, true
}

func (c *Coordinator) sendError(sid domain.SessionID, err error) {
	code := "internal"
	switch {
	case errors.Is(err, domain.ErrAlreadyInRoom):
		code = "already-in-room"
	case errors.Is(err, domain.ErrRoomExists):
		code = "room-exists"
	case errors.Is(err, domain.ErrNotInRoom):
		code = "not-in-room"
	}
	c.sender.Send(sid, EventError, ErrorView{Error: code})
}
