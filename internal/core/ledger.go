package core

import "github.com/avdeyev/pingroom/internal/domain"

// PingLedger stores, per room, each member's most recently reported batch of
// latency samples. A report is a full snapshot of that member's measurements:
// recording always replaces, never appends.
type PingLedger struct {
	byRoom map[domain.RoomID]map[domain.SessionID][]domain.LatencySample
}

func NewPingLedger() *PingLedger {
	return &PingLedger{byRoom: make(map[domain.RoomID]map[domain.SessionID][]domain.LatencySample)}
}

func (l *PingLedger) Record(room domain.RoomID, member domain.SessionID, samples []domain.LatencySample) {
	entries, ok := l.byRoom[room]
	if !ok {
		entries = make(map[domain.SessionID][]domain.LatencySample)
		l.byRoom[room] = entries
	}
	entries[member] = samples
}

// Snapshot returns the room's current entries. A room with no reports yet is
// a valid, common state, so the result is an empty map, never an error.
// Sample slices are shared with the ledger; callers must treat them as
// read-only.
func (l *PingLedger) Snapshot(room domain.RoomID) map[domain.SessionID][]domain.LatencySample {
	entries, ok := l.byRoom[room]
	if !ok {
		return map[domain.SessionID][]domain.LatencySample{}
	}
	out := make(map[domain.SessionID][]domain.LatencySample, len(entries))
	for member, samples := range entries {
		out[member] = samples
	}
	return out
}

// Purge drops the room's ledger. Called as part of room destruction.
func (l *PingLedger) Purge(room domain.RoomID) {
	delete(l.byRoom, room)
}
