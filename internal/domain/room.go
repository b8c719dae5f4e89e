package domain

type (
	// SessionID is the opaque identity the transport assigns to a connection.
	SessionID string

	// RoomID names a room. It equals the owning connection's SessionID, so
	// addressing a room and addressing its owner is the same identifier space.
	RoomID string
)

// Room groups connections that share one latency-aggregation context.
// Member order is insertion order; it drives display and the deterministic
// iteration order of the aggregation pass.
type Room struct {
	ID      RoomID
	OwnerID SessionID

	members []SessionID
}

// NewRoom avoids raw literals in adapters and keeps construction obvious.
// The owner is the first member of its own room.
func NewRoom(owner SessionID) *Room {
	return &Room{
		ID:      RoomID(owner),
		OwnerID: owner,
		members: []SessionID{owner},
	}
}

// MemberCount is derived from the member set and can never drift from it.
func (r *Room) MemberCount() int { return len(r.members) }

func (r *Room) HasMember(sid SessionID) bool {
	for _, m := range r.members {
		if m == sid {
			return true
		}
	}
	return false
}

func (r *Room) AddMember(sid SessionID) {
	if r.HasMember(sid) {
		return
	}
	r.members = append(r.members, sid)
}

func (r *Room) RemoveMember(sid SessionID) {
	for i, m := range r.members {
		if m == sid {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// Members returns a copy; callers must not be able to mutate room state.
func (r *Room) Members() []SessionID {
	out := make([]SessionID, len(r.members))
	copy(out, r.members)
	return out
}
