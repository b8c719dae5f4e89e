// Package core owns the room registry, the ping ledger and the aggregation
// pass. None of its types lock; the session coordinator serializes every
// event that touches them, so membership and ledger state can never be
// observed with partial effects.
package core

import "github.com/avdeyev/pingroom/internal/domain"

// RoomRegistry tracks live rooms and which room each connection occupies.
// A connection belongs to at most one room at a time.
type RoomRegistry struct {
	rooms    map[domain.RoomID]*domain.Room
	byMember map[domain.SessionID]domain.RoomID
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[domain.RoomID]*domain.Room),
		byMember: make(map[domain.SessionID]domain.RoomID),
	}
}

// CreateRoom registers a room keyed by the owner's session id and joins the
// owner to it. Owners already in a room (their own or anyone else's) are
// rejected instead of silently remapped, which would strand the old room's
// membership bookkeeping.
func (r *RoomRegistry) CreateRoom(owner domain.SessionID) (*domain.Room, error) {
	if _, ok := r.byMember[owner]; ok {
		return nil, domain.ErrAlreadyInRoom
	}
	if _, ok := r.rooms[domain.RoomID(owner)]; ok {
		return nil, domain.ErrRoomExists
	}
	room := domain.NewRoom(owner)
	r.rooms[room.ID] = room
	r.byMember[owner] = room.ID
	return room, nil
}

// JoinRoom adds the member to an existing room and returns the updated room.
func (r *RoomRegistry) JoinRoom(id domain.RoomID, member domain.SessionID) (*domain.Room, error) {
	if _, ok := r.byMember[member]; ok {
		return nil, domain.ErrAlreadyInRoom
	}
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room.AddMember(member)
	r.byMember[member] = id
	return room, nil
}

// Leave removes the member from its room, if any. A room never survives with
// fewer than two members: once removal would leave one or zero, the room is
// torn down and every remaining member's association is cleared. Returns the
// affected room (nil when the member was not in one) and whether it was
// destroyed.
func (r *RoomRegistry) Leave(member domain.SessionID) (room *domain.Room, destroyed bool) {
	id, ok := r.byMember[member]
	if !ok {
		return nil, false
	}
	delete(r.byMember, member)
	room, ok = r.rooms[id]
	if !ok {
		return nil, false
	}
	room.RemoveMember(member)
	if room.MemberCount() <= 1 {
		for _, rest := range room.Members() {
			delete(r.byMember, rest)
		}
		delete(r.rooms, id)
		return room, true
	}
	return room, false
}

// LookupRoom resolves the room a connection currently occupies.
func (r *RoomRegistry) LookupRoom(member domain.SessionID) (*domain.Room, bool) {
	id, ok := r.byMember[member]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[id]
	return room, ok
}

func (r *RoomRegistry) Room(id domain.RoomID) (*domain.Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

func (r *RoomRegistry) RoomCount() int { return len(r.rooms) }

func (r *RoomRegistry) Rooms() []*domain.Room {
	out := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}
