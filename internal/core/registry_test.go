package core

import (
	"errors"
	"testing"

	"github.com/avdeyev/pingroom/internal/domain"
)

func TestCreateRoom(t *testing.T) {
	r := NewRoomRegistry()

	room, err := r.CreateRoom("A")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.ID != "A" || room.OwnerID != "A" {
		t.Errorf("room keyed by owner, got id=%s owner=%s", room.ID, room.OwnerID)
	}
	if room.MemberCount() != 1 || !room.HasMember("A") {
		t.Errorf("owner must be a member of its own room: %v", room.Members())
	}

	if _, err := r.CreateRoom("A"); !errors.Is(err, domain.ErrAlreadyInRoom) {
		t.Errorf("second create by same owner = %v, want ErrAlreadyInRoom", err)
	}
}

func TestCreateRoomWhileJoined(t *testing.T) {
	r := NewRoomRegistry()
	mustCreate(t, r, "A")
	mustJoin(t, r, "A", "B")

	if _, err := r.CreateRoom("B"); !errors.Is(err, domain.ErrAlreadyInRoom) {
		t.Errorf("create while member elsewhere = %v, want ErrAlreadyInRoom", err)
	}
}

func TestJoinRoom(t *testing.T) {
	r := NewRoomRegistry()
	mustCreate(t, r, "A")

	room, err := r.JoinRoom("A", "B")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if room.MemberCount() != 2 {
		t.Errorf("memberCount = %d, want 2", room.MemberCount())
	}
	got := room.Members()
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("insertion order lost: %v", got)
	}

	if _, err := r.JoinRoom("nope", "C"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("join missing room = %v, want ErrRoomNotFound", err)
	}
	if _, err := r.JoinRoom("A", "B"); !errors.Is(err, domain.ErrAlreadyInRoom) {
		t.Errorf("rejoin = %v, want ErrAlreadyInRoom", err)
	}
}

func TestLeaveCollapsesNearEmptyRoom(t *testing.T) {
	r := NewRoomRegistry()

	t.Run("owner leaves own fresh room", func(t *testing.T) {
		mustCreate(t, r, "A")
		room, destroyed := r.Leave("A")
		if room == nil || !destroyed {
			t.Fatalf("Leave(owner) = (%v, %v), want destroyed", room, destroyed)
		}
		if _, ok := r.LookupRoom("A"); ok {
			t.Error("room still resolvable after owner left")
		}
	})

	t.Run("two members collapse to none", func(t *testing.T) {
		mustCreate(t, r, "A")
		mustJoin(t, r, "A", "B")

		room, destroyed := r.Leave("A")
		if !destroyed {
			t.Fatalf("two-member room must be deleted when one leaves")
		}
		if room.HasMember("A") {
			t.Error("departed member still present in returned room")
		}
		// The stranded remaining member is fully detached too.
		if _, ok := r.LookupRoom("B"); ok {
			t.Error("remaining member still mapped to a destroyed room")
		}
		if r.RoomCount() != 0 {
			t.Errorf("RoomCount = %d, want 0", r.RoomCount())
		}
	})

	t.Run("three members keep the room", func(t *testing.T) {
		mustCreate(t, r, "A")
		mustJoin(t, r, "A", "B")
		mustJoin(t, r, "A", "C")

		room, destroyed := r.Leave("C")
		if destroyed {
			t.Fatal("room with two remaining members must survive")
		}
		if room.MemberCount() != 2 {
			t.Errorf("memberCount = %d, want 2", room.MemberCount())
		}
		if _, ok := r.LookupRoom("C"); ok {
			t.Error("departed member still mapped to a room")
		}
	})
}

func TestLeaveUntracked(t *testing.T) {
	r := NewRoomRegistry()
	if room, destroyed := r.Leave("ghost"); room != nil || destroyed {
		t.Errorf("Leave(untracked) = (%v, %v), want no-op", room, destroyed)
	}
}

func TestMembershipMatchesJoinHistory(t *testing.T) {
	r := NewRoomRegistry()
	mustCreate(t, r, "A")
	for _, sid := range []domain.SessionID{"B", "C", "D", "E"} {
		mustJoin(t, r, "A", sid)
	}
	r.Leave("C")
	r.Leave("E")

	room, ok := r.LookupRoom("A")
	if !ok {
		t.Fatal("room gone")
	}
	got := room.Members()
	want := []domain.SessionID{"A", "B", "D"}
	if len(got) != len(want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("members = %v, want %v", got, want)
		}
	}
	if room.MemberCount() != len(got) {
		t.Errorf("memberCount %d disagrees with members %v", room.MemberCount(), got)
	}
}

func mustCreate(t *testing.T, r *RoomRegistry, owner domain.SessionID) *domain.Room {
	t.Helper()
	room, err := r.CreateRoom(owner)
	if err != nil {
		t.Fatalf("CreateRoom(%s): %v", owner, err)
	}
	return room
}

func mustJoin(t *testing.T, r *RoomRegistry, id domain.RoomID, sid domain.SessionID) *domain.Room {
	t.Helper()
	room, err := r.JoinRoom(id, sid)
	if err != nil {
		t.Fatalf("JoinRoom(%s, %s): %v", id, sid, err)
	}
	return room
}
