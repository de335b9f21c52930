package ws

import "testing"

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("general", nil, ConnInfo{ConnID: "c1", UserID: 1})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected room to be created")
	}
	if len(hub.info) != 1 {
		t.Fatalf("expected connection info to be tracked")
	}

	hub.RemoveClient("general", nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected room to be removed")
	}
	if len(hub.info) != 0 {
		t.Fatalf("expected connection info to be dropped")
	}
}

func TestHubKeepsRoomWhileOccupied(t *testing.T) {
	hub := NewHub()

	hub.AddClient("general", nil, ConnInfo{ConnID: "c1", UserID: 1})
	hub.RemoveClient("training", nil)
	if len(hub.rooms) != 1 {
		t.Fatalf("removing from another room must not touch this one")
	}
}
