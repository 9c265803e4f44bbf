package web

import (
	"path/filepath"
	"testing"
)

func TestDoorStoreRoundTrip(t *testing.T) {
	store, err := OpenDoorStore(filepath.Join(t.TempDir(), "doors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	payload, at, err := store.LoadVip("192.168.1.9")
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil || !at.IsZero() {
		t.Fatalf("unexpected hit: %q", payload)
	}

	if err := store.SaveVip("192.168.1.9", []byte(`{"apt-address":"SB000006"}`)); err != nil {
		t.Fatal(err)
	}
	payload, at, err = store.LoadVip("192.168.1.9")
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"apt-address":"SB000006"}` {
		t.Errorf("payload: %s", payload)
	}
	if at.IsZero() {
		t.Error("missing timestamp")
	}

	// upsert replaces
	if err := store.SaveVip("192.168.1.9", []byte(`{"apt-address":"SB000007"}`)); err != nil {
		t.Fatal(err)
	}
	payload, _, err = store.LoadVip("192.168.1.9")
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"apt-address":"SB000007"}` {
		t.Errorf("payload after upsert: %s", payload)
	}
}
