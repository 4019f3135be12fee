package player

import (
	"testing"

	"goldmod/engine/enginetest"
)

func TestLifecycle(t *testing.T) {
	f := enginetest.New()
	f.Time = 42.5
	f.SetAuthID(3, "STEAM_0:1:777")
	r := NewRegistry(f)

	var joined, left []string
	r.OnJoin(func(p *Player) { joined = append(joined, p.Name) })
	r.OnLeave(func(p *Player) { left = append(left, p.Name) })

	ref := f.AddPlayer(3)
	p := r.Connect(ref, "gordon", "10.0.0.7:27005")
	if p.InGame {
		t.Error("player in game before put-in-server")
	}
	if p.JoinedAt != 42.5 {
		t.Errorf("joined at %v, want 42.5", p.JoinedAt)
	}
	if len(joined) != 0 {
		t.Error("join fired at connect time")
	}

	r.PutInServer(ref)
	if !p.InGame {
		t.Error("player not in game after put-in-server")
	}
	if p.AuthID != "STEAM_0:1:777" {
		t.Errorf("auth id = %q", p.AuthID)
	}
	if len(joined) != 1 || joined[0] != "gordon" {
		t.Errorf("join listeners saw %v", joined)
	}

	r.Disconnect(ref)
	if len(left) != 1 || left[0] != "gordon" {
		t.Errorf("leave listeners saw %v", left)
	}
	if _, ok := r.ByRef(ref); ok {
		t.Error("player still resolvable after disconnect")
	}
	if r.Count() != 0 {
		t.Errorf("count = %d, want 0", r.Count())
	}
}

func TestStaleHandleDoesNotResolve(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)

	old := f.AddPlayer(3)
	r.Connect(old, "first", "")
	r.Disconnect(old)

	// Host hands the slot to someone else.
	fresh := f.AddPlayer(3)
	r.Connect(fresh, "second", "")

	if _, ok := r.ByRef(old); ok {
		t.Error("stale handle resolved to the new occupant")
	}
	if p, ok := r.ByRef(fresh); !ok || p.Name != "second" {
		t.Error("fresh handle did not resolve")
	}
}

func TestConnectReplacesSlotOccupant(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)

	var left []string
	r.OnLeave(func(p *Player) { left = append(left, p.Name) })

	r.Connect(f.AddPlayer(2), "old", "")
	r.Connect(f.AddPlayer(2), "new", "")

	if len(left) != 1 || left[0] != "old" {
		t.Errorf("leave listeners saw %v, want [old]", left)
	}
	if p, ok := r.ByKey(2); !ok || p.Name != "new" {
		t.Error("slot not held by the new occupant")
	}
}

func TestPutInServerWithoutConnect(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)

	p := r.PutInServer(f.AddPlayer(5))
	if !p.InGame {
		t.Error("synthesized player not in game")
	}
	if r.Count() != 1 {
		t.Errorf("count = %d, want 1", r.Count())
	}
}

func TestEachVisitsSlotOrder(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)
	r.Connect(f.AddPlayer(4), "d", "")
	r.Connect(f.AddPlayer(1), "a", "")
	r.Connect(f.AddPlayer(3), "c", "")

	var names []string
	r.Each(func(p *Player) { names = append(names, p.Name) })

	want := []string{"a", "c", "d"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("Each order = %v, want %v", names, want)
		}
	}
}

func TestListenerPanicIsContained(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)
	r.OnJoin(func(*Player) { panic("boom") })
	var second bool
	r.OnJoin(func(*Player) { second = true })

	ref := f.AddPlayer(1)
	r.Connect(ref, "p", "")
	r.PutInServer(ref)

	if !second {
		t.Error("listener after the panicking one never ran")
	}
}
