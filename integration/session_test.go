// Package integration exercises the bridge end to end through its public
// surface only: host events in, wire traffic and ledger rows out.
package integration

import (
	"fmt"
	"path/filepath"
	"testing"

	"goldmod"
	"goldmod/command"
	"goldmod/engine"
	"goldmod/engine/enginetest"
	"goldmod/entity"
	"goldmod/menu"
	"goldmod/message"
	"goldmod/player"
)

type session struct {
	t *testing.T
	b *goldmod.Bridge
	f *enginetest.Fake
}

func newSession(t *testing.T, cfg goldmod.Config) *session {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	f := enginetest.New()
	f.DefineMessage("TextMsg", 75)
	f.DefineMessage("SayText", 76)
	f.DefineMessage("ShowMenu", 90)
	b, err := goldmod.New(f, cfg)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return &session{t: t, b: b, f: f}
}

func (s *session) join(slot int, name string) entity.Ref {
	s.t.Helper()
	s.f.SetAuthID(slot, fmt.Sprintf("STEAM_0:1:%d00", slot))
	ref := s.f.AddPlayer(slot)
	s.b.ClientConnect(ref, name, fmt.Sprintf("10.0.0.%d:27005", slot))
	s.b.ClientPutInServer(ref)
	return ref
}

// hostSay pushes one SayText through the bridge the way the host would:
// begin and end land on the engine unless superseded, writes are offered to
// the bridge first.
func (s *session) hostSay(from entity.Ref, text string) {
	id, _ := s.f.MessageID("SayText")
	origin := &engine.Vec3{}
	s.b.MessageBegin(engine.DestAll, id, origin, entity.Nil)
	s.f.MessageBegin(engine.DestAll, id, origin, entity.Nil)
	if s.b.WriteByte(int(from.Index)) != engine.ResultSupersede {
		s.f.WriteByte(int(from.Index))
	}
	if s.b.WriteString(text) != engine.ResultSupersede {
		s.f.WriteString(text)
	}
	s.b.MessageEnd()
	s.f.MessageEnd()
	s.b.MessageEndPost()
}

// frames pumps n server frames of 0.1s each.
func (s *session) frames(n int) {
	for i := 0; i < n; i++ {
		s.f.Advance(0.1)
		s.b.StartFrame()
	}
}

func TestChatRewriteReachesTheWire(t *testing.T) {
	s := newSession(t, goldmod.Config{})
	ref := s.join(2, "gordon")

	s.b.Messages().OnMessage("SayText", func(c *message.Capture) {
		for i, fd := range c.Fields {
			if fd.Kind == message.KindString {
				c.Fields[i] = message.String("[censored]")
			}
		}
	})

	s.f.Reset()
	s.hostSay(ref, "free crowbars at mine entrance")

	msgs := s.f.Messages()
	if len(msgs) != 1 {
		t.Fatalf("wire carried %d messages, want 1", len(msgs))
	}
	wire := msgs[0]
	if len(wire) != 4 {
		t.Fatalf("wire = %+v, want begin+byte+string+end", wire)
	}
	if wire[2].Op != "string" || wire[2].Str != "[censored]" {
		t.Errorf("string on wire = %q, want the rewrite", wire[2].Str)
	}
	if wire[1].Int != 2 {
		t.Errorf("speaker byte = %d, want slot 2", wire[1].Int)
	}
}

func TestBroadcastVoteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s := newSession(t, goldmod.Config{StorePath: path})
	p1 := s.join(1, "gordon")
	p2 := s.join(2, "barney")

	maps := []string{
		"crossfire", "boot_camp", "bounce", "datacore", "lambda_bunker",
		"rapidcore", "snark_pit", "stalkyard", "subtransit",
	}
	s.b.Commands().RegisterClient("votemap", func(ctx *command.Context) engine.Result {
		m := menu.NewList("Vote map", maps, func(p *player.Player, i int, label string) {
			if err := s.b.Store().SetValue("vote", p.AuthID, label); err != nil {
				t.Errorf("record vote: %v", err)
			}
		})
		s.b.Menus().Show(m)
		return engine.ResultHandled
	})

	if r := s.b.ClientCommand(p1, "votemap"); r != engine.ResultHandled {
		t.Fatalf("votemap result = %v", r)
	}
	if n := s.b.Menus().ActiveSessions(); n != 1 {
		t.Fatalf("broadcast sessions = %d, want 1 shared", n)
	}

	// Nine options span two pages. Player one pages forward, which moves
	// the shared session for everybody; player two then picks the first
	// item on page two, and the broadcast menu stays up for stragglers.
	if r := s.b.ClientCommand(p1, "menuselect 9"); r != engine.ResultSupersede {
		t.Fatalf("page forward result = %v", r)
	}
	if r := s.b.ClientCommand(p2, "menuselect 1"); r != engine.ResultSupersede {
		t.Fatalf("pick result = %v", r)
	}
	if n := s.b.Menus().ActiveSessions(); n != 1 {
		t.Fatalf("shared session gone after one pick")
	}
	if r := s.b.ClientCommand(p1, "menuselect 2"); r != engine.ResultSupersede {
		t.Fatalf("second pick result = %v", r)
	}

	votes, err := s.b.Store().Values("vote")
	if err != nil {
		t.Fatalf("read votes: %v", err)
	}
	if votes["STEAM_0:1:200"] != "stalkyard" {
		t.Errorf("barney's vote = %q, want stalkyard (page 2 slot 1)", votes["STEAM_0:1:200"])
	}
	if votes["STEAM_0:1:100"] != "subtransit" {
		t.Errorf("gordon's vote = %q, want subtransit (page 2 slot 2)", votes["STEAM_0:1:100"])
	}

	s.f.Reset()
	s.b.Menus().CloseAllMenus()
	if got := len(s.f.Messages()); got != 1 {
		t.Errorf("blanks sent = %d, want 1 for the shared session", got)
	}
}

func TestFloodGuardThrottlesThroughTheBridge(t *testing.T) {
	s := newSession(t, goldmod.Config{FloodRate: 1, FloodBurst: 2})
	ref := s.join(3, "gina")

	ran := 0
	s.b.Commands().RegisterClient("spin", func(*command.Context) engine.Result {
		ran++
		return engine.ResultHandled
	})

	if r := s.b.ClientCommand(ref, "spin"); r != engine.ResultHandled {
		t.Fatalf("first = %v", r)
	}
	if r := s.b.ClientCommand(ref, "spin"); r != engine.ResultHandled {
		t.Fatalf("second = %v", r)
	}
	if r := s.b.ClientCommand(ref, "spin"); r != engine.ResultSupersede {
		t.Fatalf("third = %v, want supersede from the guard", r)
	}
	if ran != 2 {
		t.Errorf("handler ran %d times, want 2", ran)
	}

	// A second of frames refills one token.
	s.frames(10)
	if r := s.b.ClientCommand(ref, "spin"); r != engine.ResultHandled {
		t.Errorf("after refill = %v, want handled", r)
	}
}

func TestMenuTimeoutOverFrames(t *testing.T) {
	s := newSession(t, goldmod.Config{})
	ref := s.join(4, "adrian")

	timeouts := 0
	m := menu.New("Orders").AddLine("hold", func(*player.Player) {})
	m.To = ref
	m.Seconds = 2
	m.OnTimeout = func() { timeouts++ }
	s.b.Menus().Show(m)

	s.f.Reset()
	s.frames(19)
	if timeouts != 0 {
		t.Fatal("timed out before the deadline")
	}
	s.frames(2)
	if timeouts != 1 {
		t.Fatalf("timeouts = %d, want exactly 1", timeouts)
	}
	if n := s.b.Menus().ActiveSessions(); n != 0 {
		t.Errorf("session survived its timeout")
	}

	// The client counts down the two seconds itself; the server stays quiet.
	if len(s.f.Calls) != 0 {
		t.Errorf("timeout sent wire traffic: %+v", s.f.Calls)
	}
}

func TestMapChangeTeardown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s := newSession(t, goldmod.Config{StorePath: path})
	ref := s.join(5, "shephard")

	m := menu.New("Admin").AddLine("restart", func(*player.Player) {})
	m.To = ref
	s.b.Menus().Show(m)
	s.b.Scheduler().Every(1, func() {})

	s.f.Reset()
	s.b.ServerDeactivate()

	if n := s.b.Menus().ActiveSessions(); n != 0 {
		t.Errorf("menu sessions survived map change")
	}
	if n := s.b.Scheduler().Pending(); n != 0 {
		t.Errorf("timers survived map change")
	}
	if n := s.b.Players().Count(); n != 0 {
		t.Errorf("player records survived map change")
	}
	if len(s.f.Calls) != 0 {
		t.Errorf("map change produced wire traffic: %+v", s.f.Calls)
	}

	row, err := s.b.Store().Seen("STEAM_0:1:500")
	if err != nil {
		t.Fatalf("ledger row after deactivate: %v", err)
	}
	if row.Visits != 1 {
		t.Errorf("visits = %d, want 1", row.Visits)
	}
}
