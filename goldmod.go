// Package goldmod is a typed convenience layer between a GoldSrc-style game
// server host and the plugins embedded in it. The host forwards its raw
// engine events into a Bridge; plugins talk to the Bridge's subsystems
// instead of the engine: message interception and replay, typed message
// sending, command dispatch with an escalating result code, paginated
// keypress menus, player tracking, frame-based scheduling, and an optional
// SQLite ledger.
//
// Everything except Scheduler().Post runs on the server thread. The host is
// expected to pump StartFrame once per frame and to forward each engine
// event exactly once.
package goldmod

import (
	"fmt"
	"time"

	"goldmod/command"
	"goldmod/engine"
	"goldmod/entity"
	"goldmod/internal/log"
	"goldmod/menu"
	"goldmod/message"
	"goldmod/player"
	"goldmod/sched"
	"goldmod/store"
)

// Bridge wires the subsystems together over one engine and fans host events
// out to them. Construct exactly one per server process.
type Bridge struct {
	eng engine.Engine
	cfg Config

	registry    *message.Registry
	interceptor *message.Interceptor
	sender      *message.Sender
	dispatcher  *command.Dispatcher
	players     *player.Registry
	scheduler   *sched.Scheduler
	menus       *menu.Manager
	ledger      *store.Store

	spawns []func(entity.Ref)
}

// New builds a Bridge over the host engine. The message registry comes up
// first, the interceptor and sender share it, the dispatcher claims the
// native command table, and the menu manager registers its selection
// channel with the dispatcher. The store only opens when the config names a
// path; a store that fails to open fails construction rather than silently
// running without the ledger the operator asked for.
func New(eng engine.Engine, cfg Config) (*Bridge, error) {
	level, err := cfg.logLevel()
	if err != nil {
		log.Warn("config: unknown log level, using info", "level", cfg.LogLevel)
	}
	log.SetLevel(level)
	if cfg.LogFile != "" {
		if err := log.SetFileOutput(cfg.LogFile); err != nil {
			log.Warn("config: cannot log to file", "path", cfg.LogFile, "error", err)
		}
	}

	b := &Bridge{eng: eng, cfg: cfg}
	b.registry = message.NewRegistry(eng)
	b.interceptor = message.NewInterceptor(eng, b.registry)
	b.sender = message.NewSender(eng, b.registry)
	b.dispatcher = command.NewDispatcher(eng)
	if cfg.FloodRate > 0 {
		b.dispatcher.SetFloodLimit(cfg.FloodRate, cfg.FloodBurst)
	}
	b.players = player.NewRegistry(eng)
	b.scheduler = sched.New(sched.ClockFunc(eng.TimeOffset))
	b.menus = menu.NewManager(b.sender, b.dispatcher, b.scheduler)
	b.menus.DefaultSeconds = cfg.MenuSeconds

	b.players.OnLeave(func(p *player.Player) {
		b.dispatcher.ForgetPlayer(p.Key())
		b.menus.DropPlayer(p.Key())
	})

	if cfg.StorePath != "" {
		ledger, err := store.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("goldmod: open store: %w", err)
		}
		b.ledger = ledger
		b.players.OnJoin(func(p *player.Player) {
			if p.AuthID == "" {
				return
			}
			if err := ledger.RecordVisit(p.AuthID, p.Name, p.Address, time.Now()); err != nil {
				log.Error("store: record visit failed", "auth", p.AuthID, "error", err)
			}
		})
		b.players.OnLeave(func(p *player.Player) {
			if p.AuthID == "" {
				return
			}
			if err := ledger.Touch(p.AuthID, time.Now()); err != nil {
				log.Error("store: touch failed", "auth", p.AuthID, "error", err)
			}
		})
	}

	log.Info("bridge ready",
		"flood", cfg.FloodRate > 0, "store", cfg.StorePath != "")
	return b, nil
}

// Messages exposes interception: OnMessage, OnMessageReplayed.
func (b *Bridge) Messages() *message.Interceptor { return b.interceptor }

// Sender exposes outgoing message construction.
func (b *Bridge) Sender() *message.Sender { return b.sender }

// Commands exposes command registration and programmatic dispatch.
func (b *Bridge) Commands() *command.Dispatcher { return b.dispatcher }

// Menus exposes the paginated menu manager.
func (b *Bridge) Menus() *menu.Manager { return b.menus }

// Players exposes the attached-player registry.
func (b *Bridge) Players() *player.Registry { return b.players }

// Scheduler exposes frame-based timers. Scheduler().Post is the one entry
// point safe to call from other goroutines.
func (b *Bridge) Scheduler() *sched.Scheduler { return b.scheduler }

// Store returns the persistence ledger, or nil when no store is configured.
func (b *Bridge) Store() *store.Store { return b.ledger }

// Send transmits one constructed message. Shorthand for Sender().Send.
func (b *Bridge) Send(opts message.Options) { b.sender.Send(opts) }

// RegisterMessageType declares a custom user message with the host and
// returns its id, or 0 when the host refuses the registration.
func (b *Bridge) RegisterMessageType(name string, size int) int {
	return b.registry.Register(name, size)
}

// OnEntitySpawn registers fn to run when the host reports an entity spawn.
func (b *Bridge) OnEntitySpawn(fn func(entity.Ref)) {
	b.spawns = append(b.spawns, fn)
}

// MessageBegin forwards the host's message-begin event.
func (b *Bridge) MessageBegin(dest engine.Dest, msgID int, origin *engine.Vec3, target entity.Ref) {
	b.interceptor.Begin(dest, msgID, origin, target)
}

// The write entry points forward one host write-field event each and return
// the result the host shim must honor: supersede means the host skips its
// own serialization because the field is buffered for replay.

func (b *Bridge) WriteByte(v int) engine.Result  { return b.write(message.Byte(v)) }
func (b *Bridge) WriteChar(v int) engine.Result  { return b.write(message.Char(v)) }
func (b *Bridge) WriteShort(v int) engine.Result { return b.write(message.Short(v)) }
func (b *Bridge) WriteLong(v int) engine.Result  { return b.write(message.Long(v)) }

func (b *Bridge) WriteAngle(v float32) engine.Result { return b.write(message.Angle(v)) }
func (b *Bridge) WriteCoord(v float32) engine.Result { return b.write(message.Coord(v)) }

// WriteString keeps the host's bytes exactly as observed so replay stays
// byte-faithful regardless of text encoding.
func (b *Bridge) WriteString(s string) engine.Result { return b.write(message.RawString(s)) }

// WriteEntity records the already-resolved entity index the host observed.
func (b *Bridge) WriteEntity(v int) engine.Result { return b.write(message.EntityIndex(v)) }

func (b *Bridge) write(f message.Field) engine.Result {
	var sig engine.Signal
	b.interceptor.Write(&sig, f)
	return sig.Result()
}

// MessageEnd forwards the host's message-end event, running pre listeners
// and replaying the capture.
func (b *Bridge) MessageEnd() { b.interceptor.End() }

// MessageEndPost forwards the host's post-end notification, running post
// listeners and discarding the capture.
func (b *Bridge) MessageEndPost() { b.interceptor.EndPost() }

// ClientCommand routes one client input line through the dispatcher and
// returns the final result for the host shim. Lines from entities the
// registry does not know pass through untouched.
func (b *Bridge) ClientCommand(ref entity.Ref, raw string) engine.Result {
	p, ok := b.players.ByRef(ref)
	if !ok {
		log.Debug("client command from untracked entity", "slot", ref.Index, "line", raw)
		return engine.ResultUnset
	}
	var sig engine.Signal
	b.dispatcher.DispatchClient(&sig, p, raw)
	return sig.Result()
}

// ClientConnect records an attaching client.
func (b *Bridge) ClientConnect(ref entity.Ref, name, address string) {
	b.players.Connect(ref, name, address)
}

// ClientPutInServer marks a client as fully in game.
func (b *Bridge) ClientPutInServer(ref entity.Ref) {
	b.players.PutInServer(ref)
}

// ClientDisconnect drops a detaching client. Leave listeners tear down the
// client's menu session and flood state before the record goes away.
func (b *Bridge) ClientDisconnect(ref entity.Ref) {
	b.players.Disconnect(ref)
}

// EntitySpawn fans the host's spawn event out to listeners.
func (b *Bridge) EntitySpawn(ref entity.Ref) {
	for _, fn := range b.spawns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("spawn listener panic", "slot", ref.Index, "panic", r)
				}
			}()
			fn(ref)
		}()
	}
}

// StartFrame pumps the scheduler. The host calls this once per server frame.
func (b *Bridge) StartFrame() {
	b.scheduler.Tick()
}

// ServerDeactivate runs at map change and shutdown: stamp the ledger for
// everyone still in game, then drop all menu sessions, timers, throttle
// state, and player records. No wire traffic goes out; the clients are
// already detaching.
func (b *Bridge) ServerDeactivate() {
	if b.ledger != nil {
		now := time.Now()
		b.players.Each(func(p *player.Player) {
			if !p.InGame || p.AuthID == "" {
				return
			}
			if err := b.ledger.Touch(p.AuthID, now); err != nil {
				log.Error("store: touch failed", "auth", p.AuthID, "error", err)
			}
		})
	}
	b.menus.Reset()
	b.scheduler.StopAll()
	b.players.Clear()
	b.dispatcher.ForgetAllPlayers()
	log.Info("server deactivated")
}

// Close releases resources the Bridge opened. Only the store holds any.
func (b *Bridge) Close() error {
	if b.ledger != nil {
		return b.ledger.Close()
	}
	return nil
}
