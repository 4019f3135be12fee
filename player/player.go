// Package player tracks the clients currently attached to the server and
// tells the rest of goldmod when they come and go.
package player

import (
	"goldmod/engine"
	"goldmod/entity"
	"goldmod/internal/log"
)

// Player is one attached client. Fields are snapshots maintained by the
// Registry from host lifecycle events; Ref stays valid until the slot is
// reused after a disconnect.
type Player struct {
	Ref      entity.Ref
	Name     string
	AuthID   string
	Address  string
	JoinedAt float64
	InGame   bool
}

// Key returns the identity menus and per-player state are indexed by.
func (p *Player) Key() int { return p.Ref.Key() }

// Registry owns the set of attached players, keyed by entity slot. All
// methods run on the server thread.
type Registry struct {
	eng    engine.Engine
	byKey  map[int]*Player
	joins  []func(*Player)
	leaves []func(*Player)
}

func NewRegistry(eng engine.Engine) *Registry {
	return &Registry{
		eng:   eng,
		byKey: make(map[int]*Player),
	}
}

// OnJoin registers fn to run when a player finishes entering the game.
func (r *Registry) OnJoin(fn func(*Player)) {
	r.joins = append(r.joins, fn)
}

// OnLeave registers fn to run when a player detaches, before the record is
// dropped.
func (r *Registry) OnLeave(fn func(*Player)) {
	r.leaves = append(r.leaves, fn)
}

// Connect records a client that has attached but not yet entered the game.
// A record already occupying the slot is replaced; the host reuses slots
// and a new connect always means the old occupant is gone.
func (r *Registry) Connect(ref entity.Ref, name, address string) *Player {
	if old, ok := r.byKey[ref.Key()]; ok && old.Ref != ref {
		r.drop(old)
	}
	p := &Player{
		Ref:      ref,
		Name:     name,
		Address:  address,
		AuthID:   r.eng.PlayerAuthID(ref),
		JoinedAt: r.eng.TimeOffset(),
	}
	r.byKey[ref.Key()] = p
	log.Debug("player connected", "name", name, "slot", ref.Index, "address", address)
	return p
}

// PutInServer marks the client as fully in game and fires join listeners.
// The auth id is refreshed here; it is often still pending at connect time.
func (r *Registry) PutInServer(ref entity.Ref) *Player {
	p, ok := r.lookup(ref)
	if !ok {
		// Host fired put-in-server without a connect. Synthesize.
		p = r.Connect(ref, "", "")
	}
	p.InGame = true
	p.AuthID = r.eng.PlayerAuthID(ref)
	log.Info("player entered game", "name", p.Name, "auth", p.AuthID)
	r.fire(r.joins, p)
	return p
}

// Disconnect fires leave listeners and drops the record.
func (r *Registry) Disconnect(ref entity.Ref) {
	p, ok := r.lookup(ref)
	if !ok {
		return
	}
	log.Info("player disconnected", "name", p.Name)
	r.drop(p)
}

// SetName tracks a name change reported by the host.
func (r *Registry) SetName(ref entity.Ref, name string) {
	if p, ok := r.lookup(ref); ok {
		p.Name = name
	}
}

// ByRef finds the player a handle points at. A handle whose slot has been
// reused since resolves to nothing.
func (r *Registry) ByRef(ref entity.Ref) (*Player, bool) {
	return r.lookup(ref)
}

// ByKey finds the player occupying a slot key.
func (r *Registry) ByKey(key int) (*Player, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// Count reports how many players are attached.
func (r *Registry) Count() int { return len(r.byKey) }

// Each visits every attached player in slot order.
func (r *Registry) Each(fn func(*Player)) {
	for i := 1; i <= maxSlot(r.byKey); i++ {
		if p, ok := r.byKey[i]; ok {
			fn(p)
		}
	}
}

// Clear drops every record without firing leave listeners. Used on map
// change, when the host detaches everyone at once.
func (r *Registry) Clear() {
	r.byKey = make(map[int]*Player)
}

func (r *Registry) lookup(ref entity.Ref) (*Player, bool) {
	p, ok := r.byKey[ref.Key()]
	if !ok || p.Ref != ref {
		return nil, false
	}
	return p, true
}

func (r *Registry) drop(p *Player) {
	r.fire(r.leaves, p)
	delete(r.byKey, p.Key())
}

func (r *Registry) fire(listeners []func(*Player), p *Player) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("player listener panic", "player", p.Name, "panic", rec)
				}
			}()
			fn(p)
		}()
	}
}

func maxSlot(m map[int]*Player) int {
	max := 0
	for k := range m {
		if k > max {
			max = k
		}
	}
	return max
}
