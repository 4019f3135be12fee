// Package command tokenizes every textual input line once and routes it to
// the handlers registered for the leading word. Client input and native
// console input are distinct host paths; both end up here.
package command

import (
	"goldmod/engine"
	"goldmod/internal/log"
	"goldmod/player"
)

// Type is the execution context a registration binds to.
type Type int

const (
	// Client commands arrive through the per-player input event: chat,
	// bound keys, anything a connected client issues.
	Client Type = iota
	// Console commands work from both paths: a client may issue them and
	// they are also installed in the host's native command table.
	Console
	// Server commands exist only in the host's native table; client input
	// never reaches them.
	Server
)

func (t Type) String() string {
	switch t {
	case Client:
		return "client"
	case Console:
		return "console"
	case Server:
		return "server"
	default:
		return "unknown"
	}
}

// Context carries one dispatched input line into a handler. Player is nil
// when the line came from the server console. Signal is the tick's shared
// override decision; handlers may raise it directly instead of, or before,
// returning a result.
type Context struct {
	Player *player.Player
	Args   []string
	Raw    string
	Signal *engine.Signal
}

// Arg returns the i-th token, counting the command name as 0. Out of range
// yields the empty string, matching the host accessor convention.
func (c *Context) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Argc reports the token count including the command name itself.
func (c *Context) Argc() int { return len(c.Args) }

// Handler processes one matched input line. The returned result is raised
// onto the tick's signal; the host decision is made synchronously, so work
// a handler defers past its return can no longer affect this tick.
type Handler func(ctx *Context) engine.Result

// Registration binds a handler to a command name in one execution context.
type Registration struct {
	Name    string
	Type    Type
	Handler Handler
}

type record struct {
	id      int
	typ     Type
	handler Handler
}

// Dispatcher owns the registration table and both dispatch paths. All
// methods run on the server thread.
type Dispatcher struct {
	eng    engine.Engine
	regs   map[string][]*record
	native map[string]bool
	nextID int
	flood  *floodGuard
}

func NewDispatcher(eng engine.Engine) *Dispatcher {
	return &Dispatcher{
		eng:    eng,
		regs:   make(map[string][]*record),
		native: make(map[string]bool),
	}
}

// Add installs a registration and returns a token Remove accepts. Console
// and server registrations also claim the name in the host's native command
// table the first time that name appears.
func (d *Dispatcher) Add(reg Registration) int {
	if reg.Name == "" || reg.Handler == nil {
		log.Error("command registration dropped", "name", reg.Name, "reason", "empty name or nil handler")
		return 0
	}
	d.nextID++
	rec := &record{id: d.nextID, typ: reg.Type, handler: reg.Handler}
	d.regs[reg.Name] = append(d.regs[reg.Name], rec)

	if reg.Type != Client && !d.native[reg.Name] {
		d.native[reg.Name] = true
		d.eng.RegisterCommand(reg.Name, d.nativeAdapter(reg.Name))
	}
	log.Debug("command registered", "name", reg.Name, "type", reg.Type)
	return rec.id
}

// Register binds fn to name in the console context.
func (d *Dispatcher) Register(name string, fn Handler) int {
	return d.Add(Registration{Name: name, Type: Console, Handler: fn})
}

// RegisterClient binds fn to name in the client context.
func (d *Dispatcher) RegisterClient(name string, fn Handler) int {
	return d.Add(Registration{Name: name, Type: Client, Handler: fn})
}

// RegisterServer binds fn to name in the server context.
func (d *Dispatcher) RegisterServer(name string, fn Handler) int {
	return d.Add(Registration{Name: name, Type: Server, Handler: fn})
}

// Remove drops the registration the token identifies. The native table
// entry, if one was claimed, stays; the host has no unregister primitive.
func (d *Dispatcher) Remove(id int) bool {
	for name, recs := range d.regs {
		for i, rec := range recs {
			if rec.id == id {
				d.regs[name] = append(recs[:i], recs[i+1:]...)
				if len(d.regs[name]) == 0 {
					delete(d.regs, name)
				}
				return true
			}
		}
	}
	return false
}

// nativeAdapter bridges the host's zero-argument command callback into a
// dispatch over the host-side accessors. The host tokenized the line
// itself; we read its argv rather than re-tokenizing.
func (d *Dispatcher) nativeAdapter(name string) func() {
	return func() {
		argc := d.eng.CmdArgc()
		args := make([]string, 0, argc)
		for i := 0; i < argc; i++ {
			args = append(args, d.eng.CmdArgv(i))
		}
		raw := name
		if rest := d.eng.CmdArgs(); rest != "" {
			raw += " " + rest
		}
		var sig engine.Signal
		ctx := &Context{Args: args, Raw: raw, Signal: &sig}
		for _, rec := range d.regs[name] {
			if rec.typ == Client {
				continue
			}
			sig.Raise(d.invoke(name, rec, ctx))
			if sig.Superseded() {
				break
			}
		}
	}
}

// invoke runs one handler with the dispatch boundary's panic containment:
// a bad handler is logged and the rest of the tick proceeds.
func (d *Dispatcher) invoke(name string, rec *record, ctx *Context) (res engine.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("command handler panic", "command", name, "type", rec.typ, "panic", r)
			res = engine.ResultUnset
		}
	}()
	return rec.handler(ctx)
}
