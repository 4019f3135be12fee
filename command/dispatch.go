package command

import (
	"goldmod/engine"
	"goldmod/internal/log"
	"goldmod/player"
)

// DispatchClient routes one client input line. Client-context handlers run
// before console-context ones, each batch in registration order, stopping
// as soon as the shared signal reaches supersede. A line matching only
// console registrations is claimed outright: console commands never fall
// through to the host's default handling, while client commands leave that
// choice to their handlers.
func (d *Dispatcher) DispatchClient(sig *engine.Signal, p *player.Player, raw string) {
	if sig.Superseded() {
		return
	}
	if p != nil && d.flood != nil && !d.flood.allowAt(d.floodNow(), p.Key()) {
		log.Debug("client line throttled", "player", p.Name, "key", p.Key())
		sig.Raise(engine.ResultSupersede)
		return
	}

	args := Tokenize(raw)
	if len(args) == 0 {
		return
	}
	name := args[0]

	var matched []*record
	clients := 0
	for _, rec := range d.regs[name] {
		if rec.typ == Client {
			matched = append(matched, rec)
			clients++
		}
	}
	for _, rec := range d.regs[name] {
		if rec.typ == Console {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return
	}

	ctx := &Context{Player: p, Args: args, Raw: raw, Signal: sig}
	for _, rec := range matched {
		sig.Raise(d.invoke(name, rec, ctx))
		if sig.Superseded() {
			break
		}
	}

	if clients == 0 && sig.Result() == engine.ResultUnset {
		sig.Raise(engine.ResultSupersede)
	}
}

// Run executes a command line programmatically, as if typed at the server
// console: console and server registrations fire in registration order,
// stopping at supersede. It returns the final signal value so callers can
// tell whether anything claimed the line.
func (d *Dispatcher) Run(raw string) engine.Result {
	var sig engine.Signal
	args := Tokenize(raw)
	if len(args) == 0 {
		return sig.Result()
	}
	name := args[0]

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
	return sig.Result()
}
