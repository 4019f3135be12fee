// Package message observes, replays, and originates host network messages.
//
// The interceptor half buffers the host's begin/write/end sequence for any
// message somebody listens to and puts the same bytes back on the wire once
// the listeners have seen them. The sender half builds new messages from
// typed fields. Both halves run on the server thread only.
package message

import (
	"goldmod/engine"
	"goldmod/entity"
	"goldmod/internal/log"
)

// Capture holds one in-flight message: its resolved identity, addressing,
// and every field written so far, in order. Pre listeners receive it before
// replay and may append fields; once replay starts the field list is final.
type Capture struct {
	Type   int
	Name   string
	Dest   engine.Dest
	Origin *engine.Vec3
	Target entity.Ref
	Fields []Field

	ended bool
}

// Listener observes one captured message. Pre listeners run before the
// fields are re-emitted, post listeners after.
type Listener func(*Capture)

// Interceptor routes the host's outgoing-message lifecycle events into
// listeners registered by name. Messages nobody listens to pass straight
// through without a capture being opened.
type Interceptor struct {
	eng  engine.Engine
	reg  *Registry
	pre  map[string][]Listener
	post map[string][]Listener

	current *Capture
	opened  uint64
}

func NewInterceptor(eng engine.Engine, reg *Registry) *Interceptor {
	return &Interceptor{
		eng:  eng,
		reg:  reg,
		pre:  make(map[string][]Listener),
		post: make(map[string][]Listener),
	}
}

// OnMessage registers fn to run when a message of the named type has been
// fully written but not yet replayed to the wire.
func (in *Interceptor) OnMessage(name string, fn Listener) {
	in.pre[name] = append(in.pre[name], fn)
}

// OnMessageReplayed registers fn to run after a message of the named type
// has been replayed.
func (in *Interceptor) OnMessageReplayed(name string, fn Listener) {
	in.post[name] = append(in.post[name], fn)
}

// CapturesOpened reports how many captures have ever been opened. Messages
// without listeners never open one.
func (in *Interceptor) CapturesOpened() uint64 { return in.opened }

// Begin handles the host's message-begin event. A capture opens only when
// the resolved name has at least one listener.
func (in *Interceptor) Begin(dest engine.Dest, msgID int, origin *engine.Vec3, target entity.Ref) {
	name, ok := in.reg.Name(msgID)
	if !ok {
		return
	}
	if len(in.pre[name]) == 0 && len(in.post[name]) == 0 {
		return
	}
	if in.current != nil {
		log.Debug("message capture replaced mid-flight", "old", in.current.Name, "new", name)
	}
	in.current = &Capture{
		Type:   msgID,
		Name:   name,
		Dest:   dest,
		Origin: origin,
		Target: target,
	}
	in.opened++
}

// Write handles one host write-field event. With an open capture the field
// is buffered and the host is told to skip its own serialization; writes
// after the end marker, or with no capture open, fall through untouched.
func (in *Interceptor) Write(sig *engine.Signal, f Field) {
	c := in.current
	if c == nil || c.ended {
		return
	}
	c.Fields = append(c.Fields, f)
	sig.Raise(engine.ResultSupersede)
}

// End handles the host's message-end event: pre listeners see the capture,
// the field list is sealed, and every field is re-emitted in order. The
// capture stays around until the host's post-end notification.
func (in *Interceptor) End() {
	c := in.current
	if c == nil || c.ended {
		return
	}
	in.dispatch(in.pre[c.Name], c)
	c.ended = true
	for _, f := range c.Fields {
		writeField(in.eng, f)
	}
}

// EndPost handles the host's post-end notification: the capture is
// discarded and post listeners see the now-sent snapshot.
func (in *Interceptor) EndPost() {
	c := in.current
	if c == nil || !c.ended {
		return
	}
	in.current = nil
	in.dispatch(in.post[c.Name], c)
}

func (in *Interceptor) dispatch(listeners []Listener, c *Capture) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("message listener panic", "message", c.Name, "panic", r)
				}
			}()
			fn(c)
		}()
	}
}
