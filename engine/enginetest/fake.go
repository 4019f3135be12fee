// Package enginetest provides an in-memory engine.Engine that records every
// call, for tests and the console simulator. Drive it from one goroutine,
// the way the real host drives its plugins.
package enginetest

import (
	"fmt"
	"strings"

	"goldmod/engine"
	"goldmod/entity"
)

// Call is one recorded wire operation. Op is the primitive name ("begin",
// "byte", "char", "short", "long", "angle", "coord", "string", "entity",
// "end"); the remaining slots are filled per Op.
type Call struct {
	Op     string
	Int    int
	Float  float32
	Str    string
	Dest   engine.Dest
	MsgID  int
	Origin engine.Vec3
	Target entity.Ref
}

// Fake implements engine.Engine against in-memory tables. User message ids
// start at 64, below which the real host keeps its built-in messages.
type Fake struct {
	Calls []Call

	msgByName map[string]int
	msgByID   map[int]string
	refused   map[string]bool
	nextMsgID int

	commands map[string]func()
	argv     []string

	entities map[int]entity.Ref
	authIDs  map[int]string
	serial   int32

	cvars map[string]string

	sounds    map[string]int
	nextSound int

	// Time is the value TimeOffset reports, in seconds. Tests may set or
	// Advance it directly.
	Time float64
}

var _ engine.Engine = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		msgByName: make(map[string]int),
		msgByID:   make(map[int]string),
		refused:   make(map[string]bool),
		nextMsgID: 64,
		commands:  make(map[string]func()),
		entities:  make(map[int]entity.Ref),
		authIDs:   make(map[int]string),
		cvars:     make(map[string]string),
		sounds:    make(map[string]int),
		nextSound: 1,
	}
}

// DefineMessage seeds the message table with a known name/id pair, the way
// a running server already knows the mod's registered messages.
func (f *Fake) DefineMessage(name string, id int) {
	f.msgByName[name] = id
	f.msgByID[id] = name
	if id >= f.nextMsgID {
		f.nextMsgID = id + 1
	}
}

func (f *Fake) MessageID(name string) (int, bool) {
	id, ok := f.msgByName[name]
	return id, ok
}

func (f *Fake) MessageName(id int) (string, bool) {
	name, ok := f.msgByID[id]
	return name, ok
}

// RefuseMessage makes RegisterMessage reject the named message with the
// host's invalid-id sentinel.
func (f *Fake) RefuseMessage(name string) {
	f.refused[name] = true
}

func (f *Fake) RegisterMessage(name string, size int) int {
	if id, ok := f.msgByName[name]; ok {
		return id
	}
	if f.refused[name] {
		return 0
	}
	id := f.nextMsgID
	f.nextMsgID++
	f.DefineMessage(name, id)
	return id
}

func (f *Fake) MessageBegin(dest engine.Dest, msgID int, origin *engine.Vec3, target entity.Ref) {
	c := Call{Op: "begin", Dest: dest, MsgID: msgID, Target: target}
	if origin != nil {
		c.Origin = *origin
	}
	f.Calls = append(f.Calls, c)
}

func (f *Fake) WriteByte(v int)      { f.Calls = append(f.Calls, Call{Op: "byte", Int: v}) }
func (f *Fake) WriteChar(v int)      { f.Calls = append(f.Calls, Call{Op: "char", Int: v}) }
func (f *Fake) WriteShort(v int)     { f.Calls = append(f.Calls, Call{Op: "short", Int: v}) }
func (f *Fake) WriteLong(v int)      { f.Calls = append(f.Calls, Call{Op: "long", Int: v}) }
func (f *Fake) WriteAngle(v float32) { f.Calls = append(f.Calls, Call{Op: "angle", Float: v}) }
func (f *Fake) WriteCoord(v float32) { f.Calls = append(f.Calls, Call{Op: "coord", Float: v}) }
func (f *Fake) WriteString(v string) { f.Calls = append(f.Calls, Call{Op: "string", Str: v}) }
func (f *Fake) WriteEntity(v int)    { f.Calls = append(f.Calls, Call{Op: "entity", Int: v}) }
func (f *Fake) MessageEnd()          { f.Calls = append(f.Calls, Call{Op: "end"}) }

// Reset clears the recorded wire log, keeping all tables intact.
func (f *Fake) Reset() { f.Calls = nil }

// Messages splits the wire log into one slice per begin..end sequence.
func (f *Fake) Messages() [][]Call {
	var out [][]Call
	var cur []Call
	for _, c := range f.Calls {
		cur = append(cur, c)
		if c.Op == "end" {
			out = append(out, cur)
			cur = nil
		}
	}
	if cur != nil {
		out = append(out, cur)
	}
	return out
}

func (f *Fake) RegisterCommand(name string, fn func()) {
	f.commands[name] = fn
}

// HasCommand reports whether a native command was registered under name.
func (f *Fake) HasCommand(name string) bool {
	_, ok := f.commands[name]
	return ok
}

// RunCommand invokes a registered native command the way the host console
// would, making the arguments readable through the Cmd accessors for the
// duration of the call.
func (f *Fake) RunCommand(name string, args ...string) bool {
	fn, ok := f.commands[name]
	if !ok {
		return false
	}
	f.argv = append([]string{name}, args...)
	fn()
	f.argv = nil
	return true
}

func (f *Fake) CmdArgc() int { return len(f.argv) }

func (f *Fake) CmdArgv(i int) string {
	if i < 0 || i >= len(f.argv) {
		return ""
	}
	return f.argv[i]
}

func (f *Fake) CmdArgs() string {
	if len(f.argv) < 2 {
		return ""
	}
	return strings.Join(f.argv[1:], " ")
}

// AddPlayer occupies a player slot and returns its handle. Re-adding an
// index models the host reusing the slot: the serial changes and handles
// to the previous occupant go stale.
func (f *Fake) AddPlayer(index int) entity.Ref {
	f.serial++
	ref := entity.Ref{Index: int32(index), Serial: f.serial}
	f.entities[index] = ref
	return ref
}

// RemovePlayer frees a player slot.
func (f *Fake) RemovePlayer(index int) {
	delete(f.entities, index)
	delete(f.authIDs, index)
}

// SetAuthID fixes the auth id reported for a slot.
func (f *Fake) SetAuthID(index int, authID string) {
	f.authIDs[index] = authID
}

func (f *Fake) EntityIndex(ref entity.Ref) int {
	return int(ref.Index)
}

func (f *Fake) EntityByIndex(index int) (entity.Ref, bool) {
	ref, ok := f.entities[index]
	return ref, ok
}

func (f *Fake) PlayerAuthID(ref entity.Ref) string {
	if id, ok := f.authIDs[int(ref.Index)]; ok {
		return id
	}
	return fmt.Sprintf("STEAM_0:0:%d", ref.Index)
}

func (f *Fake) TimeOffset() float64 { return f.Time }

// Advance moves the frame clock forward by dt seconds.
func (f *Fake) Advance(dt float64) { f.Time += dt }

func (f *Fake) CvarString(name string) (string, bool) {
	v, ok := f.cvars[name]
	return v, ok
}

func (f *Fake) SetCvarString(name, value string) {
	f.cvars[name] = value
}

func (f *Fake) PrecacheSound(path string) int {
	if idx, ok := f.sounds[path]; ok {
		return idx
	}
	idx := f.nextSound
	f.nextSound++
	f.sounds[path] = idx
	return idx
}
