// Package engine defines the boundary between goldmod and the native game
// server host. The host owns entities, networking, console variables and
// file I/O; everything the library needs from it goes through the Engine
// interface so tests can substitute a recording fake.
package engine

import "goldmod/entity"

// Vec3 is a world-space position in the host's float triplet layout.
type Vec3 [3]float32

// Engine is the set of host primitives the library calls. A cgo shim binds
// it to the real server process; enginetest.Fake records calls for tests.
//
// CRITICAL: every method must be invoked from the server thread. The host
// never interleaves two message sequences or two input events, and the
// library relies on that.
type Engine interface {
	// Message primitives. MessageID resolves a registered message name to
	// its numeric type, RegisterMessage registers a new user message (size
	// -1 means variable length) and returns its assigned type. Both return
	// 0 for names the host refuses; 0 is never a valid message type.
	MessageID(name string) (int, bool)
	MessageName(id int) (string, bool)
	RegisterMessage(name string, size int) int

	MessageBegin(dest Dest, msgID int, origin *Vec3, target entity.Ref)
	WriteByte(v int)
	WriteChar(v int)
	WriteShort(v int)
	WriteLong(v int)
	WriteAngle(v float32)
	WriteCoord(v float32)
	WriteString(v string)
	WriteEntity(v int)
	MessageEnd()

	// Native command table. The callback receives no arguments; it reads
	// them back through the Cmd accessors, which reflect the host's own
	// tokenization of the console line.
	RegisterCommand(name string, fn func())
	CmdArgc() int
	CmdArgv(i int) string
	CmdArgs() string

	// Entity handles resolve to stable numeric indices for transmission.
	EntityIndex(ref entity.Ref) int
	EntityByIndex(index int) (entity.Ref, bool)
	PlayerAuthID(ref entity.Ref) string

	// TimeOffset reports server uptime in seconds (the host's frame clock).
	TimeOffset() float64

	// Console variable storage lives in the host; goldmod only passes
	// values through, it never caches them.
	CvarString(name string) (string, bool)
	SetCvarString(name, value string)

	// PrecacheSound returns the host's sound table index for a path.
	PrecacheSound(path string) int
}
