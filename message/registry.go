package message

import (
	"goldmod/engine"
	"goldmod/internal/log"
)

// Registry memoizes the host's message name/id table. Lookups that miss
// fall through to the host and cache the answer both ways. The id 0 is
// the host's "no such message" sentinel and is never cached.
type Registry struct {
	eng    engine.Engine
	byName map[string]int
	byID   map[int]string
}

func NewRegistry(eng engine.Engine) *Registry {
	return &Registry{
		eng:    eng,
		byName: make(map[string]int),
		byID:   make(map[int]string),
	}
}

// ID resolves a message name to its numeric type, or 0 when the host does
// not know the name.
func (r *Registry) ID(name string) int {
	if id, ok := r.byName[name]; ok {
		return id
	}
	id, ok := r.eng.MessageID(name)
	if !ok || id == 0 {
		return 0
	}
	r.remember(name, id)
	return id
}

// Name resolves a numeric message type back to its name.
func (r *Registry) Name(id int) (string, bool) {
	if name, ok := r.byID[id]; ok {
		return name, true
	}
	name, ok := r.eng.MessageName(id)
	if !ok {
		return "", false
	}
	r.remember(name, id)
	return name, true
}

// Register declares a new message type with the host. size is the fixed
// byte length, or -1 for variable-length messages. Registering a name the
// host already knows returns the existing id.
func (r *Registry) Register(name string, size int) int {
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := r.eng.RegisterMessage(name, size)
	if id == 0 {
		log.Error("message registration rejected by host", "name", name)
		return 0
	}
	r.remember(name, id)
	return id
}

// Resolve returns the id for name, registering it as a variable-length
// message when the host has never heard of it.
func (r *Registry) Resolve(name string) int {
	if id := r.ID(name); id != 0 {
		return id
	}
	return r.Register(name, -1)
}

func (r *Registry) remember(name string, id int) {
	r.byName[name] = id
	r.byID[id] = name
}
