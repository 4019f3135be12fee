package message

import (
	"fmt"

	"goldmod/engine"
	"goldmod/entity"
	"goldmod/internal/log"
)

// Options describes one outgoing message. Type names the message
// symbolically and is auto-registered with the host when unknown; TypeID
// bypasses resolution when non-zero. To is only honored for targeted
// destinations; broadcast destinations always go out with no recipient.
type Options struct {
	Type   string
	TypeID int
	Dest   engine.Dest
	To     entity.Ref
	Origin *engine.Vec3
	Data   []Field
}

// Sender builds brand-new outgoing messages, independent of any capture.
type Sender struct {
	eng engine.Engine
	reg *Registry
}

func NewSender(eng engine.Engine, reg *Registry) *Sender {
	return &Sender{eng: eng, reg: reg}
}

// Send resolves, validates, and transmits one message. Problems are logged
// and the send is dropped whole; a half-written message would corrupt the
// host's network framing, so nothing is begun until everything checks out.
func (s *Sender) Send(opts Options) {
	id := opts.TypeID
	if id == 0 && opts.Type != "" {
		id = s.reg.Resolve(opts.Type)
	}
	if id == 0 {
		log.Error("message send aborted: unresolved type", "type", opts.Type)
		return
	}

	target := opts.To
	if !opts.Dest.Targeted() {
		target = entity.Nil
	} else if target.IsNil() {
		log.Error("message send aborted: destination needs a recipient",
			"type", opts.Type, "dest", opts.Dest)
		return
	}

	if err := checkFields(opts.Data); err != nil {
		log.Error("message send aborted: bad field list", "type", opts.Type, "error", err)
		return
	}

	origin := opts.Origin
	if origin == nil {
		origin = &engine.Vec3{}
	}

	s.eng.MessageBegin(opts.Dest, id, origin, target)
	for _, f := range opts.Data {
		writeField(s.eng, f)
	}
	s.eng.MessageEnd()
}

func checkFields(fields []Field) error {
	for i, f := range fields {
		if f.Kind < KindByte || f.Kind > KindEntity {
			return fmt.Errorf("field %d: unknown kind %d", i, f.Kind)
		}
	}
	return nil
}

// writeField re-emits one field through the host's write primitives.
// Constructed strings get encoded on the way out; captured ones are
// already in host bytes and go through verbatim.
func writeField(eng engine.Engine, f Field) {
	switch f.Kind {
	case KindByte:
		eng.WriteByte(int(f.Int))
	case KindChar:
		eng.WriteChar(int(f.Int))
	case KindShort:
		eng.WriteShort(int(f.Int))
	case KindLong:
		eng.WriteLong(int(f.Int))
	case KindAngle:
		eng.WriteAngle(f.Float)
	case KindCoord:
		eng.WriteCoord(f.Float)
	case KindString:
		if f.raw {
			eng.WriteString(f.Str)
		} else {
			eng.WriteString(encodeText(f.Str))
		}
	case KindEntity:
		if !f.Ent.IsNil() {
			eng.WriteEntity(eng.EntityIndex(f.Ent))
		} else {
			eng.WriteEntity(int(f.Int))
		}
	}
}
