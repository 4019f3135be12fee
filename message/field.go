package message

import "goldmod/entity"

// Kind tags one typed field inside a network message. Each kind maps 1:1
// onto a host write primitive and its native range.
type Kind int

const (
	KindByte   Kind = iota // unsigned 8-bit
	KindChar               // signed 8-bit
	KindShort              // 16-bit
	KindLong               // 32-bit
	KindAngle              // fixed-point angle
	KindCoord              // fixed-point world coordinate
	KindString             // NUL-terminated Windows-1252 bytes
	KindEntity             // entity, resolved to its index before transmission
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindChar:
		return "char"
	case KindShort:
		return "short"
	case KindLong:
		return "long"
	case KindAngle:
		return "angle"
	case KindCoord:
		return "coord"
	case KindString:
		return "string"
	case KindEntity:
		return "entity"
	default:
		return "unknown"
	}
}

// Field is one typed value written into a message. Only the slot matching
// Kind is meaningful. String fields captured off the wire hold the host's
// raw bytes so replay stays byte-faithful; use Text for a readable view.
type Field struct {
	Kind  Kind
	Int   int32
	Float float32
	Str   string
	Ent   entity.Ref

	raw bool
}

// Byte builds an unsigned 8-bit field.
func Byte(v int) Field { return Field{Kind: KindByte, Int: int32(v)} }

// Char builds a signed 8-bit field.
func Char(v int) Field { return Field{Kind: KindChar, Int: int32(v)} }

// Short builds a 16-bit field.
func Short(v int) Field { return Field{Kind: KindShort, Int: int32(v)} }

// Long builds a 32-bit field.
func Long(v int) Field { return Field{Kind: KindLong, Int: int32(v)} }

// Angle builds a fixed-point angle field.
func Angle(v float32) Field { return Field{Kind: KindAngle, Float: v} }

// Coord builds a fixed-point coordinate field.
func Coord(v float32) Field { return Field{Kind: KindCoord, Float: v} }

// String builds a text field. The sender encodes it to the host's
// Windows-1252 byte form on transmission.
func String(s string) Field { return Field{Kind: KindString, Str: s} }

// RawString builds a text field whose bytes go on the wire exactly as
// given, with no encoding pass. Captured string fields use this form.
func RawString(s string) Field { return Field{Kind: KindString, Str: s, raw: true} }

// Entity builds an entity field from a handle. The sender resolves it to
// the host's numeric index on transmission.
func Entity(ref entity.Ref) Field { return Field{Kind: KindEntity, Ent: ref} }

// EntityIndex builds an entity field from an already-resolved index.
func EntityIndex(n int) Field { return Field{Kind: KindEntity, Int: int32(n)} }

// Text decodes a captured string field's host bytes to UTF-8. For other
// kinds it returns the empty string.
func (f Field) Text() string {
	if f.Kind != KindString {
		return ""
	}
	return decodeText(f.Str)
}
