package message

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// The host speaks Windows-1252, one byte per character. Captured string
// fields keep those bytes untouched; conversion happens only at the edges
// so a replayed message is bit-identical to the original.

var (
	textDecoder = charmap.Windows1252.NewDecoder()
	textEncoder = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
)

// decodeText converts raw host bytes to UTF-8. Bytes without a mapping
// come back as the replacement rune.
func decodeText(raw string) string {
	out, err := textDecoder.String(raw)
	if err != nil {
		return raw
	}
	return out
}

// encodeText converts UTF-8 to the host's byte form. Characters outside
// Windows-1252 degrade to a substitute instead of failing the write.
func encodeText(s string) string {
	out, err := textEncoder.String(s)
	if err != nil {
		return s
	}
	return out
}
