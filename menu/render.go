package menu

import (
	"fmt"
	"math"
	"strings"

	"goldmod/engine"
	"goldmod/entity"
	"goldmod/message"
)

const showMenuMessage = "ShowMenu"

// textChunk is the most menu text one ShowMenu message may carry; longer
// blocks continue in follow-up messages flagged "more".
const textChunk = 175

const (
	prevSlotBit = 1 << 7 // slot 8
	nextSlotBit = 1 << 8 // slot 9
	exitSlotBit = 1 << 9 // slot 0
)

const (
	defaultPrev = "Previous"
	defaultNext = "Next"
	defaultBack = "Back"
	defaultExit = "Exit"
)

// renderPage lays out one page of the menu and computes the bitmask of
// live slots: slot n maps to bit n-1 and slot 0 to bit 9, which is the
// host's keypress-acceptance convention.
func renderPage(m *Menu, page int, backMode bool) (string, int) {
	pages := m.Pages()
	if page < 0 {
		page = 0
	}
	if page > pages-1 {
		page = pages - 1
	}

	var b strings.Builder
	if m.FormatTitle != nil {
		b.WriteString(m.FormatTitle(m.Title, page, pages))
	} else if pages > 1 {
		fmt.Fprintf(&b, "%s %d/%d", m.Title, page+1, pages)
	} else {
		b.WriteString(m.Title)
	}
	b.WriteString("\n\n")

	keys := 0
	items := m.Items()
	start := page * PageSize
	for i := 0; i < PageSize && start+i < len(items); i++ {
		it := items[start+i]
		slot := i + 1
		if !it.Disabled {
			keys |= 1 << (slot - 1)
		}
		if m.FormatItem != nil {
			b.WriteString(m.FormatItem(slot, it.Label, it.Disabled))
		} else if it.Disabled {
			b.WriteString("   " + it.Label)
		} else {
			fmt.Fprintf(&b, "%d. %s", slot, it.Label)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if page > 0 {
		keys |= prevSlotBit
		fmt.Fprintf(&b, "8. %s\n", orDefault(m.PrevLabel, defaultPrev))
	}
	if page < pages-1 {
		keys |= nextSlotBit
		fmt.Fprintf(&b, "9. %s\n", orDefault(m.NextLabel, defaultNext))
	}
	keys |= exitSlotBit
	if backMode {
		fmt.Fprintf(&b, "0. %s\n", orDefault(m.BackLabel, defaultBack))
	} else {
		fmt.Fprintf(&b, "0. %s\n", orDefault(m.ExitLabel, defaultExit))
	}

	return b.String(), keys
}

// sendMenu puts one rendered page on the wire, split into chunks when the
// text outgrows a single ShowMenu message. Every chunk repeats the key
// mask; only the last clears the more flag.
func (m *Manager) sendMenu(to entity.Ref, keys int, seconds float64, text string) {
	dest := engine.DestAll
	if !to.IsNil() {
		dest = engine.DestOne
	}

	secs := -1
	if seconds > 0 {
		secs = int(math.Ceil(seconds))
		if secs > 127 {
			secs = 127
		}
	}

	chunks := chunkText(text, textChunk)
	for i, c := range chunks {
		more := 0
		if i < len(chunks)-1 {
			more = 1
		}
		m.send.Send(message.Options{
			Type: showMenuMessage,
			Dest: dest,
			To:   to,
			Data: []message.Field{
				message.Short(keys),
				message.Char(secs),
				message.Byte(more),
				message.String(c),
			},
		})
	}
}

// sendBlank clears a recipient's menu display: no live keys, no text,
// zero display time.
func (m *Manager) sendBlank(to entity.Ref) {
	dest := engine.DestAll
	if !to.IsNil() {
		dest = engine.DestOne
	}
	m.send.Send(message.Options{
		Type: showMenuMessage,
		Dest: dest,
		To:   to,
		Data: []message.Field{
			message.Short(0),
			message.Char(0),
			message.Byte(0),
			message.String(""),
		},
	})
}

// chunkText splits by rune so no chunk encodes past the wire limit; the
// host code page is single-byte, one rune per wire byte.
func chunkText(s string, n int) []string {
	if len(s) <= n {
		return []string{s}
	}
	var out []string
	var b strings.Builder
	count := 0
	for _, r := range s {
		b.WriteRune(r)
		count++
		if count == n {
			out = append(out, b.String())
			b.Reset()
			count = 0
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
