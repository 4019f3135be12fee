// Package menu renders paginated numeric-keypress menus over the message
// sender and turns the reserved menuselect client command into navigation
// and selection actions.
package menu

import (
	"goldmod/entity"
	"goldmod/player"
)

// PageSize is how many selectable items fit on one page. Slots 8, 9 and 0
// are reserved for previous, next and back-or-exit.
const PageSize = 7

// Item is one selectable line. Submenu wins over Handler when both are
// set; a disabled item renders without a live key.
type Item struct {
	Label    string
	Handler  func(p *player.Player)
	Submenu  *Menu
	Disabled bool
}

// Menu is a displayable set of items. It is configuration only: showing a
// menu never mutates it, all live state sits in the per-recipient session.
// To binds the menu to one recipient; left zero, Show broadcasts it to
// every player and all of them share one session.
type Menu struct {
	Title   string
	To      entity.Ref
	Seconds float64

	// Slot-0 reads BackLabel when session history is non-empty, ExitLabel
	// otherwise. Empty labels fall back to the package defaults.
	PrevLabel string
	NextLabel string
	BackLabel string
	ExitLabel string

	// OnExit runs when a player leaves via slot 0. OnTimeout runs when the
	// auto-close timer fires; no player caused it, so it takes none.
	OnExit    func(p *player.Player)
	OnTimeout func()

	// FormatTitle and FormatItem override the default text layout.
	FormatTitle func(title string, page, pages int) string
	FormatItem  func(slot int, label string, disabled bool) string

	items  []*Item
	parent *Menu
}

func New(title string) *Menu {
	return &Menu{Title: title}
}

// Add appends an item. Attaching a submenu records this menu as its
// parent.
func (m *Menu) Add(item Item) *Menu {
	it := item
	if it.Submenu != nil {
		it.Submenu.parent = m
	}
	m.items = append(m.items, &it)
	return m
}

// AddLine appends a plain selectable item.
func (m *Menu) AddLine(label string, h func(*player.Player)) *Menu {
	return m.Add(Item{Label: label, Handler: h})
}

// Items returns the item list in display order.
func (m *Menu) Items() []*Item { return m.items }

// Parent returns the menu this one is attached under, or nil.
func (m *Menu) Parent() *Menu { return m.parent }

// Pages reports how many pages the menu renders to. Even an empty menu
// has one page so the exit slot is reachable.
func (m *Menu) Pages() int {
	n := (len(m.items) + PageSize - 1) / PageSize
	if n < 1 {
		return 1
	}
	return n
}

// NewList builds a menu of labels routed to one pick callback.
func NewList(title string, labels []string, onPick func(p *player.Player, index int, label string)) *Menu {
	m := New(title)
	for i, label := range labels {
		m.AddLine(label, func(p *player.Player) { onPick(p, i, label) })
	}
	return m
}

// NewYesNo builds a two-item yes/no menu.
func NewYesNo(title string, onYes, onNo func(p *player.Player)) *Menu {
	return New(title).
		AddLine("Yes", onYes).
		AddLine("No", onNo)
}

// NewConfirm builds a confirm/cancel menu. Cancel runs the menu's exit
// path rather than a handler, so OnExit set afterwards sees it.
func NewConfirm(title string, onConfirm func(p *player.Player)) *Menu {
	m := New(title)
	m.AddLine("Confirm", onConfirm)
	m.AddLine("Cancel", func(p *player.Player) {
		if m.OnExit != nil {
			m.OnExit(p)
		}
	})
	return m
}
