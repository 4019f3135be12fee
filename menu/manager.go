package menu

import (
	"sort"
	"strconv"

	"goldmod/command"
	"goldmod/engine"
	"goldmod/entity"
	"goldmod/internal/log"
	"goldmod/message"
	"goldmod/player"
	"goldmod/sched"
)

// allKey is the session key broadcast menus share. Player slots start at
// 1, so 0 never collides with a real recipient.
const allKey = 0

// selectCommand is the reserved client command the game client emits for
// menu keypresses. It never collides with named commands and never falls
// through to default handling.
const selectCommand = "menuselect"

type session struct {
	menu    *Menu
	page    int
	history []*Menu
	all     bool
	to      entity.Ref
	used    map[int]bool
	timer   *sched.Handle
}

// Manager owns the active-session table, one session per recipient key
// plus at most one shared broadcast session. It claims the menuselect
// channel from the dispatcher at construction. All methods run on the
// server thread.
type Manager struct {
	send     *message.Sender
	sched    *sched.Scheduler
	sessions map[int]*session

	// DefaultSeconds is the auto-close duration applied to menus that do
	// not set their own. Zero or negative means menus stay up until acted
	// on.
	DefaultSeconds float64
}

func NewManager(send *message.Sender, d *command.Dispatcher, s *sched.Scheduler) *Manager {
	m := &Manager{
		send:     send,
		sched:    s,
		sessions: make(map[int]*session),
	}
	d.RegisterClient(selectCommand, m.handleSelect)
	return m
}

// Show displays the menu, replacing whatever session its recipient key
// already had. The first render is always page 0 with empty history.
func (m *Manager) Show(menu *Menu) {
	if menu == nil {
		return
	}
	key := allKey
	if !menu.To.IsNil() {
		key = menu.To.Key()
	}
	if old, ok := m.sessions[key]; ok {
		old.timer.Stop()
		delete(m.sessions, key)
	}
	sess := &session{
		menu: menu,
		all:  key == allKey,
		to:   menu.To,
		used: make(map[int]bool),
	}
	m.sessions[key] = sess
	log.Debug("menu shown", "title", menu.Title, "key", key, "broadcast", sess.all)
	m.redraw(key, sess)
}

// CloseMenu tears down the session for one recipient and blanks their
// menu display. Closing entity.Nil tears down the broadcast session.
func (m *Manager) CloseMenu(to entity.Ref) {
	key := to.Key()
	if sess, ok := m.sessions[key]; ok {
		m.destroy(key, sess, true)
	}
}

// CloseAllMenus tears down every session, blanking each display.
func (m *Manager) CloseAllMenus() {
	keys := make([]int, 0, len(m.sessions))
	for key := range m.sessions {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, key := range keys {
		m.destroy(key, m.sessions[key], true)
	}
}

// DropPlayer discards a detached player's session without touching the
// wire; there is nobody left to blank.
func (m *Manager) DropPlayer(key int) {
	if sess, ok := m.sessions[key]; ok {
		m.destroy(key, sess, false)
	}
}

// Reset discards every session without wire traffic, for map change and
// shutdown paths where the recipients are already gone.
func (m *Manager) Reset() {
	for key, sess := range m.sessions {
		sess.timer.Stop()
		delete(m.sessions, key)
	}
}

// ActiveSessions reports how many sessions are live.
func (m *Manager) ActiveSessions() int { return len(m.sessions) }

// handleSelect is the registered menuselect handler. Menu interaction
// never falls through to chat or console handling, so it supersedes even
// when no session matches the presser.
func (m *Manager) handleSelect(ctx *command.Context) engine.Result {
	if ctx.Player == nil {
		return engine.ResultSupersede
	}
	n, err := strconv.Atoi(ctx.Arg(1))
	if err != nil || n < 1 || n > 10 {
		return engine.ResultSupersede
	}
	m.press(ctx.Player, n%10)
	return engine.ResultSupersede
}

// press applies one keypress to the presser's own session, or to the
// shared broadcast session when they have none. Inputs matching no
// transition are ignored without touching the timeout.
func (m *Manager) press(p *player.Player, slot int) {
	key := p.Key()
	sess, ok := m.sessions[key]
	if !ok {
		key = allKey
		sess, ok = m.sessions[key]
		if !ok {
			return
		}
	}

	menu := sess.menu
	switch {
	case slot == 0:
		if n := len(sess.history); n > 0 {
			sess.menu = sess.history[n-1]
			sess.history = sess.history[:n-1]
			sess.page = 0
			m.redraw(key, sess)
			return
		}
		m.invokeExit(menu, p)
		// The client hid the menu on the keypress; no blank needed.
		m.destroy(key, sess, false)

	case slot == 8:
		if sess.page > 0 {
			sess.page--
			m.redraw(key, sess)
		}

	case slot == 9:
		if sess.page < menu.Pages()-1 {
			sess.page++
			m.redraw(key, sess)
		}

	default:
		idx := sess.page*PageSize + slot - 1
		items := menu.Items()
		if idx < 0 || idx >= len(items) {
			return
		}
		it := items[idx]
		if it.Disabled {
			return
		}
		switch {
		case it.Submenu != nil:
			sess.history = append(sess.history, menu)
			sess.menu = it.Submenu
			sess.page = 0
			m.redraw(key, sess)
		case it.Handler != nil:
			sess.used[p.Key()] = true
			m.invokeHandler(menu, it, p)
			if sess.all {
				m.rearm(key, sess)
			} else {
				m.destroy(key, sess, false)
			}
		}
	}
}

func (m *Manager) redraw(key int, sess *session) {
	text, keys := renderPage(sess.menu, sess.page, len(sess.history) > 0)
	m.sendMenu(sess.to, keys, m.effectiveSeconds(sess.menu), text)
	m.rearm(key, sess)
}

// rearm cancels and, when the menu wants auto-close, reschedules the
// timeout. Every transition goes through here, so interacting keeps a
// menu alive. A session that lost its key to a newer menu stays stopped.
func (m *Manager) rearm(key int, sess *session) {
	sess.timer.Stop()
	sess.timer = nil
	if cur, ok := m.sessions[key]; !ok || cur != sess {
		return
	}
	secs := m.effectiveSeconds(sess.menu)
	if secs <= 0 {
		return
	}
	sess.timer = m.sched.After(secs, func() {
		m.timeout(key, sess)
	})
}

// timeout tears the session down like an exit. The client was told the
// display seconds up front and hides the menu on its own, so no blank goes
// out. A timer whose session no longer owns the key does nothing.
func (m *Manager) timeout(key int, sess *session) {
	if cur, ok := m.sessions[key]; !ok || cur != sess {
		return
	}
	log.Debug("menu timed out", "title", sess.menu.Title, "key", key)
	if fn := sess.menu.OnTimeout; fn != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("menu timeout callback panic", "menu", sess.menu.Title, "panic", r)
				}
			}()
			fn()
		}()
	}
	m.destroy(key, sess, false)
}

// destroy stops the session's timer and, if it still owns its key, removes
// it. A replacement shown from inside a handler or callback keeps the key.
func (m *Manager) destroy(key int, sess *session, blank bool) {
	sess.timer.Stop()
	sess.timer = nil
	if cur, ok := m.sessions[key]; !ok || cur != sess {
		return
	}
	delete(m.sessions, key)
	if blank {
		m.sendBlank(sess.to)
	}
}

func (m *Manager) effectiveSeconds(menu *Menu) float64 {
	switch {
	case menu.Seconds > 0:
		return menu.Seconds
	case menu.Seconds < 0:
		return 0
	default:
		return m.DefaultSeconds
	}
}

func (m *Manager) invokeExit(menu *Menu, p *player.Player) {
	if menu.OnExit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("menu exit callback panic", "menu", menu.Title, "panic", r)
		}
	}()
	menu.OnExit(p)
}

func (m *Manager) invokeHandler(menu *Menu, it *Item, p *player.Player) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("menu item handler panic", "menu", menu.Title, "item", it.Label, "panic", r)
		}
	}()
	it.Handler(p)
}
