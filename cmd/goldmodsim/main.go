// Command goldmodsim runs the goldmod bridge against an in-memory engine so
// plugin code can be exercised without a game server. Host events are typed
// at a small console prompt and the wire traffic the bridge produces is
// printed back.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"goldmod"
	"goldmod/command"
	"goldmod/engine"
	"goldmod/engine/enginetest"
	"goldmod/internal/log"
	"goldmod/menu"
	"goldmod/message"
	"goldmod/player"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// frameStep is how far the simulated server clock moves per pumped frame.
const frameStep = 0.1

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("GLOBAL PANIC recovered", "error", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "Simulator crashed. See goldmodsim.log for details.\n")
			os.Exit(1)
		}
	}()

	if err := log.SetFileOutput("goldmodsim.log"); err != nil {
		fmt.Printf("Warning: could not log to file: %v\n", err)
	}
	defer log.Close()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)

	f := enginetest.New()
	f.DefineMessage("TextMsg", 75)
	f.DefineMessage("SayText", 76)
	f.DefineMessage("ShowMenu", 90)

	bridge, err := goldmod.New(f, goldmod.LoadConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridge: %v\n", err)
		os.Exit(1)
	}
	defer bridge.Close()

	installDemo(bridge, f)

	tty := isatty.IsTerminal(os.Stdout.Fd())
	if tty {
		fmt.Printf("goldmodsim %s (%s, %s)\n", version, commit, date)
		fmt.Println(`Type "help" for host events to simulate.`)
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		if tty {
			fmt.Print("goldmod> ")
		}
		select {
		case sig := <-signalChan:
			fmt.Printf("\nreceived %s, shutting down\n", sig)
			bridge.ServerDeactivate()
			return
		case line, ok := <-lines:
			if !ok {
				bridge.ServerDeactivate()
				return
			}
			if quit := run(bridge, f, line); quit {
				bridge.ServerDeactivate()
				return
			}
		}
	}
}

// installDemo registers a little of everything so every subsystem has
// observable behavior out of the box.
func installDemo(b *goldmod.Bridge, f *enginetest.Fake) {
	// Chat lines cross the wire as SayText; watch and report them.
	b.Messages().OnMessage("SayText", func(c *message.Capture) {
		for _, fd := range c.Fields {
			if fd.Kind == message.KindString {
				fmt.Printf("  [intercept] SayText %q\n", fd.Text())
			}
		}
	})

	// "hello" answers the caller over a targeted TextMsg.
	b.Commands().RegisterClient("hello", func(ctx *command.Context) engine.Result {
		b.Send(message.Options{
			Type: "TextMsg",
			Dest: engine.DestOne,
			To:   ctx.Player.Ref,
			Data: []message.Field{
				message.Byte(4),
				message.String("Hello, " + ctx.Player.Name + "!"),
			},
		})
		return engine.ResultHandled
	})

	// "maps" opens a paginated pick list with a confirm step.
	maps := []string{
		"crossfire", "boot_camp", "bounce", "datacore", "lambda_bunker",
		"rapidcore", "snark_pit", "stalkyard", "subtransit", "undertow",
	}
	b.Commands().RegisterClient("maps", func(ctx *command.Context) engine.Result {
		m := menu.NewList("Choose map", maps, func(p *player.Player, i int, label string) {
			confirm := menu.NewConfirm("Switch to "+label+"?", func(p *player.Player) {
				fmt.Printf("  [menu] %s voted %s\n", p.Name, label)
			})
			confirm.To = p.Ref
			b.Menus().Show(confirm)
		})
		m.To = ctx.Player.Ref
		m.Seconds = 30
		b.Menus().Show(m)
		return engine.ResultHandled
	})

	// Console-side roster dump, also reachable from the say prompt; it is
	// console context so the dispatcher claims it outright for clients.
	b.Commands().Register("roster", func(ctx *command.Context) engine.Result {
		b.Players().Each(func(p *player.Player) {
			fmt.Printf("  slot %d  %-12s %s\n", p.Ref.Index, p.Name, p.AuthID)
		})
		return engine.ResultHandled
	})

	// Frame-clock heartbeat, visible in the log file at debug level.
	b.Scheduler().Every(30, func() {
		log.Debug("heartbeat", "uptime", f.TimeOffset(), "players", b.Players().Count())
	})
}

// run applies one console line as a host event. It reports true on quit.
func run(b *goldmod.Bridge, f *enginetest.Fake, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "quit", "exit":
		return true

	case "help":
		fmt.Print(`  join <slot> <name>   attach a client and put them in game
  leave <slot>         disconnect a client
  say <slot> <line>    issue a client command (try: hello, maps, menuselect 1)
  con <line>           run a line in console context (try: roster)
  frame [n]            pump n server frames (default 1, 0.1s each)
  wire                 print and clear the captured wire traffic
  quit                 leave the simulator
`)

	case "join":
		if len(args) < 3 {
			fmt.Println("  usage: join <slot> <name>")
			return false
		}
		slot, err := strconv.Atoi(args[1])
		if err != nil || slot < 1 {
			fmt.Println("  slot must be a positive number")
			return false
		}
		ref := f.AddPlayer(slot)
		b.ClientConnect(ref, args[2], fmt.Sprintf("10.0.0.%d:27005", slot))
		b.ClientPutInServer(ref)
		fmt.Printf("  %s joined in slot %d\n", args[2], slot)

	case "leave":
		if len(args) < 2 {
			fmt.Println("  usage: leave <slot>")
			return false
		}
		slot, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("  usage: leave <slot>")
			return false
		}
		if ref, ok := f.EntityByIndex(slot); ok {
			b.ClientDisconnect(ref)
			f.RemovePlayer(slot)
			fmt.Printf("  slot %d left\n", slot)
		}

	case "say":
		if len(args) < 3 {
			fmt.Println("  usage: say <slot> <line>")
			return false
		}
		slot, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("  usage: say <slot> <line>")
			return false
		}
		ref, ok := f.EntityByIndex(slot)
		if !ok {
			fmt.Printf("  nobody in slot %d\n", slot)
			return false
		}
		raw := strings.Join(args[2:], " ")
		result := b.ClientCommand(ref, raw)
		fmt.Printf("  -> %s\n", result)

	case "con":
		if len(args) < 2 {
			fmt.Println("  usage: con <line>")
			return false
		}
		result := b.Commands().Run(strings.Join(args[1:], " "))
		fmt.Printf("  -> %s\n", result)

	case "frame":
		n := 1
		if len(args) > 1 {
			if v, err := strconv.Atoi(args[1]); err == nil && v > 0 {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			f.Advance(frameStep)
			b.StartFrame()
		}
		fmt.Printf("  uptime %.1fs\n", f.TimeOffset())

	case "wire":
		dumpWire(f)

	default:
		fmt.Printf("  unknown event %q, try help\n", args[0])
	}
	return false
}

// dumpWire prints everything the engine saw since the last dump.
func dumpWire(f *enginetest.Fake) {
	msgs := f.Messages()
	if len(msgs) == 0 {
		fmt.Println("  (wire is quiet)")
	}
	for _, msg := range msgs {
		for _, call := range msg {
			switch call.Op {
			case "begin":
				name, _ := f.MessageName(call.MsgID)
				to := "all"
				if !call.Target.IsNil() {
					to = fmt.Sprintf("slot %d", call.Target.Index)
				}
				fmt.Printf("  begin %s (%d) %s -> %s\n", name, call.MsgID, call.Dest, to)
			case "string":
				fmt.Printf("    string %q\n", call.Str)
			case "angle", "coord":
				fmt.Printf("    %s %v\n", call.Op, call.Float)
			case "end":
				fmt.Println("  end")
			default:
				fmt.Printf("    %s %d\n", call.Op, call.Int)
			}
		}
	}
	f.Reset()
}
