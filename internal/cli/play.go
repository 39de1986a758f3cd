package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/ws"
)

const playHelp = "commands: attack (a), defend (d), restart (r), status (s), quit (q)"

func newPlayCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "play <identity>",
		Short: "Join the arena and battle from the terminal",
		Long: `Connect to the arena websocket as <identity>, wait for an opponent and
battle by typing commands on stdin:

  attack  (a)  strike the opponent for 10-29 damage
  defend  (d)  recover up to 10 health
  restart (r)  leave the current battle and queue for a new one
  status  (s)  ask the server for the current turn state
  quit    (q)  disconnect (an active battle is forfeited)

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := cfg.WebSocketURL()
			if err != nil {
				return err
			}

			// Set up cancellation
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Handle interrupt
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			return Play(ctx, wsURL, args[0], os.Stdin, os.Stdout, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// PlayEvent is one received event in --json mode
type PlayEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Play joins the arena as identity, prints received events to out and sends
// the commands read from in until quit, end of input, ctx cancellation or
// the server closing the connection
func Play(ctx context.Context, wsURL, identity string, in io.Reader, out io.Writer, jsonOutput bool) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	styles := newEventStyles(out)
	w := &lockedWriter{w: out}

	if err := sendEvent(conn, model.EventSetup, identity); err != nil {
		return err
	}

	// Reader goroutine: the only reader of conn
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var env ws.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			printEvent(w, styles, identity, env, jsonOutput)
		}
	}()

	// Input goroutine
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readDone:
				return
			}
		}
	}()

	if !jsonOutput {
		fmt.Fprintln(w, playHelp)
	}

	for {
		select {
		case <-ctx.Done():
			return closeConn(conn, w, jsonOutput)
		case <-readDone:
			if !jsonOutput {
				fmt.Fprintln(w, "Disconnected by server")
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return closeConn(conn, w, jsonOutput)
			}
			event, quit, err := parseCommand(line)
			if err != nil {
				fmt.Fprintf(w, "%s; %s\n", err, playHelp)
				continue
			}
			if quit {
				return closeConn(conn, w, jsonOutput)
			}
			if event == "" {
				continue
			}
			if err := sendEvent(conn, event, identity); err != nil {
				return err
			}
		}
	}
}

// parseCommand maps a typed command to the event it sends
func parseCommand(line string) (event model.EventName, quit bool, err error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return "", false, nil
	case "attack", "a":
		return model.EventPlayerAttack, false, nil
	case "defend", "d":
		return model.EventPlayerDefend, false, nil
	case "restart", "r":
		return model.EventRestartBattle, false, nil
	case "status", "s":
		return model.EventReadyForBattle, false, nil
	case "quit", "q", "exit":
		return "", true, nil
	default:
		return "", false, fmt.Errorf("unknown command %q", strings.TrimSpace(line))
	}
}

func sendEvent(conn *websocket.Conn, event model.EventName, identity string) error {
	frame, err := ws.Encode(event, model.AddressPayload{Address: identity})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

func closeConn(conn *websocket.Conn, w io.Writer, jsonOutput bool) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, styles eventStyles, identity string, env ws.Envelope, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(PlayEvent{Time: time.Now(), Event: string(env.Event), Data: env.Data})
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintln(w, styles.render(env.Event, formatEvent(identity, env)))
}

// eventStyles colours event lines. The renderer is bound to the real output
// so anything that is not a terminal gets plain text.
type eventStyles struct {
	banner   lipgloss.Style
	yourMove lipgloss.Style
	muted    lipgloss.Style
	alert    lipgloss.Style
}

func newEventStyles(out io.Writer) eventStyles {
	r := lipgloss.NewRenderer(out)
	return eventStyles{
		banner:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80")),
		yourMove: r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(lipgloss.Color("245")),
		alert:    r.NewStyle().Foreground(lipgloss.Color("#f87171")),
	}
}

func (s eventStyles) render(event model.EventName, line string) string {
	switch event {
	case model.EventBattleStart, model.EventBattleEnd:
		return s.banner.Render(line)
	case model.EventError:
		return s.alert.Render(line)
	case model.EventTurnUpdate:
		if strings.HasSuffix(line, "your move") {
			return s.yourMove.Render(line)
		}
		return s.muted.Render(line)
	}
	return line
}

// formatEvent renders an event from the point of view of identity
func formatEvent(identity string, env ws.Envelope) string {
	switch env.Event {
	case model.EventConnected:
		return "Connected as " + identity
	case model.EventBattleStart:
		var p model.BattleStartPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return fmt.Sprintf("Battle started: %s vs %s", p.Player1Address, p.Player2Address)
		}
	case model.EventTurnUpdate:
		var p model.TurnUpdatePayload
		if json.Unmarshal(env.Data, &p) == nil {
			next := "waiting for " + p.PlayerTurn
			if p.PlayerTurn == identity {
				next = "your move"
			}
			return fmt.Sprintf("Turn %d | you: %d HP | opponent: %d HP | %s",
				p.CurrentTurn, p.PlayerHealth, p.OpponentHealth, next)
		}
	case model.EventBattleEnd:
		var p model.BattleEndPayload
		if json.Unmarshal(env.Data, &p) == nil {
			switch p.Winner {
			case identity:
				return "Battle over: you win! (restart to play again)"
			case model.WinnerOpponentDisconnected, model.WinnerOpponentForfeited:
				return fmt.Sprintf("Battle over: %s, you win! (restart to play again)", strings.ToLower(p.Winner))
			default:
				return fmt.Sprintf("Battle over: %s wins (restart to play again)", p.Winner)
			}
		}
	case model.EventError:
		var p model.ErrorPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return "Error: " + p.Message
		}
	}
	return fmt.Sprintf("%s: %s", env.Event, string(env.Data))
}

// lockedWriter serializes writes from the reader and input loops
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
