package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to stdout and stderr
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout, errW: os.Stderr}
}

// NewOutputTo creates a new Output formatter writing everything to w
func NewOutputTo(format string, w io.Writer) *Output {
	return &Output{format: format, w: w, errW: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError reports err on the error stream. JSON output mirrors the
// API's error body, keeping the code when the server sent one.
func (o *Output) PrintError(err error) {
	if o.format != "json" {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
		return
	}

	body := APIError{Message: err.Error()}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		body = *apiErr
	}
	data, _ := json.Marshal(ErrorResponse{Error: body})
	fmt.Fprintln(o.errW, string(data))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case SessionList:
		o.printSessionList(v)
	case Session:
		o.printSession(v)
	case Record:
		o.printRecord(v)
	case ResultList:
		o.printResultList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type (matches API)
type HealthResult struct {
	Status      string   `json:"status"`
	Storage     string   `json:"storage"`
	Players     int      `json:"players"`
	Queued      int      `json:"queued"`
	Queue       []string `json:"queue"`
	Sessions    int      `json:"sessions"`
	Connections int      `json:"connections"`
}

// Participant response type
type Participant struct {
	Identity string `json:"identity"`
	Health   int    `json:"health"`
}

// Action response type
type Action struct {
	Turn   int    `json:"turn"`
	Actor  string `json:"actor"`
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
}

// Session response type
type Session struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Players     []Participant `json:"players"`
	CurrentTurn string        `json:"current_turn"`
	TurnNumber  int           `json:"turn_number"`
	Log         []Action      `json:"log"`
	CreatedAt   time.Time     `json:"created_at"`
}

// SessionList response type
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// Record response type
type Record struct {
	Identity string `json:"identity"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Battles  int    `json:"battles"`
}

// Result response type
type Result struct {
	SessionID string    `json:"session_id"`
	Players   []string  `json:"players"`
	Winner    *string   `json:"winner"`
	Loser     *string   `json:"loser"`
	Reason    string    `json:"reason"`
	Turns     int       `json:"turns"`
	EndedAt   time.Time `json:"ended_at"`
}

// ResultList response type
type ResultList struct {
	Results []Result `json:"results"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	fmt.Fprintf(o.w, "Players: %d (%d queued)\n", h.Players, h.Queued)
	if len(h.Queue) > 0 {
		fmt.Fprintf(o.w, "Queue: %s\n", strings.Join(h.Queue, ", "))
	}
	fmt.Fprintf(o.w, "Sessions: %d\n", h.Sessions)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func (o *Output) printSessionList(l SessionList) {
	if len(l.Sessions) == 0 {
		fmt.Fprintln(o.w, "No active sessions")
		return
	}
	for i, s := range l.Sessions {
		if i > 0 {
			fmt.Fprintln(o.w)
		}
		o.printSession(s)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Session: %s (%s)\n", s.ID, s.Status)
	fmt.Fprintf(o.w, "Turn: %d, %s to move\n", s.TurnNumber, s.CurrentTurn)
	for _, p := range s.Players {
		fmt.Fprintf(o.w, "  - %s: %d HP\n", p.Identity, p.Health)
	}
	if len(s.Log) > 0 {
		last := s.Log[len(s.Log)-1]
		fmt.Fprintf(o.w, "Last action: %s %s (%d)\n", last.Actor, last.Kind, last.Amount)
	}
}

func (o *Output) printRecord(r Record) {
	fmt.Fprintf(o.w, "Player: %s\n", r.Identity)
	fmt.Fprintf(o.w, "Battles: %d\n", r.Battles)
	fmt.Fprintf(o.w, "Wins: %d\n", r.Wins)
	fmt.Fprintf(o.w, "Losses: %d\n", r.Losses)
}

func (o *Output) printResultList(l ResultList) {
	if len(l.Results) == 0 {
		fmt.Fprintln(o.w, "No results yet")
		return
	}
	for _, r := range l.Results {
		winner := "none"
		if r.Winner != nil {
			winner = *r.Winner
		}
		fmt.Fprintf(o.w, "%s  %s  winner: %s  (%s after %d turns)\n",
			r.EndedAt.Format("2006-01-02 15:04:05"),
			strings.Join(r.Players, " vs "),
			winner,
			r.Reason,
			r.Turns)
	}
}
