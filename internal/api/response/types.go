package response

import (
	"time"

	"github.com/mcoot/battlearena/internal/model"
)

// Health is the response of the health endpoint
type Health struct {
	Status      string   `json:"status"`
	Storage     string   `json:"storage"`
	Players     int      `json:"players"`
	Queued      int      `json:"queued"`
	Queue       []string `json:"queue"`
	Sessions    int      `json:"sessions"`
	Connections int      `json:"connections"`
}

// QueueFromModel converts queued identities, keeping an empty queue as []
func QueueFromModel(queue []model.Identity) []string {
	out := make([]string, len(queue))
	for i, identity := range queue {
		out[i] = string(identity)
	}
	return out
}

// Participant is one side of a session
type Participant struct {
	Identity string `json:"identity"`
	Health   int    `json:"health"`
}

// Session represents a live battle session
type Session struct {
	ID          string               `json:"id"`
	Status      string               `json:"status"`
	Players     []Participant        `json:"players"`
	CurrentTurn string               `json:"current_turn"`
	TurnNumber  int                  `json:"turn_number"`
	Log         []model.ActionRecord `json:"log"`
	CreatedAt   time.Time            `json:"created_at"`
}

// SessionFromModel converts a session snapshot
func SessionFromModel(s model.Session) Session {
	players := make([]Participant, len(s.Participants))
	for i, p := range s.Participants {
		players[i] = Participant{Identity: string(p.Identity), Health: p.Health}
	}
	log := s.Log
	if log == nil {
		log = []model.ActionRecord{}
	}
	return Session{
		ID:          string(s.ID),
		Status:      string(s.Status),
		Players:     players,
		CurrentTurn: string(s.CurrentTurn),
		TurnNumber:  s.TurnNumber,
		Log:         log,
		CreatedAt:   s.CreatedAt,
	}
}

// SessionList wraps the active sessions
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// SessionListFromModel converts session snapshots
func SessionListFromModel(sessions []model.Session) SessionList {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = SessionFromModel(s)
	}
	return SessionList{Sessions: out}
}

// Record is a player's win/loss record
type Record struct {
	Identity string `json:"identity"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Battles  int    `json:"battles"`
}

// RecordFromModel converts model.PlayerRecord
func RecordFromModel(r *model.PlayerRecord) Record {
	return Record{
		Identity: string(r.Identity),
		Wins:     r.Wins,
		Losses:   r.Losses,
		Battles:  r.Battles,
	}
}

// Result is a finished battle
type Result struct {
	SessionID string    `json:"session_id"`
	Players   []string  `json:"players"`
	Winner    *string   `json:"winner"`
	Loser     *string   `json:"loser"`
	Reason    string    `json:"reason"`
	Turns     int       `json:"turns"`
	EndedAt   time.Time `json:"ended_at"`
}

// ResultFromModel converts model.BattleResult
func ResultFromModel(r *model.BattleResult) Result {
	var winner, loser *string
	if r.Winner != "" {
		w := string(r.Winner)
		winner = &w
	}
	if r.Loser != "" {
		l := string(r.Loser)
		loser = &l
	}
	return Result{
		SessionID: string(r.SessionID),
		Players:   []string{string(r.Players[0]), string(r.Players[1])},
		Winner:    winner,
		Loser:     loser,
		Reason:    string(r.Reason),
		Turns:     r.Turns,
		EndedAt:   r.EndedAt,
	}
}

// ResultList wraps recent results, newest first
type ResultList struct {
	Results []Result `json:"results"`
}

// ResultListFromModel converts results
func ResultListFromModel(results []*model.BattleResult) ResultList {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = ResultFromModel(r)
	}
	return ResultList{Results: out}
}
