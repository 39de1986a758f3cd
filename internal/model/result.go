package model

import "time"

// EndReason describes why a session terminated
type EndReason string

const (
	EndKnockout   EndReason = "knockout"
	EndDisconnect EndReason = "disconnect"
	EndRestart    EndReason = "restart"
	EndTimeout    EndReason = "timeout"
)

// Winner markers sent in battleEnd when there is no combat winner
const (
	WinnerOpponentDisconnected = "Opponent disconnected"
	WinnerOpponentForfeited    = "Opponent forfeited"
)

// BattleResult is the outcome record of a terminated session
type BattleResult struct {
	SessionID SessionID      `json:"session_id"`
	Players   [2]Identity    `json:"players"`
	Winner    Identity       `json:"winner,omitempty"` // empty if nobody won on the board
	Loser     Identity       `json:"loser,omitempty"`
	Reason    EndReason      `json:"reason"`
	Turns     int            `json:"turns"`
	Log       []ActionRecord `json:"log,omitempty"`
	EndedAt   time.Time      `json:"ended_at"`
}

// PlayerRecord is the aggregate win/loss history of one identity
type PlayerRecord struct {
	Identity Identity `json:"identity"`
	Wins     int      `json:"wins"`
	Losses   int      `json:"losses"`
	Battles  int      `json:"battles"`
}
