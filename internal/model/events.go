package model

// EventName identifies a wire event in either direction
type EventName string

// Client -> server events
const (
	EventSetup          EventName = "setup"
	EventReadyForBattle EventName = "readyForBattle"
	EventPlayerAttack   EventName = "playerAttack"
	EventPlayerDefend   EventName = "playerDefend"
	EventRestartBattle  EventName = "restartBattle"
)

// Server -> client events
const (
	EventConnected   EventName = "connected"
	EventBattleStart EventName = "battleStart"
	EventTurnUpdate  EventName = "turnUpdate"
	EventBattleEnd   EventName = "battleEnd"
	EventError       EventName = "error"
)

// NotYourTurnMessage is the exact text clients receive when acting out of turn
const NotYourTurnMessage = "Not your turn!"

// AddressPayload is the payload of every client -> server event
type AddressPayload struct {
	Address string `json:"address"`
}

// ConnectedPayload is sent right after setup
type ConnectedPayload struct{}

// BattleStartPayload announces a new session
type BattleStartPayload struct {
	Player1Address string `json:"player1Address"`
	Player2Address string `json:"player2Address"`
}

// TurnUpdatePayload is one recipient's view of the session.
// CurrentTurn is the turn counter; PlayerTurn is the identity that must act
// next, which clients compare against their own identity.
type TurnUpdatePayload struct {
	CurrentTurn    int    `json:"currentTurn"`
	PlayerTurn     string `json:"playerTurn"`
	PlayerHealth   int    `json:"playerHealth"`
	OpponentHealth int    `json:"opponentHealth"`
}

// BattleEndPayload announces the end of a session
type BattleEndPayload struct {
	Winner string `json:"winner"`
}

// ErrorPayload reports a rejected action to the acting client
type ErrorPayload struct {
	Message string `json:"message"`
}
