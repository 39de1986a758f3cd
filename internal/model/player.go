package model

// Identity is the caller-supplied key for a player (e.g. a wallet address).
// It is opaque to the arena and never verified.
type Identity string

// ConnID identifies one live transport connection
type ConnID string

// Health bounds
const (
	MaxHealth = 100
	MinHealth = 0
)

// Player is a connected participant known to the registry
type Player struct {
	Identity Identity
	Conn     ConnID
	Health   int  // 0-100, independent of any session copy
	Ready    bool // available for matchmaking
}
