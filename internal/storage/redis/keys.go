package redis

import (
	"fmt"

	"github.com/mcoot/battlearena/internal/model"
)

// Key prefix for all arena data
const keyPrefix = "arena"

// Hash fields of a player record
const (
	fieldWins    = "wins"
	fieldLosses  = "losses"
	fieldBattles = "battles"
)

// recordKey returns the Redis key for the HASH holding a player's record
func recordKey(identity model.Identity) string {
	return fmt.Sprintf("%s:record:%s", keyPrefix, identity)
}

// resultsKey returns the Redis key for the LIST of recent results, newest first
func resultsKey() string {
	return fmt.Sprintf("%s:results", keyPrefix)
}
