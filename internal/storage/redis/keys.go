package redis

import (
	"fmt"

	"github.com/mcoot/gameportal/internal/model"
)

// Key prefix for all portal data
const keyPrefix = "portal"

// identityKey returns the Redis key for an Identity (JSON string)
func identityKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:identity:%d", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> identity id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// scoreKey returns the Redis key for a ScoreRecord (HASH)
func scoreKey(id model.IdentityID, game model.GameKind) string {
	return fmt.Sprintf("%s:score:%d:%s", keyPrefix, id, game)
}

// scoresForGameIndexKey returns the Redis key for the LIST of score keys of a game, in insertion order
func scoresForGameIndexKey(game model.GameKind) string {
	return fmt.Sprintf("%s:idx:scores_for_game:%s", keyPrefix, game)
}

// revokedSessionKey returns the Redis key marking a revoked session token
func revokedSessionKey(tokenID string) string {
	return fmt.Sprintf("%s:revoked:%s", keyPrefix, tokenID)
}

// Sequence keys for numeric ids
func identitySeqKey() string {
	return fmt.Sprintf("%s:seq:identity", keyPrefix)
}

func scoreSeqKey() string {
	return fmt.Sprintf("%s:seq:score", keyPrefix)
}
