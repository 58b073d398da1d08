package model

// ScoreRecordID uniquely identifies a score record. Increases with insertion order.
type ScoreRecordID int64

// ScoreRecord is the single current score of one identity in one game
type ScoreRecord struct {
	ID         ScoreRecordID `json:"id"`
	Game       GameKind      `json:"game"`
	Score      int           `json:"score"`
	IdentityID IdentityID    `json:"identity_id"`
}

// ScoreEntry is a score record joined with its owner's display identity
type ScoreEntry struct {
	Record    ScoreRecord
	Username  string
	FirstName string
}

// RankedScore is one row of a leaderboard
type RankedScore struct {
	Rank       int
	IdentityID IdentityID
	Username   string
	FirstName  string
	Score      int
}
