package models

import (
	"database/sql"
	"time"
)

// CleanedGame is one row per game with both teams folded into list fields.
// Teams and TeamResults hold the serialized list text as persisted; they are
// parsed by the feature builder, which owns the malformed-row policy.
type CleanedGame struct {
	GameID      string
	GameDate    string
	TotalPoints int
	Teams       string
	TeamResults string
}

// TeamGameRecord is one team's view of one game plus its trailing form
type TeamGameRecord struct {
	GameID      string
	GameDate    time.Time
	Team        string
	Opponent    string
	Won         int
	TotalPoints int

	// Rolling statistics over strictly earlier games; invalid until enough history exists
	AvgPtsLast5 sql.NullFloat64
	WinsLast5   sql.NullFloat64
}

// HasRollingStats reports whether both trailing statistics are defined
func (r TeamGameRecord) HasRollingStats() bool {
	return r.AvgPtsLast5.Valid && r.WinsLast5.Valid
}
