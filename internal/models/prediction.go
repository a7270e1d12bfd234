package models

import "fmt"

// Matchup is a scheduled pairing resolved from today's scoreboard
type Matchup struct {
	EventID  string
	HomeTeam string // full display name, e.g. "Boston Celtics"
	AwayTeam string
	Status   string
}

// Label renders the matchup as "Away @ Home"
func (m Matchup) Label() string {
	return fmt.Sprintf("%s @ %s", m.AwayTeam, m.HomeTeam)
}

// Prediction labels
const (
	LabelOver  = "OVER"
	LabelUnder = "UNDER"
)

// PredictionResult is the predicted class for one matchup. Not persisted.
type PredictionResult struct {
	Matchup    string
	Prediction string

	// Model inputs, kept for the summary output
	AvgPtsLast5 float64
	WinsLast5   float64
}

// LabelFor maps a binary class to its prediction label
func LabelFor(class int) string {
	if class == 1 {
		return LabelOver
	}
	return LabelUnder
}
