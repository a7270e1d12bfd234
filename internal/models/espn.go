package models

import (
	"strings"
	"time"
)

// ESPNTime is a wrapper around time.Time that can unmarshal both full
// RFC3339 timestamps and the shorter "YYYY-MM-DDThh:mmZ" strings returned
// by the ESPN scoreboard.
type ESPNTime struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *ESPNTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}

	var parseErr error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		parseErr = err
	}
	return parseErr
}

// ScoreboardResponse is the ESPN scoreboard payload for one date
type ScoreboardResponse struct {
	Events []Event `json:"events"`
}

// Event is one scheduled or completed game on the scoreboard
type Event struct {
	ID           string        `json:"id"`
	Date         ESPNTime      `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Competitions []Competition `json:"competitions"`
}

// Competition holds the competitors and status of an event
type Competition struct {
	ID          string       `json:"id"`
	Competitors []Competitor `json:"competitors"`
	Status      Status       `json:"status"`
}

// Competitor is one side of a competition
type Competitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Winner   bool   `json:"winner"`
	Team     Team   `json:"team"`
}

// Team is the ESPN team reference embedded in most payloads
type Team struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

// Status is the game status block
type Status struct {
	Type StatusType `json:"type"`
}

// StatusType describes the game state
type StatusType struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

// GameDate returns the event's calendar date as YYYY-MM-DD
func (e Event) GameDate() string {
	return e.Date.UTC().Format("2006-01-02")
}

// Matchups extracts the home/away pairing of every event that has both sides listed
func (s *ScoreboardResponse) Matchups() []Matchup {
	matchups := make([]Matchup, 0, len(s.Events))
	for _, event := range s.Events {
		if len(event.Competitions) == 0 {
			continue
		}
		comp := event.Competitions[0]

		var home, away *Competitor
		for i := range comp.Competitors {
			switch comp.Competitors[i].HomeAway {
			case "home":
				home = &comp.Competitors[i]
			case "away":
				away = &comp.Competitors[i]
			}
		}
		if home == nil || away == nil {
			continue
		}

		matchups = append(matchups, Matchup{
			EventID:  event.ID,
			HomeTeam: home.Team.DisplayName,
			AwayTeam: away.Team.DisplayName,
			Status:   comp.Status.Type.Description,
		})
	}
	return matchups
}

// Completed reports whether the scoreboard marks the event as final
func (e Event) Completed() bool {
	return len(e.Competitions) > 0 && e.Competitions[0].Status.Type.Completed
}

// Completed reports whether every event on the scoreboard is final
func (s *ScoreboardResponse) Completed() bool {
	for _, e := range s.Events {
		if !e.Completed() {
			return false
		}
	}
	return true
}
