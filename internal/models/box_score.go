package models

import (
	"strconv"
	"strings"
)

// RawObservation is one team's box score for one game, as stored in the raw table
type RawObservation struct {
	SeasonID         string
	TeamID           string
	TeamAbbreviation string
	TeamName         string
	GameID           string
	GameDate         string // YYYY-MM-DD
	Matchup          string
	WL               string // "W" or "L"

	// Box score
	Minutes   float64
	Points    int
	FGM       float64
	FGA       float64
	FGPct     float64
	FG3M      float64
	FG3A      float64
	FG3Pct    float64
	FTM       float64
	FTA       float64
	FTPct     float64
	OReb      float64
	DReb      float64
	Reb       float64
	Ast       float64
	Stl       float64
	Blk       float64
	Tov       float64
	PF        float64
	PlusMinus float64
}

// Key returns the (game, team) identity of the observation
func (o RawObservation) Key() (gameID, teamID string) {
	return o.GameID, o.TeamID
}

// Won reports whether the team won the game
func (o RawObservation) Won() bool {
	return o.WL == "W"
}

// SummaryResponse is the subset of the ESPN game summary payload we consume
type SummaryResponse struct {
	Header struct {
		Competitions []struct {
			Date        ESPNTime            `json:"date"`
			Status      Status              `json:"status"`
			Competitors []SummaryCompetitor `json:"competitors"`
		} `json:"competitions"`
	} `json:"header"`
	Boxscore struct {
		Teams []BoxscoreTeam `json:"teams"`
	} `json:"boxscore"`
}

// Completed reports whether the header marks the game as final
func (s *SummaryResponse) Completed() bool {
	return len(s.Header.Competitions) > 0 && s.Header.Competitions[0].Status.Type.Completed
}

// SummaryCompetitor is a team entry in the summary header
type SummaryCompetitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
	Winner   bool   `json:"winner"`
	Score    string `json:"score"`
	Team     Team   `json:"team"`
}

// BoxscoreTeam holds the team totals of a box score
type BoxscoreTeam struct {
	Team       Team        `json:"team"`
	HomeAway   string      `json:"homeAway"`
	Winner     bool        `json:"winner"`
	Statistics []Statistic `json:"statistics"`
}

// Statistic is a single named box-score value
type Statistic struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Label        string `json:"label"`
	DisplayValue string `json:"displayValue"`
}

// statMap indexes a team's statistics by name, abbreviation and label.
// Combined "made-attempted" values are split into two entries.
type statMap map[string]string

func newStatMap(stats []Statistic) statMap {
	m := make(statMap, len(stats)*3)
	for _, s := range stats {
		for _, key := range []string{s.Name, s.Abbreviation, s.Label} {
			if key == "" {
				continue
			}
			m[key] = s.DisplayValue

			names := strings.SplitN(key, "-", 2)
			values := strings.SplitN(s.DisplayValue, "-", 2)
			if len(names) == 2 && len(values) == 2 && names[0] != "" && names[1] != "" {
				m[names[0]] = values[0]
				m[names[1]] = values[1]
			}
		}
	}
	return m
}

// float returns the first key present in the map parsed as a number, or def
func (m statMap) float(def float64, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(v), "+"), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

// ToRawObservations converts a game summary into one row per team.
// Incomplete games (not exactly two teams in the box score) produce no rows,
// and teams without statistics are skipped.
func (s *SummaryResponse) ToRawObservations(gameID, gameDate, seasonID string) []RawObservation {
	if len(s.Boxscore.Teams) != 2 {
		return nil
	}

	header := make(map[string]SummaryCompetitor)
	if len(s.Header.Competitions) > 0 {
		for _, c := range s.Header.Competitions[0].Competitors {
			header[c.Team.ID] = c
		}
	}

	rows := make([]RawObservation, 0, 2)
	for i, team := range s.Boxscore.Teams {
		if len(team.Statistics) == 0 {
			continue
		}
		opponent := s.Boxscore.Teams[1-i].Team
		stats := newStatMap(team.Statistics)

		won := team.Winner
		points := int(stats.float(0, "points", "PTS"))
		if c, ok := header[team.Team.ID]; ok {
			won = c.Winner
			if p, err := strconv.Atoi(c.Score); err == nil {
				points = p
			}
		}

		wl := "L"
		if won {
			wl = "W"
		}

		rows = append(rows, RawObservation{
			SeasonID:         seasonID,
			TeamID:           team.Team.ID,
			TeamAbbreviation: team.Team.Abbreviation,
			TeamName:         team.Team.DisplayName,
			GameID:           gameID,
			GameDate:         gameDate,
			Matchup:          matchupLabel(team.Team.Abbreviation, opponent.Abbreviation, team.HomeAway),
			WL:               wl,
			Minutes:          stats.float(240, "minutes", "MIN"),
			Points:           points,
			FGM:              stats.float(0, "fieldGoalsMade", "FGM"),
			FGA:              stats.float(0, "fieldGoalsAttempted", "FGA"),
			FGPct:            stats.float(0, "fieldGoalPct", "FG%"),
			FG3M:             stats.float(0, "threePointFieldGoalsMade", "3PM"),
			FG3A:             stats.float(0, "threePointFieldGoalsAttempted", "3PA"),
			FG3Pct:           stats.float(0, "threePointFieldGoalPct", "3P%"),
			FTM:              stats.float(0, "freeThrowsMade", "FTM"),
			FTA:              stats.float(0, "freeThrowsAttempted", "FTA"),
			FTPct:            stats.float(0, "freeThrowPct", "FT%"),
			OReb:             stats.float(0, "offensiveRebounds", "OREB"),
			DReb:             stats.float(0, "defensiveRebounds", "DREB"),
			Reb:              stats.float(0, "totalRebounds", "rebounds", "REB"),
			Ast:              stats.float(0, "assists", "AST"),
			Stl:              stats.float(0, "steals", "STL"),
			Blk:              stats.float(0, "blocks", "BLK"),
			Tov:              stats.float(0, "turnovers", "totalTurnovers", "TO"),
			PF:               stats.float(0, "fouls", "PF"),
			PlusMinus:        stats.float(0, "plusMinus", "+/-"),
		})
	}

	return rows
}

// matchupLabel renders "BOS vs. NY" for home teams and "NY @ BOS" for away teams
func matchupLabel(team, opponent, homeAway string) string {
	if team == "" || opponent == "" {
		return ""
	}
	if homeAway == "away" {
		return team + " @ " + opponent
	}
	return team + " vs. " + opponent
}
