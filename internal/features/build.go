// Package features derives per-team rolling statistics from cleaned games.
package features

import (
	"fmt"
	"sort"
	"time"

	"nba_totals/pipeline/internal/metrics"
	"nba_totals/pipeline/internal/models"
	"nba_totals/pipeline/internal/repository"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of prior games each rolling statistic covers
const DefaultWindow = 5

// dateLayouts are the GAME_DATE forms accepted from the cleaned table
var dateLayouts = []string{
	repository.DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// BuildStats counts what happened to the input rows
type BuildStats struct {
	Input    int // cleaned games read
	Skipped  int // games with malformed or wrong-length list fields
	BadDates int // games dropped for an unparseable date
	Output   int // team-game records emitted
}

// Build expands every well-formed game into one record per team, orders the
// records by team then date, and fills the trailing statistics. A record's
// rolling values cover the window games immediately before it and stay
// undefined until that many prior games exist.
func Build(games []models.CleanedGame, window int) ([]models.TeamGameRecord, BuildStats) {
	if window < 1 {
		window = DefaultWindow
	}
	stats := BuildStats{Input: len(games)}

	records := make([]models.TeamGameRecord, 0, len(games)*2)
	for _, g := range games {
		teams := ParseList(g.Teams)
		results := ParseList(g.TeamResults)
		if !teams.Valid || !results.Valid || len(teams.Items) != 2 || len(results.Items) != 2 ||
			teams.Items[0] == teams.Items[1] {
			stats.Skipped++
			log.Debug().
				Str("game_id", g.GameID).
				Str("teams", g.Teams).
				Str("team_results", g.TeamResults).
				Msg("Skipping game with malformed team fields")
			continue
		}

		date, ok := parseDate(g.GameDate)
		if !ok {
			stats.BadDates++
			log.Debug().Str("game_id", g.GameID).Str("game_date", g.GameDate).Msg("Dropping game with unparseable date")
			continue
		}

		for i := 0; i < 2; i++ {
			won := 0
			if results.Items[i] == "W" {
				won = 1
			}
			records = append(records, models.TeamGameRecord{
				GameID:      g.GameID,
				GameDate:    date,
				Team:        teams.Items[i],
				Opponent:    teams.Items[1-i],
				Won:         won,
				TotalPoints: g.TotalPoints,
			})
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		if !a.GameDate.Equal(b.GameDate) {
			return a.GameDate.Before(b.GameDate)
		}
		return a.GameID < b.GameID
	})

	for start := 0; start < len(records); {
		end := start
		for end < len(records) && records[end].Team == records[start].Team {
			end++
		}
		fillRolling(records[start:end], window)
		start = end
	}

	stats.Output = len(records)
	return records, stats
}

// fillRolling sets the trailing statistics of one team's ordered run
func fillRolling(run []models.TeamGameRecord, window int) {
	points := make([]float64, len(run))
	wins := make([]float64, len(run))
	for i, r := range run {
		points[i] = float64(r.TotalPoints)
		wins[i] = float64(r.Won)
	}

	for i := window; i < len(run); i++ {
		run[i].AvgPtsLast5.Float64 = stat.Mean(points[i-window:i], nil)
		run[i].AvgPtsLast5.Valid = true
		run[i].WinsLast5.Float64 = floats.Sum(wins[i-window : i])
		run[i].WinsLast5.Valid = true
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// LatestFeatures returns the team's most recent record with both rolling
// statistics defined. Ties on date resolve to the later record in input order.
func LatestFeatures(records []models.TeamGameRecord, team string) (*models.TeamGameRecord, bool) {
	var latest *models.TeamGameRecord
	for i := range records {
		r := &records[i]
		if r.Team != team || !r.HasRollingStats() {
			continue
		}
		if latest == nil || !r.GameDate.Before(latest.GameDate) {
			latest = r
		}
	}
	if latest == nil {
		return nil, false
	}
	found := *latest
	return &found, true
}

// Run builds the feature table at featuresPath from the cleaned table at cleanedPath
func Run(cleanedPath, featuresPath string, window int) (BuildStats, error) {
	games, err := repository.NewCleanedTable(cleanedPath).Load()
	if err != nil {
		return BuildStats{}, fmt.Errorf("failed to load cleaned games: %w", err)
	}

	records, stats := Build(games, window)

	metrics.RecordSkipped("features", "malformed_list", stats.Skipped)
	metrics.RecordSkipped("features", "bad_date", stats.BadDates)
	if stats.Skipped > 0 || stats.BadDates > 0 {
		log.Warn().
			Int("malformed", stats.Skipped).
			Int("bad_dates", stats.BadDates).
			Msg("Skipped games while building features")
	}

	if err := repository.NewFeatureTable(featuresPath).Write(records); err != nil {
		return stats, err
	}
	metrics.RecordTableRows("features", len(records))

	log.Info().
		Int("games", stats.Input).
		Int("records", stats.Output).
		Int("window", window).
		Msg("Feature building complete")

	return stats, nil
}
