// Package predictor joins scheduled matchups to each team's latest features.
package predictor

import (
	"nba_totals/pipeline/internal/features"
	"nba_totals/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// Skip reasons
const (
	ReasonUnmappedTeam = "unmapped_team"
	ReasonNoHistory    = "no_history"
)

// Classifier labels a matchup from its averaged rolling features
type Classifier interface {
	Predict(avgPts, wins float64) int
}

// Skip records a matchup that could not be predicted
type Skip struct {
	Matchup string
	Team    string
	Reason  string
}

// Report is the outcome of one prediction run
type Report struct {
	Results []models.PredictionResult
	Skipped []Skip
}

// Predict labels every matchup whose two teams both resolve to a feature
// row with defined rolling statistics. The model input is the mean of the
// two teams' values. Matchups that cannot be resolved are reported in
// Skipped.
func Predict(matchups []models.Matchup, records []models.TeamGameRecord, model Classifier) Report {
	var report Report

	for _, m := range matchups {
		label := m.Label()

		home, ok := Abbreviation(m.HomeTeam)
		if !ok {
			report.skip(label, m.HomeTeam, ReasonUnmappedTeam)
			continue
		}
		away, ok := Abbreviation(m.AwayTeam)
		if !ok {
			report.skip(label, m.AwayTeam, ReasonUnmappedTeam)
			continue
		}

		homeStats, ok := features.LatestFeatures(records, home)
		if !ok {
			report.skip(label, home, ReasonNoHistory)
			continue
		}
		awayStats, ok := features.LatestFeatures(records, away)
		if !ok {
			report.skip(label, away, ReasonNoHistory)
			continue
		}

		avgPts := (homeStats.AvgPtsLast5.Float64 + awayStats.AvgPtsLast5.Float64) / 2
		wins := (homeStats.WinsLast5.Float64 + awayStats.WinsLast5.Float64) / 2

		report.Results = append(report.Results, models.PredictionResult{
			Matchup:     label,
			Prediction:  models.LabelFor(model.Predict(avgPts, wins)),
			AvgPtsLast5: avgPts,
			WinsLast5:   wins,
		})
	}

	return report
}

func (r *Report) skip(matchup, team, reason string) {
	event := log.Warn()
	if reason == ReasonNoHistory {
		event = log.Info()
	}
	event.
		Str("matchup", matchup).
		Str("team", team).
		Str("reason", reason).
		Msg("Skipping matchup")

	r.Skipped = append(r.Skipped, Skip{Matchup: matchup, Team: team, Reason: reason})
}
