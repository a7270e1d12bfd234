package predictor

import (
	"database/sql"
	"testing"
	"time"

	"nba_totals/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// thresholdModel predicts over when the averaged scoring exceeds cut
type thresholdModel struct {
	cut    float64
	inputs [][2]float64
}

func (m *thresholdModel) Predict(avgPts, wins float64) int {
	m.inputs = append(m.inputs, [2]float64{avgPts, wins})
	if avgPts > m.cut {
		return 1
	}
	return 0
}

func featureRow(team string, day int, avg, wins float64, valid bool) models.TeamGameRecord {
	return models.TeamGameRecord{
		GameID:      team + "-" + time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC).Format("0102"),
		GameDate:    time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Team:        team,
		AvgPtsLast5: sql.NullFloat64{Float64: avg, Valid: valid},
		WinsLast5:   sql.NullFloat64{Float64: wins, Valid: valid},
	}
}

func TestAbbreviation(t *testing.T) {
	abbr, ok := Abbreviation("Golden State Warriors")
	require.True(t, ok)
	assert.Equal(t, "GS", abbr)

	abbr, ok = Abbreviation(" LA Clippers ")
	require.True(t, ok)
	assert.Equal(t, "LAC", abbr)

	_, ok = Abbreviation("Seattle SuperSonics")
	assert.False(t, ok)

	distinct := make(map[string]bool)
	for _, v := range teamAbbreviations {
		distinct[v] = true
	}
	assert.Len(t, distinct, 30)
}

func TestPredict(t *testing.T) {
	records := []models.TeamGameRecord{
		featureRow("BOS", 1, 210, 2, true),
		featureRow("BOS", 8, 230, 4, true),
		featureRow("BOS", 9, 0, 0, false),
		featureRow("NY", 8, 220, 2, true),
		featureRow("LAL", 3, 200, 1, true),
		featureRow("MIA", 3, 201, 1, true),
	}
	model := &thresholdModel{cut: 215}

	report := Predict([]models.Matchup{
		{HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
		{HomeTeam: "Los Angeles Lakers", AwayTeam: "Miami Heat"},
	}, records, model)

	require.Len(t, report.Results, 2)
	assert.Empty(t, report.Skipped)

	assert.Equal(t, models.PredictionResult{
		Matchup:     "New York Knicks @ Boston Celtics",
		Prediction:  models.LabelOver,
		AvgPtsLast5: 225,
		WinsLast5:   3,
	}, report.Results[0])
	assert.Equal(t, models.LabelUnder, report.Results[1].Prediction)
	assert.Equal(t, [2]float64{225, 3}, model.inputs[0], "latest defined rows are averaged")
}

func TestPredict_Skips(t *testing.T) {
	records := []models.TeamGameRecord{
		featureRow("BOS", 8, 230, 4, true),
		featureRow("NY", 8, 0, 0, false),
	}
	model := &thresholdModel{cut: 215}

	report := Predict([]models.Matchup{
		{HomeTeam: "Boston Celtics", AwayTeam: "Seattle SuperSonics"},
		{HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
		{HomeTeam: "Toronto Raptors", AwayTeam: "Boston Celtics"},
	}, records, model)

	assert.Empty(t, report.Results)
	assert.Empty(t, model.inputs)
	require.Len(t, report.Skipped, 3)

	assert.Equal(t, Skip{Matchup: "Seattle SuperSonics @ Boston Celtics", Team: "Seattle SuperSonics", Reason: ReasonUnmappedTeam}, report.Skipped[0])
	assert.Equal(t, Skip{Matchup: "New York Knicks @ Boston Celtics", Team: "NY", Reason: ReasonNoHistory}, report.Skipped[1])
	assert.Equal(t, ReasonNoHistory, report.Skipped[2].Reason)
	assert.Equal(t, "TOR", report.Skipped[2].Team)
}

func TestPredict_NoMatchups(t *testing.T) {
	report := Predict(nil, nil, &thresholdModel{})
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Skipped)
}
