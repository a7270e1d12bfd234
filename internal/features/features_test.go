package features

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"nba_totals/pipeline/internal/models"
	"nba_totals/pipeline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func game(id, date string, total int, teams, results string) models.CleanedGame {
	return models.CleanedGame{GameID: id, GameDate: date, TotalPoints: total, Teams: teams, TeamResults: results}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ListField
	}{
		{"json", `["BOS","NY"]`, ListField{Items: []string{"BOS", "NY"}, Valid: true}},
		{"repr", `['BOS', 'NY']`, ListField{Items: []string{"BOS", "NY"}, Valid: true}},
		{"repr escaped quote", `['O\'Neal', "NY"]`, ListField{Items: []string{"O'Neal", "NY"}, Valid: true}},
		{"empty list", "[]", ListField{Items: []string{}, Valid: true}},
		{"three elements", `["A","B","C"]`, ListField{Items: []string{"A", "B", "C"}, Valid: true}},
		{"not a list", "notalist", Malformed},
		{"truncated", `["BOS","N`, Malformed},
		{"unquoted", "[BOS, NY]", Malformed},
		{"unterminated quote", `['BOS', 'NY]`, Malformed},
		{"empty", "", Malformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.input))
		})
	}
}

func TestBuild_SingleGame(t *testing.T) {
	records, stats := Build([]models.CleanedGame{
		game("G1", "2025-01-10", 195, `["TeamA","TeamB"]`, `["W","L"]`),
	}, DefaultWindow)

	require.Len(t, records, 2)
	assert.Equal(t, BuildStats{Input: 1, Output: 2}, stats)

	a, b := records[0], records[1]
	assert.Equal(t, "TeamA", a.Team)
	assert.Equal(t, "TeamB", a.Opponent)
	assert.Equal(t, 1, a.Won)
	assert.Equal(t, 195, a.TotalPoints)

	assert.Equal(t, "TeamB", b.Team)
	assert.Equal(t, "TeamA", b.Opponent)
	assert.Equal(t, 0, b.Won)
	assert.Equal(t, 195, b.TotalPoints)

	assert.False(t, a.HasRollingStats())
	assert.False(t, b.HasRollingStats())
}

func TestBuild_MalformedRowsSkipped(t *testing.T) {
	games := []models.CleanedGame{
		game("G1", "2025-01-10", 195, "[]", `["W","L"]`),
		game("G2", "2025-01-11", 200, "notalist", `["W","L"]`),
		game("G3", "2025-01-12", 205, `["A","B","C"]`, `["W","L"]`),
		game("G4", "2025-01-13", 210, `["A","B"]`, `["W"]`),
		game("G5", "2025-01-14", 215, `["A","B"]`, `["L","W"]`),
		game("G6", "2025-01-15", 220, `["A","A"]`, `["W","L"]`),
	}

	records, stats := Build(games, DefaultWindow)

	assert.Equal(t, 5, stats.Skipped, "a game against itself is malformed")
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "G5", r.GameID)
	}
}

func TestBuild_BadDatesDropped(t *testing.T) {
	records, stats := Build([]models.CleanedGame{
		game("G1", "not-a-date", 195, `["A","B"]`, `["W","L"]`),
		game("G2", "2025-01-11T00:00:00", 200, `["A","B"]`, `["W","L"]`),
	}, DefaultWindow)

	assert.Equal(t, 1, stats.BadDates)
	assert.Zero(t, stats.Skipped)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), records[0].GameDate)
}

func TestBuild_EmptyInput(t *testing.T) {
	records, stats := Build(nil, DefaultWindow)
	assert.Empty(t, records)
	assert.Equal(t, BuildStats{}, stats)
}

// season generates n games for team A against rotating opponents, listed in reverse
// date order so the builder has to sort them.
func season(n int) []models.CleanedGame {
	games := make([]models.CleanedGame, 0, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		result := `["W","L"]`
		if i%3 == 0 {
			result = `["L","W"]`
		}
		games = append(games, game(
			fmt.Sprintf("G%02d", i),
			start.AddDate(0, 0, i).Format(repository.DateLayout),
			200+i,
			fmt.Sprintf(`["A","O%d"]`, i),
			result,
		))
	}
	return games
}

func TestBuild_RollingWindow(t *testing.T) {
	records, _ := Build(season(9), DefaultWindow)

	var run []models.TeamGameRecord
	for _, r := range records {
		if r.Team == "A" {
			run = append(run, r)
		}
	}
	require.Len(t, run, 9)

	for i, r := range run {
		if i > 0 {
			assert.True(t, run[i-1].GameDate.Before(r.GameDate), "ordered by date")
		}

		if i < DefaultWindow {
			assert.False(t, r.AvgPtsLast5.Valid, "position %d has too little history", i)
			assert.False(t, r.WinsLast5.Valid, "position %d has too little history", i)
			continue
		}

		wantAvg, wantWins := 0.0, 0.0
		for j := i - DefaultWindow; j < i; j++ {
			wantAvg += float64(run[j].TotalPoints)
			wantWins += float64(run[j].Won)
		}
		wantAvg /= DefaultWindow

		require.True(t, r.HasRollingStats(), "position %d", i)
		assert.InDelta(t, wantAvg, r.AvgPtsLast5.Float64, 1e-9, "position %d", i)
		assert.InDelta(t, wantWins, r.WinsLast5.Float64, 1e-9, "position %d", i)
	}

	// Position 5 covers games 0..4: totals 200..204, A lost games 0 and 3
	assert.InDelta(t, 202.0, run[5].AvgPtsLast5.Float64, 1e-9)
	assert.InDelta(t, 3.0, run[5].WinsLast5.Float64, 1e-9)
}

func TestBuild_FewPriorGamesUndefined(t *testing.T) {
	records, _ := Build(season(4), DefaultWindow)

	for _, r := range records {
		if r.Team == "A" && r.GameID == "G03" {
			assert.False(t, r.AvgPtsLast5.Valid, "4th game with 3 prior games is undefined")
			return
		}
	}
	t.Fatal("4th game not found")
}

func TestBuild_OpponentsPair(t *testing.T) {
	records, _ := Build(season(6), DefaultWindow)

	byGame := make(map[string][]models.TeamGameRecord)
	for _, r := range records {
		byGame[r.GameID] = append(byGame[r.GameID], r)
	}
	for id, pair := range byGame {
		require.Len(t, pair, 2, id)
		assert.Equal(t, pair[0].Team, pair[1].Opponent, id)
		assert.Equal(t, pair[1].Team, pair[0].Opponent, id)
	}
}

func TestLatestFeatures(t *testing.T) {
	records, _ := Build(season(8), DefaultWindow)

	latest, ok := LatestFeatures(records, "A")
	require.True(t, ok)
	assert.Equal(t, "G07", latest.GameID)
	assert.True(t, latest.HasRollingStats())

	// Opponents only played once, so they never accumulate history
	_, ok = LatestFeatures(records, "O7")
	assert.False(t, ok)

	_, ok = LatestFeatures(records, "ZZZ")
	assert.False(t, ok)
}

func TestLatestFeatures_ReturnsCopy(t *testing.T) {
	records, _ := Build(season(6), DefaultWindow)

	latest, ok := LatestFeatures(records, "A")
	require.True(t, ok)
	latest.Team = "changed"

	for _, r := range records {
		assert.NotEqual(t, "changed", r.Team)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cleanedPath := filepath.Join(dir, "games_cleaned.csv")
	featuresPath := filepath.Join(dir, "out", "features.csv")

	games := append(season(7), game("BAD", "2025-02-01", 150, "notalist", "[]"))
	require.NoError(t, repository.NewCleanedTable(cleanedPath).Write(games))

	stats, err := Run(cleanedPath, featuresPath, DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Input)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 14, stats.Output)

	loaded, err := repository.NewFeatureTable(featuresPath).Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 14)

	latest, ok := LatestFeatures(loaded, "A")
	require.True(t, ok)
	assert.Equal(t, "G06", latest.GameID)
}

func TestRun_MissingCleanedTable(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(filepath.Join(dir, "absent.csv"), filepath.Join(dir, "features.csv"), DefaultWindow)
	assert.ErrorIs(t, err, repository.ErrTableNotFound)
}
