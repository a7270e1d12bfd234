package repository

import (
	"strconv"

	"nba_totals/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// CleanedColumns is the header of the cleaned games table
var CleanedColumns = []string{"GAME_ID", "GAME_DATE", "TOTAL_POINTS", "TEAMS", "TEAM_RESULTS"}

// CleanedTable holds one row per game
type CleanedTable struct {
	Path string
}

// NewCleanedTable returns a cleaned table backed by the CSV file at path
func NewCleanedTable(path string) *CleanedTable {
	return &CleanedTable{Path: path}
}

// Write replaces the table with games
func (t *CleanedTable) Write(games []models.CleanedGame) error {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{g.GameID, g.GameDate, strconv.Itoa(g.TotalPoints), g.Teams, g.TeamResults})
	}

	if err := writeTable(t.Path, CleanedColumns, rows); err != nil {
		return err
	}

	log.Info().Str("path", t.Path).Int("games", len(games)).Msg("Cleaned games table written")
	return nil
}

// Load reads the table. TEAMS and TEAM_RESULTS are returned as stored.
func (t *CleanedTable) Load() ([]models.CleanedGame, error) {
	tbl, err := readTable(t.Path, CleanedColumns...)
	if err != nil {
		return nil, err
	}

	games := make([]models.CleanedGame, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		total, err := tbl.integer(row, "TOTAL_POINTS", i+2)
		if err != nil {
			return nil, err
		}
		games = append(games, models.CleanedGame{
			GameID:      tbl.get(row, "GAME_ID"),
			GameDate:    tbl.get(row, "GAME_DATE"),
			TotalPoints: total,
			Teams:       tbl.get(row, "TEAMS"),
			TeamResults: tbl.get(row, "TEAM_RESULTS"),
		})
	}

	return games, nil
}
