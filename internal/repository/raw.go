package repository

import (
	"errors"
	"fmt"
	"strconv"

	"nba_totals/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// RawColumns is the header of the raw games table
var RawColumns = []string{
	"SEASON_ID", "TEAM_ID", "TEAM_ABBREVIATION", "TEAM_NAME", "GAME_ID", "GAME_DATE",
	"MATCHUP", "WL", "MIN", "PTS", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT",
	"FTM", "FTA", "FT_PCT", "OREB", "DREB", "REB", "AST", "STL", "BLK", "TOV", "PF",
	"PLUS_MINUS",
}

// RawStore is the deduplicated table of per-team box scores
type RawStore struct {
	Path string
}

// NewRawStore returns a raw store backed by the CSV file at path
func NewRawStore(path string) *RawStore {
	return &RawStore{Path: path}
}

func rawKey(o models.RawObservation) string {
	gameID, teamID := o.Key()
	return gameID + "\x00" + teamID
}

// Append merges rows into the table. Rows are concatenated after the existing
// ones and deduplicated on (GAME_ID, TEAM_ID), keeping the later copy. The
// whole table is rewritten. A row without a key fails the batch and nothing
// is written.
func (s *RawStore) Append(rows []models.RawObservation) (int, error) {
	for i, r := range rows {
		if r.GameID == "" || r.TeamID == "" {
			return 0, fmt.Errorf("%w: new row %d (game %q, team %q)", ErrUnkeyedRow, i, r.GameID, r.TeamID)
		}
	}

	existing, err := s.Load()
	switch {
	case errors.Is(err, ErrTableNotFound):
		existing = nil
	case err != nil:
		return 0, err
	}

	merged := dedupKeepLast(append(existing, rows...), rawKey)

	out := make([][]string, 0, len(merged))
	for _, r := range merged {
		out = append(out, rawRecord(r))
	}
	if err := writeTable(s.Path, RawColumns, out); err != nil {
		return 0, err
	}

	log.Info().
		Str("path", s.Path).
		Int("existing", len(existing)).
		Int("new", len(rows)).
		Int("total", len(merged)).
		Msg("Raw games table updated")

	return len(merged), nil
}

// Load reads the whole table
func (s *RawStore) Load() ([]models.RawObservation, error) {
	t, err := readTable(s.Path, "GAME_ID", "TEAM_ID", "TEAM_ABBREVIATION", "GAME_DATE", "WL", "PTS")
	if err != nil {
		return nil, err
	}

	rows := make([]models.RawObservation, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		o := models.RawObservation{
			SeasonID:         t.get(row, "SEASON_ID"),
			TeamID:           t.get(row, "TEAM_ID"),
			TeamAbbreviation: t.get(row, "TEAM_ABBREVIATION"),
			TeamName:         t.get(row, "TEAM_NAME"),
			GameID:           t.get(row, "GAME_ID"),
			GameDate:         t.get(row, "GAME_DATE"),
			Matchup:          t.get(row, "MATCHUP"),
			WL:               t.get(row, "WL"),
		}
		if o.GameID == "" || o.TeamID == "" {
			return nil, fmt.Errorf("%w: %s line %d", ErrUnkeyedRow, s.Path, line)
		}

		if o.Points, err = t.integer(row, "PTS", line); err != nil {
			return nil, err
		}

		for column, dst := range map[string]*float64{
			"MIN": &o.Minutes, "FGM": &o.FGM, "FGA": &o.FGA, "FG_PCT": &o.FGPct,
			"FG3M": &o.FG3M, "FG3A": &o.FG3A, "FG3_PCT": &o.FG3Pct,
			"FTM": &o.FTM, "FTA": &o.FTA, "FT_PCT": &o.FTPct,
			"OREB": &o.OReb, "DREB": &o.DReb, "REB": &o.Reb, "AST": &o.Ast,
			"STL": &o.Stl, "BLK": &o.Blk, "TOV": &o.Tov, "PF": &o.PF,
			"PLUS_MINUS": &o.PlusMinus,
		} {
			if *dst, err = t.float(row, column, line); err != nil {
				return nil, err
			}
		}

		rows = append(rows, o)
	}

	return rows, nil
}

func rawRecord(o models.RawObservation) []string {
	return []string{
		o.SeasonID, o.TeamID, o.TeamAbbreviation, o.TeamName, o.GameID, o.GameDate,
		o.Matchup, o.WL, formatFloat(o.Minutes), strconv.Itoa(o.Points),
		formatFloat(o.FGM), formatFloat(o.FGA), formatFloat(o.FGPct),
		formatFloat(o.FG3M), formatFloat(o.FG3A), formatFloat(o.FG3Pct),
		formatFloat(o.FTM), formatFloat(o.FTA), formatFloat(o.FTPct),
		formatFloat(o.OReb), formatFloat(o.DReb), formatFloat(o.Reb),
		formatFloat(o.Ast), formatFloat(o.Stl), formatFloat(o.Blk),
		formatFloat(o.Tov), formatFloat(o.PF), formatFloat(o.PlusMinus),
	}
}
