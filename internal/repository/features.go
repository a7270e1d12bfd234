package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"nba_totals/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// DateLayout is the GAME_DATE format of every table
const DateLayout = "2006-01-02"

// FeatureColumns is the header of the feature table
var FeatureColumns = []string{
	"GAME_ID", "GAME_DATE", "TEAM", "OPPONENT", "WON", "TOTAL_POINTS",
	"AVG_PTS_LAST_5", "WINS_LAST_5",
}

// FeatureTable holds one row per team per game with trailing statistics
type FeatureTable struct {
	Path string
}

// NewFeatureTable returns a feature table backed by the CSV file at path
func NewFeatureTable(path string) *FeatureTable {
	return &FeatureTable{Path: path}
}

// Write replaces the table with records. Undefined rolling values are written as empty cells.
func (t *FeatureTable) Write(records []models.TeamGameRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.GameID,
			r.GameDate.Format(DateLayout),
			r.Team,
			r.Opponent,
			strconv.Itoa(r.Won),
			strconv.Itoa(r.TotalPoints),
			formatNullFloat(r.AvgPtsLast5),
			formatNullFloat(r.WinsLast5),
		})
	}

	if err := writeTable(t.Path, FeatureColumns, rows); err != nil {
		return err
	}

	log.Info().Str("path", t.Path).Int("records", len(records)).Msg("Feature table written")
	return nil
}

// Load reads the table
func (t *FeatureTable) Load() ([]models.TeamGameRecord, error) {
	tbl, err := readTable(t.Path, FeatureColumns...)
	if err != nil {
		return nil, err
	}

	records := make([]models.TeamGameRecord, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		line := i + 2

		date, err := time.Parse(DateLayout, tbl.get(row, "GAME_DATE"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid GAME_DATE: %w", t.Path, line, err)
		}

		rec := models.TeamGameRecord{
			GameID:   tbl.get(row, "GAME_ID"),
			GameDate: date,
			Team:     tbl.get(row, "TEAM"),
			Opponent: tbl.get(row, "OPPONENT"),
		}
		if rec.Won, err = tbl.integer(row, "WON", line); err != nil {
			return nil, err
		}
		if rec.TotalPoints, err = tbl.integer(row, "TOTAL_POINTS", line); err != nil {
			return nil, err
		}
		if rec.AvgPtsLast5, err = tbl.nullFloat(row, "AVG_PTS_LAST_5", line); err != nil {
			return nil, err
		}
		if rec.WinsLast5, err = tbl.nullFloat(row, "WINS_LAST_5", line); err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, nil
}

// nullFloat parses the named cell; empty and NaN cells are undefined
func (t *table) nullFloat(row []string, column string, line int) (sql.NullFloat64, error) {
	v := t.get(row, column)
	if v == "" || v == "NaN" || v == "nan" {
		return sql.NullFloat64{}, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("%s line %d: invalid %s %q", t.path, line, column, v)
	}
	return sql.NullFloat64{Float64: f, Valid: true}, nil
}

func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}
