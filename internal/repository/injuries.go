package repository

import (
	"errors"

	"nba_totals/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// InjuryColumns is the header of the injuries table
var InjuryColumns = []string{
	"TEAM", "PLAYER", "POSITION", "INJURY_TYPE", "INJURY_STATUS", "START_DATE", "DETAILS", "FETCHED_AT",
}

// InjuryStore is the deduplicated injury report history
type InjuryStore struct {
	Path string
}

// NewInjuryStore returns an injury store backed by the CSV file at path
func NewInjuryStore(path string) *InjuryStore {
	return &InjuryStore{Path: path}
}

func injuryKey(r models.InjuryRecord) string {
	return r.Team + "\x00" + r.Player + "\x00" + r.InjuryStatus + "\x00" + r.StartDate
}

// Append merges records into the table, deduplicating on
// (TEAM, PLAYER, INJURY_STATUS, START_DATE) and keeping the latest fetch.
// An empty batch leaves the file untouched.
func (s *InjuryStore) Append(records []models.InjuryRecord) (int, error) {
	if len(records) == 0 {
		log.Warn().Str("path", s.Path).Msg("No injury records to save")
		return 0, nil
	}

	existing, err := s.Load()
	switch {
	case errors.Is(err, ErrTableNotFound):
		existing = nil
	case err != nil:
		return 0, err
	}

	merged := dedupKeepLast(append(existing, records...), injuryKey)

	rows := make([][]string, 0, len(merged))
	for _, r := range merged {
		rows = append(rows, []string{
			r.Team, r.Player, r.Position, r.InjuryType, r.InjuryStatus, r.StartDate, r.Details, r.FetchedAt,
		})
	}
	if err := writeTable(s.Path, InjuryColumns, rows); err != nil {
		return 0, err
	}

	log.Info().
		Str("path", s.Path).
		Int("new", len(records)).
		Int("total", len(merged)).
		Msg("Injury table updated")

	return len(merged), nil
}

// Load reads the whole table
func (s *InjuryStore) Load() ([]models.InjuryRecord, error) {
	t, err := readTable(s.Path, "TEAM", "PLAYER", "INJURY_STATUS", "START_DATE")
	if err != nil {
		return nil, err
	}

	records := make([]models.InjuryRecord, 0, len(t.rows))
	for _, row := range t.rows {
		records = append(records, models.InjuryRecord{
			Team:         t.get(row, "TEAM"),
			Player:       t.get(row, "PLAYER"),
			Position:     t.get(row, "POSITION"),
			InjuryType:   t.get(row, "INJURY_TYPE"),
			InjuryStatus: t.get(row, "INJURY_STATUS"),
			StartDate:    t.get(row, "START_DATE"),
			Details:      t.get(row, "DETAILS"),
			FetchedAt:    t.get(row, "FETCHED_AT"),
		})
	}

	return records, nil
}
