package repository

import (
	"context"
	"fmt"

	"nba_totals/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const featuresSchema = `
	CREATE TABLE IF NOT EXISTS team_game_features (
		game_id        TEXT    NOT NULL,
		game_date      DATE    NOT NULL,
		team           TEXT    NOT NULL,
		opponent       TEXT    NOT NULL,
		won            INTEGER NOT NULL,
		total_points   INTEGER NOT NULL,
		avg_pts_last_5 DOUBLE PRECISION,
		wins_last_5    DOUBLE PRECISION,
		exported_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (game_id, team)
	)
`

var featureCopyColumns = []string{
	"game_id", "game_date", "team", "opponent", "won", "total_points",
	"avg_pts_last_5", "wins_last_5",
}

// FeatureRepository mirrors the feature table into Postgres
type FeatureRepository struct {
	db *Database
}

// ReplaceAll swaps the mirrored table contents for records in one transaction
func (r *FeatureRepository) ReplaceAll(ctx context.Context, records []models.TeamGameRecord) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE team_game_features`); err != nil {
		return 0, fmt.Errorf("failed to truncate team_game_features: %w", err)
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"team_game_features"},
		featureCopyColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{
				rec.GameID,
				rec.GameDate,
				rec.Team,
				rec.Opponent,
				rec.Won,
				rec.TotalPoints,
				rec.AvgPtsLast5,
				rec.WinsLast5,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy features: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit feature export: %w", err)
	}

	log.Info().Int64("rows", copied).Msg("Feature table exported")
	return copied, nil
}

// Count returns the number of mirrored rows
func (r *FeatureRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM team_game_features`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count features: %w", err)
	}
	return n, nil
}
