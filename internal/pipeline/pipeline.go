// Package pipeline wires the stages together with paths and settings from config.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nba_totals/pipeline/internal/classifier"
	"nba_totals/pipeline/internal/config"
	"nba_totals/pipeline/internal/features"
	"nba_totals/pipeline/internal/metrics"
	"nba_totals/pipeline/internal/models"
	"nba_totals/pipeline/internal/predictor"
	"nba_totals/pipeline/internal/preprocess"
	"nba_totals/pipeline/internal/repository"

	"github.com/rs/zerolog/log"
)

// Stage names
const (
	StageScrape     = "scrape"
	StageInjuries   = "injuries"
	StagePreprocess = "preprocess"
	StageFeatures   = "features"
	StageExport     = "export"
	StageTrain      = "train"
	StagePredict    = "predict"
	StageDaily      = "daily"
)

// Fetcher is the ESPN surface the pipeline reads from
type Fetcher interface {
	FetchScoreboard(ctx context.Context, date time.Time) (*models.ScoreboardResponse, error)
	FetchSummary(ctx context.Context, eventID string) (*models.SummaryResponse, error)
	FetchInjuries(ctx context.Context) (*models.InjuriesResponse, error)
}

// Exporter receives a copy of the feature table after every build
type Exporter interface {
	ReplaceAll(ctx context.Context, records []models.TeamGameRecord) (int64, error)
}

// Pipeline runs the batch stages
type Pipeline struct {
	cfg      *config.Config
	fetcher  Fetcher
	exporter Exporter
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithExporter mirrors the feature table through e after it is built
func WithExporter(e Exporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// WithClock overrides the clock that decides "today"
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline
func New(cfg *config.Config, fetcher Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, fetcher: fetcher, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages returns the names accepted by Run
func Stages() []string {
	return []string{StageScrape, StageInjuries, StagePreprocess, StageFeatures, StageExport, StageTrain, StagePredict, StageDaily}
}

// Run executes the named stage
func (p *Pipeline) Run(ctx context.Context, stage string) error {
	switch stage {
	case StageScrape:
		_, err := p.Scrape(ctx)
		return err
	case StageInjuries:
		_, err := p.Injuries(ctx)
		return err
	case StagePreprocess:
		return p.Preprocess(ctx)
	case StageFeatures:
		_, err := p.Features(ctx)
		return err
	case StageExport:
		return p.Export(ctx)
	case StageTrain:
		_, err := p.Train(ctx)
		return err
	case StagePredict:
		_, err := p.Predict(ctx)
		return err
	case StageDaily:
		return p.RunDaily(ctx)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// timed records the duration and outcome of one stage
func timed(stage string, fn func() error) error {
	start := time.Now()
	log.Info().Str("stage", stage).Msg("Stage starting")

	err := fn()

	duration := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStage(stage, status, duration.Seconds())

	if err != nil {
		log.Error().Err(err).Str("stage", stage).Dur("duration", duration).Msg("Stage failed")
		return fmt.Errorf("%s: %w", stage, err)
	}

	log.Info().Str("stage", stage).Dur("duration", duration).Msg("Stage complete")
	return nil
}

// ScrapeResult summarizes one scrape
type ScrapeResult struct {
	Dates        int
	FailedDates  int
	Games        int
	SkippedGames int
	Rows         int
	TotalRows    int
}

// Scrape walks DAYS_BACK dates back from today and appends every final box
// score to the raw table. A date or game that cannot be fetched is skipped.
func (p *Pipeline) Scrape(ctx context.Context) (ScrapeResult, error) {
	var res ScrapeResult
	err := timed(StageScrape, func() error {
		today := p.now().UTC()

		var rows []models.RawObservation
		for delta := 0; delta < p.cfg.DaysBack; delta++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			date := today.AddDate(0, 0, -delta)
			res.Dates++

			scoreboard, err := p.fetcher.FetchScoreboard(ctx, date)
			if err != nil {
				res.FailedDates++
				log.Warn().Err(err).Str("date", date.Format(repository.DateLayout)).Msg("Failed to get scoreboard, skipping date")
				continue
			}

			for _, event := range scoreboard.Events {
				if !event.Completed() {
					res.SkippedGames++
					metrics.RecordSkipped(StageScrape, "not_final", 1)
					continue
				}

				summary, err := p.fetcher.FetchSummary(ctx, event.ID)
				if err != nil {
					res.SkippedGames++
					metrics.RecordSkipped(StageScrape, "fetch_failed", 1)
					log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to get box score, skipping game")
					continue
				}

				observations := summary.ToRawObservations(event.ID, event.GameDate(), p.cfg.SeasonID)
				if len(observations) == 0 {
					res.SkippedGames++
					metrics.RecordSkipped(StageScrape, "incomplete", 1)
					log.Debug().Str("event_id", event.ID).Msg("Box score incomplete, skipping game")
					continue
				}

				res.Games++
				rows = append(rows, observations...)
			}
		}
		res.Rows = len(rows)

		if len(rows) == 0 {
			log.Warn().Int("dates", res.Dates).Msg("No new box scores to append")
			return nil
		}

		total, err := repository.NewRawStore(p.cfg.RawGamesPath).Append(rows)
		if err != nil {
			return err
		}
		res.TotalRows = total
		metrics.RecordTableRows("raw_games", total)

		log.Info().
			Int("dates", res.Dates).
			Int("failed_dates", res.FailedDates).
			Int("games", res.Games).
			Int("skipped_games", res.SkippedGames).
			Int("rows", res.Rows).
			Int("total_rows", res.TotalRows).
			Msg("Scrape complete")
		return nil
	})
	return res, err
}

// Injuries fetches the league injury report and merges it into the injury table
func (p *Pipeline) Injuries(ctx context.Context) (int, error) {
	total := 0
	err := timed(StageInjuries, func() error {
		resp, err := p.fetcher.FetchInjuries(ctx)
		if err != nil {
			// A failed fetch skips this refresh
			log.Warn().Err(err).Msg("Failed to fetch injuries, skipping refresh")
			return nil
		}

		records := resp.ToInjuryRecords(p.now())
		total, err = repository.NewInjuryStore(p.cfg.InjuriesPath).Append(records)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			metrics.RecordTableRows("injuries", total)
		}
		return nil
	})
	return total, err
}

// Preprocess rebuilds the cleaned table from the raw table
func (p *Pipeline) Preprocess(ctx context.Context) error {
	return timed(StagePreprocess, func() error {
		n, err := preprocess.Run(p.cfg.RawGamesPath, p.cfg.CleanedGamesPath)
		if err != nil {
			return err
		}
		metrics.RecordTableRows("cleaned_games", n)
		return nil
	})
}

// Features rebuilds the feature table from the cleaned table
func (p *Pipeline) Features(ctx context.Context) (features.BuildStats, error) {
	var stats features.BuildStats
	err := timed(StageFeatures, func() error {
		var err error
		stats, err = features.Run(p.cfg.CleanedGamesPath, p.cfg.FeaturesPath, p.cfg.RollingWindow)
		return err
	})
	return stats, err
}

// Export mirrors the feature table when an exporter is configured
func (p *Pipeline) Export(ctx context.Context) error {
	if p.exporter == nil {
		log.Debug().Msg("No feature exporter configured")
		return nil
	}

	return timed(StageExport, func() error {
		records, err := repository.NewFeatureTable(p.cfg.FeaturesPath).Load()
		if err != nil {
			return err
		}
		_, err = p.exporter.ReplaceAll(ctx, records)
		return err
	})
}

// Train fits and saves the model
func (p *Pipeline) Train(ctx context.Context) (*classifier.Model, error) {
	var m *classifier.Model
	err := timed(StageTrain, func() error {
		var err error
		m, err = classifier.Run(p.cfg.FeaturesPath, p.cfg.ModelPath, classifier.Options{
			Threshold: p.cfg.OverUnderThreshold,
			TestSplit: p.cfg.TestSplit,
			Seed:      p.cfg.RandomSeed,
			L2:        classifier.DefaultOptions().L2,
		})
		return err
	})
	return m, err
}

// Predict labels today's matchups. Missing model or feature files are fatal;
// an unreachable scoreboard yields an empty report.
func (p *Pipeline) Predict(ctx context.Context) (predictor.Report, error) {
	var report predictor.Report
	err := timed(StagePredict, func() error {
		model, err := classifier.Load(p.cfg.ModelPath)
		if err != nil {
			return err
		}
		records, err := repository.NewFeatureTable(p.cfg.FeaturesPath).Load()
		if err != nil {
			return err
		}

		scoreboard, err := p.fetcher.FetchScoreboard(ctx, p.now())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to get today's scoreboard, nothing to predict")
			return nil
		}
		matchups := scoreboard.Matchups()
		if len(matchups) == 0 {
			log.Warn().Msg("No games found to predict today")
			return nil
		}

		report = predictor.Predict(matchups, records, model)

		for _, r := range report.Results {
			metrics.RecordPrediction(r.Prediction)
			log.Info().
				Str("matchup", r.Matchup).
				Str("prediction", r.Prediction).
				Float64("avg_pts_last_5", r.AvgPtsLast5).
				Float64("wins_last_5", r.WinsLast5).
				Msg("Prediction")
		}
		for reason, n := range countReasons(report.Skipped) {
			metrics.RecordSkipped(StagePredict, reason, n)
		}

		log.Info().
			Int("matchups", len(matchups)).
			Int("predicted", len(report.Results)).
			Int("skipped", len(report.Skipped)).
			Msg("Predictions complete")
		return nil
	})
	return report, err
}

func countReasons(skipped []predictor.Skip) map[string]int {
	counts := make(map[string]int)
	for _, s := range skipped {
		counts[s.Reason]++
	}
	return counts
}

// RunDaily runs scrape, preprocess, features, export, train and predict in order.
// A failed export is logged and does not stop the run.
func (p *Pipeline) RunDaily(ctx context.Context) error {
	return timed(StageDaily, func() error {
		if _, err := p.Scrape(ctx); err != nil {
			return err
		}

		// A first run with nothing scraped has no raw table yet
		if err := p.Preprocess(ctx); err != nil {
			if errors.Is(err, repository.ErrTableNotFound) {
				log.Warn().Msg("No raw table yet, stopping daily run")
				return nil
			}
			return err
		}

		if _, err := p.Features(ctx); err != nil {
			return err
		}
		if err := p.Export(ctx); err != nil {
			log.Warn().Err(err).Msg("Feature export failed, continuing")
		}
		if _, err := p.Train(ctx); err != nil {
			return err
		}
		_, err := p.Predict(ctx)
		return err
	})
}
