// Command pipeline runs one pipeline stage and exits.
//
//	pipeline <scrape|injuries|preprocess|features|export|train|predict|daily>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nba_totals/pipeline/internal/config"
	"nba_totals/pipeline/internal/metrics"
	"nba_totals/pipeline/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <%s>\n", os.Args[0], strings.Join(pipeline.Stages(), "|"))
		os.Exit(2)
	}
	stage := os.Args[1]

	cfg := config.MustLoad()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, cleanup := pipeline.Bootstrap(ctx, cfg)

	err := p.Run(ctx, stage)
	cleanup()

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("Failed to write metrics textfile")
		}
	}

	if err != nil {
		log.Fatal().Err(err).Str("stage", stage).Msg("Pipeline stage failed")
	}
}

// setupLogger configures the zerolog logger
func setupLogger(cfg *config.Config) {
	// Pretty console logging in development
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		level = parsedLevel
	}
	zerolog.SetGlobalLevel(level)
}
