// Package preprocess folds per-team box scores into one row per game.
package preprocess

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"nba_totals/pipeline/internal/models"
	"nba_totals/pipeline/internal/repository"

	"github.com/rs/zerolog/log"
)

// Clean groups raw observations by GAME_ID. Groups are emitted in the order
// their first observation appears. Within a group, members are ordered by
// TEAM_ID so list positions do not depend on fetch order. Groups that do not
// have exactly two members are passed through unchanged in size.
func Clean(raw []models.RawObservation) []models.CleanedGame {
	order := make([]string, 0)
	groups := make(map[string][]models.RawObservation)
	for _, o := range raw {
		if _, ok := groups[o.GameID]; !ok {
			order = append(order, o.GameID)
		}
		groups[o.GameID] = append(groups[o.GameID], o)
	}

	games := make([]models.CleanedGame, 0, len(order))
	for _, id := range order {
		members := groups[id]

		// Date comes from the first observation as ingested
		date := members[0].GameDate

		sort.SliceStable(members, func(i, j int) bool {
			return lessTeamID(members[i].TeamID, members[j].TeamID)
		})

		total := 0
		teams := make([]string, 0, len(members))
		results := make([]string, 0, len(members))
		for _, m := range members {
			total += m.Points
			teams = append(teams, m.TeamAbbreviation)
			results = append(results, m.WL)
		}

		games = append(games, models.CleanedGame{
			GameID:      id,
			GameDate:    date,
			TotalPoints: total,
			Teams:       FormatList(teams),
			TeamResults: FormatList(results),
		})
	}

	return games
}

// lessTeamID orders numeric ids numerically and everything else lexically
func lessTeamID(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}

// FormatList serializes a list field as a JSON array
func FormatList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// Run cleans the raw table at rawPath into the cleaned table at cleanedPath
func Run(rawPath, cleanedPath string) (int, error) {
	raw, err := repository.NewRawStore(rawPath).Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load raw games: %w", err)
	}

	games := Clean(raw)

	incomplete := 0
	for _, o := range countByGame(raw) {
		if o != 2 {
			incomplete++
		}
	}
	if incomplete > 0 {
		log.Warn().Int("games", incomplete).Msg("Games without exactly two team rows; they will be dropped by the feature builder")
	}

	if err := repository.NewCleanedTable(cleanedPath).Write(games); err != nil {
		return 0, err
	}

	log.Info().
		Int("raw_rows", len(raw)).
		Int("games", len(games)).
		Msg("Preprocessing complete")

	return len(games), nil
}

func countByGame(raw []models.RawObservation) map[string]int {
	counts := make(map[string]int)
	for _, o := range raw {
		counts[o.GameID]++
	}
	return counts
}
