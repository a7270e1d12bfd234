package classifier

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nba_totals/pipeline/internal/models"
	"nba_totals/pipeline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(avg, wins float64, total int) models.TeamGameRecord {
	return models.TeamGameRecord{
		GameID:      fmt.Sprintf("G%d-%v", total, avg),
		GameDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Team:        "BOS",
		TotalPoints: total,
		AvgPtsLast5: sql.NullFloat64{Float64: avg, Valid: true},
		WinsLast5:   sql.NullFloat64{Float64: wins, Valid: true},
	}
}

// separable returns records where a high recent scoring average means the
// game went over, with a little overlap-free noise in the wins column.
func separable(n int) []models.TeamGameRecord {
	records := make([]models.TeamGameRecord, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			records = append(records, record(235+float64(i%7), float64(i%5), 240))
		} else {
			records = append(records, record(200+float64(i%7), float64(i%5), 200))
		}
	}
	return records
}

func TestNewDataset(t *testing.T) {
	records := []models.TeamGameRecord{
		record(230, 3, 221),
		record(210, 2, 220),
		{Team: "NY", TotalPoints: 250},
	}

	ds := NewDataset(records, 220)
	assert.Equal(t, 1, ds.Dropped)
	assert.Equal(t, []float64{1, 0}, ds.Y, "label is strictly greater than the threshold")
	assert.Equal(t, [][]float64{{230, 3}, {210, 2}}, ds.X)
}

func TestTrain_TooFewRows(t *testing.T) {
	_, err := Train([]models.TeamGameRecord{record(230, 3, 240)}, DefaultOptions())
	assert.Error(t, err)

	_, err = Train([]models.TeamGameRecord{{Team: "BOS"}, {Team: "NY"}}, DefaultOptions())
	assert.Error(t, err)
}

func TestTrain_LearnsSeparableData(t *testing.T) {
	m, err := Train(separable(60), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 48, m.Report.TrainSize)
	assert.Equal(t, 12, m.Report.TestSize)
	assert.InDelta(t, 1.0, m.Report.Accuracy, 1e-9)
	require.Len(t, m.Report.Classes, 2)
	assert.Equal(t, models.LabelUnder, m.Report.Classes[0].Label)
	assert.Equal(t, models.LabelOver, m.Report.Classes[1].Label)

	assert.Equal(t, 1, m.Predict(238, 2))
	assert.Equal(t, 0, m.Predict(202, 2))
	assert.Greater(t, m.Probability(240, 2), 0.5)
	assert.Greater(t, m.Weights[0], 0.0, "scoring average pushes toward over")
}

func TestTrain_Deterministic(t *testing.T) {
	a, err := Train(separable(40), DefaultOptions())
	require.NoError(t, err)
	b, err := Train(separable(40), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Intercept, b.Intercept)
	assert.Equal(t, a.Report.Accuracy, b.Report.Accuracy)
}

func TestSplit(t *testing.T) {
	train, test := split(10, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := make(map[int]bool)
	for _, i := range append(train, test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train, test = split(2, 0.2, 42)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)

	train, test = split(5, 0, 42)
	assert.Len(t, train, 5)
	assert.Empty(t, test)
}

func TestEvaluate(t *testing.T) {
	actual := []int{1, 1, 1, 0, 0}
	predicted := []int{1, 1, 0, 0, 1}

	r := Evaluate(actual, predicted)
	assert.InDelta(t, 0.6, r.Accuracy, 1e-9)

	under, over := r.Classes[0], r.Classes[1]
	assert.Equal(t, 2, under.Support)
	assert.InDelta(t, 0.5, under.Precision, 1e-9)
	assert.InDelta(t, 0.5, under.Recall, 1e-9)
	assert.InDelta(t, 0.5, under.F1, 1e-9)

	assert.Equal(t, 3, over.Support)
	assert.InDelta(t, 2.0/3.0, over.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, over.Recall, 1e-9)
}

func TestEvaluate_NoPredictionsForClass(t *testing.T) {
	r := Evaluate([]int{0, 1}, []int{0, 0})
	assert.Zero(t, r.Classes[1].Precision)
	assert.Zero(t, r.Classes[1].F1)
}

func TestSaveLoad(t *testing.T) {
	m, err := Train(separable(30), DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "over_under_model.json")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, loaded.Weights)
	assert.Equal(t, m.Intercept, loaded.Intercept)
	assert.Equal(t, m.Predict(238, 2), loaded.Predict(238, 2))
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"weights": [1]}`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrEmptyModel)

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	featuresPath := filepath.Join(dir, "features.csv")
	modelPath := filepath.Join(dir, "model.json")

	require.NoError(t, repository.NewFeatureTable(featuresPath).Write(separable(30)))

	m, err := Run(featuresPath, modelPath, DefaultOptions())
	require.NoError(t, err)
	assert.FileExists(t, modelPath)
	assert.Equal(t, 30, m.Report.TrainSize+m.Report.TestSize)
}

func TestRun_MissingFeatures(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(filepath.Join(dir, "absent.csv"), filepath.Join(dir, "model.json"), DefaultOptions())
	assert.ErrorIs(t, err, repository.ErrTableNotFound)
}
