package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"nba_totals/pipeline/internal/metrics"
	"nba_totals/pipeline/internal/models"
	"nba_totals/pipeline/internal/repository"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Options controls training
type Options struct {
	Threshold float64 // OVER when TOTAL_POINTS exceeds this
	TestSplit float64 // fraction held out for evaluation
	Seed      int64   // shuffle seed
	L2        float64 // penalty on the weights, not the intercept
}

// DefaultOptions returns the standard training options
func DefaultOptions() Options {
	return Options{Threshold: 220, TestSplit: 0.2, Seed: 42, L2: 1}
}

// Dataset is the labelled model input
type Dataset struct {
	X       [][]float64
	Y       []float64
	Dropped int // records without defined rolling statistics
}

// NewDataset keeps the records with both rolling statistics defined and
// labels each one by comparing TOTAL_POINTS to threshold.
func NewDataset(records []models.TeamGameRecord, threshold float64) Dataset {
	var ds Dataset
	for _, r := range records {
		if !r.HasRollingStats() {
			ds.Dropped++
			continue
		}
		label := 0.0
		if float64(r.TotalPoints) > threshold {
			label = 1
		}
		ds.X = append(ds.X, []float64{r.AvgPtsLast5.Float64, r.WinsLast5.Float64})
		ds.Y = append(ds.Y, label)
	}
	return ds
}

// Train fits a model on records and evaluates it on a held-out split
func Train(records []models.TeamGameRecord, opts Options) (*Model, error) {
	ds := NewDataset(records, opts.Threshold)
	if len(ds.Y) < 2 {
		return nil, fmt.Errorf("need at least 2 records with rolling statistics, have %d", len(ds.Y))
	}

	trainIdx, testIdx := split(len(ds.Y), opts.TestSplit, opts.Seed)

	m := &Model{
		Features:  append([]string(nil), FeatureNames...),
		Threshold: opts.Threshold,
		TrainedAt: time.Now().UTC(),
	}
	m.Mean, m.Scale = standardize(ds.X, trainIdx)

	z := make([][]float64, len(ds.X))
	for i, x := range ds.X {
		z[i] = make([]float64, len(x))
		for j, v := range x {
			z[i][j] = (v - m.Mean[j]) / m.Scale[j]
		}
	}

	theta, err := fit(z, ds.Y, trainIdx, opts.L2)
	if err != nil {
		return nil, err
	}
	m.Weights = theta[:len(FeatureNames)]
	m.Intercept = theta[len(FeatureNames)]

	evalIdx := testIdx
	if len(evalIdx) == 0 {
		log.Warn().Msg("No held-out rows; evaluating on the training set")
		evalIdx = trainIdx
	}
	predicted := make([]int, len(evalIdx))
	actual := make([]int, len(evalIdx))
	for k, i := range evalIdx {
		predicted[k] = m.Predict(ds.X[i][0], ds.X[i][1])
		actual[k] = int(ds.Y[i])
	}
	m.Report = Evaluate(actual, predicted)
	m.Report.TrainSize = len(trainIdx)
	m.Report.TestSize = len(testIdx)
	m.Report.Dropped = ds.Dropped

	return m, nil
}

// split shuffles 0..n-1 and holds out ceil(n*frac) indices, keeping at least one for training
func split(n int, frac float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(math.Ceil(float64(n) * frac))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	return perm[nTest:], perm[:nTest]
}

// standardize returns the per-feature mean and population standard deviation
// of the rows in idx. Constant features get a scale of 1.
func standardize(x [][]float64, idx []int) (mean, scale []float64) {
	d := len(FeatureNames)
	mean = make([]float64, d)
	scale = make([]float64, d)

	col := make([]float64, len(idx))
	for j := 0; j < d; j++ {
		for k, i := range idx {
			col[k] = x[i][j]
		}
		m, s := stat.PopMeanStdDev(col, nil)
		mean[j] = m
		scale[j] = s
		if s == 0 || math.IsNaN(s) {
			scale[j] = 1
		}
	}
	return mean, scale
}

// fit minimizes the L2-penalized log loss over the rows in idx. The returned
// vector holds the weights followed by the intercept.
func fit(z [][]float64, y []float64, idx []int, l2 float64) ([]float64, error) {
	d := len(FeatureNames)

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			loss := 0.0
			for _, i := range idx {
				s := floats.Dot(theta[:d], z[i]) + theta[d]
				// log(1+exp(s)) - y*s, stable for large |s|
				loss += math.Max(s, 0) + math.Log1p(math.Exp(-math.Abs(s))) - y[i]*s
			}
			return loss + 0.5*l2*floats.Dot(theta[:d], theta[:d])
		},
		Grad: func(grad, theta []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for _, i := range idx {
				r := sigmoid(floats.Dot(theta[:d], z[i])+theta[d]) - y[i]
				floats.AddScaled(grad[:d], r, z[i])
				grad[d] += r
			}
			floats.AddScaled(grad[:d], l2, theta[:d])
		},
	}

	settings := optimize.Settings{
		FuncEvaluations:   1000,
		GradientThreshold: 1e-6,
	}

	result, err := optimize.Minimize(problem, make([]float64, d+1), &settings, &optimize.BFGS{})
	if err != nil {
		if result == nil {
			return nil, fmt.Errorf("failed to fit model: %w", err)
		}
		log.Warn().Err(err).Str("status", result.Status.String()).Msg("Optimizer stopped early; using last iterate")
	}

	return result.X, nil
}

// Run trains on the feature table at featuresPath and saves the model to modelPath
func Run(featuresPath, modelPath string, opts Options) (*Model, error) {
	records, err := repository.NewFeatureTable(featuresPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}

	m, err := Train(records, opts)
	if err != nil {
		return nil, err
	}

	if err := m.Save(modelPath); err != nil {
		return nil, err
	}

	metrics.ModelAccuracy.Set(m.Report.Accuracy)
	metrics.RecordSkipped("train", "null_rolling", m.Report.Dropped)

	event := log.Info().
		Str("path", modelPath).
		Int("train_rows", m.Report.TrainSize).
		Int("test_rows", m.Report.TestSize).
		Int("dropped", m.Report.Dropped).
		Float64("accuracy", m.Report.Accuracy)
	for _, c := range m.Report.Classes {
		event = event.
			Float64(c.Label+"_precision", c.Precision).
			Float64(c.Label+"_recall", c.Recall).
			Float64(c.Label+"_f1", c.F1).
			Int(c.Label+"_support", c.Support)
	}
	event.Msg("Model trained")

	return m, nil
}
