package classifier

import "nba_totals/pipeline/internal/models"

// Report summarizes hold-out performance
type Report struct {
	Accuracy  float64        `json:"accuracy"`
	Classes   []ClassMetrics `json:"classes"`
	TrainSize int            `json:"train_size"`
	TestSize  int            `json:"test_size"`
	Dropped   int            `json:"dropped"`
}

// ClassMetrics holds per-class precision, recall and F1
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluate compares predicted classes against actual ones. Undefined ratios are 0.
func Evaluate(actual, predicted []int) Report {
	var r Report
	if len(actual) == 0 {
		return r
	}

	correct := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
	}
	r.Accuracy = float64(correct) / float64(len(actual))

	for _, class := range []int{0, 1} {
		tp, fp, fn, support := 0, 0, 0, 0
		for i := range actual {
			switch {
			case actual[i] == class && predicted[i] == class:
				tp++
			case actual[i] != class && predicted[i] == class:
				fp++
			case actual[i] == class:
				fn++
			}
			if actual[i] == class {
				support++
			}
		}

		c := ClassMetrics{Label: models.LabelFor(class), Support: support}
		if tp+fp > 0 {
			c.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			c.Recall = float64(tp) / float64(tp+fn)
		}
		if c.Precision+c.Recall > 0 {
			c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
		}
		r.Classes = append(r.Classes, c)
	}

	return r
}
