// Package evaluate scores class predictions against the true labels of a held
// out split.
package evaluate

import (
	"fmt"
	"strconv"
	"time"
)

type (
	// Report is the evaluation of a classifier on a test split
	Report struct {
		Accuracy    float64          `json:"accuracy"`
		Classes     []ClassReport    `json:"classes"`
		MacroAvg    Average          `json:"macro_avg"`
		WeightedAvg Average          `json:"weighted_avg"`
		Confusion   [][]int          `json:"confusion"`
		TrainCounts map[string]int   `json:"train_counts,omitempty"`
		TestCounts  map[string]int   `json:"test_counts,omitempty"`
		Dropped     int              `json:"dropped_rows"`
		Duplicates  int              `json:"duplicate_rows"`
		Features    int              `json:"features"`
		Importance  []FeatureScore   `json:"importance,omitempty"`
		Duration    time.Duration    `json:"duration"`
	}

	// ClassReport holds the per-class scores
	ClassReport struct {
		Label     string  `json:"label"`
		Precision float64 `json:"precision"`
		Recall    float64 `json:"recall"`
		F1        float64 `json:"f1"`
		Support   int     `json:"support"`
	}

	// Average is an averaged precision/recall/F1 triple
	Average struct {
		Precision float64 `json:"precision"`
		Recall    float64 `json:"recall"`
		F1        float64 `json:"f1"`
		Support   int     `json:"support"`
	}

	// FeatureScore pairs a feature name with its importance
	FeatureScore struct {
		Feature string  `json:"feature"`
		Score   float64 `json:"score"`
	}
)

// Evaluate compares predicted class codes with the actual ones. Classes names
// every code, a class with no predictions has zero precision.
func Evaluate(actual, predicted []int, classes []string) (*Report, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("%d actual labels but %d predictions", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return nil, fmt.Errorf("cannot evaluate an empty test split")
	}

	n := len(classes)
	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}

	correct := 0
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a < 0 || a >= n || p < 0 || p >= n {
			return nil, fmt.Errorf("row %d has a code outside the %d known classes", i, n)
		}
		confusion[a][p]++
		if a == p {
			correct++
		}
	}

	report := &Report{
		Accuracy:  float64(correct) / float64(len(actual)),
		Confusion: confusion,
	}

	for class, label := range classes {
		truePositive := confusion[class][class]
		support, predictedCount := 0, 0
		for other := 0; other < n; other++ {
			support += confusion[class][other]
			predictedCount += confusion[other][class]
		}

		scores := ClassReport{
			Label:     label,
			Precision: ratio(truePositive, predictedCount),
			Recall:    ratio(truePositive, support),
			Support:   support,
		}
		scores.F1 = harmonic(scores.Precision, scores.Recall)
		report.Classes = append(report.Classes, scores)
	}

	report.MacroAvg, report.WeightedAvg = averages(report.Classes)
	return report, nil
}

func averages(classes []ClassReport) (macro, weighted Average) {
	if len(classes) == 0 {
		return
	}
	total := 0
	for _, c := range classes {
		macro.Precision += c.Precision
		macro.Recall += c.Recall
		macro.F1 += c.F1
		weighted.Precision += c.Precision * float64(c.Support)
		weighted.Recall += c.Recall * float64(c.Support)
		weighted.F1 += c.F1 * float64(c.Support)
		total += c.Support
	}
	count := float64(len(classes))
	macro.Precision /= count
	macro.Recall /= count
	macro.F1 /= count
	macro.Support = total
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	weighted.Support = total
	return
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func harmonic(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// Header is the column header of Rows
func Header() []string {
	return []string{"Class", "Precision", "Recall", "F1", "Support"}
}

// Rows lays the report out as a classification table, one row per class
// followed by the accuracy and the two averages
func (r *Report) Rows() [][]string {
	var rows [][]string
	for _, c := range r.Classes {
		rows = append(rows, []string{
			c.Label, score(c.Precision), score(c.Recall), score(c.F1), strconv.Itoa(c.Support),
		})
	}
	rows = append(rows,
		[]string{"accuracy", "", "", score(r.Accuracy), strconv.Itoa(r.MacroAvg.Support)},
		averageRow("macro avg", r.MacroAvg),
		averageRow("weighted avg", r.WeightedAvg),
	)
	return rows
}

// ConfusionHeader is the column header of ConfusionRows
func (r *Report) ConfusionHeader() []string {
	header := []string{"Actual \\ Predicted"}
	for _, c := range r.Classes {
		header = append(header, c.Label)
	}
	return header
}

// ConfusionRows lays out the confusion matrix with the actual class first
func (r *Report) ConfusionRows() [][]string {
	rows := make([][]string, 0, len(r.Confusion))
	for i, counts := range r.Confusion {
		row := []string{r.Classes[i].Label}
		for _, count := range counts {
			row = append(row, strconv.Itoa(count))
		}
		rows = append(rows, row)
	}
	return rows
}

func averageRow(name string, avg Average) []string {
	return []string{name, score(avg.Precision), score(avg.Recall), score(avg.F1), strconv.Itoa(avg.Support)}
}

func score(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
