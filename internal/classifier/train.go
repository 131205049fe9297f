package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/util"
)

// LabelColumn is the training CSV column holding the disease label.
const LabelColumn = "prognosis"

// Train fits a Bernoulli naive Bayes model with Laplace smoothing from a CSV whose
// columns are 0/1 symptom indicators plus a prognosis column. Blank header
// columns are ignored.
func Train(r io.Reader) (*NaiveBayes, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read training header: %w", err)
	}

	labelIdx := -1
	var featureIdx []int
	var features []string
	for i, h := range header {
		name := util.NormalizeKey(h)
		switch {
		case name == LabelColumn:
			labelIdx = i
		case name == "" || strings.HasPrefix(name, "unnamed:"):
			continue
		default:
			featureIdx = append(featureIdx, i)
			features = append(features, name)
		}
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("training data has no %q column", LabelColumn)
	}
	if len(features) == 0 {
		return nil, errors.New("training data has no feature columns")
	}

	counts := map[string][]float64{}
	totals := map[string]float64{}
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read training row %d: %w", rows+2, err)
		}
		if labelIdx >= len(rec) {
			slog.Warn("classifier.Train: short row skipped", "row", rows+2)
			continue
		}
		label := strings.TrimSpace(rec[labelIdx])
		if label == "" {
			continue
		}
		if _, ok := counts[label]; !ok {
			counts[label] = make([]float64, len(features))
		}
		for j, idx := range featureIdx {
			if idx < len(rec) && isPositive(rec[idx]) {
				counts[label][j]++
			}
		}
		totals[label]++
		rows++
	}
	if rows == 0 {
		return nil, errors.New("training data has no labelled rows")
	}

	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	nb := &NaiveBayes{
		Kind:           "bernoulli_nb",
		FeatureNames:   features,
		ClassNames:     classes,
		ClassLogPrior:  make([]float64, len(classes)),
		FeatureLogProb: make([][]float64, len(classes)),
	}
	for i, c := range classes {
		nb.ClassLogPrior[i] = math.Log(totals[c] / float64(rows))
		nb.FeatureLogProb[i] = make([]float64, len(features))
		for j := range features {
			nb.FeatureLogProb[i][j] = math.Log((counts[c][j] + 1) / (totals[c] + 2))
		}
	}
	if err := nb.init(); err != nil {
		return nil, err
	}
	slog.Info("classifier.Train: model fitted", "rows", rows, "features", len(features), "classes", len(classes))
	return nb, nil
}

func isPositive(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v > 0
}
