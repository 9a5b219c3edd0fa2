package tasks

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Accuracy returns the fraction of examples whose arg-max score matches the
// label. Logits is one row of scores per example.
func Accuracy(labels []int, logits *mat.Dense) float64 {
	rows, _ := logits.Dims()
	if rows != len(labels) {
		exceptions.Panicf("Accuracy got %d labels for %d score rows", len(labels), rows)
	}
	if rows == 0 {
		return 0
	}
	correct := 0
	row := []float64(nil)
	for i, label := range labels {
		row = mat.Row(row, i, logits)
		if floats.MaxIdx(row) == label {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}
