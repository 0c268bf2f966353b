package pipeline

import (
	"github.com/shopspring/decimal"

	"zenpdf-worker/internal/models"
)

// validated pairs a candidate that passed validate() with its file size.
type validated struct {
	candidate
	size int64
}

// selectSmallest returns the smallest validated candidate, or false if
// the set is empty.
func selectSmallest(candidates []validated) (validated, bool) {
	if len(candidates) == 0 {
		return validated{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.size < best.size {
			best = c
		}
	}
	return best, true
}

// threshold decides whether winner's savings over originalBytes clear
// the configured bar: both the absolute byte floor and the fractional
// threshold must be met. Below the bar, the pipeline falls back to the
// original file labeled as a passthrough rather than shipping a
// negligibly smaller output.
//
// savingsPct is rounded to two decimal places via decimal.Decimal so
// the reported percentage never carries binary-float noise.
func threshold(originalBytes, winnerBytes int64, minPct, minBytes float64) (method models.CandidateMethod, savingsBytes int64, savingsPct float64, passed bool) {
	savingsBytes = originalBytes - winnerBytes
	if originalBytes <= 0 {
		return models.MethodPassthrough, 0, 0, false
	}

	pctDec := decimal.NewFromInt(savingsBytes).
		Div(decimal.NewFromInt(originalBytes)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	savingsPct, _ = pctDec.Float64()

	meetsBytes := decimal.NewFromInt(savingsBytes).GreaterThanOrEqual(decimal.NewFromFloat(minBytes))
	meetsPct := pctDec.GreaterThanOrEqual(decimal.NewFromFloat(minPct * 100))

	if savingsBytes <= 0 || !meetsBytes || !meetsPct {
		return models.MethodPassthrough, savingsBytes, savingsPct, false
	}
	return "", savingsBytes, savingsPct, true
}
