// Package sampler implements the random draws used to generate task
// configurations: log- and linear-scale scalars, biased booleans and
// weighted categorical choices over named catalogs.
//
// Every function is a pure function of the random source and its arguments:
// two sources seeded identically produce identical results, which is what
// makes sampled benchmark tasks reconstructible.
package sampler

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"
)

// uniform draws uniformly from [low, high).
func uniform(rng *rand.Rand, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}

// LogInt samples an integer between low and high, uniformly in log-space,
// so smaller magnitudes are favored on a linear scale. Use it for
// hyperparameters that span orders of magnitude (widths, batch sizes,
// sequence lengths).
func LogInt(rng *rand.Rand, low, high int) int {
	sample := uniform(rng, math.Log(float64(low)), math.Log(float64(high)))
	return int(math.Round(math.Exp(sample)))
}

// LinearInt samples an integer uniformly between low and high, inclusive up
// to rounding at the boundaries.
func LinearInt(rng *rand.Rand, low, high int) int {
	return int(math.Round(uniform(rng, float64(low), float64(high))))
}

// LogFloat samples a float between low and high, uniformly in log-space.
func LogFloat(rng *rand.Rand, low, high float64) float64 {
	return math.Exp(uniform(rng, math.Log(low), math.Log(high)))
}

// Bool samples true with probability p.
// It panics if p is outside [0, 1].
func Bool(rng *rand.Rand, p float64) bool {
	if p < 0.0 || p > 1.0 {
		exceptions.Panicf("sampler.Bool: probability must be within [0, 1], got %g", p)
	}
	return rng.Float64() < p
}

// Pick returns one of the given options, each equally likely.
// Repeating an option raises its odds accordingly.
func Pick[T any](rng *rand.Rand, options ...T) T {
	if len(options) == 0 {
		exceptions.Panicf("sampler.Pick: no options given")
	}
	return options[rng.Intn(len(options))]
}
