// Package initializers implements the catalog of weight initializers used by
// sampled models.
//
// An initializer config is plain data: a name plus, for the scaled kinds, one
// sampled scale. FromConfig turns the config into an Initializer that fills
// gonum matrices; the config itself round-trips through JSON unchanged.
package initializers

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"

	"github.com/optbench/taskset/sampler"
)

// Initializer fills a rows x cols weight matrix, drawing any randomness it
// needs from rng.
type Initializer func(rng *rand.Rand, rows, cols int) *mat.Dense

// Config identifies one initializer. Scale is set only for the kinds whose
// constructor takes a scale (orthogonal, random_uniform, random_normal,
// truncated_normal, variance_scaling); it is nil for the shape-based kinds.
type Config struct {
	Name  string   `json:"name"`
	Scale *float64 `json:"scale,omitempty"`
}

// scaled marks the catalog entries that carry a sampled scale parameter.
type kind struct {
	scaled bool
}

var catalog = sampler.NewCatalog(
	sampler.Entry[kind]{Name: "he_normal", Weight: 2},
	sampler.Entry[kind]{Name: "he_uniform", Weight: 2},
	sampler.Entry[kind]{Name: "glorot_normal", Weight: 2},
	sampler.Entry[kind]{Name: "glorot_uniform", Weight: 2},
	sampler.Entry[kind]{Name: "orthogonal", Weight: 1, Value: kind{scaled: true}},
	sampler.Entry[kind]{Name: "random_uniform", Weight: 1, Value: kind{scaled: true}},
	sampler.Entry[kind]{Name: "random_normal", Weight: 1, Value: kind{scaled: true}},
	sampler.Entry[kind]{Name: "truncated_normal", Weight: 1, Value: kind{scaled: true}},
	sampler.Entry[kind]{Name: "variance_scaling", Weight: 1, Value: kind{scaled: true}},
)

// Names lists the valid initializer names, sorted.
func Names() []string { return catalog.Names() }

// Sample draws an initializer config: a weighted choice of kind and, for the
// scaled kinds, a scale drawn log-uniformly from [0.1, 10].
func Sample(rng *rand.Rand) Config {
	entry := catalog.Sample(rng)
	cfg := Config{Name: entry.Name}
	if entry.Value.scaled {
		scale := sampler.LogFloat(rng, 0.1, 10)
		cfg.Scale = &scale
	}
	return cfg
}

// FromConfig returns the Initializer described by the config.
// It panics if the name is unknown, which only happens for configs that were
// not produced by Sample.
func FromConfig(cfg Config) Initializer {
	scale := 1.0
	if cfg.Scale != nil {
		scale = *cfg.Scale
	}
	switch cfg.Name {
	case "he_normal":
		return normalFn(func(fanIn, fanOut int) float64 { return math.Sqrt(2.0 / float64(fanIn)) })
	case "he_uniform":
		return uniformFn(func(fanIn, fanOut int) float64 { return math.Sqrt(6.0 / float64(fanIn)) })
	case "glorot_normal":
		return normalFn(func(fanIn, fanOut int) float64 { return math.Sqrt(2.0 / float64(fanIn+fanOut)) })
	case "glorot_uniform":
		return uniformFn(func(fanIn, fanOut int) float64 { return math.Sqrt(6.0 / float64(fanIn+fanOut)) })
	case "orthogonal":
		return orthogonalFn(scale)
	case "random_uniform":
		return uniformFn(func(int, int) float64 { return scale })
	case "random_normal":
		return normalFn(func(int, int) float64 { return scale })
	case "truncated_normal":
		return truncatedNormalFn(scale)
	case "variance_scaling":
		return normalFn(func(fanIn, fanOut int) float64 { return math.Sqrt(scale / float64(fanIn)) })
	default:
		exceptions.Panicf("invalid initializer name %q: options are %v", cfg.Name, catalog.Names())
	}
	return nil
}

// normalFn builds an initializer of N(0, stddev) values, with stddev derived
// from the matrix fan-in/fan-out. Weight matrices are (outputs x inputs) and
// applied as W*x, so fan-in is the column count.
func normalFn(stddev func(fanIn, fanOut int) float64) Initializer {
	return func(rng *rand.Rand, rows, cols int) *mat.Dense {
		sigma := stddev(cols, rows)
		m := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, rng.NormFloat64()*sigma)
			}
		}
		return m
	}
}

// uniformFn builds an initializer of U(-limit, limit) values, with the limit
// derived like normalFn's stddev: fan-in is the column count.
func uniformFn(limit func(fanIn, fanOut int) float64) Initializer {
	return func(rng *rand.Rand, rows, cols int) *mat.Dense {
		l := limit(cols, rows)
		m := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, (rng.Float64()*2-1)*l)
			}
		}
		return m
	}
}

// truncatedNormalFn resamples any draw beyond two standard deviations.
func truncatedNormalFn(stddev float64) Initializer {
	return func(rng *rand.Rand, rows, cols int) *mat.Dense {
		m := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				z := rng.NormFloat64()
				for math.Abs(z) > 2 {
					z = rng.NormFloat64()
				}
				m.Set(i, j, z*stddev)
			}
		}
		return m
	}
}

// orthogonalFn builds a (semi-)orthogonal matrix scaled by gain: the Q factor
// of the QR decomposition of a random normal matrix.
func orthogonalFn(gain float64) Initializer {
	return func(rng *rand.Rand, rows, cols int) *mat.Dense {
		n := rows
		if cols > n {
			n = cols
		}
		a := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a.Set(i, j, rng.NormFloat64())
			}
		}
		var qr mat.QR
		qr.Factorize(a)
		var q mat.Dense
		qr.QTo(&q)
		m := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, q.At(i, j)*gain)
			}
		}
		return m
	}
}
