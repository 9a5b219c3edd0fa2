package initializers

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var scaledKinds = map[string]bool{
	"orthogonal":       true,
	"random_uniform":   true,
	"random_normal":    true,
	"truncated_normal": true,
	"variance_scaling": true,
}

func TestSampleScalePresence(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		cfg := Sample(rng)
		seen[cfg.Name] = true
		if scaledKinds[cfg.Name] {
			require.NotNil(t, cfg.Scale, cfg.Name)
			require.GreaterOrEqual(t, *cfg.Scale, 0.1)
			require.LessOrEqual(t, *cfg.Scale, 10.0)
		} else {
			require.Nil(t, cfg.Scale, cfg.Name)
		}
	}
	// Every catalog entry is reachable.
	require.Len(t, seen, len(Names()))
}

func TestSampleDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	counts := make(map[string]int)
	const n = 100000
	for i := 0; i < n; i++ {
		counts[Sample(rng).Name]++
	}
	// Shape-based kinds have weight 2, scaled kinds 1; total 13.
	assert.InDelta(t, 2.0/13.0, float64(counts["he_normal"])/n, 0.01)
	assert.InDelta(t, 2.0/13.0, float64(counts["glorot_uniform"])/n, 0.01)
	assert.InDelta(t, 1.0/13.0, float64(counts["orthogonal"])/n, 0.01)
}

func TestFromConfigRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for i := 0; i < 1000; i++ {
		cfg := Sample(rng)

		encoded, err := json.Marshal(cfg)
		require.NoError(t, err)
		var decoded Config
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		require.Equal(t, cfg, decoded)

		init := FromConfig(decoded)
		m := init(rng, 16, 8)
		rows, cols := m.Dims()
		require.Equal(t, 16, rows)
		require.Equal(t, 8, cols)
	}
}

func matrixStddev(m *mat.Dense) float64 {
	rows, cols := m.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			sum += v * v
		}
	}
	return math.Sqrt(sum / float64(rows*cols))
}

func TestFanInScaling(t *testing.T) {
	rng := rand.New(rand.NewSource(28))

	// Weights are (outputs x inputs): a 64x512 matrix has fan-in 512, and
	// he_normal must scale by sqrt(2/512), not by the output dimension.
	m := FromConfig(Config{Name: "he_normal"})(rng, 64, 512)
	assert.InDelta(t, math.Sqrt(2.0/512.0), matrixStddev(m), 0.002)

	// U(-l, l) has stddev l/sqrt(3), so he_uniform matches he_normal's.
	m = FromConfig(Config{Name: "he_uniform"})(rng, 64, 512)
	assert.InDelta(t, math.Sqrt(2.0/512.0), matrixStddev(m), 0.002)

	scale := 4.0
	m = FromConfig(Config{Name: "variance_scaling", Scale: &scale})(rng, 64, 512)
	assert.InDelta(t, math.Sqrt(4.0/512.0), matrixStddev(m), 0.002)

	// Glorot is symmetric in rows and cols.
	m = FromConfig(Config{Name: "glorot_normal"})(rng, 64, 512)
	assert.InDelta(t, math.Sqrt(2.0/576.0), matrixStddev(m), 0.002)
}

func TestFromConfigUnknownName(t *testing.T) {
	require.Panics(t, func() { FromConfig(Config{Name: "lecun_normal"}) })
}

func TestOrthogonal(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	gain := 1.0
	init := FromConfig(Config{Name: "orthogonal", Scale: &gain})
	m := init(rng, 6, 6)

	// Columns of an orthogonal matrix are orthonormal.
	var product mat.Dense
	product.Mul(m.T(), m)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, product.At(i, j), 1e-10)
		}
	}
}

func TestTruncatedNormalStaysWithinTwoSigma(t *testing.T) {
	rng := rand.New(rand.NewSource(25))
	scale := 0.5
	init := FromConfig(Config{Name: "truncated_normal", Scale: &scale})
	m := init(rng, 100, 100)
	for i := 0; i < 100; i++ {
		for j := 0; j < 100; j++ {
			require.LessOrEqual(t, math.Abs(m.At(i, j)), 2*scale)
		}
	}
}

func TestUniformLimits(t *testing.T) {
	rng := rand.New(rand.NewSource(26))
	scale := 0.25
	init := FromConfig(Config{Name: "random_uniform", Scale: &scale})
	m := init(rng, 50, 50)
	for i := 0; i < 50; i++ {
		for j := 0; j < 50; j++ {
			require.LessOrEqual(t, math.Abs(m.At(i, j)), scale)
		}
	}
}

func TestSampleDeterminism(t *testing.T) {
	a := rand.New(rand.NewSource(27))
	b := rand.New(rand.NewSource(27))
	for i := 0; i < 1000; i++ {
		require.Equal(t, Sample(a), Sample(b))
	}
}
