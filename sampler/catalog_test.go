package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog[int] {
	return NewCatalog(
		Entry[int]{Name: "relu", Weight: 6, Value: 1},
		Entry[int]{Name: "tanh", Weight: 3, Value: 2},
		Entry[int]{Name: "cos", Weight: 1, Value: 3},
	)
}

func TestCatalogSampleDistribution(t *testing.T) {
	c := testCatalog()
	rng := rand.New(rand.NewSource(99))
	counts := make(map[string]int)
	const n = 100000
	for i := 0; i < n; i++ {
		counts[c.Sample(rng).Name]++
	}
	assert.InDelta(t, 0.6, float64(counts["relu"])/n, 0.01)
	assert.InDelta(t, 0.3, float64(counts["tanh"])/n, 0.01)
	assert.InDelta(t, 0.1, float64(counts["cos"])/n, 0.01)
}

func TestCatalogUniform(t *testing.T) {
	c := testCatalog()
	rng := rand.New(rand.NewSource(99))
	counts := make(map[string]int)
	const n = 90000
	for i := 0; i < n; i++ {
		counts[c.Uniform(rng).Name]++
	}
	for _, name := range c.Names() {
		assert.InDelta(t, 1.0/3.0, float64(counts[name])/n, 0.01, name)
	}
}

func TestCatalogNamesSorted(t *testing.T) {
	c := testCatalog()
	require.Equal(t, []string{"cos", "relu", "tanh"}, c.Names())
	require.Equal(t, 3, c.Len())
}

func TestCatalogLookup(t *testing.T) {
	c := testCatalog()
	e, ok := c.Lookup("tanh")
	require.True(t, ok)
	require.Equal(t, 2, e.Value)
	_, ok = c.Lookup("gelu")
	require.False(t, ok)
}

func TestCatalogValidation(t *testing.T) {
	require.Panics(t, func() {
		NewCatalog(Entry[int]{Name: "a", Weight: -1})
	})
	require.Panics(t, func() {
		NewCatalog(Entry[int]{Name: "a", Weight: 1}, Entry[int]{Name: "a", Weight: 1})
	})
	require.Panics(t, func() {
		NewCatalog(Entry[int]{Name: "a", Weight: 0})
	})
}

func TestCatalogDeterminism(t *testing.T) {
	c := testCatalog()
	a := rand.New(rand.NewSource(5))
	b := rand.New(rand.NewSource(5))
	for i := 0; i < 1000; i++ {
		require.Equal(t, c.Sample(a).Name, c.Sample(b).Name)
	}
}
