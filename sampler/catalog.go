package sampler

import (
	"math/rand"
	"sort"

	"github.com/gomlx/exceptions"
)

// Entry is one named option of a Catalog, with its sampling weight and an
// arbitrary payload (typically a constructor or sub-sampler).
type Entry[T any] struct {
	Name   string
	Weight float64
	Value  T
}

// Catalog is an immutable weighted collection of named entries. Entries are
// kept sorted by name so that sampling order never depends on map iteration.
// The probability of an entry is its weight over the sum of all weights.
type Catalog[T any] struct {
	entries []Entry[T]
	total   float64
}

// NewCatalog builds a catalog from the given entries. It panics on negative
// weights, duplicate names or an all-zero weight sum.
func NewCatalog[T any](entries ...Entry[T]) *Catalog[T] {
	c := &Catalog[T]{entries: append([]Entry[T]{}, entries...)}
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Name < c.entries[j].Name })
	for i, e := range c.entries {
		if e.Weight < 0 {
			exceptions.Panicf("sampler.NewCatalog: entry %q has negative weight %g", e.Name, e.Weight)
		}
		if i > 0 && c.entries[i-1].Name == e.Name {
			exceptions.Panicf("sampler.NewCatalog: duplicate entry %q", e.Name)
		}
		c.total += e.Weight
	}
	if c.total <= 0 {
		exceptions.Panicf("sampler.NewCatalog: sum of weights must be positive")
	}
	return c
}

// Sample draws one entry, with probability proportional to its weight.
func (c *Catalog[T]) Sample(rng *rand.Rand) Entry[T] {
	target := rng.Float64() * c.total
	cum := 0.0
	for _, e := range c.entries {
		cum += e.Weight
		if target < cum {
			return e
		}
	}
	// Only reachable through floating point rounding of the cumulative sum.
	return c.entries[len(c.entries)-1]
}

// Uniform draws one entry, every entry equally likely regardless of weight.
func (c *Catalog[T]) Uniform(rng *rand.Rand) Entry[T] {
	return c.entries[rng.Intn(len(c.entries))]
}

// Lookup returns the entry with the given name.
func (c *Catalog[T]) Lookup(name string) (Entry[T], bool) {
	idx := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Name >= name })
	if idx < len(c.entries) && c.entries[idx].Name == name {
		return c.entries[idx], true
	}
	return Entry[T]{}, false
}

// Names returns the entry names in sorted order.
func (c *Catalog[T]) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of entries.
func (c *Catalog[T]) Len() int { return len(c.entries) }
