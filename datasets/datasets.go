// Package datasets implements the data pipeline side of sampled tasks: it
// turns a fully specified request (dataset name, batch size, subset sizes,
// optional per-example transform) into a Bundle of example streams for a
// training loop.
//
// Raw data comes from loaders registered on a Store; built-in loaders cover
// the classic downloadable sets (MNIST, Fashion-MNIST, CIFAR-10/100) and
// callers plug in anything else.
package datasets

import (
	"image"
	"io"
	"math/rand"

	"golang.org/x/exp/constraints"
)

// Example is one record flowing through a pipeline: an image or a token
// patch, plus its label.
type Example struct {
	Image  image.Image
	Tokens []int32
	Label  int
}

// Transform rewrites a single example, drawing any randomness from rng.
// Implementations must not mutate the input example.
type Transform func(rng *rand.Rand, ex Example) Example

// Dataset is a stream of example batches. Yield returns io.EOF together with
// the final (possibly partial) batch of an epoch; the next Yield starts a
// fresh epoch.
type Dataset interface {
	// Name identifies the dataset, for logging and error messages.
	Name() string
	// Yield returns the next batch.
	Yield() (batch []Example, err error)
	// Reset restarts the stream from the beginning of an epoch.
	Reset()
}

// Bundle is the four-way split handed to training loops: train for gradient
// steps, validation and test for evaluation, and a second view of the
// training data for in-sample evaluation.
type Bundle struct {
	Train      Dataset
	Validation Dataset
	TrainEval  Dataset
	Test       Dataset
}

// MakeJustTrain returns a bundle where all four slots alias the training
// stream when justTrain is set, to simulate small-data regimes where
// overfitting is the point. Otherwise it returns b unchanged.
func MakeJustTrain(b *Bundle, justTrain bool) *Bundle {
	if !justTrain {
		return b
	}
	return &Bundle{Train: b.Train, Validation: b.Train, TrainEval: b.Train, Test: b.Train}
}

// inMemory batches a fixed slice of examples, optionally reshuffling every
// epoch and applying a per-example transform.
type inMemory struct {
	name      string
	examples  []Example
	batchSize int
	rng       *rand.Rand
	transform Transform

	indices  []int
	position int
}

func newInMemory(name string, examples []Example, batchSize int, rng *rand.Rand, transform Transform) *inMemory {
	ds := &inMemory{
		name:      name,
		examples:  examples,
		batchSize: batchSize,
		rng:       rng,
		transform: transform,
	}
	ds.reshuffle()
	return ds
}

func (ds *inMemory) Name() string { return ds.name }

func (ds *inMemory) reshuffle() {
	if ds.rng != nil {
		ds.indices = ds.rng.Perm(len(ds.examples))
		return
	}
	ds.indices = ds.indices[:0]
	for i := range ds.examples {
		ds.indices = append(ds.indices, i)
	}
}

// Yield returns the next batch, with io.EOF on the last batch of the epoch.
func (ds *inMemory) Yield() (batch []Example, err error) {
	if ds.position >= len(ds.indices) {
		ds.position = 0
		ds.reshuffle()
	}
	start := ds.position
	ds.position += ds.batchSize
	end := ds.position
	if end >= len(ds.indices) {
		end = len(ds.indices)
		err = io.EOF
	}

	batch = Select(ds.examples, ds.indices[start:end])
	if ds.transform != nil {
		for i, ex := range batch {
			batch[i] = ds.transform(ds.rng, ex)
		}
	}
	return batch, err
}

// Select returns the items at the given indices. Out-of-range indices are
// skipped.
func Select[T any, I constraints.Integer](items []T, idx []I) []T {
	selected := make([]T, 0, len(idx))
	nItems := I(len(items))
	for _, i := range idx {
		if i >= 0 && i < nItems {
			selected = append(selected, items[i])
		}
	}
	return selected
}

func (ds *inMemory) Reset() {
	ds.position = 0
}
