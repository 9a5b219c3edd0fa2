// Package tasks is the public surface of the task sampler: it turns a random
// source into a fully specified training-task configuration, and a
// configuration back into live dataset pipelines and model components.
//
// Every config type comes as a matched pair of operations: Sample* draws a
// plain, JSON-serializable config from an rng, and Get* materializes a config
// into runtime objects. All randomness lives in the sampling step; configs
// can be stored, diffed (see PrettyJSON) and reconstructed losslessly.
package tasks

import (
	"math/rand"

	"github.com/optbench/taskset/datasets"
	"github.com/optbench/taskset/sampler"
)

// Shuffle window forwarded to image pipelines, as a number of examples.
const shuffleBufferSize = 10000

// Registry binds the four dataset families to the pipeline provider that
// materializes them. Build one explicitly with NewRegistry and thread it
// through; there is no ambient global registry.
type Registry struct {
	provider datasets.Provider

	images *sampler.Catalog[imageEntry]
	texts  *sampler.Catalog[struct{}]
	bytes  *sampler.Catalog[struct{}]
	words  *sampler.Catalog[struct{}]
}

// imageEntry carries the per-dataset parameter sampler and validation-size
// override (0 means the 5000-example default).
type imageEntry struct {
	sampleParams func(rng *rand.Rand) ImageParams
	numPerValid  int
}

// NewRegistry builds the registry of all sampleable datasets, materializing
// against the given provider. The provider may be nil for sampling-only use;
// Get* calls then fail.
func NewRegistry(provider datasets.Provider) *Registry {
	return &Registry{
		provider: provider,
		images: sampler.NewCatalog(
			imageDataset("mnist", sampleMNISTParams, 0),
			imageDataset("fashion_mnist", sampleMNISTParams, 0),
			imageDataset("cifar10", sampleCifarParams, 0),
			imageDataset("cifar100", sampleCifarParams, 0),
			imageDataset("food101_32x32", sampleDefaultImageParams, 0),
			// Not every collection has 5000 images to spare for validation.
			imageDataset("coil100_32x32", sampleDefaultImageParams, 800),
			imageDataset("deep_weeds_32x32", sampleDefaultImageParams, 2000),
			imageDataset("sun397_32x32", sampleDefaultImageParams, 0),
			imageDataset("imagenet_resized/32x32", sampleDefaultImageParams, 0),
			imageDataset("imagenet_resized/16x16", sampleDefaultImageParams, 0),
		),
		texts: namesCatalog(
			"imdb_reviews/subwords8k",
			"imdb_reviews/bytes",
			"tokenized_amazon_reviews/Books_v1_02_bytes",
			"tokenized_amazon_reviews/Camera_v1_00_bytes",
			"tokenized_amazon_reviews/Home_v1_00_bytes",
			"tokenized_amazon_reviews/Video_v1_00_bytes",
			"tokenized_amazon_reviews/Books_v1_02_subwords8k",
			"tokenized_amazon_reviews/Camera_v1_00_subwords8k",
			"tokenized_amazon_reviews/Home_v1_00_subwords8k",
			"tokenized_amazon_reviews/Video_v1_00_subwords8k",
		),
		bytes: namesCatalog(
			"lm1b/bytes",
			"imdb_reviews/bytes",
			"tokenized_wikipedia/20190301.zh_bytes",
			"tokenized_wikipedia/20190301.ru_bytes",
			"tokenized_wikipedia/20190301.ja_bytes",
			"tokenized_wikipedia/20190301.hsb_bytes",
			"tokenized_wikipedia/20190301.en_bytes",
			"tokenized_amazon_reviews/Books_v1_02_bytes",
			"tokenized_amazon_reviews/Camera_v1_00_bytes",
			"tokenized_amazon_reviews/Home_v1_00_bytes",
			"tokenized_amazon_reviews/Video_v1_00_bytes",
		),
		words: namesCatalog(
			"lm1b/subwords8k",
			"imdb_reviews/subwords8k",
			"tokenized_wikipedia/20190301.zh_subwords8k",
			"tokenized_wikipedia/20190301.ru_subwords8k",
			"tokenized_wikipedia/20190301.ja_subwords8k",
			"tokenized_wikipedia/20190301.hsb_subwords8k",
			"tokenized_wikipedia/20190301.en_subwords8k",
			"tokenized_amazon_reviews/Books_v1_02_subwords8k",
			"tokenized_amazon_reviews/Camera_v1_00_subwords8k",
			"tokenized_amazon_reviews/Home_v1_00_subwords8k",
			"tokenized_amazon_reviews/Video_v1_00_subwords8k",
		),
	}
}

func imageDataset(name string, sampleParams func(*rand.Rand) ImageParams, numPerValid int) sampler.Entry[imageEntry] {
	return sampler.Entry[imageEntry]{
		Name:   name,
		Weight: 1,
		Value:  imageEntry{sampleParams: sampleParams, numPerValid: numPerValid},
	}
}

func namesCatalog(names ...string) *sampler.Catalog[struct{}] {
	entries := make([]sampler.Entry[struct{}], len(names))
	for i, name := range names {
		entries[i] = sampler.Entry[struct{}]{Name: name, Weight: 1}
	}
	return sampler.NewCatalog(entries...)
}

// ImageNames lists the sampleable image dataset names, sorted.
func (r *Registry) ImageNames() []string { return r.images.Names() }

// TextNames lists the sampleable text-classification dataset names, sorted.
func (r *Registry) TextNames() []string { return r.texts.Names() }

// ByteNames lists the sampleable byte-level sequence dataset names, sorted.
func (r *Registry) ByteNames() []string { return r.bytes.Names() }

// WordNames lists the sampleable word-level sequence dataset names, sorted.
func (r *Registry) WordNames() []string { return r.words.Names() }

func intPtr(v int) *int { return &v }

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
