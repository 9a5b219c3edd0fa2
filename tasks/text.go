package tasks

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/optbench/taskset/datasets"
	"github.com/optbench/taskset/sampler"
)

// maxTokenID is the fixed vocabulary bound forwarded with every
// text-classification task.
const maxTokenID = 8185

// TextParams is the sampled parameter block of a text-classification task.
type TextParams struct {
	BatchSize   int  `json:"bs"`
	NumTrain    *int `json:"num_train"`
	MaxToken    int  `json:"max_token"`
	JustTrain   bool `json:"just_train"`
	PatchLength int  `json:"patch_length"`
}

// TextTask is one sampled text-classification problem.
type TextTask struct {
	Dataset string     `json:"dataset"`
	Params  TextParams `json:"config"`
}

func sampleTextParams(rng *rand.Rand) TextParams {
	var numTrain *int
	if sampler.Bool(rng, 0.2) {
		numTrain = intPtr(sampler.LinearInt(rng, 1000, 50000))
	}
	return TextParams{
		BatchSize:   sampler.LogInt(rng, 8, 512),
		NumTrain:    numTrain,
		MaxToken:    maxTokenID,
		JustTrain:   sampler.Bool(rng, 0.2),
		PatchLength: sampler.LogInt(rng, 8, 128),
	}
}

// SampleTextClassification draws a text-classification task: a dataset name
// uniform over the registry, plus the shared parameter block.
func (r *Registry) SampleTextClassification(rng *rand.Rand) TextTask {
	entry := r.texts.Uniform(rng)
	return TextTask{Dataset: entry.Name, Params: sampleTextParams(rng)}
}

// GetTextClassification materializes the task into its dataset bundle.
func (r *Registry) GetTextClassification(task TextTask) (*datasets.Bundle, error) {
	if _, found := r.texts.Lookup(task.Dataset); !found {
		return nil, errors.Errorf("unknown text dataset %q", task.Dataset)
	}
	return r.provider.RandomSliceTextData(datasets.TextRequest{
		Name:        task.Dataset,
		BatchSize:   task.Params.BatchSize,
		PatchLength: task.Params.PatchLength,
		NumTrain:    deref(task.Params.NumTrain),
		NumPerValid: 3000,
		Cache:       true,
	})
}
