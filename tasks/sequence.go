package tasks

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/optbench/taskset/datasets"
	"github.com/optbench/taskset/sampler"
)

// SeqParams is the sampled parameter block shared by the byte- and
// word-level sequence families; only the patch-length range they are sampled
// over differs.
type SeqParams struct {
	PatchLength int  `json:"patch_length"`
	BatchSize   int  `json:"batch_size"`
	JustTrain   bool `json:"just_train"`
	NumTrain    *int `json:"num_train"`
}

// SeqTask is one sampled language-modeling problem over a token sequence.
type SeqTask struct {
	Dataset string    `json:"dataset"`
	Params  SeqParams `json:"config"`
}

func sampleSeqParams(rng *rand.Rand, maxPatchLength int) SeqParams {
	var numTrain *int
	if sampler.Bool(rng, 0.2) {
		numTrain = intPtr(sampler.LinearInt(rng, 1000, 50000))
	}
	return SeqParams{
		PatchLength: sampler.LogInt(rng, 10, maxPatchLength),
		BatchSize:   sampler.LogInt(rng, 8, 512),
		JustTrain:   sampler.Bool(rng, 0.2),
		NumTrain:    numTrain,
	}
}

// SampleByteLM draws a byte-level language-modeling task.
func (r *Registry) SampleByteLM(rng *rand.Rand) SeqTask {
	entry := r.bytes.Uniform(rng)
	return SeqTask{Dataset: entry.Name, Params: sampleSeqParams(rng, 160)}
}

// GetByteLM materializes the task into its dataset bundle, collapsing all
// splits onto the training stream when just_train is set.
func (r *Registry) GetByteLM(task SeqTask) (*datasets.Bundle, error) {
	return r.getSequence(r.bytes, task, 3000)
}

// SampleWordLM draws a word-level (subword-tokenized) language-modeling task.
func (r *Registry) SampleWordLM(rng *rand.Rand) SeqTask {
	entry := r.words.Uniform(rng)
	return SeqTask{Dataset: entry.Name, Params: sampleSeqParams(rng, 256)}
}

// GetWordLM materializes the task into its dataset bundle, collapsing all
// splits onto the training stream when just_train is set.
func (r *Registry) GetWordLM(task SeqTask) (*datasets.Bundle, error) {
	return r.getSequence(r.words, task, 10000)
}

func (r *Registry) getSequence(family *sampler.Catalog[struct{}], task SeqTask, numPerValid int) (*datasets.Bundle, error) {
	if _, found := family.Lookup(task.Dataset); !found {
		return nil, errors.Errorf("unknown sequence dataset %q", task.Dataset)
	}
	bundle, err := r.provider.RandomSliceTextData(datasets.TextRequest{
		Name:          task.Dataset,
		BatchSize:     task.Params.BatchSize,
		PatchLength:   task.Params.PatchLength,
		NumTrain:      deref(task.Params.NumTrain),
		NumPerValid:   numPerValid,
		ShuffleBuffer: shuffleBufferSize,
		Cache:         true,
	})
	if err != nil {
		return nil, err
	}
	return datasets.MakeJustTrain(bundle, task.Params.JustTrain), nil
}
