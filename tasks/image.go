package tasks

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/optbench/taskset/datasets"
	"github.com/optbench/taskset/sampler"
)

// ImageParams is the sampled parameter block of an image task. NumTrain nil
// means the full training split.
type ImageParams struct {
	BatchSize  int  `json:"bs"`
	NumTrain   *int `json:"num_train"`
	NumClasses int  `json:"num_classes,omitempty"`
	JustTrain  bool `json:"just_train"`
}

// ImageTask is one sampled image-classification problem.
type ImageTask struct {
	Dataset      string        `json:"dataset"`
	Params       ImageParams   `json:"config"`
	Augmentation *Augmentation `json:"augmentation,omitempty"`
}

func sampleMNISTParams(rng *rand.Rand) ImageParams {
	return ImageParams{
		BatchSize:  sampler.LogInt(rng, 8, 512),
		NumTrain:   intPtr(sampler.LinearInt(rng, 1000, 55000)),
		NumClasses: 10,
		JustTrain:  sampler.Bool(rng, 0.1),
	}
}

func sampleCifarParams(rng *rand.Rand) ImageParams {
	return ImageParams{
		BatchSize: sampler.LogInt(rng, 8, 256),
		NumTrain:  intPtr(sampler.LinearInt(rng, 1000, 50000)),
		JustTrain: sampler.Bool(rng, 0.2),
	}
}

func sampleDefaultImageParams(rng *rand.Rand) ImageParams {
	return ImageParams{
		BatchSize: sampler.LogInt(rng, 8, 256),
		JustTrain: sampler.Bool(rng, 0.2),
	}
}

// SampleImage draws an image task: a dataset name (uniform over the
// registry), with probability 0.3 an augmentation config, and the dataset's
// parameter block.
func (r *Registry) SampleImage(rng *rand.Rand) ImageTask {
	entry := r.images.Uniform(rng)
	var augmentation *Augmentation
	if sampler.Bool(rng, 0.3) {
		augmentation = SampleAugmentation(rng)
	}
	return ImageTask{
		Dataset:      entry.Name,
		Params:       entry.Value.sampleParams(rng),
		Augmentation: augmentation,
	}
}

// GetImage materializes the task into its dataset bundle.
// It fails if the dataset name is not in the registry, which indicates a
// stale or hand-edited config.
func (r *Registry) GetImage(task ImageTask) (*datasets.Bundle, error) {
	entry, found := r.images.Lookup(task.Dataset)
	if !found {
		return nil, errors.Errorf("unknown image dataset %q", task.Dataset)
	}
	numPerValid := entry.Value.numPerValid
	if numPerValid == 0 {
		numPerValid = 5000
	}
	var transform datasets.Transform
	if task.Augmentation != nil {
		transform = GetAugmentation(task.Augmentation)
	}
	return r.provider.GetImageDatasets(datasets.ImageRequest{
		Name:          task.Dataset,
		BatchSize:     task.Params.BatchSize,
		NumTrain:      deref(task.Params.NumTrain),
		ShuffleBuffer: shuffleBufferSize,
		Cache:         true,
		Augmentation:  transform,
		NumPerValid:   numPerValid,
	})
}
