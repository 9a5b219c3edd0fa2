package datasets

import (
	"image"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayExample(label int) Example {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(label)
	}
	return Example{Image: img, Label: label}
}

func makeExamples(n int) []Example {
	examples := make([]Example, n)
	for i := range examples {
		examples[i] = grayExample(i % 10)
	}
	return examples
}

func drainEpoch(t *testing.T, ds Dataset) (total int, batches int) {
	t.Helper()
	for {
		batch, err := ds.Yield()
		total += len(batch)
		batches++
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
		require.Less(t, batches, 10000, "no EOF after 10000 batches")
	}
}

func TestInMemoryEpoch(t *testing.T) {
	ds := newInMemory("test", makeExamples(105), 10, rand.New(rand.NewSource(1)), nil)
	for epoch := 0; epoch < 3; epoch++ {
		total, batches := drainEpoch(t, ds)
		require.Equal(t, 105, total)
		require.Equal(t, 11, batches)
	}
}

func TestInMemoryTransform(t *testing.T) {
	calls := 0
	transform := func(rng *rand.Rand, ex Example) Example {
		calls++
		out := ex
		out.Label = -1
		return out
	}
	ds := newInMemory("test", makeExamples(20), 5, rand.New(rand.NewSource(1)), transform)
	batch, err := ds.Yield()
	require.NoError(t, err)
	require.Len(t, batch, 5)
	require.Equal(t, 5, calls)
	for _, ex := range batch {
		require.Equal(t, -1, ex.Label)
	}
}

func TestMakeJustTrain(t *testing.T) {
	bundle := &Bundle{
		Train:      newInMemory("train", makeExamples(10), 5, nil, nil),
		Validation: newInMemory("valid", makeExamples(10), 5, nil, nil),
		TrainEval:  newInMemory("train-eval", makeExamples(10), 5, nil, nil),
		Test:       newInMemory("test", makeExamples(10), 5, nil, nil),
	}
	same := MakeJustTrain(bundle, false)
	require.Same(t, bundle, same)

	collapsed := MakeJustTrain(bundle, true)
	require.Same(t, bundle.Train, collapsed.Validation)
	require.Same(t, bundle.Train, collapsed.TrainEval)
	require.Same(t, bundle.Train, collapsed.Test)
}

func testStore(t *testing.T) *Store {
	s := NewStore(t.TempDir()).WithSeed(7)
	s.RegisterImage("synthetic", StaticImage(makeExamples(1000), makeExamples(200)))
	s.RegisterText("synthetic/bytes", StaticText(makeTokens(200000)))
	return s
}

func makeTokens(n int) []int32 {
	tokens := make([]int32, n)
	for i := range tokens {
		tokens[i] = int32(i % 255)
	}
	return tokens
}

func TestGetImageDatasets(t *testing.T) {
	s := testStore(t)
	bundle, err := s.GetImageDatasets(ImageRequest{
		Name:        "synthetic",
		BatchSize:   32,
		NumTrain:    500,
		Cache:       true,
		NumPerValid: 100,
	})
	require.NoError(t, err)

	total, _ := drainEpoch(t, bundle.Train)
	require.Equal(t, 500, total)
	total, _ = drainEpoch(t, bundle.Validation)
	require.Equal(t, 100, total)
	total, _ = drainEpoch(t, bundle.TrainEval)
	require.Equal(t, 500, total)
	total, _ = drainEpoch(t, bundle.Test)
	require.Equal(t, 200, total)
}

func TestGetImageDatasetsFullTrain(t *testing.T) {
	s := testStore(t)
	bundle, err := s.GetImageDatasets(ImageRequest{
		Name:        "synthetic",
		BatchSize:   64,
		NumPerValid: 100,
	})
	require.NoError(t, err)
	total, _ := drainEpoch(t, bundle.Train)
	require.Equal(t, 900, total) // Full train minus validation hold-out.
}

func TestGetImageDatasetsUnknownName(t *testing.T) {
	s := testStore(t)
	_, err := s.GetImageDatasets(ImageRequest{Name: "no_such_set", BatchSize: 8, NumPerValid: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_set")
}

func TestGetImageDatasetsAugmentationTrainOnly(t *testing.T) {
	s := testStore(t)
	calls := 0
	bundle, err := s.GetImageDatasets(ImageRequest{
		Name:        "synthetic",
		BatchSize:   10,
		NumPerValid: 100,
		Augmentation: func(rng *rand.Rand, ex Example) Example {
			calls++
			return ex
		},
	})
	require.NoError(t, err)
	_, err = bundle.Train.Yield()
	require.NoError(t, err)
	require.Equal(t, 10, calls)
	_, err = bundle.Validation.Yield()
	require.NoError(t, err)
	require.Equal(t, 10, calls, "augmentation must not run on validation")
}

func TestRandomSliceTextData(t *testing.T) {
	s := testStore(t)
	req := TextRequest{
		Name:        "synthetic/bytes",
		BatchSize:   16,
		PatchLength: 20,
		NumPerValid: 50,
		Cache:       true,
	}
	bundle, err := s.RandomSliceTextData(req)
	require.NoError(t, err)

	batch, err := bundle.Train.Yield()
	require.NoError(t, err)
	require.Len(t, batch, 16)
	for _, ex := range batch {
		require.Len(t, ex.Tokens, 20)
		require.Nil(t, ex.Image)
		require.GreaterOrEqual(t, ex.Label, 0)
		require.Less(t, ex.Label, 255)
	}

	total, _ := drainEpoch(t, bundle.Validation)
	require.Equal(t, 50, total)
	total, _ = drainEpoch(t, bundle.Test)
	require.Equal(t, 50, total)
}

func TestRandomSliceTextDataNumTrainCap(t *testing.T) {
	s := testStore(t)
	bundle, err := s.RandomSliceTextData(TextRequest{
		Name:        "synthetic/bytes",
		BatchSize:   16,
		PatchLength: 20,
		NumTrain:    40,
		NumPerValid: 50,
	})
	require.NoError(t, err)
	total, _ := drainEpoch(t, bundle.Train)
	require.Equal(t, 40, total)
}

func TestRandomSliceTextDataTooFewTokens(t *testing.T) {
	s := testStore(t)
	s.RegisterText("tiny", StaticText(make([]int32, 100)))
	_, err := s.RandomSliceTextData(TextRequest{
		Name:        "tiny",
		BatchSize:   4,
		PatchLength: 20,
		NumPerValid: 50,
	})
	require.Error(t, err)
}

func TestRandomSliceTextDataNoValidationHoldOut(t *testing.T) {
	s := testStore(t)
	_, err := s.RandomSliceTextData(TextRequest{
		Name:        "synthetic/bytes",
		BatchSize:   16,
		PatchLength: 20,
		NumPerValid: 0,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NumPerValid")
}

func TestRandomSliceTextDataUnknownName(t *testing.T) {
	s := testStore(t)
	_, err := s.RandomSliceTextData(TextRequest{Name: "no_such_set", BatchSize: 8, PatchLength: 10, NumPerValid: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_set")
}

func TestGobImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	train := makeExamples(12)
	test := makeExamples(4)
	require.NoError(t, SaveGobImages(dir+"/baked.bin", train, test))

	loader := GobImageLoader("baked.bin")
	gotTrain, gotTest, err := loader(dir)
	require.NoError(t, err)
	require.Len(t, gotTrain, 12)
	require.Len(t, gotTest, 4)
	require.Equal(t, train[3].Label, gotTrain[3].Label)
	require.Equal(t, train[3].Image.(*image.Gray).Pix, gotTrain[3].Image.(*image.Gray).Pix)
}
