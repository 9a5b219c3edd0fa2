package datasets

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ImageRequest fully specifies an image pipeline.
type ImageRequest struct {
	// Name of the dataset, resolved against the store's registered loaders.
	Name string
	// BatchSize of every yielded batch.
	BatchSize int
	// NumTrain caps the training subset; 0 means the full training split.
	NumTrain int
	// ShuffleBuffer is the shuffling window requested by the task config.
	// The in-memory pipeline shuffles the whole split, which subsumes any
	// window size; the value is carried for config fidelity.
	ShuffleBuffer int
	// Cache keeps the decoded examples in memory across requests.
	Cache bool
	// Augmentation, if set, is applied to training examples only.
	Augmentation Transform
	// NumPerValid examples are held out of the training split for validation.
	NumPerValid int
}

// TextRequest fully specifies a random-slice token pipeline.
type TextRequest struct {
	Name        string
	BatchSize   int
	PatchLength int
	// NumTrain caps the number of training patches per epoch; 0 means derive
	// from the training region size.
	NumTrain      int
	NumPerValid   int
	ShuffleBuffer int
	Cache         bool
}

// Provider is the contract the task registries materialize against.
type Provider interface {
	GetImageDatasets(req ImageRequest) (*Bundle, error)
	RandomSliceTextData(req TextRequest) (*Bundle, error)
}

// ImageLoader loads the raw train and test examples of one image dataset.
type ImageLoader func(baseDir string) (train, test []Example, err error)

// TextLoader loads the token stream of one text dataset.
type TextLoader func(baseDir string) (tokens []int32, err error)

// Store resolves dataset names to loaders and builds pipelines from requests.
// It implements Provider.
type Store struct {
	baseDir string
	seed    int64

	mu           sync.Mutex
	imageLoaders map[string]ImageLoader
	textLoaders  map[string]TextLoader
	imageCache   map[string][2][]Example
	textCache    map[string][]int32
}

// NewStore creates a store rooted at baseDir (downloads and caches live
// there). MNIST, Fashion-MNIST and CIFAR-10/100 loaders are pre-registered.
func NewStore(baseDir string) *Store {
	s := &Store{
		baseDir:      ReplaceTildeInDir(baseDir),
		imageLoaders: make(map[string]ImageLoader),
		textLoaders:  make(map[string]TextLoader),
		imageCache:   make(map[string][2][]Example),
		textCache:    make(map[string][]int32),
	}
	s.RegisterImage("mnist", idxImageLoader(mnistURL, mnistFiles))
	s.RegisterImage("fashion_mnist", idxImageLoader(fashionMNISTURL, mnistFiles))
	s.RegisterImage("cifar10", cifar10Loader)
	s.RegisterImage("cifar100", cifar100Loader)
	return s
}

// WithSeed makes the store's pipelines deterministic. The default (seed 0)
// shuffles from the clock.
func (s *Store) WithSeed(seed int64) *Store {
	s.seed = seed
	return s
}

// RegisterImage adds (or replaces) the loader for an image dataset name.
func (s *Store) RegisterImage(name string, loader ImageLoader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageLoaders[name] = loader
}

// RegisterText adds (or replaces) the loader for a text dataset name.
func (s *Store) RegisterText(name string, loader TextLoader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textLoaders[name] = loader
}

func (s *Store) newRNG() *rand.Rand {
	if s.seed != 0 {
		return rand.New(rand.NewSource(s.seed))
	}
	return rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
}

func (s *Store) loadImage(req ImageRequest) (train, test []Example, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, found := s.imageCache[req.Name]; found {
		return cached[0], cached[1], nil
	}
	loader, found := s.imageLoaders[req.Name]
	if !found {
		return nil, nil, errors.Errorf("unknown image dataset %q", req.Name)
	}
	train, test, err = loader(s.baseDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading image dataset %q", req.Name)
	}
	if req.Cache {
		s.imageCache[req.Name] = [2][]Example{train, test}
	}
	return train, test, nil
}

// GetImageDatasets builds the four-way image bundle for the request: the
// validation split is carved from the tail of the training data, the training
// split is optionally capped at NumTrain examples, and the augmentation runs
// on training batches only.
func (s *Store) GetImageDatasets(req ImageRequest) (*Bundle, error) {
	allTrain, test, err := s.loadImage(req)
	if err != nil {
		return nil, err
	}
	if req.NumPerValid <= 0 || req.NumPerValid >= len(allTrain) {
		return nil, errors.Errorf("image dataset %q: %d validation examples requested out of %d available",
			req.Name, req.NumPerValid, len(allTrain))
	}
	valid := allTrain[len(allTrain)-req.NumPerValid:]
	train := allTrain[:len(allTrain)-req.NumPerValid]
	if req.NumTrain > 0 && req.NumTrain < len(train) {
		train = train[:req.NumTrain]
	}

	return &Bundle{
		Train:      newInMemory(req.Name+"-train", train, req.BatchSize, s.newRNG(), req.Augmentation),
		Validation: newInMemory(req.Name+"-valid", valid, req.BatchSize, nil, nil),
		TrainEval:  newInMemory(req.Name+"-train-eval", train, req.BatchSize, nil, nil),
		Test:       newInMemory(req.Name+"-test", test, req.BatchSize, nil, nil),
	}, nil
}

func (s *Store) loadText(req TextRequest) (tokens []int32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, found := s.textCache[req.Name]; found {
		return cached, nil
	}
	loader, found := s.textLoaders[req.Name]
	if !found {
		return nil, errors.Errorf("unknown text dataset %q", req.Name)
	}
	tokens, err = loader(s.baseDir)
	if err != nil {
		return nil, errors.Wrapf(err, "loading text dataset %q", req.Name)
	}
	if req.Cache {
		s.textCache[req.Name] = tokens
	}
	return tokens, nil
}

// RandomSliceTextData builds the four-way bundle over a token stream. Each
// example is a random contiguous patch of PatchLength tokens labeled with the
// token that follows it. Validation and test regions are carved from the tail
// of the stream so they never overlap the training region.
func (s *Store) RandomSliceTextData(req TextRequest) (*Bundle, error) {
	tokens, err := s.loadText(req)
	if err != nil {
		return nil, err
	}
	if req.NumPerValid < 1 {
		return nil, errors.Errorf("text dataset %q: NumPerValid must be at least 1, got %d", req.Name, req.NumPerValid)
	}
	holdOut := req.NumPerValid * (req.PatchLength + 1)
	trainEnd := len(tokens) - 2*holdOut
	if trainEnd <= req.PatchLength+1 {
		return nil, errors.Errorf("text dataset %q: %d tokens is too few for patch length %d with %d held-out patches",
			req.Name, len(tokens), req.PatchLength, req.NumPerValid)
	}
	validEnd := trainEnd + holdOut

	trainPatches := (trainEnd - req.PatchLength) / (req.PatchLength + 1)
	if req.NumTrain > 0 && req.NumTrain < trainPatches {
		trainPatches = req.NumTrain
	}

	return &Bundle{
		Train:      newRandomSlice(req.Name+"-train", tokens, 0, trainEnd, req.PatchLength, req.BatchSize, trainPatches, s.newRNG()),
		Validation: newRandomSlice(req.Name+"-valid", tokens, trainEnd, validEnd, req.PatchLength, req.BatchSize, req.NumPerValid, s.newRNG()),
		TrainEval:  newRandomSlice(req.Name+"-train-eval", tokens, 0, trainEnd, req.PatchLength, req.BatchSize, req.NumPerValid, s.newRNG()),
		Test:       newRandomSlice(req.Name+"-test", tokens, validEnd, len(tokens), req.PatchLength, req.BatchSize, req.NumPerValid, s.newRNG()),
	}, nil
}

// randomSlice yields batches of random token patches cut from one region of
// a token stream.
type randomSlice struct {
	name         string
	tokens       []int32
	lo, hi       int
	patch, batch int
	perEpoch     int
	rng          *rand.Rand

	emitted int
}

func newRandomSlice(name string, tokens []int32, lo, hi, patch, batch, perEpoch int, rng *rand.Rand) *randomSlice {
	if perEpoch < 1 {
		perEpoch = 1
	}
	return &randomSlice{
		name:     name,
		tokens:   tokens,
		lo:       lo,
		hi:       hi,
		patch:    patch,
		batch:    batch,
		perEpoch: perEpoch,
		rng:      rng,
	}
}

func (ds *randomSlice) Name() string { return ds.name }

func (ds *randomSlice) Yield() (batch []Example, err error) {
	if ds.emitted >= ds.perEpoch {
		ds.emitted = 0
	}
	n := ds.batch
	if remaining := ds.perEpoch - ds.emitted; remaining < n {
		n = remaining
	}
	ds.emitted += n
	if ds.emitted >= ds.perEpoch {
		err = io.EOF
	}

	span := ds.hi - ds.lo - ds.patch // At least one position past the patch for the label.
	batch = make([]Example, 0, n)
	for i := 0; i < n; i++ {
		start := ds.lo + ds.rng.Intn(span)
		patch := make([]int32, ds.patch)
		copy(patch, ds.tokens[start:start+ds.patch])
		batch = append(batch, Example{Tokens: patch, Label: int(ds.tokens[start+ds.patch])})
	}
	return batch, err
}

func (ds *randomSlice) Reset() {
	ds.emitted = 0
}
