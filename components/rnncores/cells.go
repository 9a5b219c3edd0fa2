package rnncores

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"

	"github.com/optbench/taskset/components/activations"
	"github.com/optbench/taskset/components/initializers"
)

// State carries a cell's recurrent state between steps. Cell is set only for
// the LSTM.
type State struct {
	Hidden *mat.VecDense
	Cell   *mat.VecDense
}

// Core is a recurrent cell. Like the frameworks this mirrors, weights are
// allocated lazily: Build must be called once with the input size before the
// first Step.
type Core interface {
	// Kind returns the config kind that produced this core.
	Kind() string
	// Dim returns the hidden dimension.
	Dim() int
	// Build allocates the weight matrices for the given input size.
	Build(rng *rand.Rand, inputSize int)
	// Start returns the zero state.
	Start() State
	// Step consumes one input vector and returns the next state.
	Step(x *mat.VecDense, s State) State
}

// VanillaRNN computes h' = act(W_in x + W_hh h).
type VanillaRNN struct {
	dim            int
	inToHidden     initializers.Initializer
	hiddenToHidden initializers.Initializer
	activation     func(float64) float64

	wIn, wHH *mat.Dense
}

func (c *VanillaRNN) Kind() string { return KindVanilla }
func (c *VanillaRNN) Dim() int     { return c.dim }

func (c *VanillaRNN) Build(rng *rand.Rand, inputSize int) {
	c.wIn = c.inToHidden(rng, c.dim, inputSize)
	c.wHH = c.hiddenToHidden(rng, c.dim, c.dim)
}

func (c *VanillaRNN) Start() State {
	return State{Hidden: mat.NewVecDense(c.dim, nil)}
}

func (c *VanillaRNN) Step(x *mat.VecDense, s State) State {
	mustBeBuilt(c.wIn != nil, KindVanilla)
	var in, rec mat.VecDense
	in.MulVec(c.wIn, x)
	rec.MulVec(c.wHH, s.Hidden)
	h := mat.NewVecDense(c.dim, nil)
	for i := 0; i < c.dim; i++ {
		h.SetVec(i, c.activation(in.AtVec(i)+rec.AtVec(i)))
	}
	return State{Hidden: h}
}

// GRU computes the standard gated recurrent unit update with separate input
// (w*) and recurrent (u*) weight matrices per gate.
type GRU struct {
	dim                    int
	wh, wz, wr, uh, uz, ur initializers.Initializer

	mWh, mWz, mWr, mUh, mUz, mUr *mat.Dense
}

func (c *GRU) Kind() string { return KindGRU }
func (c *GRU) Dim() int     { return c.dim }

func (c *GRU) Build(rng *rand.Rand, inputSize int) {
	c.mWh = c.wh(rng, c.dim, inputSize)
	c.mWz = c.wz(rng, c.dim, inputSize)
	c.mWr = c.wr(rng, c.dim, inputSize)
	c.mUh = c.uh(rng, c.dim, c.dim)
	c.mUz = c.uz(rng, c.dim, c.dim)
	c.mUr = c.ur(rng, c.dim, c.dim)
}

func (c *GRU) Start() State {
	return State{Hidden: mat.NewVecDense(c.dim, nil)}
}

func (c *GRU) Step(x *mat.VecDense, s State) State {
	mustBeBuilt(c.mWh != nil, KindGRU)
	var wzx, uzh, wrx, urh, whx mat.VecDense
	wzx.MulVec(c.mWz, x)
	uzh.MulVec(c.mUz, s.Hidden)
	wrx.MulVec(c.mWr, x)
	urh.MulVec(c.mUr, s.Hidden)
	whx.MulVec(c.mWh, x)

	gated := mat.NewVecDense(c.dim, nil)
	z := make([]float64, c.dim)
	for i := 0; i < c.dim; i++ {
		z[i] = activations.Sigmoid(wzx.AtVec(i) + uzh.AtVec(i))
		r := activations.Sigmoid(wrx.AtVec(i) + urh.AtVec(i))
		gated.SetVec(i, r*s.Hidden.AtVec(i))
	}
	var uhg mat.VecDense
	uhg.MulVec(c.mUh, gated)

	h := mat.NewVecDense(c.dim, nil)
	for i := 0; i < c.dim; i++ {
		candidate := math.Tanh(whx.AtVec(i) + uhg.AtVec(i))
		h.SetVec(i, (1-z[i])*s.Hidden.AtVec(i)+z[i]*candidate)
	}
	return State{Hidden: h}
}

// LSTM computes the standard LSTM update. The four gates share a single
// [x;h] -> 4*dim weight matrix, all filled by the one w_gates initializer.
type LSTM struct {
	dim    int
	wGates initializers.Initializer

	gates *mat.Dense
}

func (c *LSTM) Kind() string { return KindLSTM }
func (c *LSTM) Dim() int     { return c.dim }

func (c *LSTM) Build(rng *rand.Rand, inputSize int) {
	c.gates = c.wGates(rng, 4*c.dim, inputSize+c.dim)
}

func (c *LSTM) Start() State {
	return State{
		Hidden: mat.NewVecDense(c.dim, nil),
		Cell:   mat.NewVecDense(c.dim, nil),
	}
}

func (c *LSTM) Step(x *mat.VecDense, s State) State {
	mustBeBuilt(c.gates != nil, KindLSTM)
	joined := mat.NewVecDense(x.Len()+c.dim, nil)
	for i := 0; i < x.Len(); i++ {
		joined.SetVec(i, x.AtVec(i))
	}
	for i := 0; i < c.dim; i++ {
		joined.SetVec(x.Len()+i, s.Hidden.AtVec(i))
	}
	var preact mat.VecDense
	preact.MulVec(c.gates, joined)

	h := mat.NewVecDense(c.dim, nil)
	cell := mat.NewVecDense(c.dim, nil)
	for i := 0; i < c.dim; i++ {
		input := activations.Sigmoid(preact.AtVec(i))
		forget := activations.Sigmoid(preact.AtVec(c.dim + i))
		candidate := math.Tanh(preact.AtVec(2*c.dim + i))
		output := activations.Sigmoid(preact.AtVec(3*c.dim + i))
		next := forget*s.Cell.AtVec(i) + input*candidate
		cell.SetVec(i, next)
		h.SetVec(i, output*math.Tanh(next))
	}
	return State{Hidden: h, Cell: cell}
}

func mustBeBuilt(built bool, kind string) {
	if !built {
		exceptions.Panicf("%s core used before Build was called", kind)
	}
}
