// Package rnncores implements the catalog of small recurrent cells used by
// sampled sequence models: a vanilla RNN, a GRU and an LSTM, each at most 128
// hidden units.
//
// A core config is a tagged variant: the kind plus exactly one of the
// per-kind parameter blocks. Sampling usually links all weight matrices of a
// core to one shared initializer, the way practitioners pick one scheme per
// model; with probability 1/5 each matrix gets its own draw.
package rnncores

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/optbench/taskset/components/activations"
	"github.com/optbench/taskset/components/initializers"
	"github.com/optbench/taskset/sampler"
)

const (
	KindVanilla = "vrnn"
	KindGRU     = "gru"
	KindLSTM    = "lstm"

	minCoreDim = 32
	maxCoreDim = 128
)

// Config describes one sampled recurrent core. Kind selects which parameter
// block is set; the other two are nil.
type Config struct {
	Kind    string         `json:"kind"`
	Vanilla *VanillaConfig `json:"vrnn,omitempty"`
	GRU     *GRUConfig     `json:"gru,omitempty"`
	LSTM    *LSTMConfig    `json:"lstm,omitempty"`
}

// VanillaConfig parameterizes a vanilla RNN cell.
type VanillaConfig struct {
	HiddenToHidden initializers.Config `json:"hidden_to_hidden"`
	InToHidden     initializers.Config `json:"in_to_hidden"`
	Activation     activations.Type    `json:"act_fn"`
	CoreDim        int                 `json:"core_dim"`
}

// GRUConfig parameterizes a GRU cell: one initializer per weight matrix,
// input side (w*) and recurrent side (u*).
type GRUConfig struct {
	CoreDim int                 `json:"core_dim"`
	Wh      initializers.Config `json:"wh"`
	Wz      initializers.Config `json:"wz"`
	Wr      initializers.Config `json:"wr"`
	Uh      initializers.Config `json:"uh"`
	Uz      initializers.Config `json:"uz"`
	Ur      initializers.Config `json:"ur"`
}

// LSTMConfig parameterizes an LSTM cell, with a single initializer shared by
// the four gates.
type LSTMConfig struct {
	WGates  initializers.Config `json:"w_gates"`
	CoreDim int                 `json:"core_dim"`
}

// Sample draws a recurrent core config: the kind uniformly over
// vrnn/gru/lstm, then that kind's initializer slots, activation and hidden
// dimension.
func Sample(rng *rand.Rand) Config {
	kind := sampler.Pick(rng, KindVanilla, KindGRU, KindLSTM)
	linked := sampler.Pick(rng, true, true, true, true, false)
	cfg := Config{Kind: kind}
	switch kind {
	case KindVanilla:
		v := &VanillaConfig{}
		if linked {
			init := initializers.Sample(rng)
			v.HiddenToHidden = init
			v.InToHidden = init
		} else {
			v.HiddenToHidden = initializers.Sample(rng)
			v.InToHidden = initializers.Sample(rng)
		}
		v.Activation = activations.Sample(rng)
		v.CoreDim = sampler.LogInt(rng, minCoreDim, maxCoreDim)
		cfg.Vanilla = v
	case KindGRU:
		g := &GRUConfig{CoreDim: sampler.LogInt(rng, minCoreDim, maxCoreDim)}
		if linked {
			init := initializers.Sample(rng)
			g.Wh, g.Wz, g.Wr, g.Uh, g.Uz, g.Ur = init, init, init, init, init, init
		} else {
			g.Wh = initializers.Sample(rng)
			g.Wz = initializers.Sample(rng)
			g.Wr = initializers.Sample(rng)
			g.Uh = initializers.Sample(rng)
			g.Uz = initializers.Sample(rng)
			g.Ur = initializers.Sample(rng)
		}
		cfg.GRU = g
	case KindLSTM:
		cfg.LSTM = &LSTMConfig{
			WGates:  initializers.Sample(rng),
			CoreDim: sampler.LogInt(rng, minCoreDim, maxCoreDim),
		}
	}
	return cfg
}

// FromConfig builds the cell described by the config.
// It panics if the kind is unknown.
func FromConfig(cfg Config) Core {
	switch cfg.Kind {
	case KindVanilla:
		return &VanillaRNN{
			dim:            cfg.Vanilla.CoreDim,
			inToHidden:     initializers.FromConfig(cfg.Vanilla.InToHidden),
			hiddenToHidden: initializers.FromConfig(cfg.Vanilla.HiddenToHidden),
			activation:     activations.Func(cfg.Vanilla.Activation),
		}
	case KindGRU:
		return &GRU{
			dim: cfg.GRU.CoreDim,
			wh:  initializers.FromConfig(cfg.GRU.Wh),
			wz:  initializers.FromConfig(cfg.GRU.Wz),
			wr:  initializers.FromConfig(cfg.GRU.Wr),
			uh:  initializers.FromConfig(cfg.GRU.Uh),
			uz:  initializers.FromConfig(cfg.GRU.Uz),
			ur:  initializers.FromConfig(cfg.GRU.Ur),
		}
	case KindLSTM:
		return &LSTM{
			dim:    cfg.LSTM.CoreDim,
			wGates: initializers.FromConfig(cfg.LSTM.WGates),
		}
	default:
		exceptions.Panicf("no recurrent core for kind %q", cfg.Kind)
	}
	return nil
}
