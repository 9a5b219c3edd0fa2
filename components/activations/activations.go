// Package activations implements the catalog of activation functions that
// can be attached to sampled models, with a weighted Sample to draw one and
// Apply to evaluate it.
//
// The weights mirror how often each activation shows up in practice: relu is
// 6x as likely as the long tail, tanh 3x.
package activations

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/optbench/taskset/sampler"
)

// Type is an enum for the supported activation functions.
// It marshals to/from its snake-case name in JSON, so it can be embedded
// directly into serialized task configs.
type Type int

const (
	TypeRelu Type = iota
	TypeTanh
	TypeCos
	TypeElu
	TypeSigmoid
	TypeSwish
	TypeLeakyRelu4
	TypeLeakyRelu2
	TypeLeakyRelu1
)

var typeNames = map[Type]string{
	TypeRelu:       "relu",
	TypeTanh:       "tanh",
	TypeCos:        "cos",
	TypeElu:        "elu",
	TypeSigmoid:    "sigmoid",
	TypeSwish:      "swish",
	TypeLeakyRelu4: "leaky_relu4",
	TypeLeakyRelu2: "leaky_relu2",
	TypeLeakyRelu1: "leaky_relu1",
}

// catalog holds the sampling weight of each activation. Built once; never
// mutated after that.
var catalog = sampler.NewCatalog(
	sampler.Entry[Type]{Name: "relu", Weight: 6, Value: TypeRelu},
	sampler.Entry[Type]{Name: "tanh", Weight: 3, Value: TypeTanh},
	sampler.Entry[Type]{Name: "cos", Weight: 1, Value: TypeCos},
	sampler.Entry[Type]{Name: "elu", Weight: 1, Value: TypeElu},
	sampler.Entry[Type]{Name: "sigmoid", Weight: 1, Value: TypeSigmoid},
	sampler.Entry[Type]{Name: "swish", Weight: 1, Value: TypeSwish},
	sampler.Entry[Type]{Name: "leaky_relu4", Weight: 1, Value: TypeLeakyRelu4},
	sampler.Entry[Type]{Name: "leaky_relu2", Weight: 1, Value: TypeLeakyRelu2},
	sampler.Entry[Type]{Name: "leaky_relu1", Weight: 1, Value: TypeLeakyRelu1},
)

// TypeValues lists all valid activation types, sorted by name.
func TypeValues() []Type {
	values := make([]Type, 0, catalog.Len())
	for _, name := range catalog.Names() {
		e, _ := catalog.Lookup(name)
		values = append(values, e.Value)
	}
	return values
}

// String returns the snake-case name of the activation.
func (t Type) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// It panics on an unknown name, like FromName.
func (t *Type) UnmarshalText(text []byte) error {
	*t = FromName(string(text))
	return nil
}

// FromName converts the name of an activation to its type.
// It panics with a helpful message if the name is invalid.
func FromName(name string) Type {
	e, found := catalog.Lookup(name)
	if !found {
		exceptions.Panicf("invalid activation name %q: options are %v", name, catalog.Names())
	}
	return e.Value
}

// Sample draws an activation, with probability proportional to its catalog
// weight.
func Sample(rng *rand.Rand) Type {
	return catalog.Sample(rng).Value
}

// Apply evaluates the given activation at x.
func Apply(activation Type, x float64) float64 {
	switch activation {
	case TypeRelu:
		return math.Max(x, 0)
	case TypeTanh:
		return math.Tanh(x)
	case TypeCos:
		return math.Cos(x)
	case TypeElu:
		if x >= 0 {
			return x
		}
		return math.Exp(x) - 1
	case TypeSigmoid:
		return Sigmoid(x)
	case TypeSwish:
		return x * Sigmoid(x)
	case TypeLeakyRelu4:
		return leakyRelu(x, 0.4)
	case TypeLeakyRelu2:
		return leakyRelu(x, 0.2)
	case TypeLeakyRelu1:
		return leakyRelu(x, 0.1)
	default:
		exceptions.Panicf("Apply got invalid activation value %d: options are %v", activation, catalog.Names())
	}
	return 0
}

// Func returns the activation as a plain function, for callers that apply it
// repeatedly (e.g. recurrent cells).
func Func(activation Type) func(float64) float64 {
	_ = Apply(activation, 0) // Validate before returning a closure.
	return func(x float64) float64 { return Apply(activation, x) }
}

// Sigmoid returns 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func leakyRelu(x, alpha float64) float64 {
	if x >= 0 {
		return x
	}
	return alpha * x
}
