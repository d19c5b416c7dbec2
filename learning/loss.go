package learning

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const (
	CategoricalCrossentropy = "categorical_crossentropy"
	MeanSquaredError        = "mean_squared_error"
)

// Clip bounds probabilities away from zero before taking logarithms.
const Clip = 1e-7

// Loss measures one prediction against its one-hot target.
type Loss interface {

	// Name is the name the loss is compiled with.
	Name() string

	// Value is the loss of prediction p for target y.
	Value(p, y []float64) float64

	// Gradient is the derivative of Value with respect to p.
	Gradient(p, y []float64) []float64
}

// LossByName returns the loss compiled as name.
func LossByName(name string) (Loss, error) {
	switch name {
	case CategoricalCrossentropy:
		return crossentropy{}, nil
	case MeanSquaredError:
		return meanSquared{}, nil
	}
	return nil, errors.Wrapf(ErrHyperParameters, "loss %q", name)
}

type crossentropy struct{}

func (crossentropy) Name() string { return CategoricalCrossentropy }

func (crossentropy) Value(p, y []float64) (l float64) {
	for i := range p {
		if y[i] != 0 {
			l -= y[i] * math.Log(math.Min(math.Max(p[i], Clip), 1-Clip))
		}
	}
	return l
}

func (crossentropy) Gradient(p, y []float64) []float64 {
	g := make([]float64, len(p))
	for i := range p {
		if y[i] != 0 {
			g[i] = -y[i] / math.Max(p[i], Clip)
		}
	}
	return g
}

// SoftmaxGradient is the cross-entropy gradient with respect to the logits feeding a
// softmax which produced p: p - y.
func SoftmaxGradient(p, y []float64) []float64 {
	g := make([]float64, len(p))
	floats.SubTo(g, p, y)
	return g
}

type meanSquared struct{}

func (meanSquared) Name() string { return MeanSquaredError }

func (meanSquared) Value(p, y []float64) float64 {
	d := floats.Distance(p, y, 2)
	return d * d / float64(len(p))
}

func (meanSquared) Gradient(p, y []float64) []float64 {
	g := make([]float64, len(p))
	floats.SubTo(g, p, y)
	floats.Scale(2/float64(len(p)), g)
	return g
}

// Argmax is the index of the largest entry; among equal maxima the lowest index wins.
// It returns -1 for an empty vector.
func Argmax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	return floats.MaxIdx(v)
}

// Correct reports whether prediction p selects the class of one-hot target y.
func Correct(p, y []float64) bool {
	return Argmax(p) == Argmax(y)
}
