package preprocess

import "github.com/pkg/errors"

// OneHot is a class indicator vector.
type OneHot []float64

// Label returns the index of the hot entry, or -1 when there is none.
func (o OneHot) Label() int {
	for i, v := range o {
		if v == 1 {
			return i
		}
	}
	return -1
}

// EncodeLabel encodes label as a vector of numClasses entries with a single 1 at position label.
func EncodeLabel(label, numClasses int) (OneHot, error) {
	if numClasses <= 0 || label < 0 || label >= numClasses {
		return nil, errors.Wrapf(ErrLabelRange, "label %d with %d classes", label, numClasses)
	}
	o := make(OneHot, numClasses)
	o[label] = 1
	return o, nil
}

// EncodeLabels one-hot encodes a partition of labels.
func EncodeLabels(labels []uint8, numClasses int) ([]OneHot, error) {
	out := make([]OneHot, len(labels))
	for i, l := range labels {
		o, err := EncodeLabel(int(l), numClasses)
		if err != nil {
			return nil, errors.Wrapf(err, "label %d", i)
		}
		out[i] = o
	}
	return out, nil
}
