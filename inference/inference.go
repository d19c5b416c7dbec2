// Package inference implements the single image classification pipeline: the image is
// normalized exactly like the training data, given a leading batch dimension, predicted and
// reduced to the most probable digit.
package inference

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/neurlang/digitnet/imageio"
	"github.com/neurlang/digitnet/learning"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
)

// Predictor is the model seen by the pipeline.
type Predictor interface {
	Predict(preprocess.Batch) ([][]float64, error)
}

// Argmax is the index of the largest entry; among equal maxima the lowest index wins.
// It returns -1 for an empty vector.
func Argmax(v []float64) int {
	return learning.Argmax(v)
}

// Class is one entry of a prediction vector.
type Class struct {
	Label       int
	Probability float64
}

// Prediction is the outcome of classifying one image.
type Prediction struct {
	Vector     []float64
	Label      int
	Confidence float64

	// Cached is set when the prediction was served from the cache.
	Cached bool
}

// Top returns the k most probable classes, most probable first. Ties keep the lower label first.
func (p Prediction) Top(k int) []Class {
	classes := make([]Class, len(p.Vector))
	for i, v := range p.Vector {
		classes[i] = Class{Label: i, Probability: v}
	}
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Probability > classes[j].Probability })
	if k < len(classes) {
		classes = classes[:k]
	}
	return classes
}

// Pipeline classifies single images with a model, remembering recent results.
type Pipeline struct {
	model Predictor
	cache *lru.Cache
}

// New creates a pipeline. A cacheSize of zero disables caching.
func New(model Predictor, cacheSize int) (*Pipeline, error) {
	p := &Pipeline{model: model}
	if cacheSize > 0 {
		c, err := lru.New(cacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "creating prediction cache")
		}
		p.cache = c
	}
	return p, nil
}

func digest(img preprocess.Image) [32]byte {
	h := sha256.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:], uint32(img.Height))
	binary.LittleEndian.PutUint32(dims[4:], uint32(img.Width))
	h.Write(dims[:])
	h.Write(img.Pix)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Classify predicts the digit shown in img.
func (p *Pipeline) Classify(img preprocess.Image) (Prediction, error) {
	sample, err := preprocess.Normalize(img)
	if err != nil {
		return Prediction{}, err
	}
	var key [32]byte
	if p.cache != nil {
		key = digest(img)
		if v, ok := p.cache.Get(key); ok {
			pred := v.(Prediction)
			pred.Vector = append([]float64(nil), pred.Vector...)
			pred.Cached = true
			return pred, nil
		}
	}

	out, err := p.model.Predict(preprocess.Unsqueeze(sample))
	if err != nil {
		return Prediction{}, errors.Wrap(err, "predicting")
	}
	if len(out) != 1 || len(out[0]) == 0 {
		return Prediction{}, errors.Errorf("model returned %d predictions for one image", len(out))
	}
	label := Argmax(out[0])
	pred := Prediction{Vector: out[0], Label: label, Confidence: out[0][label]}
	if p.cache != nil {
		stored := pred
		stored.Vector = append([]float64(nil), pred.Vector...)
		p.cache.Add(key, stored)
	}
	return pred, nil
}

// ClassifyFile decodes the image stored at path and classifies it.
func (p *Pipeline) ClassifyFile(path string, opts imageio.Options) (preprocess.Image, Prediction, error) {
	img, err := imageio.DecodeFile(path, opts)
	if err != nil {
		return preprocess.Image{}, Prediction{}, err
	}
	pred, err := p.Classify(img)
	return img, pred, err
}
