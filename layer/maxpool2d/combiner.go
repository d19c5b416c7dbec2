package maxpool2d

import "github.com/neurlang/digitnet/layer"

// Forward takes the maximum of every window and remembers where it came from.
// Among equal values the first one in row major window order wins.
func (s *MaxPool2D) Forward(in []float64, pass layer.Pass) (out []float64, cache layer.Cache) {
	c := s.in.Channels
	out = make([]float64, s.out.Size())
	argmax := make([]int, s.out.Size())
	for y := 0; y < s.out.Height; y++ {
		for x := 0; x < s.out.Width; x++ {
			for ch := 0; ch < c; ch++ {
				o := (y*s.out.Width+x)*c + ch
				best := -1
				for i := 0; i < s.subheight; i++ {
					for j := 0; j < s.subwidth; j++ {
						n := ((y*s.subheight+i)*s.in.Width+x*s.subwidth+j)*c + ch
						if best < 0 || in[n] > in[best] {
							best = n
						}
					}
				}
				out[o] = in[best]
				argmax[o] = best
			}
		}
	}
	return out, argmax
}

// Backward routes each output gradient to the input that produced the maximum.
func (s *MaxPool2D) Backward(cache layer.Cache, gradOut, gradParams []float64) (gradIn []float64) {
	argmax := cache.([]int)
	gradIn = make([]float64, s.in.Size())
	for o, n := range argmax {
		gradIn[n] += gradOut[o]
	}
	return gradIn
}
