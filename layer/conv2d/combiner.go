package conv2d

import (
	"github.com/neurlang/digitnet/layer"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// im2col lays every receptive field of in out as one row of a positions × patch matrix.
func (f *Conv2D) im2col(in []float64) []float64 {
	patch := f.patch()
	c := f.in.Channels
	cols := make([]float64, f.out.Height*f.out.Width*patch)
	for y := 0; y < f.out.Height; y++ {
		for x := 0; x < f.out.Width; x++ {
			row := cols[(y*f.out.Width+x)*patch:]
			for i := 0; i < f.subheight; i++ {
				src := in[((y+i)*f.in.Width+x)*c:]
				copy(row[i*f.subwidth*c:(i+1)*f.subwidth*c], src[:f.subwidth*c])
			}
		}
	}
	return cols
}

// col2im scatters a positions × patch gradient back onto the input positions.
func (f *Conv2D) col2im(cols []float64) []float64 {
	patch := f.patch()
	c := f.in.Channels
	grad := make([]float64, f.in.Size())
	for y := 0; y < f.out.Height; y++ {
		for x := 0; x < f.out.Width; x++ {
			row := cols[(y*f.out.Width+x)*patch:]
			for i := 0; i < f.subheight; i++ {
				dst := grad[((y+i)*f.in.Width+x)*c:]
				floats.Add(dst[:f.subwidth*c], row[i*f.subwidth*c:(i+1)*f.subwidth*c])
			}
		}
	}
	return grad
}

// Forward convolves one sample.
func (f *Conv2D) Forward(in []float64, pass layer.Pass) (out []float64, cache layer.Cache) {
	patch := f.patch()
	positions := f.out.Height * f.out.Width
	cols := f.im2col(in)

	out = make([]float64, positions*f.filters)
	outM := mat.NewDense(positions, f.filters, out)
	outM.Mul(mat.NewDense(positions, patch, cols), f.weights())

	bias := f.params[patch*f.filters:]
	for p := 0; p < positions; p++ {
		floats.Add(out[p*f.filters:(p+1)*f.filters], bias)
	}
	return out, cols
}

// Backward accumulates weight and bias gradients and returns the input gradient.
func (f *Conv2D) Backward(cache layer.Cache, gradOut, gradParams []float64) (gradIn []float64) {
	patch := f.patch()
	positions := f.out.Height * f.out.Width
	colsM := mat.NewDense(positions, patch, cache.([]float64))
	gradM := mat.NewDense(positions, f.filters, gradOut)

	var dw mat.Dense
	dw.Mul(colsM.T(), gradM)
	weights := patch * f.filters
	for k := 0; k < patch; k++ {
		floats.Add(gradParams[k*f.filters:(k+1)*f.filters], dw.RawRowView(k))
	}
	bias := gradParams[weights:]
	for p := 0; p < positions; p++ {
		floats.Add(bias, gradOut[p*f.filters:(p+1)*f.filters])
	}

	dcols := make([]float64, positions*patch)
	dcolsM := mat.NewDense(positions, patch, dcols)
	dcolsM.Mul(gradM, f.weights().T())
	return f.col2im(dcols)
}

func (f *Conv2D) weights() *mat.Dense {
	patch := f.patch()
	return mat.NewDense(patch, f.filters, f.params[:patch*f.filters])
}
