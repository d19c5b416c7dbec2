package learning

import "math"

// Optimizer updates parameter groups in place from their gradients.
type Optimizer interface {

	// Step applies one update. params[i] and grads[i] have equal lengths; groups
	// without parameters are empty slices.
	Step(params, grads [][]float64)
}

// NewOptimizer creates the optimizer named by h.
func (h HyperParameters) NewOptimizer() (Optimizer, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.Optimizer == "sgd" {
		return &SGD{HyperParameters: h}, nil
	}
	return &Adam{HyperParameters: h}, nil
}

// Adam is the bias corrected Adam optimizer.
type Adam struct {
	HyperParameters
	t    int
	m, v [][]float64
}

// Step applies one Adam update.
func (a *Adam) Step(params, grads [][]float64) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i := range params {
			a.m[i] = make([]float64, len(params[i]))
			a.v[i] = make([]float64, len(params[i]))
		}
	}
	a.t++
	b1, b2 := a.Beta1, a.Beta2
	lr := a.LearningRate * math.Sqrt(1-math.Pow(b2, float64(a.t))) / (1 - math.Pow(b1, float64(a.t)))
	for i, p := range params {
		g, m, v := grads[i], a.m[i], a.v[i]
		for j := range p {
			m[j] = b1*m[j] + (1-b1)*g[j]
			v[j] = b2*v[j] + (1-b2)*g[j]*g[j]
			p[j] -= lr * m[j] / (math.Sqrt(v[j]) + a.Epsilon)
		}
	}
}

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	HyperParameters
	velocity [][]float64
}

// Step applies one SGD update.
func (s *SGD) Step(params, grads [][]float64) {
	if s.Momentum == 0 {
		for i, p := range params {
			for j := range p {
				p[j] -= s.LearningRate * grads[i][j]
			}
		}
		return
	}
	if s.velocity == nil {
		s.velocity = make([][]float64, len(params))
		for i := range params {
			s.velocity[i] = make([]float64, len(params[i]))
		}
	}
	for i, p := range params {
		v := s.velocity[i]
		for j := range p {
			v[j] = s.Momentum*v[j] - s.LearningRate*grads[i][j]
			p[j] += v[j]
		}
	}
}
