package layer

// Layer is the layer descriptor which can be used for instantiating a combiner once the
// shape of its input is known.
type Layer interface {

	// Lay creates a combiner consuming inputs of shape in.
	Lay(in Shape) (Combiner, error)
}
