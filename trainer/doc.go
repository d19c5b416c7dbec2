// Package trainer provides high-level training orchestration for feedforward networks.
// Fit runs the epoch loop over a dataset with a trailing validation hold-out, Evaluate
// measures a trained network on a partition and Resume picks up a saved checkpoint.
package trainer
