// Package main provides a program for training the convolutional digit classifier on the
// MNIST dataset. It loads an optional YAML configuration, trains with a trailing validation
// hold-out, keeps the model with the best validation accuracy and reports its test accuracy.
package main
