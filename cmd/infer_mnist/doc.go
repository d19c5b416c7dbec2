// Package main provides a program for running inference with a trained MNIST digit
// classifier. Without an image it reports the success rate on the MNIST test partition;
// given an image file it classifies that single drawing and renders it in the terminal.
package main
