// Package main provides a program for downloading the MNIST archives into a local
// directory, verifying each against its published sha256 digest.
package main
