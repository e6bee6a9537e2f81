// Package design provides RBJ-style biquad coefficient designers.
//
// Designers return [biquad.Coefficients] normalised to a0 = 1. Invalid
// frequencies or sample rates yield the zero Coefficients value.
package design
