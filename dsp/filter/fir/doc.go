// Package fir provides a direct-form FIR filter runtime for short kernels.
//
// A [Filter] applies pre-computed coefficients to a sample stream and does
// not allocate after construction. Coefficient design is a separate concern.
package fir
