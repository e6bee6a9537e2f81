// Package biquad provides second-order IIR filter runtime primitives.
//
// A [Section] runs Direct Form II Transposed processing for one set of
// [Coefficients]; a [Chain] cascades sections in series. Coefficient design
// lives in dsp/filter/design.
package biquad
