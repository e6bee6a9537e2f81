// Package truepeak estimates inter-sample (true) peaks of a sampled signal.
//
// The Estimator upsamples by a fixed factor of 4 with a 48-tap polyphase
// FIR (12 taps per phase, Kaiser-windowed sinc) and reports, for every input
// sample, the largest magnitude among the sample itself and the interpolated
// sub-samples on both neighbouring inter-sample segments. The estimate lags
// the input by Delay samples.
//
// The estimator performs no allocation after construction and is intended to
// run inside a real-time audio callback.
package truepeak
