// Package truepeak provides an offline reference true-peak meter.
//
// Unlike the streaming estimator in dsp/truepeak, which uses a short
// polyphase kernel to stay real-time safe, this package reconstructs the
// band-limited signal by zero-padding its spectrum. It is slower and
// allocates, but it is the yardstick the limiter's output is checked
// against and what the analyze command reports.
package truepeak
