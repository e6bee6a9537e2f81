// Package testutil holds signal generators and assertions shared by tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Burst returns silence with a sine burst of the given amplitude between
// onset and onset+duration samples. Useful for exercising attack and
// release in one signal.
func Burst(freqHz, sampleRate, amplitude float64, length, onset, duration int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := onset; i < onset+duration && i < length; i++ {
		if i < 0 {
			continue
		}

		out[i] = amplitude * math.Sin(step*float64(i-onset))
	}

	return out
}

// Planar copies each channel into a fresh [][]float64.
func Planar(channels ...[]float64) [][]float64 {
	out := make([][]float64, len(channels))
	for ch, src := range channels {
		out[ch] = append([]float64(nil), src...)
	}

	return out
}

// Zeros returns channels x length zeroed planar buffers.
func Zeros(channels, length int) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, length)
	}

	return out
}
