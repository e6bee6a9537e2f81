package loudness_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/peaklim/measure/loudness"
)

func ExampleMeter() {
	const fs = 48000.0

	m, err := loudness.NewMeter(loudness.WithSampleRate(fs), loudness.WithChannels(1))
	if err != nil {
		panic(err)
	}

	// 4 s of 1 kHz at -6 dBFS.
	sig := make([]float64, int(fs*4))
	for i := range sig {
		sig[i] = 0.5 * math.Sin(2*math.Pi*1000/fs*float64(i))
	}

	if err := m.Process([][]float64{sig}); err != nil {
		panic(err)
	}

	fmt.Printf("Momentary: %.1f LUFS\n", m.Momentary())
	fmt.Printf("Short-term: %.1f LUFS\n", m.ShortTerm())

	// Output:
	// Momentary: -9.1 LUFS
	// Short-term: -9.1 LUFS
}
