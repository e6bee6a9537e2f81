package time_test

import (
	"fmt"

	timestats "github.com/cwbudde/peaklim/stats/time"
)

func ExampleCalculate() {
	s := timestats.Calculate([]float64{1, -1, 1, -1})
	fmt.Printf("rms=%.1f zc=%d clipped=%d\n", s.RMS, s.ZeroCrossings, s.Clipped)

	// Output:
	// rms=1.0 zc=3 clipped=4
}

func ExampleAccumulator() {
	var acc timestats.Accumulator
	acc.Update([]float64{0.5, -0.5})
	acc.Update([]float64{0.25, -0.25})
	s := acc.Result()
	fmt.Printf("len=%d peak=%.2f dc=%.1f\n", s.Length, s.Peak, s.DC)

	// Output:
	// len=4 peak=0.50 dc=0.0
}
