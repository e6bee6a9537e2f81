package truepeak

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/peaklim/internal/testutil"
)

// quarterRateSine returns a sine at a quarter of the sample rate whose
// samples all sit 3 dB below the waveform's true peak.
func quarterRateSine(n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(math.Pi/2*float64(i)+math.Pi/4)
	}

	return out
}

func TestOversampleKeepsOriginalSamples(t *testing.T) {
	x := testutil.DeterministicNoise(7, 1, 500)

	for _, factor := range []int{2, 4, 8} {
		up, err := Oversample(x, factor)
		if err != nil {
			t.Fatalf("factor %d: %v", factor, err)
		}

		if len(up) != len(x)*factor {
			t.Fatalf("factor %d: len=%d, want %d", factor, len(up), len(x)*factor)
		}

		for i, v := range x {
			if math.Abs(up[i*factor]-v) > 1e-9 {
				t.Fatalf("factor %d index %d: got %v, want %v", factor, i, up[i*factor], v)
			}
		}
	}
}

func TestOversampleRecoversInterSamplePeak(t *testing.T) {
	x := quarterRateSine(4096, 1)

	up, err := Oversample(x, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Truncation ringing fades away from the edges.
	peak := 0.0
	for _, v := range up[4*1024 : 4*3072] {
		peak = math.Max(peak, math.Abs(v))
	}

	if math.Abs(peak-1) > 5e-3 {
		t.Fatalf("interior true peak=%v, want ~1", peak)
	}
}

func TestTruePeakNotBelowSamplePeak(t *testing.T) {
	x := testutil.DeterministicNoise(11, 0.8, 1000)

	tp, err := TruePeak(x, 4)
	if err != nil {
		t.Fatal(err)
	}

	sp := 0.0
	for _, v := range x {
		sp = math.Max(sp, math.Abs(v))
	}

	if tp < sp {
		t.Fatalf("true peak %v below sample peak %v", tp, sp)
	}
}

func TestFactorOneCopies(t *testing.T) {
	x := []float64{0.1, -0.2, 0.3}

	up, err := Oversample(x, 1)
	if err != nil {
		t.Fatal(err)
	}

	up[0] = 9
	if x[0] != 0.1 {
		t.Fatal("Oversample(x, 1) aliases its input")
	}
}

func TestInvalidArguments(t *testing.T) {
	if _, err := Oversample(nil, 4); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty input err=%v", err)
	}

	for _, factor := range []int{0, 3, 32, -2} {
		if _, err := TruePeak([]float64{1}, factor); !errors.Is(err, ErrInvalidFactor) {
			t.Fatalf("factor %d err=%v", factor, err)
		}
	}
}

func TestTruePeakDBSilence(t *testing.T) {
	db, err := TruePeakDB(make([]float64, 16), 4)
	if err != nil {
		t.Fatal(err)
	}

	if !math.IsInf(db, -1) {
		t.Fatalf("silence dBTP=%v, want -Inf", db)
	}
}

func BenchmarkTruePeak(b *testing.B) {
	x := testutil.DeterministicNoise(1, 1, 48000)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := TruePeak(x, 4); err != nil {
			b.Fatal(err)
		}
	}
}
