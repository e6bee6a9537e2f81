package fir

// Filter is a direct-form FIR filter.
//
//	y[n] = sum_{k=0}^{N-1} h[k] * x[n-k]
type Filter struct {
	// taps holds h reversed so that taps[j] weighs the j-th oldest sample.
	taps []float64
	// hist stores the last N inputs twice; hist[pos : pos+N] is always the
	// window oldest first.
	hist []float64
	pos  int
}

// New returns a filter with a copy of coeffs, where coeffs[k] weighs x[n-k].
func New(coeffs []float64) *Filter {
	n := len(coeffs)

	taps := make([]float64, n)
	for k, c := range coeffs {
		taps[n-1-k] = c
	}

	return &Filter{taps: taps, hist: make([]float64, 2*n)}
}

// ProcessSample pushes x and returns the filtered output.
func (f *Filter) ProcessSample(x float64) float64 {
	n := len(f.taps)
	if n == 0 {
		return 0
	}

	f.hist[f.pos] = x
	f.hist[f.pos+n] = x

	f.pos++
	if f.pos == n {
		f.pos = 0
	}

	win := f.hist[f.pos : f.pos+n]

	var y float64
	for j, h := range f.taps {
		y += h * win[j]
	}

	return y
}

// ProcessBlock filters buf in place.
func (f *Filter) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(x)
	}
}

// Reset clears the delay line.
func (f *Filter) Reset() {
	for i := range f.hist {
		f.hist[i] = 0
	}

	f.pos = 0
}

// Order returns len(coeffs) - 1.
func (f *Filter) Order() int {
	return len(f.taps) - 1
}

// Coefficients returns a copy of the coefficients in x[n-k] order.
func (f *Filter) Coefficients() []float64 {
	n := len(f.taps)

	c := make([]float64, n)
	for j, h := range f.taps {
		c[n-1-j] = h
	}

	return c
}
