package core

// MaxAbs returns the largest magnitude in buf, or 0 for an empty slice.
func MaxAbs(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if v < 0 {
			v = -v
		}

		if v > peak {
			peak = v
		}
	}

	return peak
}
