package pipeline

import "math"

// highpassCoeffs holds second-order IIR coefficients with a0 normalised
// to 1, in the order b0, b1, b2 and a1, a2.
type highpassCoeffs struct {
	b [3]float64
	a [3]float64
}

// butterworthHighpass designs a 2nd-order Butterworth highpass via the
// bilinear transform. cutoffNorm is the cutoff as a fraction of the
// Nyquist frequency, in (0, 1).
func butterworthHighpass(cutoffNorm float64) highpassCoeffs {
	w := math.Tan(math.Pi * cutoffNorm / 2)
	norm := 1 / (1 + math.Sqrt2*w + w*w)
	return highpassCoeffs{
		b: [3]float64{norm, -2 * norm, norm},
		a: [3]float64{1, 2 * (w*w - 1) * norm, (1 - math.Sqrt2*w + w*w) * norm},
	}
}

// forwardFilter runs the IIR difference equation over x.
func (f highpassCoeffs) forwardFilter(x []float64) []float64 {
	out := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := f.b[0]*v + f.b[1]*x1 + f.b[2]*x2 - f.a[1]*y1 - f.a[2]*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// filtfiltPadLen is the edge padding used for zero-phase filtering, three
// times the filter order plus one. Signals at or below this length fall
// back to single-pass filtering.
const filtfiltPadLen = 9

// zeroPhaseFilter applies f forward and backward for zero phase shift,
// with odd-symmetric edge extension to suppress startup transients.
func (f highpassCoeffs) zeroPhaseFilter(x []float64) []float64 {
	n := len(x)
	if n <= filtfiltPadLen {
		return f.forwardFilter(x)
	}

	// Odd extension: reflect the edges about the first and last samples.
	ext := make([]float64, n+2*filtfiltPadLen)
	for i := 0; i < filtfiltPadLen; i++ {
		ext[i] = 2*x[0] - x[filtfiltPadLen-i]
		ext[len(ext)-1-i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[filtfiltPadLen:], x)

	ext = f.forwardFilter(ext)
	reverse(ext)
	ext = f.forwardFilter(ext)
	reverse(ext)

	out := make([]float64, n)
	copy(out, ext[filtfiltPadLen:filtfiltPadLen+n])
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
