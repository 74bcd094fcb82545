// Package smoothing applies a 1-D gaussian filter to trace data. The filter
// width is given as a percentage of the trace's sample count, so the same
// setting smooths short and long recordings comparably.
package smoothing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"tracevis/internal/registry"
	"tracevis/pkg/contracts/domain"
)

// kernelTruncate bounds the kernel at this many standard deviations per
// side.
const kernelTruncate = 4.0

// Filter convolves data with a gaussian kernel of the given standard
// deviation in samples, using reflect boundary handling. A sigma of zero or
// less is the identity and returns a copy of the input, as does a trace
// shorter than two samples, where convolving the single reflected value
// would only accumulate kernel rounding error. The input is never modified.
func Filter(data []float64, sigma float64) []float64 {
	out := append([]float64(nil), data...)
	if sigma <= 0 || len(data) < 2 {
		return out
	}

	radius := int(kernelTruncate*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		x := float64(i) / sigma
		kernel[i+radius] = math.Exp(-0.5 * x * x)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	n := len(data)
	for i := range out {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * data[reflectIndex(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0,n) by mirroring at
// the edges with the edge sample repeated: d c b a | a b c d | d c b a.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i = ((i % period) + period) % period
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// Smooth returns a copy of the trace with its data gaussian-filtered. The
// standard deviation in samples is sigmaPercent/100 of the trace length;
// zero percent is a valid no-op.
func Smooth(t domain.Trace, sigmaPercent float64) domain.Trace {
	out := t.Clone()
	sigma := sigmaPercent / 100 * float64(len(t.Data))
	out.Data = Filter(out.Data, sigma)
	return out
}

// Reset rebuilds a trace's data from the owning file's immutable raw copy,
// discarding smoothing and any normalization applied since load. The caller
// is responsible for triggering a refresh if normalization should be
// reapplied.
func Reset(reg *registry.Registry, t domain.Trace) (domain.Trace, error) {
	f, ok := reg.Get(t.FileID)
	if !ok {
		return domain.Trace{}, fmt.Errorf("reset trace: file %s is not loaded", t.FileID)
	}
	data, ok := f.Raw().ColumnCopy(t.Column)
	if !ok {
		return domain.Trace{}, fmt.Errorf("reset trace: column %q not in %s", t.Column, f.Name)
	}
	out := t.Clone()
	out.Data = data
	out.Time = f.Raw().TimeValues(f.SamplingFreq)
	return out, nil
}
