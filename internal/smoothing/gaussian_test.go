package smoothing

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracevis/internal/frame"
	"tracevis/internal/registry"
	"tracevis/pkg/contracts/domain"
)

func TestFilterIdentityCases(t *testing.T) {
	data := []float64{1, 5, 2, 8, 3}

	t.Run("zero sigma returns a copy", func(t *testing.T) {
		out := Filter(data, 0)
		assert.Equal(t, data, out)
		out[0] = 99
		assert.Equal(t, 1.0, data[0], "output must be an independent copy")
	})

	t.Run("negative sigma returns a copy", func(t *testing.T) {
		assert.Equal(t, data, Filter(data, -1))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Filter(nil, 2.0))
	})

	t.Run("single sample unchanged", func(t *testing.T) {
		assert.Equal(t, []float64{7}, Filter([]float64{7}, 3.0))
	})
}

func TestFilterPreservesConstantSignal(t *testing.T) {
	data := make([]float64, 50)
	for i := range data {
		data[i] = 42
	}

	out := Filter(data, 3.0)
	for i, v := range out {
		assert.InDelta(t, 42.0, v, 1e-9, "index %d", i)
	}
}

func TestFilterSmooths(t *testing.T) {
	// An impulse spreads out but keeps its total mass (kernel sums to 1
	// and reflect boundary conserves it).
	data := make([]float64, 41)
	data[20] = 1

	out := Filter(data, 2.0)

	assert.Less(t, out[20], 1.0, "peak flattens")
	assert.Greater(t, out[20], out[15], "mass stays centered")

	var sum float64
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	assert.Equal(t, 1.0, data[20], "input untouched")
}

func TestFilterVarianceShrinks(t *testing.T) {
	data := []float64{0, 10, 0, 10, 0, 10, 0, 10, 0, 10}

	out := Filter(data, 1.5)

	variance := func(v []float64) float64 {
		var mean float64
		for _, x := range v {
			mean += x
		}
		mean /= float64(len(v))
		var acc float64
		for _, x := range v {
			acc += (x - mean) * (x - mean)
		}
		return acc / float64(len(v))
	}
	assert.Less(t, variance(out), variance(data))
}

func TestReflectIndex(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 4, 0},
		{3, 4, 3},
		{-1, 4, 0}, // edge sample repeats
		{-2, 4, 1},
		{4, 4, 3},
		{5, 4, 2},
		{-5, 4, 3}, // full period wraps
		{0, 1, 0},
		{9, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reflectIndex(tt.i, tt.n), "reflectIndex(%d, %d)", tt.i, tt.n)
	}
}

func TestSmoothSigmaFromPercent(t *testing.T) {
	tr := domain.Trace{Data: []float64{1, 5, 2, 8, 3, 9, 4}, Time: []float64{0, 1, 2, 3, 4, 5, 6}}

	t.Run("zero percent is a no-op", func(t *testing.T) {
		out := Smooth(tr, 0)
		assert.Equal(t, tr.Data, out.Data)
	})

	t.Run("percent scales with trace length", func(t *testing.T) {
		out := Smooth(tr, 20)
		expected := Filter(tr.Data, 0.2*float64(len(tr.Data)))
		assert.Equal(t, expected, out.Data)
		assert.Equal(t, tr.Time, out.Time, "time axis carried over")
		assert.Equal(t, []float64{1, 5, 2, 8, 3, 9, 4}, tr.Data, "input trace untouched")
	})
}

func TestReset(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(logger)
	f := reg.Put("a.csv", frame.FromRecords(
		[]string{"Mean(t1l)"},
		[][]string{{"1"}, {"2"}, {"3"}, {"4"}}), 2.0)

	// Simulate a normalized working copy.
	w := f.RawClone()
	w.SetColumn("Mean(t1l)", []float64{100, 200, 300, 400})
	f.SetWorking(w)

	tr := domain.Trace{FileID: "a.csv", Column: "Mean(t1l)", Data: []float64{100, 200, 300, 400}}
	smoothed := Smooth(tr, 25)
	require.NotEqual(t, tr.Data, smoothed.Data)

	restored, err := Reset(reg, smoothed)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, restored.Data, "reset restores raw data exactly")
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, restored.Time)

	for i, v := range restored.Data {
		assert.False(t, math.IsNaN(v), "index %d", i)
	}
}

func TestResetErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(logger)
	reg.Put("a.csv", frame.FromRecords([]string{"Mean(t1l)"}, [][]string{{"1"}}), 5.0)

	_, err := Reset(reg, domain.Trace{FileID: "gone.csv", Column: "Mean(t1l)"})
	assert.Error(t, err)

	_, err = Reset(reg, domain.Trace{FileID: "a.csv", Column: "Mean(zz)"})
	assert.Error(t, err)
}
