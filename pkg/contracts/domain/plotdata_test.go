package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedNames(t *testing.T) {
	ds := PlotDataset{Segments: map[string][]Trace{
		"soma1": {{}},
		"t2":    {{}},
		"a1":    {{}},
		"t10":   {{}},
	}}

	assert.Equal(t, []string{"t10", "t2", "a1", "soma1"}, ds.OrderedNames(),
		"t-prefixed segments first, alphabetical within each group")
}

func TestPlotDatasetCounts(t *testing.T) {
	assert.True(t, PlotDataset{}.Empty())

	ds := PlotDataset{Segments: map[string][]Trace{
		"t1": {{}, {}},
		"a1": {{}},
	}}
	assert.False(t, ds.Empty())
	assert.Equal(t, 3, ds.TraceCount())
}

func TestModeValidation(t *testing.T) {
	assert.True(t, NormalizationMean.Valid())
	assert.False(t, Normalization("median").Valid())
	assert.True(t, ViewStacked.Valid())
	assert.False(t, ViewMode("grid").Valid())
}

func TestTraceClone(t *testing.T) {
	tr := Trace{Data: []float64{1, 2}, Time: []float64{0, 1}}
	c := tr.Clone()
	c.Data[0] = 9
	c.Time[0] = 9

	assert.Equal(t, 1.0, tr.Data[0])
	assert.Equal(t, 0.0, tr.Time[0])
}
