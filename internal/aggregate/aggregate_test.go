package aggregate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracevis/internal/frame"
	"tracevis/internal/registry"
	"tracevis/pkg/contracts/domain"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	reg.Put("cellA_soma.xlsx", frame.FromRecords(
		[]string{"Time", "Mean(a1l)", "Mean(a1r)"},
		[][]string{{"0", "1", "4"}, {"0.2", "2", "5"}, {"0.4", "3", "6"}}), 5.0)

	reg.Put("cellB_axon.xlsx", frame.FromRecords(
		[]string{"Mean(a1l)", "Mean(b2r)"},
		[][]string{{"10", "40"}, {"20", "50"}}), 5.0)

	return reg
}

func TestAllSegmentsMergesAcrossFiles(t *testing.T) {
	reg := testRegistry(t)

	segs := AllSegments(reg, []string{"cellA_soma.xlsx", "cellB_axon.xlsx", "missing.xlsx"})
	require.Len(t, segs, 2)

	a1 := segs["a1"]
	assert.Equal(t, []domain.ColumnRef{
		{FileID: "cellA_soma.xlsx", Column: "Mean(a1l)"},
		{FileID: "cellB_axon.xlsx", Column: "Mean(a1l)"},
	}, a1.Left, "same segment name in different files merges")
	assert.Equal(t, []domain.ColumnRef{
		{FileID: "cellA_soma.xlsx", Column: "Mean(a1r)"},
	}, a1.Right)

	b2 := segs["b2"]
	assert.Empty(t, b2.Left)
	assert.Len(t, b2.Right, 1)
}

func TestBuildPlotDataset(t *testing.T) {
	reg := testRegistry(t)

	ds := BuildPlotDataset(reg, Selection{
		FileIDs:   []string{"cellA_soma.xlsx", "cellB_axon.xlsx"},
		Segments:  []string{"a1"},
		ShowLeft:  true,
		ShowRight: true,
	})

	require.Len(t, ds.Segments, 1)
	traces := ds.Segments["a1"]
	require.Len(t, traces, 3, "two left traces plus one right")

	assert.Equal(t, "Mean(a1l)", traces[0].Column)
	assert.Equal(t, domain.SideLeft, traces[0].Side)
	assert.Equal(t, "cellA", traces[0].Sample)
	assert.Equal(t, "soma", traces[0].Region)
	assert.Equal(t, domain.RegionSoma, traces[0].Class)
	assert.Equal(t, []float64{1, 2, 3}, traces[0].Data)
	assert.Equal(t, []float64{0, 0.2, 0.4}, traces[0].Time, "time column preferred over index")

	assert.Equal(t, "cellB_axon.xlsx", traces[1].FileID)
	assert.Equal(t, []float64{10, 20}, traces[1].Data)
	assert.Equal(t, []float64{0, 0.2}, traces[1].Time, "no time column synthesizes from sampling freq")

	assert.Equal(t, domain.SideRight, traces[2].Side)
}

func TestBuildPlotDatasetSideFilters(t *testing.T) {
	reg := testRegistry(t)
	sel := Selection{
		FileIDs:  []string{"cellA_soma.xlsx"},
		Segments: []string{"a1"},
	}

	t.Run("left only", func(t *testing.T) {
		sel := sel
		sel.ShowLeft = true
		ds := BuildPlotDataset(reg, sel)
		require.Len(t, ds.Segments["a1"], 1)
		assert.Equal(t, domain.SideLeft, ds.Segments["a1"][0].Side)
	})

	t.Run("right only", func(t *testing.T) {
		sel := sel
		sel.ShowRight = true
		ds := BuildPlotDataset(reg, sel)
		require.Len(t, ds.Segments["a1"], 1)
		assert.Equal(t, domain.SideRight, ds.Segments["a1"][0].Side)
	})

	t.Run("neither side yields an empty dataset", func(t *testing.T) {
		ds := BuildPlotDataset(reg, sel)
		assert.True(t, ds.Empty(), "segments with no traces are omitted, not emitted empty")
	})
}

func TestBuildPlotDatasetPrunesStaleSelection(t *testing.T) {
	reg := testRegistry(t)

	ds := BuildPlotDataset(reg, Selection{
		FileIDs:   []string{"cellA_soma.xlsx"},
		Segments:  []string{"a1", "zz"},
		ShowLeft:  true,
		ShowRight: true,
	})

	assert.Len(t, ds.Segments, 1, "unknown segment names drop out silently")
	assert.NotContains(t, ds.Segments, "zz")
}

func TestBuildPlotDatasetCopiesData(t *testing.T) {
	reg := testRegistry(t)
	sel := Selection{
		FileIDs:  []string{"cellA_soma.xlsx"},
		Segments: []string{"a1"},
		ShowLeft: true,
	}

	ds := BuildPlotDataset(reg, sel)
	ds.Segments["a1"][0].Data[0] = 999

	again := BuildPlotDataset(reg, sel)
	assert.Equal(t, 1.0, again.Segments["a1"][0].Data[0], "datasets own their data")
}

func TestBuildPlotDatasetReflectsWorkingData(t *testing.T) {
	reg := testRegistry(t)
	sel := Selection{
		FileIDs:  []string{"cellA_soma.xlsx"},
		Segments: []string{"a1"},
		ShowLeft: true,
	}

	f, ok := reg.Get("cellA_soma.xlsx")
	require.True(t, ok)
	w := f.RawClone()
	w.SetColumn("Mean(a1l)", []float64{100, 200, 300})
	f.SetWorking(w)

	ds := BuildPlotDataset(reg, sel)
	assert.Equal(t, []float64{100, 200, 300}, ds.Segments["a1"][0].Data)

	f.ResetWorking()
	ds = BuildPlotDataset(reg, sel)
	assert.Equal(t, []float64{1, 2, 3}, ds.Segments["a1"][0].Data)
}
