package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecords(t *testing.T) {
	header := []string{"Time", "Mean(t1l)", "", "Notes"}
	records := [][]string{
		{"0.0", "1,234.5", "9", "baseline"},
		{"0.2", "2.5", "", "stim"},
		{"0.4", "3.5", "7"},
	}

	f := FromRecords(header, records)

	assert.Equal(t, []string{"Time", "Mean(t1l)", "Unnamed: 2", "Notes"}, f.Columns())
	assert.Equal(t, 3, f.Rows())

	vals, ok := f.Column("Mean(t1l)")
	require.True(t, ok)
	assert.Equal(t, []float64{1234.5, 2.5, 3.5}, vals, "thousands separators stripped")
	assert.True(t, f.IsNumeric("Mean(t1l)"))

	vals, ok = f.Column("Unnamed: 2")
	require.True(t, ok)
	assert.Equal(t, []float64{9, 0, 7}, vals, "empty and missing cells read as zero")
	assert.True(t, f.IsNumeric("Unnamed: 2"))

	assert.False(t, f.IsNumeric("Notes"), "text cells flag the column non-numeric")
	assert.True(t, f.HasColumn("Notes"), "non-numeric columns are kept for shape")
}

func TestColumnCopyOwnership(t *testing.T) {
	f := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}})

	cp, ok := f.ColumnCopy("a")
	require.True(t, ok)
	cp[0] = 99

	orig, _ := f.Column("a")
	assert.Equal(t, 1.0, orig[0], "mutating the copy must not touch the frame")

	_, ok = f.ColumnCopy("missing")
	assert.False(t, ok)
}

func TestSetColumn(t *testing.T) {
	f := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}})

	f.SetColumn("a", []float64{10, 20})
	vals, _ := f.Column("a")
	assert.Equal(t, []float64{10, 20}, vals)
	assert.Equal(t, []string{"a"}, f.Columns(), "replacing keeps column order")

	f.SetColumn("b", []float64{1, 2, 3})
	assert.Equal(t, []string{"a", "b"}, f.Columns())
	assert.True(t, f.IsNumeric("b"))
	assert.Equal(t, 3, f.Rows(), "row count grows to the longest column")
}

func TestCloneIsDeep(t *testing.T) {
	f := FromRecords([]string{"a"}, [][]string{{"1"}})
	c := f.Clone()

	c.SetColumn("a", []float64{42})
	orig, _ := f.Column("a")
	assert.Equal(t, []float64{1}, orig)
	assert.Equal(t, f.Columns(), c.Columns())
}

func TestTimeValues(t *testing.T) {
	t.Run("explicit time column wins", func(t *testing.T) {
		f := FromRecords([]string{"Time", "a"}, [][]string{{"0.5", "1"}, {"1.5", "2"}})
		assert.Equal(t, []float64{0.5, 1.5}, f.TimeValues(5.0))
	})

	t.Run("synthesized from sampling frequency", func(t *testing.T) {
		f := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}, {"3"}})
		assert.Equal(t, []float64{0, 0.2, 0.4}, f.TimeValues(5.0))
	})

	t.Run("non-positive frequency falls back to unit steps", func(t *testing.T) {
		f := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}})
		assert.Equal(t, []float64{0, 1}, f.TimeValues(0))
	})
}
