package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Smallest(t *testing.T) {
	tests := []struct {
		name  string
		sizes []uint64
		want  int
	}{
		{name: "empty registry", sizes: nil, want: -1},
		{name: "single partition", sizes: []uint64{7}, want: 0},
		{name: "strictly smallest", sizes: []uint64{7, 3, 5}, want: 1},
		{name: "tie resolves to lowest index", sizes: []uint64{7, 3, 3}, want: 1},
		{name: "all equal", sizes: []uint64{4, 4, 4}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFixedRegistry(len(tt.sizes), 0)
			for i, size := range tt.sizes {
				p, err := r.At(i)
				require.NoError(t, err)
				p.Size = size
			}
			assert.Equal(t, tt.want, r.Smallest())
		})
	}
}

func TestRegistry_AddAndAt(t *testing.T) {
	r := NewRegistry(64)
	assert.Equal(t, 0, r.Add(2))
	assert.Equal(t, 2, r.Add(1))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, uint64(192), r.TotalSize())

	for i := range 3 {
		p, err := r.At(i)
		require.NoError(t, err)
		assert.Equal(t, uint64(64), p.Size)
		assert.Zero(t, p.NumFiles)
	}

	_, err := r.At(3)
	require.ErrorIs(t, err, ErrPartitionNotFound)
	_, err = r.At(-1)
	require.ErrorIs(t, err, ErrPartitionNotFound)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, 1, Label(0, false))
	assert.Equal(t, 5, Label(4, false))
	assert.Equal(t, 0, Label(0, true))
	assert.Equal(t, 4, Label(4, true))

	r := NewRegistry(0)
	_, err := DispatchByLimits(storeOf(1), r, Limits{MaxSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Label(0))
	assert.Equal(t, 1, r.Label(1))
}

func TestEntryStore(t *testing.T) {
	s := NewEntryStore(0)
	assert.Equal(t, 0, s.Add("a", 3, 0))
	assert.Equal(t, 1, s.Add("b", 9, 13))
	assert.Equal(t, 2, s.Add("c", 1, 0))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, uint64(13), s.TotalSize())
	assert.Equal(t, Unassigned, s.At(0).Partition)
	assert.Equal(t, 13, s.At(1).Errno)
	assert.Nil(t, s.At(3))

	var paths []string
	for _, e := range s.SortedBySize() {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"b", "a", "c"}, paths)

	// sorting does not reorder the store itself
	assert.Equal(t, "a", s.At(0).Path)
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		x, y, want uint64
	}{
		{x: 0, y: 4096, want: 0},
		{x: 1, y: 4096, want: 4096},
		{x: 4096, y: 4096, want: 4096},
		{x: 4097, y: 4096, want: 8192},
		{x: 17, y: 1, want: 17},
		{x: 17, y: 0, want: 17},
		{x: 10, y: 3, want: 12},
	}

	for _, tt := range tests {
		got := RoundUp(tt.x, tt.y)
		assert.Equal(t, tt.want, got, "RoundUp(%d, %d)", tt.x, tt.y)
		assert.Equal(t, got, RoundUp(got, tt.y), "RoundUp must be idempotent for (%d, %d)", tt.x, tt.y)
	}
}

func TestAdjustSize_OverloadBeforeRound(t *testing.T) {
	// 10+3 = 13 -> 16; rounding first would give 16+3 = 19
	assert.Equal(t, uint64(16), AdjustSize(10, 3, 4))
	assert.Equal(t, uint64(16), Adjuster{Overload: 3, Round: 4}.Adjust(10))
	assert.Equal(t, uint64(10), Adjuster{}.Adjust(10))
}
