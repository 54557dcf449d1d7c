package partition

// Adjuster turns raw file sizes into the sizes used for dispatch.
type Adjuster struct {
	Overload uint64 // bytes added to every entry, models per-file overhead
	Round    uint64 // sizes are rounded up to a multiple of this, 0 and 1 disable
}

// Adjust adds the overload then rounds the result up.
func (a Adjuster) Adjust(size uint64) uint64 {
	return AdjustSize(size, a.Overload, a.Round)
}

// AdjustSize returns RoundUp(size+overload, round). The overload is applied
// first.
func AdjustSize(size, overload, round uint64) uint64 {
	return RoundUp(size+overload, round)
}

// RoundUp rounds x up to the next multiple of y. Values of y below 2 leave x
// unchanged.
func RoundUp(x, y uint64) uint64 {
	if y <= 1 || x%y == 0 {
		return x
	}
	return (x/y)*y + y
}
