package chalkdoc

import "math"

// Range is the admissible value set of one variable: Min..Max in ascending
// order, with 0 left out unless ZeroOK is set.
type Range struct {
	Min, Max int64
	ZeroOK   bool
}

// NewRange builds the admissible range of v.
func NewRange(v VariableSpec) (Range, error) {
	if v.Min > v.Max {
		return Range{}, rangef("%s: min %d is greater than max %d", v.Symbol, v.Min, v.Max)
	}
	return Range{Min: v.Min, Max: v.Max, ZeroOK: v.ZeroOK}, nil
}

// BuildRanges builds one range per variable, in order.
func BuildRanges(vars []VariableSpec) ([]Range, error) {
	out := make([]Range, len(vars))
	for i, v := range vars {
		r, err := NewRange(v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (r Range) skipsZero() bool { return !r.ZeroOK && r.Min <= 0 && r.Max >= 0 }

// Len is the number of admissible values, saturating at math.MaxInt64.
func (r Range) Len() int64 {
	if r.Min > r.Max {
		return 0
	}
	span := uint64(r.Max - r.Min)
	if span >= math.MaxInt64 {
		return math.MaxInt64
	}
	n := int64(span) + 1
	if r.skipsZero() {
		n--
	}
	return n
}

// At returns the i-th admissible value; i must be below Len.
func (r Range) At(i int64) int64 {
	v := r.Min + i
	if r.skipsZero() && v >= 0 {
		v++
	}
	return v
}

func (r Range) Contains(v int64) bool {
	if v < r.Min || v > r.Max {
		return false
	}
	return v != 0 || r.ZeroOK
}

// Values lists the admissible values in ascending order.
func (r Range) Values() []int64 {
	n := r.Len()
	out := make([]int64, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, r.At(i))
	}
	return out
}
