package chalkdoc

import (
	"iter"
	"math"
)

// Candidate is one assignment of the input variables, in declared order.
// Index is its position in the enumeration.
type Candidate struct {
	Index  int64
	Values []int64
}

// Candidates yields the cartesian product of ranges in row-major order: the
// first range varies slowest. With no ranges it yields a single empty
// candidate; if any range is empty it yields nothing. The sequence is lazy
// and may be iterated any number of times.
func Candidates(ranges []Range) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, r := range ranges {
			if r.Len() == 0 {
				return
			}
		}
		idx := make([]int64, len(ranges))
		for n := int64(0); ; n++ {
			vals := make([]int64, len(ranges))
			for i, r := range ranges {
				vals[i] = r.At(idx[i])
			}
			if !yield(Candidate{Index: n, Values: vals}) {
				return
			}
			i := len(ranges) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < ranges[i].Len() {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// CandidateCount is the size of the product, saturating at math.MaxInt64.
func CandidateCount(ranges []Range) int64 {
	total := int64(1)
	for _, r := range ranges {
		n := r.Len()
		if n == 0 {
			return 0
		}
		if total > math.MaxInt64/n {
			total = math.MaxInt64
			continue
		}
		total *= n
	}
	return total
}
