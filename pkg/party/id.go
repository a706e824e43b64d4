// Package party defines the identifiers used to name participants in an
// ADKG run.
package party

import (
	"sort"

	"github.com/luxfi/adkg/pkg/math/curve"
)

// ID identifies a party by its index in the roster, 0 <= ID < n.
//
// Unlike the teacher's string-based party.ID, every sub-protocol here
// (ACSS, RBC, ACS) is indexed by contiguous dealer/sender position, so a
// small integer is the natural representation; Scalar() below is what
// turns it into the x-coordinate "i+1" used throughout the polynomial
// evaluations in the spec.
type ID uint32

// Scalar returns the field element used as the evaluation point for this
// party's shares: x = id+1, so that no share point collides with the
// secret itself (always stored at x=0).
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalarUInt64(uint64(id) + 1)
}

// IDSlice is a sortable, deduplicated collection of party IDs.
type IDSlice []ID

func (p IDSlice) Len() int           { return len(p) }
func (p IDSlice) Less(i, j int) bool { return p[i] < p[j] }
func (p IDSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Contains reports whether id is present in the (not necessarily sorted) slice.
func (p IDSlice) Contains(id ID) bool {
	for _, q := range p {
		if q == id {
			return true
		}
	}
	return false
}

// Sorted returns a sorted copy of p.
func (p IDSlice) Sorted() IDSlice {
	out := make(IDSlice, len(p))
	copy(out, p)
	sort.Sort(out)
	return out
}

// NewIDSlice builds the canonical roster {0, ..., n-1}.
func NewIDSlice(n int) IDSlice {
	out := make(IDSlice, n)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}
