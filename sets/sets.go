// Package sets provides operations on sorted, duplicate-free integer
// slices, the set representation shared across the module.
package sets

import "sort"

// New returns the sorted, duplicate-free set of the given elements.
func New(elements ...int) []int {
	out := make([]int, len(elements))
	copy(out, elements)
	sort.Ints(out)
	return dedup(out)
}

func dedup(sorted []int) []int {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether the sorted set s contains v.
func Contains(s []int, v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

// Union returns the sorted union of two sorted sets.
func Union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// Intersect returns the sorted intersection of two sorted sets.
func Intersect(a, b []int) []int {
	out := make([]int, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// Difference returns the sorted set of elements of a not in b.
func Difference(a, b []int) []int {
	out := make([]int, 0, len(a))
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

// IsDisjoint reports whether two sorted sets share no elements.
func IsDisjoint(a, b []int) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			return false
		}
	}
	return true
}

// IsSubset reports whether every element of a is in b (both sorted).
func IsSubset(a, b []int) bool {
	return len(Intersect(a, b)) == len(a)
}

// Equal reports whether two sorted sets hold the same elements.
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Insert returns a copy of the sorted set s with v inserted in order.
// Inserting an element already present returns an unchanged copy.
func Insert(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	if i < len(s) && s[i] == v {
		out := make([]int, len(s))
		copy(out, s)
		return out
	}
	out := make([]int, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	out = append(out, s[i:]...)
	return out
}

// Remove returns a copy of the sorted set s with v removed.
func Remove(s []int, v int) []int {
	out := make([]int, 0, len(s))
	for _, w := range s {
		if w != v {
			out = append(out, w)
		}
	}
	return out
}

// Clone returns a copy of s.
func Clone(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}
