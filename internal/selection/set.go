package selection

import (
	"sort"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Set is a case-insensitive set of table names.
// The first spelling added wins and iteration follows insertion order.
type Set struct {
	index map[string]int
	names []string
}

// NewSet creates a set holding names.
func NewSet(names ...string) *Set {
	s := &Set{index: make(map[string]int)}
	s.AddAll(names...)
	return s
}

// Add inserts name and reports whether it was not already present.
func (s *Set) Add(name string) bool {
	key := core.Fold(name)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.names)
	s.names = append(s.names, name)
	return true
}

// AddAll inserts every name and returns the ones that were new.
func (s *Set) AddAll(names ...string) []string {
	var added []string
	for _, n := range names {
		if s.Add(n) {
			added = append(added, n)
		}
	}
	return added
}

// Contains reports whether name is in the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.index[core.Fold(name)]
	return ok
}

// Len returns the number of names.
func (s *Set) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Sorted returns the names ordered case-insensitively.
func (s *Set) Sorted() []string {
	out := s.Names()
	sort.SliceStable(out, func(i, j int) bool {
		return core.Fold(out[i]) < core.Fold(out[j])
	})
	return out
}
