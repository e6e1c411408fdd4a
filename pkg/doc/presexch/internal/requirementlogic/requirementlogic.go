/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package requirementlogic evaluates nested submission requirement rules over sets of input descriptor IDs.
package requirementlogic

import (
	"sort"
	"strings"
)

// RequirementLogic is a datatype for processing nested submission requirement logic.
type RequirementLogic struct {
	InputDescriptorIDs []string
	Nested             []*RequirementLogic
	Count              int
	Min                int
	Max                int
}

// IsSatisfiedBy returns whether the given requirement logic is satisfied by the given set of descriptors.
func (r *RequirementLogic) IsSatisfiedBy(descs DescriptorIDSet) bool {
	if len(r.Nested) == 0 {
		satisfied := 0

		for _, id := range r.InputDescriptorIDs {
			if descs.Has(id) {
				satisfied++
			}
		}

		return r.isLenApplicable(satisfied)
	}

	numChildrenSatisfied := 0

	for _, logic := range r.Nested {
		if logic.IsSatisfiedBy(descs) {
			numChildrenSatisfied++
		}
	}

	return r.isLenApplicable(numChildrenSatisfied)
}

// GetAllDescriptors returns the IDs of all InputDescriptors referenced in this RequirementLogic or its children.
func (r *RequirementLogic) GetAllDescriptors() DescriptorIDSet {
	if len(r.Nested) == 0 {
		return NewDescriptorIDSet(r.InputDescriptorIDs...)
	}

	childSets := make([]DescriptorIDSet, 0, len(r.Nested))

	for _, child := range r.Nested {
		childSets = append(childSets, child.GetAllDescriptors())
	}

	return MergeAll(childSets...)
}

func (r *RequirementLogic) isLenApplicable(val int) bool {
	if r.Count > 0 && val != r.Count {
		return false
	}

	if r.Min > 0 && r.Min > val {
		return false
	}

	if r.Max > 0 && r.Max < val {
		return false
	}

	return true
}

// DescriptorIDSet is a set of InputDescriptor IDs.
type DescriptorIDSet map[string]struct{}

// NewDescriptorIDSet creates a set holding ids.
func NewDescriptorIDSet(ids ...string) DescriptorIDSet {
	s := make(DescriptorIDSet, len(ids))

	for _, id := range ids {
		s.Add(id)
	}

	return s
}

// Add adds id to s.
func (s DescriptorIDSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in s.
func (s DescriptorIDSet) Has(id string) bool {
	_, ok := s[id]

	return ok
}

// Len returns the set size.
func (s DescriptorIDSet) Len() int {
	return len(s)
}

// Sorted returns the members of s in lexical order.
func (s DescriptorIDSet) Sorted() []string {
	out := make([]string, 0, len(s))

	for id := range s {
		out = append(out, id)
	}

	sort.Strings(out)

	return out
}

// String returns a stable representation of s.
func (s DescriptorIDSet) String() string {
	return "{" + strings.Join(s.Sorted(), ",") + "}"
}

// MergeAll returns the union of sets.
func MergeAll(sets ...DescriptorIDSet) DescriptorIDSet {
	out := DescriptorIDSet{}

	for _, set := range sets {
		for id := range set {
			out.Add(id)
		}
	}

	return out
}
