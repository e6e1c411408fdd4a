/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package requirementlogic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequirementLogic_IsSatisfiedBy(t *testing.T) {
	leaf := func(count, min, max int, ids ...string) *RequirementLogic {
		return &RequirementLogic{InputDescriptorIDs: ids, Count: count, Min: min, Max: max}
	}

	tests := []struct {
		name  string
		logic *RequirementLogic
		descs DescriptorIDSet
		want  bool
	}{
		{"all present", leaf(2, 0, 0, "a", "b"), NewDescriptorIDSet("a", "b"), true},
		{"all missing one", leaf(2, 0, 0, "a", "b"), NewDescriptorIDSet("a"), false},
		{"pick count exact", leaf(1, 0, 0, "a", "b"), NewDescriptorIDSet("b"), true},
		{"pick count too many", leaf(1, 0, 0, "a", "b"), NewDescriptorIDSet("a", "b"), false},
		{"pick min", leaf(0, 2, 0, "a", "b", "c"), NewDescriptorIDSet("a", "c"), true},
		{"pick min unmet", leaf(0, 2, 0, "a", "b", "c"), NewDescriptorIDSet("c"), false},
		{"pick max exceeded", leaf(0, 0, 1, "a", "b"), NewDescriptorIDSet("a", "b"), false},
		{"unrelated descriptors ignored", leaf(1, 0, 0, "a"), NewDescriptorIDSet("a", "z"), true},
		{
			name: "nested",
			logic: &RequirementLogic{
				Count:  1,
				Nested: []*RequirementLogic{leaf(2, 0, 0, "a", "b"), leaf(1, 0, 0, "c")},
			},
			descs: NewDescriptorIDSet("c"),
			want:  true,
		},
		{
			name: "nested none",
			logic: &RequirementLogic{
				Min:    1,
				Nested: []*RequirementLogic{leaf(2, 0, 0, "a", "b"), leaf(1, 0, 0, "c")},
			},
			descs: NewDescriptorIDSet("a"),
			want:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.logic.IsSatisfiedBy(tc.descs))
		})
	}
}

func TestRequirementLogic_GetAllDescriptors(t *testing.T) {
	logic := &RequirementLogic{
		Nested: []*RequirementLogic{
			{InputDescriptorIDs: []string{"a", "b"}},
			{Nested: []*RequirementLogic{{InputDescriptorIDs: []string{"b", "c"}}}},
		},
	}

	all := logic.GetAllDescriptors()
	require.Equal(t, 3, all.Len())
	require.Equal(t, []string{"a", "b", "c"}, all.Sorted())
	require.Equal(t, "{a,b,c}", all.String())
}
