package system

import (
	"testing"

	"worldweave/internal/graph"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{name: "empty", want: "no changes"},
		{
			name: "counts",
			result: Result{
				Changes: graph.Changes{
					RelationshipsAdded: []graph.Relationship{{Kind: "ally_of"}, {Kind: "ally_of"}},
					EntitiesModified:   []graph.EntityModification{{ID: "a"}, {ID: "a"}},
				},
				RelationshipsRemoved: []graph.Relationship{{Kind: "rival_of"}},
			},
			want: "2 relationships added, 1 relationship removed, 1 entity modified",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Summary(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
