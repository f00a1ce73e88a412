package metric

import (
	"fmt"
	"testing"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

func newStore(t *testing.T) *graph.Store {
	t.Helper()
	return graph.NewStore()
}

func add(t *testing.T, s *graph.Store, e graph.Entity) *graph.Entity {
	t.Helper()
	id, err := s.AddEntity(e)
	if err != nil {
		t.Fatalf("adding entity: %v", err)
	}
	out, _ := s.Entity(id)
	return out
}

func relate(t *testing.T, s *graph.Store, kind, src, dst string, strength *float64) {
	t.Helper()
	if _, err := s.AddRelationship(graph.Relationship{Kind: kind, Src: src, Dst: dst, Strength: strength}); err != nil {
		t.Fatalf("relating: %v", err)
	}
}

func TestConnectionCount(t *testing.T) {
	s := newStore(t)
	hero := add(t, s, graph.Entity{ID: "hero", Kind: "npc"})
	for i := 0; i < 3; i++ {
		add(t, s, graph.Entity{ID: fmt.Sprintf("friend%d", i), Kind: "npc"})
	}
	relate(t, s, "ally_of", "hero", "friend0", graph.Float(0.9))
	relate(t, s, "ally_of", "friend1", "hero", nil)
	relate(t, s, "rival_of", "hero", "friend2", graph.Float(0.1))

	tests := []struct {
		name   string
		metric rules.Metric
		want   float64
	}{
		{"all kinds", rules.Metric{Type: rules.MetricConnectionCount}, 3},
		{"kind filter", rules.Metric{Type: rules.MetricConnectionCount, Kinds: []string{"ally_of"}}, 2},
		{"outgoing only", rules.Metric{Type: rules.MetricConnectionCount, Direction: rules.DirectionSrc}, 2},
		{"incoming only", rules.Metric{Type: rules.MetricConnectionCount, Direction: rules.DirectionDst}, 1},
		{"default strength meets 0.5", rules.Metric{Type: rules.MetricConnectionCount, MinStrength: 0.5}, 2},
		{"min strength above default", rules.Metric{Type: rules.MetricConnectionCount, MinStrength: 0.51}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(s, tc.metric, hero)
			if got.Value != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got.Value)
			}
		})
	}
}

func TestSharedRelationship(t *testing.T) {
	s := newStore(t)
	for _, id := range []string{"a", "b", "c", "villain", "tyrant"} {
		add(t, s, graph.Entity{ID: id, Kind: "npc"})
	}
	relate(t, s, "enemy_of", "a", "villain", nil)
	relate(t, s, "enemy_of", "b", "villain", nil)
	relate(t, s, "enemy_of", "a", "tyrant", nil)
	relate(t, s, "enemy_of", "c", "tyrant", graph.Float(0.1))
	relate(t, s, "enemy_of", "villain", "c", nil)

	a, _ := s.Entity("a")
	m := rules.Metric{Type: rules.MetricSharedRelationship, Kind: "enemy_of", Direction: rules.DirectionSrc}
	if got := Evaluate(s, m, a).Value; got != 2 {
		t.Fatalf("expected b and c as common-enemy peers, got %v", got)
	}

	m.MinStrength = 0.3
	if got := Evaluate(s, m, a).Value; got != 1 {
		t.Fatalf("expected weak edge to c to be ignored, got %v", got)
	}
}

func TestCatalyzedEventsAndUnknown(t *testing.T) {
	s := newStore(t)
	e := add(t, s, graph.Entity{ID: "a", Kind: "npc"})
	_ = s.RecordCatalyst("a", graph.CatalyzedEvent{Source: "raid"})
	_ = s.RecordCatalyst("a", graph.CatalyzedEvent{Source: "feast"})
	if got := Evaluate(s, rules.Metric{Type: rules.MetricCatalyzedEvents}, e).Value; got != 2 {
		t.Fatalf("expected 2 events, got %v", got)
	}
	unknown := Evaluate(s, rules.Metric{Type: "gravity"}, e)
	if unknown.Value != 0 || unknown.Details["unknown_metric"] != "gravity" {
		t.Fatalf("expected zero with diagnostic, got %+v", unknown)
	}
}

func TestProminenceScaledThreshold(t *testing.T) {
	s := newStore(t)
	levels := []graph.Prominence{graph.Forgotten, graph.Marginal, graph.Recognized}
	var subjects []*graph.Entity
	for i, level := range levels {
		subject := add(t, s, graph.Entity{ID: fmt.Sprintf("subject%d", i), Kind: "npc", Prominence: level})
		for j := 0; j < 6; j++ {
			peer := add(t, s, graph.Entity{ID: fmt.Sprintf("peer%d_%d", i, j), Kind: "npc"})
			relate(t, s, "ally_of", subject.ID, peer.ID, nil)
		}
		subjects = append(subjects, subject)
	}

	condition := rules.Condition{
		Metric:    &rules.Metric{Type: rules.MetricConnectionCount, Kind: "ally_of"},
		Operator:  rules.OpGreaterEqual,
		Threshold: rules.ProminenceScaled(6),
	}
	wantThresholds := []float64{6, 12, 18}
	wantHolds := []bool{true, false, false}
	for i, subject := range subjects {
		outcome := EvaluateCondition(s, condition, subject)
		if outcome.Threshold != wantThresholds[i] {
			t.Fatalf("%s: expected threshold %v, got %v", levels[i], wantThresholds[i], outcome.Threshold)
		}
		if outcome.Holds != wantHolds[i] {
			t.Fatalf("%s: expected holds=%v, got %v", levels[i], wantHolds[i], outcome.Holds)
		}
	}

	if got := Threshold(rules.Threshold{Type: rules.ThresholdProminenceScaled}, subjects[1]); got != 12 {
		t.Fatalf("expected default multiplier 6, got threshold %v", got)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op        rules.Operator
		value     float64
		threshold float64
		want      bool
	}{
		{rules.OpEqual, 3, 3, true},
		{rules.OpNotEqual, 3, 3, false},
		{rules.OpLess, 2, 3, true},
		{rules.OpLessEqual, 3, 3, true},
		{rules.OpGreater, 3, 3, false},
		{rules.OpGreaterEqual, 3, 3, true},
		{rules.Operator("approx"), 0, 100, true},
	}
	for _, tc := range tests {
		if got := Compare(tc.op, tc.value, tc.threshold); got != tc.want {
			t.Fatalf("%s(%v, %v): expected %v, got %v", tc.op, tc.value, tc.threshold, tc.want, got)
		}
	}
}

func TestConditionWithoutMetricHolds(t *testing.T) {
	if !EvaluateCondition(nil, rules.Condition{Operator: rules.OpGreater, Threshold: rules.Literal(5)}, &graph.Entity{}).Holds {
		t.Fatalf("expected condition without metric to hold")
	}
}
