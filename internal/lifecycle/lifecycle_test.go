package lifecycle

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"worldweave/internal/graph"
)

type testPolicy struct {
	rates      map[string]DecayRate
	uncullable map[string]bool
	protected  map[string]bool
	immutable  map[string]bool
}

func (p testPolicy) DecayRate(kind string) DecayRate { return p.rates[kind] }
func (p testPolicy) Cullable(kind string) bool       { return !p.uncullable[kind] }
func (p testPolicy) Protected(kind string) bool      { return p.protected[kind] }
func (p testPolicy) Immutable(kind string) bool      { return p.immutable[kind] }

func newStore(t *testing.T, ids ...string) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	for _, id := range ids {
		if _, err := s.AddEntity(graph.Entity{ID: id, Kind: "npc"}); err != nil {
			t.Fatalf("adding %s: %v", id, err)
		}
	}
	return s
}

func relate(t *testing.T, s *graph.Store, kind, src, dst string, strength *float64) {
	t.Helper()
	if _, err := s.AddRelationship(graph.Relationship{Kind: kind, Src: src, Dst: dst, Strength: strength}); err != nil {
		t.Fatalf("relating %s->%s: %v", src, dst, err)
	}
}

func newManager(t *testing.T, cfg Config, policy KindPolicy) *Manager {
	t.Helper()
	m, err := New(cfg, policy)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCullScenario(t *testing.T) {
	s := newStore(t, "A", "B", "C", "D")
	relate(t, s, "knows", "A", "B", graph.Float(0.8))
	relate(t, s, "knows", "A", "C", graph.Float(0.1))
	relate(t, s, "knows", "B", "C", graph.Float(0.3))
	relate(t, s, "knows", "C", "D", graph.Float(0.05))
	s.SetTick(50)

	m := newManager(t, Config{MaintenanceFrequency: 10, CullThreshold: 0.15}, testPolicy{})
	result, err := m.Apply(s, nil, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	var remaining []string
	for _, rel := range s.Relationships() {
		remaining = append(remaining, rel.Src+"-"+rel.Dst)
	}
	if diff := cmp.Diff([]string{"A-B", "B-C"}, remaining); diff != "" {
		t.Fatalf("remaining relationships mismatch (-want +got):\n%s", diff)
	}
	if len(result.RelationshipsRemoved) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(result.RelationshipsRemoved))
	}
	if err := s.CheckLinks(); err != nil {
		t.Fatalf("expected consistent mirrors, got %v", err)
	}
	if links := s.RelationshipsOf("D", ""); len(links) != 0 {
		t.Fatalf("expected D to have no links, got %+v", links)
	}
	if links := s.RelationshipsOf("C", ""); len(links) != 1 || links[0].Src != "B" {
		t.Fatalf("expected C to keep only B-C, got %+v", links)
	}
	if !strings.Contains(result.Description, "2 relationships removed") {
		t.Fatalf("expected counts in description, got %q", result.Description)
	}
}

func TestDormantSweepIsIdempotent(t *testing.T) {
	s := newStore(t, "a", "b")
	relate(t, s, "knows", "a", "b", graph.Float(0.01))
	s.SetTick(7)
	before := s.Relationships()

	m := newManager(t, Config{MaintenanceFrequency: 5, CullThreshold: 0.5}, testPolicy{rates: map[string]DecayRate{"knows": DecayFast}})
	result, err := m.Apply(s, nil, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(result.Description, "dormant") {
		t.Fatalf("expected dormant description, got %q", result.Description)
	}
	if result.Modified() {
		t.Fatalf("expected no changes, got %+v", result)
	}
	if diff := cmp.Diff(before, s.Relationships()); diff != "" {
		t.Fatalf("relationships changed (-before +after):\n%s", diff)
	}
}

func TestGracePeriod(t *testing.T) {
	s := graph.NewStore()
	s.SetTick(48)
	for _, id := range []string{"a", "b"} {
		if _, err := s.AddEntity(graph.Entity{ID: id, Kind: "npc"}); err != nil {
			t.Fatalf("adding %s: %v", id, err)
		}
	}
	relate(t, s, "knows", "a", "b", graph.Float(0.01))
	s.SetTick(50)

	m := newManager(t, Config{MaintenanceFrequency: 5, GracePeriod: 5, CullThreshold: 0.5}, testPolicy{rates: map[string]DecayRate{"knows": DecayFast}})
	if _, err := m.Apply(s, nil, 1); err != nil {
		t.Fatalf("apply: %v", err)
	}
	rel, ok := s.Relationship("knows", "a", "b")
	if !ok {
		t.Fatalf("expected young relationship to survive")
	}
	if rel.StrengthValue() != 0.01 {
		t.Fatalf("expected strength unchanged, got %v", rel.StrengthValue())
	}
}

func TestProtectedKindsAreNeverCulled(t *testing.T) {
	for _, strength := range []float64{0.1, 0, -0.5} {
		s := newStore(t, "a", "b")
		relate(t, s, "sworn_to", "a", "b", graph.Float(strength))
		relate(t, s, "born_in", "a", "b", graph.Float(strength))
		s.SetTick(10)

		policy := testPolicy{
			rates:     map[string]DecayRate{"sworn_to": DecayFast, "born_in": DecayFast},
			protected: map[string]bool{"sworn_to": true},
			immutable: map[string]bool{"born_in": true},
		}
		m := newManager(t, Config{MaintenanceFrequency: 5, CullThreshold: 0.5}, policy)
		result, err := m.Apply(s, nil, 1)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if s.RelationshipCount() != 2 {
			t.Fatalf("strength %v: expected both relationships kept, got %d", strength, s.RelationshipCount())
		}
		if len(result.Violations) != 2 {
			t.Fatalf("strength %v: expected 2 violations, got %+v", strength, result.Violations)
		}
		if !strings.Contains(result.Description, "above threshold") {
			t.Fatalf("expected no-cull description, got %q", result.Description)
		}
		immutable, _ := s.Relationship("born_in", "a", "b")
		if immutable.StrengthValue() != strength {
			t.Fatalf("expected immutable strength untouched, got %v", immutable.StrengthValue())
		}
	}
}

func TestDefaultStrengthMatchesHalf(t *testing.T) {
	for _, tt := range []struct {
		threshold float64
		kept      int
	}{
		{threshold: 0.5, kept: 2},
		{threshold: 0.51, kept: 0},
	} {
		s := newStore(t, "a", "b")
		relate(t, s, "knows", "a", "b", nil)
		relate(t, s, "trusts", "a", "b", graph.Float(0.5))
		s.SetTick(5)

		m := newManager(t, Config{MaintenanceFrequency: 5, CullThreshold: tt.threshold}, testPolicy{})
		if _, err := m.Apply(s, nil, 1); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if s.RelationshipCount() != tt.kept {
			t.Fatalf("threshold %v: expected %d kept, got %d", tt.threshold, tt.kept, s.RelationshipCount())
		}
	}
}

func TestDecayAndReinforcement(t *testing.T) {
	s := newStore(t, "a", "b", "c", "guild")
	relate(t, s, "member_of", "a", "guild", graph.Float(1))
	relate(t, s, "member_of", "b", "guild", graph.Float(1))
	relate(t, s, "friend_of", "a", "b", graph.Float(0.8))
	relate(t, s, "friend_of", "a", "c", graph.Float(0.8))
	s.SetTick(5)

	policy := testPolicy{rates: map[string]DecayRate{"friend_of": DecayMedium}}
	m := newManager(t, Config{MaintenanceFrequency: 5, ReinforcementBonus: 0.1, MaxStrength: 0.82}, policy)
	result, err := m.Apply(s, nil, 2)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	near, _ := s.Relationship("friend_of", "a", "b")
	if math.Abs(near.StrengthValue()-0.82) > 1e-9 {
		t.Fatalf("expected reinforcement clamped to 0.82, got %v", near.StrengthValue())
	}
	far, _ := s.Relationship("friend_of", "a", "c")
	if math.Abs(far.StrengthValue()-0.74) > 1e-9 {
		t.Fatalf("expected decay scaled by modifier to 0.74, got %v", far.StrengthValue())
	}
	if len(result.RelationshipsAdjusted) != 2 {
		t.Fatalf("expected 2 adjustments, got %+v", result.RelationshipsAdjusted)
	}
	if err := s.CheckLinks(); err != nil {
		t.Fatalf("expected consistent mirrors, got %v", err)
	}
}

func TestMissingEndpointAlwaysRemoved(t *testing.T) {
	s := newStore(t, "a", "b")
	relate(t, s, "sworn_to", "a", "b", graph.Float(1))
	s.RemoveEntity("b")
	s.SetTick(5)

	m := newManager(t, Config{MaintenanceFrequency: 5}, testPolicy{protected: map[string]bool{"sworn_to": true}})
	result, err := m.Apply(s, nil, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.RelationshipCount() != 0 || len(result.RelationshipsRemoved) != 1 {
		t.Fatalf("expected dangling relationship removed, got %d", s.RelationshipCount())
	}
	if links := s.RelationshipsOf("a", ""); len(links) != 0 {
		t.Fatalf("expected a's mirror cleared, got %+v", links)
	}
}
