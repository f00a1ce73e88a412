package evolution

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

func newStore(t *testing.T, entities ...graph.Entity) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	for _, e := range entities {
		_, err := s.AddEntity(e)
		require.NoError(t, err)
	}
	return s
}

func npcs(ids ...string) []graph.Entity {
	out := make([]graph.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, graph.Entity{ID: id, Kind: "npc", Status: "alive"})
	}
	return out
}

func always() rules.Condition {
	return rules.Condition{Operator: rules.OpGreaterEqual, Threshold: rules.Literal(0)}
}

func alliance(limit int) Config {
	return Config{
		ID:        "alliances",
		Selection: rules.Selection{Kind: "npc"},
		Metric:    rules.Metric{Type: rules.MetricConnectionCount, Kinds: []string{"allied_with"}},
		Rules: []Rule{{
			Condition:       always(),
			Probability:     graph.Float(1),
			BetweenMatching: true,
			Action:          rules.Mutation{Type: rules.MutationCreateRelationship, Kind: "allied_with", Src: rules.RefMember, Dst: rules.RefMember2},
		}},
		PairComponentSizeLimit: &ComponentLimit{Kinds: []string{"allied_with"}, Max: limit},
	}
}

func largestComponent(s *graph.Store, kind string) int {
	adj := make(map[string][]string)
	for _, rel := range s.Relationships() {
		if rel.Kind == kind {
			adj[rel.Src] = append(adj[rel.Src], rel.Dst)
			adj[rel.Dst] = append(adj[rel.Dst], rel.Src)
		}
	}
	seen := make(map[string]bool)
	largest := 0
	for start := range adj {
		if seen[start] {
			continue
		}
		size := 0
		stack := []string{start}
		seen[start] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			for _, next := range adj[id] {
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
		largest = max(largest, size)
	}
	return largest
}

func TestComponentSizeLimit(t *testing.T) {
	s := newStore(t, npcs("a", "b", "c", "d", "e")...)
	sys, err := New(alliance(3))
	require.NoError(t, err)

	result, err := sys.Apply(s, rand.New(rand.NewPCG(1, 1)), 1)
	require.NoError(t, err)

	assert.Len(t, result.RelationshipsAdded, 4)
	assert.LessOrEqual(t, largestComponent(s, "allied_with"), 3)
	assert.True(t, s.Connected("allied_with", "d", "e"))
	require.NoError(t, s.CheckLinks())
}

func TestComponentLimitIgnoresOtherKinds(t *testing.T) {
	s := newStore(t, npcs("a", "b", "c", "d")...)
	cfg := alliance(2)
	cfg.PairComponentSizeLimit.Kinds = []string{"trades_with"}

	sys, err := New(cfg)
	require.NoError(t, err)
	result, err := sys.Apply(s, rand.New(rand.NewPCG(1, 1)), 1)
	require.NoError(t, err)
	assert.Len(t, result.RelationshipsAdded, 6)
}

func TestPairExclusion(t *testing.T) {
	s := newStore(t, npcs("a", "b", "c")...)
	_, err := s.AddRelationship(graph.Relationship{Kind: "rival_of", Src: "b", Dst: "a"})
	require.NoError(t, err)

	cfg := alliance(10)
	cfg.PairExcludeRelationships = []string{"rival_of"}
	sys, err := New(cfg)
	require.NoError(t, err)

	_, err = sys.Apply(s, rand.New(rand.NewPCG(3, 4)), 1)
	require.NoError(t, err)
	assert.False(t, s.Connected("allied_with", "a", "b"))
	assert.True(t, s.Connected("allied_with", "a", "c"))
	assert.True(t, s.Connected("allied_with", "b", "c"))
}

func TestThrottleZeroNeverModifies(t *testing.T) {
	zero := 0.0
	for seed := uint64(0); seed < 20; seed++ {
		s := newStore(t, npcs("a", "b", "c")...)
		cfg := alliance(10)
		cfg.ThrottleChance = &zero
		sys, err := New(cfg)
		require.NoError(t, err)

		result, err := sys.Apply(s, rand.New(rand.NewPCG(seed, seed)), 1)
		require.NoError(t, err)
		assert.False(t, result.Modified())
		assert.Contains(t, result.Description, "throttled")
		assert.Zero(t, s.RelationshipCount())
	}
}

func TestProminenceScaledRule(t *testing.T) {
	s := newStore(t,
		graph.Entity{ID: "low", Kind: "npc", Prominence: graph.Forgotten},
		graph.Entity{ID: "mid", Kind: "npc", Prominence: graph.Marginal},
		graph.Entity{ID: "high", Kind: "npc", Prominence: graph.Recognized},
	)
	for _, id := range []string{"low", "mid", "high"} {
		for i := 0; i < 6; i++ {
			place := fmt.Sprintf("%s_place%d", id, i)
			_, err := s.AddEntity(graph.Entity{ID: place, Kind: "location"})
			require.NoError(t, err)
			_, err = s.AddRelationship(graph.Relationship{Kind: "visits", Src: id, Dst: place})
			require.NoError(t, err)
		}
	}

	sys, err := New(Config{
		ID:        "fame",
		Selection: rules.Selection{Kind: "npc"},
		Metric:    rules.Metric{Type: rules.MetricConnectionCount, Kind: "visits"},
		Rules: []Rule{{
			Condition:   rules.Condition{Operator: rules.OpGreaterEqual, Threshold: rules.ProminenceScaled(6)},
			Probability: graph.Float(1),
			Action:      rules.Mutation{Type: rules.MutationAdjustProminence, Entity: rules.RefSelf, Direction: "up"},
		}},
	})
	require.NoError(t, err)

	_, err = sys.Apply(s, rand.New(rand.NewPCG(9, 9)), 1)
	require.NoError(t, err)

	got := map[string]graph.Prominence{}
	for _, id := range []string{"low", "mid", "high"} {
		e, _ := s.Entity(id)
		got[id] = e.Prominence
	}
	assert.Equal(t, map[string]graph.Prominence{
		"low":  graph.Marginal,
		"mid":  graph.Marginal,
		"high": graph.Recognized,
	}, got)
}

func TestPerEntityAtomicity(t *testing.T) {
	s := newStore(t, append(npcs("a", "b"), graph.Entity{ID: "hub", Kind: "location"})...)
	_, err := s.AddRelationship(graph.Relationship{Kind: "knows", Src: "a", Dst: "hub", Strength: graph.Float(0.5)})
	require.NoError(t, err)

	sys, err := New(Config{
		ID:        "familiarity",
		Selection: rules.Selection{Kind: "npc"},
		Metric:    rules.Metric{Type: rules.MetricConnectionCount},
		Rules: []Rule{
			{Condition: always(), Probability: graph.Float(1), Action: rules.Mutation{Type: rules.MutationSetTag, Entity: rules.RefSelf, Tag: "seen"}},
			{Condition: always(), Probability: graph.Float(0.5), Action: rules.Mutation{Type: rules.MutationAdjustStrength, Kind: "knows", Src: rules.RefSelf, Dst: "hub", Delta: 0.1}},
		},
	})
	require.NoError(t, err)

	// probability 0.5 scaled by modifier 2 always fires
	result, err := sys.Apply(s, rand.New(rand.NewPCG(5, 6)), 2)
	require.NoError(t, err)

	a, _ := s.Entity("a")
	b, _ := s.Entity("b")
	assert.True(t, a.HasTag("seen"))
	assert.False(t, b.HasTag("seen"), "failed entity keeps none of its mutations")
	rel, _ := s.Relationship("knows", "a", "hub")
	assert.InDelta(t, 0.6, rel.StrengthValue(), 1e-9)
	assert.Contains(t, result.Description, "1 entities failed")
}

func TestSubtypeBonus(t *testing.T) {
	s := newStore(t,
		graph.Entity{ID: "sage", Kind: "npc", Subtype: "scholar"},
		graph.Entity{ID: "smith", Kind: "npc", Subtype: "artisan"},
	)
	sys, err := New(Config{
		ID:             "renown",
		Selection:      rules.Selection{Kind: "npc"},
		Metric:         rules.Metric{Type: rules.MetricConnectionCount},
		SubtypeBonuses: map[string]float64{"scholar": 2},
		Rules: []Rule{{
			Condition:   rules.Condition{Operator: rules.OpGreaterEqual, Threshold: rules.Literal(2)},
			Probability: graph.Float(1),
			Action:      rules.Mutation{Type: rules.MutationAddTag, Entity: rules.RefSelf, Tag: "notable"},
		}},
	})
	require.NoError(t, err)

	_, err = sys.Apply(s, rand.New(rand.NewPCG(1, 2)), 1)
	require.NoError(t, err)
	sage, _ := s.Entity("sage")
	smith, _ := s.Entity("smith")
	assert.True(t, sage.HasTag("notable"))
	assert.False(t, smith.HasTag("notable"))
}

func TestRuleWithoutProbabilityAlwaysFires(t *testing.T) {
	s := newStore(t, npcs("a", "b", "c")...)
	sys, err := New(Config{
		ID:        "notice",
		Selection: rules.Selection{Kind: "npc"},
		Metric:    rules.Metric{Type: rules.MetricConnectionCount},
		Rules: []Rule{{
			Condition: always(),
			Action:    rules.Mutation{Type: rules.MutationAddTag, Entity: rules.RefSelf, Tag: "noticed"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, sys.Config().Rules[0].Chance())

	_, err = sys.Apply(s, rand.New(rand.NewPCG(3, 4)), 1)
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		e, _ := s.Entity(id)
		assert.True(t, e.HasTag("noticed"), "%s should be tagged", id)
	}

	zero := Rule{Probability: graph.Float(0)}
	assert.Equal(t, 0.0, zero.Chance(), "explicit zero is kept")
}

func TestValidate(t *testing.T) {
	cfg := alliance(3)
	cfg.Rules[0].Action.Type = rules.MutationSetTag
	_, err := New(cfg)
	require.Error(t, err)

	cfg = alliance(1)
	_, err = New(cfg)
	require.Error(t, err)

	cfg = alliance(3)
	cfg.Rules[0].Probability = graph.Float(1.5)
	_, err = New(cfg)
	require.ErrorContains(t, err, "probability")
}
