package selection

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

// testWorld builds a small village:
//
//	ada (hero, recognized, aurora)   -member_of-> guild
//	bram (merchant, marginal, aurora) -member_of-> guild, -rival_of-> ada
//	cole (merchant, forgotten, ember) -member_of-> harbor
//	dara (hero, dead, mythic, ember)
func testWorld(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	entities := []graph.Entity{
		{ID: "ada", Kind: "npc", Subtype: "hero", Status: "alive", Prominence: graph.Recognized, Culture: "aurora", Tags: map[string]any{"brave": true, "banner": "red"}},
		{ID: "bram", Kind: "npc", Subtype: "merchant", Status: "alive", Prominence: graph.Marginal, Culture: "aurora", Tags: map[string]any{"greedy": true}},
		{ID: "cole", Kind: "npc", Subtype: "merchant", Status: "alive", Prominence: graph.Forgotten, Culture: "ember", Tags: map[string]any{"brave": true, "greedy": true}},
		{ID: "dara", Kind: "npc", Subtype: "hero", Status: "dead", Prominence: graph.Mythic, Culture: "ember"},
		{ID: "guild", Kind: "faction", Status: "active"},
		{ID: "harbor", Kind: "faction", Status: "active"},
	}
	for _, e := range entities {
		if _, err := s.AddEntity(e); err != nil {
			t.Fatalf("adding %s: %v", e.ID, err)
		}
	}
	for _, rel := range []graph.Relationship{
		{Kind: "member_of", Src: "ada", Dst: "guild"},
		{Kind: "member_of", Src: "bram", Dst: "guild"},
		{Kind: "member_of", Src: "cole", Dst: "harbor"},
		{Kind: "rival_of", Src: "bram", Dst: "ada"},
	} {
		if _, err := s.AddRelationship(rel); err != nil {
			t.Fatalf("relating: %v", err)
		}
	}
	return s
}

func ids(entities []*graph.Entity) []string {
	out := []string{}
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}

func TestEvaluateFilters(t *testing.T) {
	s := testWorld(t)
	actor := ActionResolver{Store: s, Bindings: Bindings{rules.RefActor: "ada"}}

	tests := []struct {
		name string
		sel  rules.Selection
		want []string
	}{
		{
			name: "kind only keeps store order",
			sel:  rules.Selection{Kind: "npc"},
			want: []string{"ada", "bram", "cole", "dara"},
		},
		{
			name: "subtype and status",
			sel:  rules.Selection{Kind: "npc", Subtypes: []string{"hero"}, Status: "alive"},
			want: []string{"ada"},
		},
		{
			name: "not status",
			sel:  rules.Selection{Kind: "npc", NotStatus: []string{"dead"}},
			want: []string{"ada", "bram", "cole"},
		},
		{
			name: "exclude actor",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterExclude, Entities: []string{"$actor", "cole"}}}},
			want: []string{"bram", "dara"},
		},
		{
			name: "has relationship with counterpart and direction",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasRelationship, Kind: "rival_of", With: "$actor", Direction: rules.DirectionSrc}}},
			want: []string{"bram"},
		},
		{
			name: "has relationship wrong direction",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasRelationship, Kind: "rival_of", With: "$actor", Direction: rules.DirectionDst}}},
			want: []string{},
		},
		{
			name: "lacks relationship",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterLacksRelationship, Kind: "member_of"}}},
			want: []string{"dara"},
		},
		{
			name: "has tag with value",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasTag, Tag: "banner", Value: "red"}}},
			want: []string{"ada"},
		},
		{
			name: "has tags requires all",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasTags, Tags: []string{"brave", "greedy"}}}},
			want: []string{"cole"},
		},
		{
			name: "has any tag",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasAnyTag, Tags: []string{"brave", "greedy"}}}},
			want: []string{"ada", "bram", "cole"},
		},
		{
			name: "lacks tag",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterLacksTag, Tag: "brave"}}},
			want: []string{"bram", "dara"},
		},
		{
			name: "lacks any tag",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterLacksAnyTag, Tags: []string{"brave", "greedy"}}}},
			want: []string{"dara"},
		},
		{
			name: "has culture",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasCulture, Culture: "ember"}}},
			want: []string{"cole", "dara"},
		},
		{
			name: "matches actor culture",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterMatchesCulture, With: "$actor"}}},
			want: []string{"ada", "bram"},
		},
		{
			name: "has prominence",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasProminence, MinProminence: "recognized"}}},
			want: []string{"ada", "dara"},
		},
		{
			name: "unknown prominence passes through",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasProminence, MinProminence: "legendary"}}},
			want: []string{"ada", "bram", "cole", "dara"},
		},
		{
			name: "shares related",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterSharesRelated, Kind: "member_of", With: "$actor"}}},
			want: []string{"ada", "bram"},
		},
		{
			name: "shares related with empty reference set excludes all",
			sel:  rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterSharesRelated, Kind: "member_of", With: "dara"}}},
			want: []string{},
		},
		{
			name: "not self",
			sel:  rules.Selection{Kind: "npc", Status: "alive", Filters: []rules.Filter{{Type: rules.FilterNotSelf}}},
			want: []string{"bram", "cole"},
		},
		{
			name: "unknown filter passes through",
			sel:  rules.Selection{Kind: "faction", Filters: []rules.Filter{{Type: "has_aura"}}},
			want: []string{"guild", "harbor"},
		},
		{
			name: "chain is conjunctive",
			sel: rules.Selection{Kind: "npc", Filters: []rules.Filter{
				{Type: rules.FilterHasAnyTag, Tags: []string{"greedy"}},
				{Type: rules.FilterHasCulture, Culture: "aurora"},
			}},
			want: []string{"bram"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Evaluate(s, tc.sel, actor, nil))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGraphPath(t *testing.T) {
	s := testWorld(t)
	actor := ActionResolver{Store: s, Bindings: Bindings{rules.RefActor: "ada"}}

	guildmates := rules.PathAssertion{
		Check: rules.PathExists,
		Steps: []rules.PathStep{
			{Via: "member_of", Direction: rules.DirectionSrc, TargetKind: "faction"},
			{Via: "member_of", Direction: rules.DirectionDst, TargetKind: "npc"},
		},
		Where: []rules.PathBinding{{Type: rules.PathNotSelf}},
	}

	tests := []struct {
		name      string
		assertion rules.PathAssertion
		want      []string
	}{
		{"exists", guildmates, []string{"ada", "bram"}},
		{"not exists", withCheck(guildmates, rules.PathNotExists, 0), []string{"cole", "dara"}},
		{"count min", withCheck(guildmates, rules.PathCountMin, 2), []string{}},
		{"count max", withCheck(guildmates, rules.PathCountMax, 0), []string{"cole", "dara"}},
		{"ends on actor", func() rules.PathAssertion {
			a := guildmates
			a.Where = []rules.PathBinding{{Type: rules.PathNotSelf}, {Type: rules.PathIs, Entity: "$actor"}}
			return a
		}(), []string{"bram"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertion := tc.assertion
			sel := rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterGraphPath, Path: &assertion}}}
			got := ids(Evaluate(s, sel, actor, nil))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func withCheck(a rules.PathAssertion, check rules.PathCheck, count int) rules.PathAssertion {
	a.Check = check
	a.Count = count
	return a
}

func TestPickStrategies(t *testing.T) {
	s := testWorld(t)

	t.Run("all truncates to max results", func(t *testing.T) {
		got := ids(Evaluate(s, rules.Selection{Kind: "npc", MaxResults: 2}, LiteralResolver{Store: s}, nil))
		if diff := cmp.Diff([]string{"ada", "bram"}, got); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("random is reproducible per seed", func(t *testing.T) {
		sel := rules.Selection{Kind: "npc", Pick: rules.PickRandom, MaxResults: 3}
		first := ids(Evaluate(s, sel, LiteralResolver{Store: s}, rand.New(rand.NewPCG(7, 7))))
		second := ids(Evaluate(s, sel, LiteralResolver{Store: s}, rand.New(rand.NewPCG(7, 7))))
		if len(first) != 3 {
			t.Fatalf("expected 3 picks, got %d", len(first))
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("expected same picks for same seed (-first +second):\n%s", diff)
		}
	})

	t.Run("random defaults to one pick", func(t *testing.T) {
		got := Evaluate(s, rules.Selection{Kind: "npc", Pick: rules.PickRandom}, LiteralResolver{Store: s}, rand.New(rand.NewPCG(1, 2)))
		if len(got) != 1 {
			t.Fatalf("expected 1 pick, got %d", len(got))
		}
	})

	t.Run("top n by metric keeps store order on ties", func(t *testing.T) {
		sel := rules.Selection{
			Kind:       "npc",
			Pick:       rules.PickTopN,
			PickMetric: &rules.Metric{Type: rules.MetricConnectionCount},
			MaxResults: 2,
		}
		got := ids(Evaluate(s, sel, LiteralResolver{Store: s}, nil))
		if diff := cmp.Diff([]string{"ada", "bram"}, got); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestResolvers(t *testing.T) {
	s := testWorld(t)

	t.Run("literal resolver ignores variables", func(t *testing.T) {
		r := LiteralResolver{Store: s}
		if _, ok := r.Resolve("$actor"); ok {
			t.Fatalf("expected variable to be unresolved")
		}
		if e, ok := r.Resolve("guild"); !ok || e.ID != "guild" {
			t.Fatalf("expected literal id to resolve")
		}
	})

	t.Run("resolved actor prefers instigator", func(t *testing.T) {
		r := ActionResolver{Store: s, Bindings: Bindings{rules.RefActor: "guild", rules.RefInstigator: "bram"}}
		if e, ok := r.Resolve(rules.RefResolvedActor); !ok || e.ID != "bram" {
			t.Fatalf("expected bram, got %v", e)
		}
		r = ActionResolver{Store: s, Bindings: Bindings{rules.RefActor: "guild"}}
		if e, ok := r.Resolve(rules.RefResolvedActor); !ok || e.ID != "guild" {
			t.Fatalf("expected guild, got %v", e)
		}
	})

	t.Run("has relationship with unresolved counterpart yields nothing", func(t *testing.T) {
		sel := rules.Selection{Kind: "npc", Filters: []rules.Filter{{Type: rules.FilterHasRelationship, Kind: "rival_of", With: "$actor"}}}
		if got := Evaluate(s, sel, LiteralResolver{Store: s}, nil); len(got) != 0 {
			t.Fatalf("expected no entities, got %v", ids(got))
		}
	})
}
