package evolution

import (
	"fmt"

	"worldweave/internal/rules"
)

// Rule fires its action for entities whose metric satisfies Condition.
// Pairwise rules (BetweenMatching) connect matching entities to each other
// instead.
type Rule struct {
	Condition         rules.Condition `yaml:"condition"`
	Probability       *float64        `yaml:"probability"`
	Action            rules.Mutation  `yaml:"action"`
	BetweenMatching   bool            `yaml:"between_matching"`
	FormationCooldown int             `yaml:"formation_cooldown"`
}

// Chance is the probability that gates each firing. A rule without one
// always fires.
func (r Rule) Chance() float64 {
	if r.Probability == nil {
		return 1
	}
	return *r.Probability
}

type ComponentLimit struct {
	Kinds []string `yaml:"kinds"`
	Max   int      `yaml:"max"`
}

type Config struct {
	ID                       string             `yaml:"id"`
	Selection                rules.Selection    `yaml:"selection"`
	Metric                   rules.Metric       `yaml:"metric"`
	Rules                    []Rule             `yaml:"rules"`
	SubtypeBonuses           map[string]float64 `yaml:"subtype_bonuses"`
	PairExcludeRelationships []string           `yaml:"pair_exclude_relationships"`
	PairComponentSizeLimit   *ComponentLimit    `yaml:"pair_component_size_limit"`
	// ThrottleChance is the probability the system runs at all on a tick.
	// Absent means always.
	ThrottleChance *float64 `yaml:"throttle_chance"`
}

func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Metric.Type == "" {
		return fmt.Errorf("metric type is required")
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	for i, rule := range c.Rules {
		if p := rule.Probability; p != nil && (*p < 0 || *p > 1) {
			return fmt.Errorf("rule %d: probability must be within [0, 1], got %v", i, *p)
		}
		if rule.Action.Type == "" {
			return fmt.Errorf("rule %d: action type is required", i)
		}
		if rule.BetweenMatching {
			if rule.Action.Type != rules.MutationCreateRelationship {
				return fmt.Errorf("rule %d: pairwise rules must create relationships, got %s", i, rule.Action.Type)
			}
			if rule.Action.Kind == "" {
				return fmt.Errorf("rule %d: relationship kind is required", i)
			}
		}
	}
	if c.ThrottleChance != nil && (*c.ThrottleChance < 0 || *c.ThrottleChance > 1) {
		return fmt.Errorf("throttle_chance must be within [0, 1], got %v", *c.ThrottleChance)
	}
	if limit := c.PairComponentSizeLimit; limit != nil && limit.Max < 2 {
		return fmt.Errorf("pair_component_size_limit.max must be at least 2, got %d", limit.Max)
	}
	return nil
}
