// Package lifecycle implements periodic relationship maintenance: decay,
// reinforcement between nearby entities and culling of weak relationships.
package lifecycle

import (
	"fmt"
	"math/rand/v2"

	"worldweave/internal/graph"
	"worldweave/internal/system"
)

type DecayRate string

const (
	DecayNone   DecayRate = "none"
	DecaySlow   DecayRate = "slow"
	DecayMedium DecayRate = "medium"
	DecayFast   DecayRate = "fast"
)

var decayAmounts = map[DecayRate]float64{
	DecayNone:   0,
	DecaySlow:   0.01,
	DecayMedium: 0.03,
	DecayFast:   0.06,
}

// Amount is the strength lost per maintenance cycle. Unknown rates do not
// decay.
func (d DecayRate) Amount() float64 {
	return decayAmounts[d]
}

func (d DecayRate) Valid() bool {
	_, ok := decayAmounts[d]
	return ok
}

// KindPolicy answers per-kind lifecycle questions from the domain registry.
type KindPolicy interface {
	DecayRate(kind string) DecayRate
	Cullable(kind string) bool
	Protected(kind string) bool
	Immutable(kind string) bool
}

type Config struct {
	ID                   string   `yaml:"id"`
	MaintenanceFrequency int      `yaml:"maintenance_frequency"`
	GracePeriod          int      `yaml:"grace_period"`
	CullThreshold        float64  `yaml:"cull_threshold"`
	ReinforcementBonus   float64  `yaml:"reinforcement_bonus"`
	MaxStrength          float64  `yaml:"max_strength"`
	ProximityKinds       []string `yaml:"proximity_kinds"`
}

const (
	DefaultMaintenanceFrequency = 5
	DefaultMaxStrength          = 1.0
)

var DefaultProximityKinds = []string{"located_at", "member_of"}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "relationship_maintenance"
	}
	if c.MaintenanceFrequency <= 0 {
		c.MaintenanceFrequency = DefaultMaintenanceFrequency
	}
	if c.MaxStrength <= 0 {
		c.MaxStrength = DefaultMaxStrength
	}
	if c.ProximityKinds == nil {
		c.ProximityKinds = DefaultProximityKinds
	}
}

func (c Config) Validate() error {
	if c.GracePeriod < 0 {
		return fmt.Errorf("grace_period must not be negative")
	}
	if c.CullThreshold < 0 {
		return fmt.Errorf("cull_threshold must not be negative")
	}
	if c.ReinforcementBonus < 0 {
		return fmt.Errorf("reinforcement_bonus must not be negative")
	}
	return nil
}

type Manager struct {
	cfg    Config
	policy KindPolicy
}

func New(cfg Config, policy KindPolicy) (*Manager, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("relationship maintenance %s: %w", cfg.ID, err)
	}
	return &Manager{cfg: cfg, policy: policy}, nil
}

func (m *Manager) ID() string { return m.cfg.ID }

func (m *Manager) Config() Config { return m.cfg }

// Apply runs one maintenance sweep. Off-cycle ticks leave the graph
// untouched and report dormant.
func (m *Manager) Apply(store *graph.Store, _ *rand.Rand, modifier float64) (system.Result, error) {
	tick := store.Tick()
	if tick%m.cfg.MaintenanceFrequency != 0 {
		next := tick + m.cfg.MaintenanceFrequency - tick%m.cfg.MaintenanceFrequency
		return system.Result{
			Description: fmt.Sprintf("relationship maintenance dormant until tick %d", next),
		}, nil
	}

	type update struct {
		rel      graph.Relationship
		strength float64
	}
	var (
		result  system.Result
		updates []update
	)
	remove := make(map[string]bool)

	for _, rel := range store.Relationships() {
		src, srcOK := store.Entity(rel.Src)
		dst, dstOK := store.Entity(rel.Dst)
		if !srcOK || !dstOK {
			remove[relationshipKey(rel)] = true
			continue
		}

		age := min(tick-src.CreatedAt, tick-dst.CreatedAt)
		if age < m.cfg.GracePeriod {
			continue
		}

		original := rel.StrengthValue()
		strength := original
		immutable := m.immutable(rel.Kind)
		if !immutable {
			if decay := m.decayRate(rel.Kind).Amount() * modifier; decay > 0 {
				strength = max(0, strength-decay)
			}
			if m.cfg.ReinforcementBonus > 0 && m.inProximity(src, dst) {
				strength = min(m.cfg.MaxStrength, strength+m.cfg.ReinforcementBonus)
			}
		}

		if strength < m.cfg.CullThreshold {
			switch {
			case immutable || m.protected(rel.Kind):
				result.Violations = append(result.Violations, system.Violation{
					Kind: rel.Kind, Src: rel.Src, Dst: rel.Dst, Strength: strength,
					Reason: "protected relationship below cull threshold",
				})
			case m.cullable(rel.Kind):
				remove[relationshipKey(rel)] = true
				continue
			}
		}
		if strength != original {
			updates = append(updates, update{rel: rel, strength: strength})
		}
	}

	for _, u := range updates {
		rel := u.rel
		if store.SetStrength(rel.Kind, rel.Src, rel.Dst, u.strength) {
			result.RelationshipsAdjusted = append(result.RelationshipsAdjusted, graph.RelationshipAdjustment{
				Kind: rel.Kind, Src: rel.Src, Dst: rel.Dst, Delta: u.strength - rel.StrengthValue(),
			})
		}
	}
	if len(remove) > 0 {
		result.RelationshipsRemoved = store.RemoveRelationships(func(rel graph.Relationship) bool {
			return remove[relationshipKey(rel)]
		})
	}

	if len(result.RelationshipsRemoved) == 0 {
		result.Description = fmt.Sprintf("relationship maintenance at tick %d: all relationships above threshold", tick)
		if len(result.RelationshipsAdjusted) > 0 {
			result.Description += fmt.Sprintf(", %d adjusted", len(result.RelationshipsAdjusted))
		}
	} else {
		result.Description = fmt.Sprintf("relationship maintenance at tick %d: %s", tick, result.Summary())
	}
	return result, nil
}

func relationshipKey(rel graph.Relationship) string {
	return rel.Kind + "\x00" + rel.Src + "\x00" + rel.Dst
}

// inProximity reports whether both endpoints point at a shared location or
// faction through one of the proximity kinds.
func (m *Manager) inProximity(a, b *graph.Entity) bool {
	anchors := make(map[string]bool)
	for _, link := range a.Links {
		if link.Src == a.ID && m.isProximityKind(link.Kind) {
			anchors[link.Kind+"\x00"+link.Dst] = true
		}
	}
	if len(anchors) == 0 {
		return false
	}
	for _, link := range b.Links {
		if link.Src == b.ID && anchors[link.Kind+"\x00"+link.Dst] {
			return true
		}
	}
	return false
}

func (m *Manager) isProximityKind(kind string) bool {
	for _, candidate := range m.cfg.ProximityKinds {
		if candidate == kind {
			return true
		}
	}
	return false
}

func (m *Manager) decayRate(kind string) DecayRate {
	if m.policy == nil {
		return DecayNone
	}
	return m.policy.DecayRate(kind)
}

func (m *Manager) cullable(kind string) bool {
	return m.policy == nil || m.policy.Cullable(kind)
}

func (m *Manager) protected(kind string) bool {
	return m.policy != nil && m.policy.Protected(kind)
}

func (m *Manager) immutable(kind string) bool {
	return m.policy != nil && m.policy.Immutable(kind)
}
