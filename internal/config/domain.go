package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"worldweave/internal/graph"
	"worldweave/internal/lifecycle"
	"worldweave/internal/rules"
)

// Domain is the declarative description of a world: its kind registry,
// eras, pressures, actions, systems and seed population.
type Domain struct {
	Version           int                `yaml:"version"`
	Name              string             `yaml:"name"`
	EntityKinds       []EntityKind       `yaml:"entity_kinds"`
	RelationshipKinds []RelationshipKind `yaml:"relationship_kinds"`
	ProtectedKinds    []string           `yaml:"protected_kinds"`
	ImmutableKinds    []string           `yaml:"immutable_kinds"`
	Eras              []Era              `yaml:"eras"`
	Pressures         []Pressure         `yaml:"pressures"`
	Actions           []rules.Action     `yaml:"actions"`
	Systems           []SystemSpec       `yaml:"systems"`
	Seeds             []Seed             `yaml:"seeds"`

	entityIndex map[string]*EntityKind
	relIndex    map[string]*RelationshipKind
	protected   map[string]struct{}
	immutable   map[string]struct{}
	actionIndex map[string]rules.Action
}

type EntityKind struct {
	Name     string   `yaml:"name"`
	Subtypes []string `yaml:"subtypes"`
	Statuses []string `yaml:"statuses"`
}

type RelationshipKind struct {
	Name      string              `yaml:"name"`
	DecayRate lifecycle.DecayRate `yaml:"decay_rate"`
	Cullable  *bool               `yaml:"cullable"`
}

type Era struct {
	ID              string             `yaml:"id"`
	Name            string             `yaml:"name"`
	Description     string             `yaml:"description"`
	Ticks           int                `yaml:"ticks"`
	SystemModifiers map[string]float64 `yaml:"system_modifiers"`
}

type Pressure struct {
	Name    string  `yaml:"name"`
	Initial float64 `yaml:"initial"`
}

// Seed is an entity present before the first tick.
type Seed struct {
	ID          string         `yaml:"id"`
	Kind        string         `yaml:"kind"`
	Subtype     string         `yaml:"subtype"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Status      string         `yaml:"status"`
	Prominence  string         `yaml:"prominence"`
	Culture     string         `yaml:"culture"`
	Tags        map[string]any `yaml:"tags"`
	Related     []SeedLink     `yaml:"related"`
}

type SeedLink struct {
	Kind     string   `yaml:"kind"`
	Target   string   `yaml:"target"`
	Strength *float64 `yaml:"strength"`
}

func LoadDomain(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}
	domain, err := ParseDomain(data)
	if err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}
	return domain, nil
}

func ParseDomain(data []byte) (*Domain, error) {
	var domain Domain
	if err := yaml.Unmarshal(data, &domain); err != nil {
		return nil, err
	}

	domain.entityIndex = make(map[string]*EntityKind)
	for i := range domain.EntityKinds {
		kind := &domain.EntityKinds[i]
		domain.entityIndex[strings.ToLower(kind.Name)] = kind
	}

	domain.relIndex = make(map[string]*RelationshipKind)
	for i := range domain.RelationshipKinds {
		rel := &domain.RelationshipKinds[i]
		if rel.DecayRate == "" {
			rel.DecayRate = lifecycle.DecayNone
		}
		domain.relIndex[strings.ToLower(rel.Name)] = rel
	}

	domain.protected = nameIndex(domain.ProtectedKinds)
	domain.immutable = nameIndex(domain.ImmutableKinds)

	domain.actionIndex = make(map[string]rules.Action)
	for _, action := range domain.Actions {
		domain.actionIndex[strings.ToLower(action.ID)] = action
	}

	for i := range domain.Seeds {
		domain.Seeds[i] = domain.NormalizeSeed(domain.Seeds[i])
	}

	if err := validateDomain(&domain); err != nil {
		return nil, err
	}
	return &domain, nil
}

func nameIndex(names []string) map[string]struct{} {
	index := make(map[string]struct{}, len(names))
	for _, name := range names {
		index[strings.ToLower(name)] = struct{}{}
	}
	return index
}

func (d *Domain) EntityKindByName(name string) (*EntityKind, bool) {
	if d == nil {
		return nil, false
	}
	kind, ok := d.entityIndex[strings.ToLower(name)]
	return kind, ok
}

func (d *Domain) RelationshipKindByName(name string) (*RelationshipKind, bool) {
	if d == nil {
		return nil, false
	}
	rel, ok := d.relIndex[strings.ToLower(name)]
	return rel, ok
}

// IsValidEntityKind accepts registered kinds and the reserved era kind.
func (d *Domain) IsValidEntityKind(name string) bool {
	if strings.EqualFold(name, graph.KindEra) {
		return true
	}
	_, ok := d.EntityKindByName(name)
	return ok
}

func (d *Domain) IsValidRelationshipKind(name string) bool {
	if strings.EqualFold(name, graph.KindSupersedes) {
		return true
	}
	_, ok := d.RelationshipKindByName(name)
	return ok
}

// EntityKindName returns the registered spelling of an entity kind.
func (d *Domain) EntityKindName(name string) (string, bool) {
	if strings.EqualFold(name, graph.KindEra) {
		return graph.KindEra, true
	}
	kind, ok := d.EntityKindByName(name)
	if !ok {
		return "", false
	}
	return kind.Name, true
}

// RelationshipKindName returns the registered spelling of a relationship
// kind.
func (d *Domain) RelationshipKindName(name string) (string, bool) {
	if strings.EqualFold(name, graph.KindSupersedes) {
		return graph.KindSupersedes, true
	}
	rel, ok := d.RelationshipKindByName(name)
	if !ok {
		return "", false
	}
	return rel.Name, true
}

// NormalizeSeed rewrites the seed's entity and relationship kinds to their
// registered spelling. Unknown kinds are left for CheckSeed to report.
func (d *Domain) NormalizeSeed(seed Seed) Seed {
	if name, ok := d.EntityKindName(seed.Kind); ok {
		seed.Kind = name
	}
	if len(seed.Related) > 0 {
		related := make([]SeedLink, len(seed.Related))
		for i, link := range seed.Related {
			if name, ok := d.RelationshipKindName(link.Kind); ok {
				link.Kind = name
			}
			related[i] = link
		}
		seed.Related = related
	}
	return seed
}

func (d *Domain) Action(id string) (rules.Action, bool) {
	if d == nil {
		return rules.Action{}, false
	}
	action, ok := d.actionIndex[strings.ToLower(id)]
	return action, ok
}

// ActionCatalog maps lower-cased action ids to definitions.
func (d *Domain) ActionCatalog() map[string]rules.Action {
	catalog := make(map[string]rules.Action, len(d.Actions))
	for _, action := range d.Actions {
		catalog[strings.ToLower(action.ID)] = action
	}
	return catalog
}

// EraDefs lists the eras in progression order.
func (d *Domain) EraDefs() []graph.EraDef {
	defs := make([]graph.EraDef, 0, len(d.Eras))
	for _, era := range d.Eras {
		defs = append(defs, graph.EraDef{ID: era.ID, Name: era.Name, Description: era.Description})
	}
	return defs
}

func (d *Domain) Era(id string) (*Era, bool) {
	for i := range d.Eras {
		if d.Eras[i].ID == id {
			return &d.Eras[i], true
		}
	}
	return nil, false
}

var _ lifecycle.KindPolicy = (*Domain)(nil)

func (d *Domain) DecayRate(kind string) lifecycle.DecayRate {
	if rel, ok := d.RelationshipKindByName(kind); ok {
		return rel.DecayRate
	}
	return lifecycle.DecayNone
}

func (d *Domain) Cullable(kind string) bool {
	rel, ok := d.RelationshipKindByName(kind)
	if !ok || rel.Cullable == nil {
		return true
	}
	return *rel.Cullable
}

func (d *Domain) Protected(kind string) bool {
	_, ok := d.protected[strings.ToLower(kind)]
	return ok
}

// Immutable kinds include the era lineage.
func (d *Domain) Immutable(kind string) bool {
	if strings.EqualFold(kind, graph.KindSupersedes) {
		return true
	}
	_, ok := d.immutable[strings.ToLower(kind)]
	return ok
}
