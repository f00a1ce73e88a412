package config

import (
	"fmt"
	"strings"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

func validateDomain(d *Domain) error {
	if d.Version != 1 {
		return fmt.Errorf("unsupported version: %d", d.Version)
	}
	if len(d.EntityKinds) == 0 {
		return fmt.Errorf("at least one entity kind is required")
	}

	entityNames := make(map[string]struct{})
	for i, kind := range d.EntityKinds {
		if strings.TrimSpace(kind.Name) == "" {
			return fmt.Errorf("entity kind %d name is required", i)
		}
		key := strings.ToLower(kind.Name)
		if key == graph.KindEra {
			return fmt.Errorf("entity kind %s is reserved", kind.Name)
		}
		if _, exists := entityNames[key]; exists {
			return fmt.Errorf("duplicate entity kind name: %s", kind.Name)
		}
		entityNames[key] = struct{}{}
	}

	relNames := make(map[string]struct{})
	for i, rel := range d.RelationshipKinds {
		if strings.TrimSpace(rel.Name) == "" {
			return fmt.Errorf("relationship kind %d name is required", i)
		}
		key := strings.ToLower(rel.Name)
		if key == graph.KindSupersedes {
			return fmt.Errorf("relationship kind %s is reserved", rel.Name)
		}
		if _, exists := relNames[key]; exists {
			return fmt.Errorf("duplicate relationship kind name: %s", rel.Name)
		}
		relNames[key] = struct{}{}
		if !rel.DecayRate.Valid() {
			return fmt.Errorf("relationship kind %s has unknown decay rate: %s", rel.Name, rel.DecayRate)
		}
	}

	for _, name := range d.ProtectedKinds {
		if !d.IsValidRelationshipKind(name) {
			return fmt.Errorf("protected kind references unknown relationship: %s", name)
		}
	}
	for _, name := range d.ImmutableKinds {
		if !d.IsValidRelationshipKind(name) {
			return fmt.Errorf("immutable kind references unknown relationship: %s", name)
		}
	}

	pressureNames := make(map[string]struct{})
	for i, pressure := range d.Pressures {
		if strings.TrimSpace(pressure.Name) == "" {
			return fmt.Errorf("pressure %d name is required", i)
		}
		if _, exists := pressureNames[pressure.Name]; exists {
			return fmt.Errorf("duplicate pressure name: %s", pressure.Name)
		}
		pressureNames[pressure.Name] = struct{}{}
	}

	actionIDs := make(map[string]struct{})
	for i, action := range d.Actions {
		if strings.TrimSpace(action.ID) == "" {
			return fmt.Errorf("action %d id is required", i)
		}
		key := strings.ToLower(action.ID)
		if _, exists := actionIDs[key]; exists {
			return fmt.Errorf("duplicate action id: %s", action.ID)
		}
		actionIDs[key] = struct{}{}
		if err := d.checkAction(action); err != nil {
			return fmt.Errorf("action %s: %w", action.ID, err)
		}
	}

	systemIDs := make(map[string]struct{})
	for i, spec := range d.Systems {
		id := spec.ID()
		if id == "" {
			return fmt.Errorf("system %d (%s) id is required", i, spec.Type)
		}
		if _, exists := systemIDs[id]; exists {
			return fmt.Errorf("duplicate system id: %s", id)
		}
		systemIDs[id] = struct{}{}
		if err := d.checkSystem(spec); err != nil {
			return fmt.Errorf("system %s: %w", id, err)
		}
	}

	eraIDs := make(map[string]struct{})
	for i, era := range d.Eras {
		if strings.TrimSpace(era.ID) == "" {
			return fmt.Errorf("era %d id is required", i)
		}
		if _, exists := eraIDs[era.ID]; exists {
			return fmt.Errorf("duplicate era id: %s", era.ID)
		}
		eraIDs[era.ID] = struct{}{}
		if era.Ticks < 0 {
			return fmt.Errorf("era %s ticks must not be negative", era.ID)
		}
		for systemID, modifier := range era.SystemModifiers {
			if _, ok := systemIDs[systemID]; !ok {
				return fmt.Errorf("era %s modifies unknown system: %s", era.ID, systemID)
			}
			if modifier < 0 {
				return fmt.Errorf("era %s modifier for %s must not be negative", era.ID, systemID)
			}
		}
	}

	return d.checkSeeds()
}

func (d *Domain) checkAction(action rules.Action) error {
	if action.Instigator != nil {
		if err := d.checkSelection(action.Instigator.Selection); err != nil {
			return fmt.Errorf("instigator: %w", err)
		}
	}
	for i, condition := range action.ActorConditions {
		if condition.Metric != nil {
			if err := d.checkMetric(*condition.Metric); err != nil {
				return fmt.Errorf("actor condition %d: %w", i, err)
			}
		}
	}
	if err := d.checkSelection(action.Targeting); err != nil {
		return fmt.Errorf("targeting: %w", err)
	}
	if len(action.Mutations) == 0 {
		return fmt.Errorf("at least one mutation is required")
	}
	for i, m := range action.Mutations {
		if err := d.checkMutation(m); err != nil {
			return fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return nil
}

func (d *Domain) checkSystem(spec SystemSpec) error {
	switch spec.Type {
	case SystemRelationshipMaintenance:
		if err := spec.Maintenance.Validate(); err != nil {
			return err
		}
		for _, kind := range spec.Maintenance.ProximityKinds {
			if err := d.relationshipKindRef(kind); err != nil {
				return fmt.Errorf("proximity kinds: %w", err)
			}
		}
	case SystemConnectionEvolution:
		cfg := spec.Evolution
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := d.checkSelection(cfg.Selection); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
		if err := d.checkMetric(cfg.Metric); err != nil {
			return fmt.Errorf("metric: %w", err)
		}
		for i, rule := range cfg.Rules {
			if err := d.checkMutation(rule.Action); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
		}
		for _, kind := range cfg.PairExcludeRelationships {
			if err := d.relationshipKindRef(kind); err != nil {
				return fmt.Errorf("pair exclusions: %w", err)
			}
		}
		if limit := cfg.PairComponentSizeLimit; limit != nil {
			for _, kind := range limit.Kinds {
				if err := d.relationshipKindRef(kind); err != nil {
					return fmt.Errorf("component limit: %w", err)
				}
			}
		}
	case SystemCatalyst:
		cfg := spec.Catalyst
		if err := d.checkSelection(cfg.Actors); err != nil {
			return fmt.Errorf("actors: %w", err)
		}
		if len(cfg.Actions) == 0 {
			return fmt.Errorf("at least one action is required")
		}
		for _, id := range cfg.Actions {
			if _, ok := d.Action(id); !ok {
				return fmt.Errorf("unknown action: %s", id)
			}
		}
	}
	return nil
}

func (d *Domain) checkSelection(sel rules.Selection) error {
	for _, kind := range sel.CandidateKinds() {
		if err := d.entityKindRef(kind); err != nil {
			return err
		}
	}
	for i, f := range sel.Filters {
		if f.Kind != "" {
			if err := d.relationshipKindRef(f.Kind); err != nil {
				return fmt.Errorf("filter %d (%s): %w", i, f.Type, err)
			}
		}
		if f.Type == rules.FilterGraphPath {
			if f.Path == nil || len(f.Path.Steps) == 0 {
				return fmt.Errorf("filter %d: graph path requires steps", i)
			}
			// an empty via or target kind matches any kind, as does target kind "any"
			for j, step := range f.Path.Steps {
				if step.Via != "" {
					if err := d.relationshipKindRef(step.Via); err != nil {
						return fmt.Errorf("filter %d step %d: %w", i, j, err)
					}
				}
				if step.TargetKind != "" && step.TargetKind != "any" {
					if err := d.entityKindRef(step.TargetKind); err != nil {
						return fmt.Errorf("filter %d step %d: %w", i, j, err)
					}
				}
			}
		}
	}
	if sel.Pick == rules.PickTopN && sel.PickMetric != nil {
		if err := d.checkMetric(*sel.PickMetric); err != nil {
			return fmt.Errorf("pick metric: %w", err)
		}
	}
	return nil
}

// Rules compare kinds exactly when they run, so a kind they name must use
// the registered spelling.
func (d *Domain) entityKindRef(name string) error {
	registered, ok := d.EntityKindName(name)
	if !ok {
		return fmt.Errorf("unknown entity kind: %s", name)
	}
	if registered != name {
		return fmt.Errorf("entity kind %s must be written %s", name, registered)
	}
	return nil
}

func (d *Domain) relationshipKindRef(name string) error {
	registered, ok := d.RelationshipKindName(name)
	if !ok {
		return fmt.Errorf("unknown relationship kind: %s", name)
	}
	if registered != name {
		return fmt.Errorf("relationship kind %s must be written %s", name, registered)
	}
	return nil
}

func (d *Domain) checkMetric(m rules.Metric) error {
	if m.Type == "" {
		return fmt.Errorf("metric type is required")
	}
	for _, kind := range m.RelationshipKinds() {
		if err := d.relationshipKindRef(kind); err != nil {
			return fmt.Errorf("metric %s: %w", m.Type, err)
		}
	}
	if m.Type == rules.MetricPressure && m.Pressure == "" {
		return fmt.Errorf("pressure metric requires a pressure name")
	}
	return nil
}

func (d *Domain) checkMutation(m rules.Mutation) error {
	if m.Type == "" {
		return fmt.Errorf("mutation type is required")
	}
	switch m.Type {
	case rules.MutationCreateRelationship, rules.MutationAdjustStrength:
		if m.Kind == "" {
			return fmt.Errorf("%s requires a relationship kind", m.Type)
		}
		if err := d.relationshipKindRef(m.Kind); err != nil {
			return fmt.Errorf("%s: %w", m.Type, err)
		}
	case rules.MutationAdjustProminence:
		if m.Direction != "up" && m.Direction != "down" {
			return fmt.Errorf("adjust_prominence direction must be up or down, got %q", m.Direction)
		}
	case rules.MutationChangeStatus:
		if m.Status == "" {
			return fmt.Errorf("change_status requires a status")
		}
	case rules.MutationSetTag, rules.MutationAddTag, rules.MutationRemoveTag:
		if m.Tag == "" {
			return fmt.Errorf("%s requires a tag", m.Type)
		}
	case rules.MutationModifyPressure:
		if m.Pressure == "" {
			return fmt.Errorf("modify_pressure requires a pressure name")
		}
	}
	return nil
}

func (d *Domain) checkSeeds() error {
	ids := make(map[string]struct{})
	for i, seed := range d.Seeds {
		if strings.TrimSpace(seed.ID) == "" {
			return fmt.Errorf("seed %d id is required", i)
		}
		if _, exists := ids[seed.ID]; exists {
			return fmt.Errorf("duplicate seed id: %s", seed.ID)
		}
		ids[seed.ID] = struct{}{}
		if err := d.CheckSeed(seed); err != nil {
			return err
		}
	}
	return nil
}

// CheckSeed validates one seed against the registry. Relationship targets
// are resolved when the population is loaded, since inline and lore seeds
// may point at each other.
func (d *Domain) CheckSeed(seed Seed) error {
	if !d.IsValidEntityKind(seed.Kind) || strings.EqualFold(seed.Kind, graph.KindEra) {
		return fmt.Errorf("seed %s has unknown kind: %s", seed.ID, seed.Kind)
	}
	if seed.Prominence != "" {
		if _, ok := graph.ParseProminence(seed.Prominence); !ok {
			return fmt.Errorf("seed %s has unknown prominence: %s", seed.ID, seed.Prominence)
		}
	}
	for _, link := range seed.Related {
		if !d.IsValidRelationshipKind(link.Kind) {
			return fmt.Errorf("seed %s has unknown relationship kind: %s", seed.ID, link.Kind)
		}
		if strings.TrimSpace(link.Target) == "" {
			return fmt.Errorf("seed %s has a relationship without target", seed.ID)
		}
	}
	return nil
}
