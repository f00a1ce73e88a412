package validate

import (
	"fmt"
	"slices"
	"strings"

	"worldweave/internal/config"
	"worldweave/internal/graph"
	"worldweave/internal/seed"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownEntityKind       = "unknown_entity_kind"
	codeSubtypeInvalid          = "subtype_invalid"
	codeStatusInvalid           = "status_invalid"
	codeUnknownRelationshipKind = "unknown_relationship_kind"
	codeDanglingRelationship    = "dangling_relationship"
	codeStrengthOutOfRange      = "strength_out_of_range"
	codeLinkMismatch            = "link_mismatch"
	codeEraState                = "era_state"
	codeProtectedBelowThreshold = "protected_below_threshold"
	codeOrphanedEntity          = "orphaned_entity"
	codeDuplicateName           = "duplicate_name"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Layer    string   `json:"layer,omitempty"`
	Entity   string   `json:"entity,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) Errors() []Issue   { return r.filter(SeverityError) }
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarn) }

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Run checks a world against its domain registry and the store's own
// structural invariants.
func Run(domain *config.Domain, world World) (*Report, error) {
	if domain == nil {
		return nil, fmt.Errorf("domain is required")
	}
	if world == nil {
		return nil, fmt.Errorf("world is required")
	}

	issues := make([]Issue, 0)

	linked := make(map[string]bool)
	for _, rel := range world.Relationships() {
		issues = append(issues, validateRelationship(domain, world, rel)...)
		linked[rel.Src] = true
		linked[rel.Dst] = true
	}

	names := make(map[string][]*graph.Entity)
	for _, entity := range world.Entities() {
		if entity.Kind == graph.KindEra {
			continue
		}
		issues = append(issues, validateEntity(domain, entity)...)
		if !linked[entity.ID] {
			issues = append(issues, issueFor(entity, SeverityWarn, codeOrphanedEntity, "entity has no relationships"))
		}
		key := strings.ToLower(entity.Kind) + "|" + strings.ToLower(entity.Name)
		names[key] = append(names[key], entity)
	}
	for _, entity := range world.Entities() {
		key := strings.ToLower(entity.Kind) + "|" + strings.ToLower(entity.Name)
		if group := names[key]; len(group) > 1 && group[0] != entity {
			issues = append(issues, issueFor(entity, SeverityWarn, codeDuplicateName,
				fmt.Sprintf("duplicate %s name, also used by %s", entity.Kind, group[0].ID)))
		}
	}

	if err := world.CheckLinks(); err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeLinkMismatch, Message: err.Error()})
	}

	issues = append(issues, validateEras(domain, world)...)

	return &Report{Issues: issues}, nil
}

func validateEntity(domain *config.Domain, entity *graph.Entity) []Issue {
	kind, ok := domain.EntityKindByName(entity.Kind)
	if !ok {
		return []Issue{issueFor(entity, SeverityError, codeUnknownEntityKind,
			fmt.Sprintf("unknown entity kind: %s", entity.Kind))}
	}

	var issues []Issue
	if entity.Subtype != "" && len(kind.Subtypes) > 0 && !containsFold(kind.Subtypes, entity.Subtype) {
		issues = append(issues, issueFor(entity, SeverityError, codeSubtypeInvalid,
			fmt.Sprintf("invalid subtype for %s: %s", kind.Name, entity.Subtype)))
	}
	if len(kind.Statuses) > 0 && !containsFold(kind.Statuses, entity.Status) {
		issues = append(issues, issueFor(entity, SeverityError, codeStatusInvalid,
			fmt.Sprintf("invalid status for %s: %s", kind.Name, entity.Status)))
	}
	return issues
}

func validateRelationship(domain *config.Domain, world World, rel graph.Relationship) []Issue {
	label := fmt.Sprintf("%s -[%s]-> %s", rel.Src, rel.Kind, rel.Dst)
	var issues []Issue

	if !domain.IsValidRelationshipKind(rel.Kind) {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeUnknownRelationshipKind,
			Entity: rel.Src, Message: "unknown relationship kind: " + label})
	}
	for _, id := range []string{rel.Src, rel.Dst} {
		if _, ok := world.Entity(id); !ok {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeDanglingRelationship,
				Entity: id, Message: "relationship points at a missing entity: " + label})
		}
	}

	strength := rel.StrengthValue()
	if strength < 0 || strength > 1 {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeStrengthOutOfRange,
			Entity: rel.Src, Message: fmt.Sprintf("strength %v outside [0, 1]: %s", strength, label)})
	}

	if domain.Protected(rel.Kind) || domain.Immutable(rel.Kind) {
		if threshold, ok := cullThreshold(domain); ok && strength < threshold {
			issues = append(issues, Issue{Severity: SeverityWarn, Code: codeProtectedBelowThreshold,
				Entity: rel.Src, Message: fmt.Sprintf("protected relationship at %v is below the cull threshold %v: %s", strength, threshold, label)})
		}
	}
	return issues
}

// cullThreshold is the highest threshold among the maintenance systems.
func cullThreshold(domain *config.Domain) (float64, bool) {
	threshold, found := 0.0, false
	for _, spec := range domain.Systems {
		if spec.Maintenance == nil {
			continue
		}
		if !found || spec.Maintenance.CullThreshold > threshold {
			threshold = spec.Maintenance.CullThreshold
		}
		found = true
	}
	return threshold, found
}

func validateEras(domain *config.Domain, world World) []Issue {
	ids := world.EraIDs()
	if len(ids) == 0 {
		return nil
	}

	var issues []Issue
	var current []string
	for _, id := range ids {
		era, ok := world.Entity(id)
		if !ok {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeEraState, Entity: id, Message: "era entity is missing"})
			continue
		}
		if era.Status == graph.EraCurrent {
			current = append(current, id)
		}
		if _, ok := domain.Era(id); !ok {
			issues = append(issues, Issue{Severity: SeverityWarn, Code: codeEraState, Entity: id, Message: "era is not declared by the domain"})
		}
	}
	if len(current) != 1 {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeEraState,
			Message: fmt.Sprintf("expected exactly one current era, found %d (%s)", len(current), strings.Join(current, ", "))})
	}
	return issues
}

func issueFor(entity *graph.Entity, severity Severity, code, message string) Issue {
	layer, _ := entity.Tags[seed.LayerTag].(string)
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Layer:    layer,
		Entity:   entity.ID,
	}
}

func containsFold(values []string, target string) bool {
	return slices.ContainsFunc(values, func(value string) bool {
		return strings.EqualFold(value, target)
	})
}
