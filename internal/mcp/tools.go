package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
	"worldweave/internal/seed"
)

const maxAdvanceTicks = 1000

type GetWorldInput struct{}

type ListEntitiesInput struct {
	Kind    string `json:"kind,omitempty" jsonschema:"entity kind filter"`
	Subtype string `json:"subtype,omitempty" jsonschema:"subtype filter"`
	Status  string `json:"status,omitempty" jsonschema:"status filter"`
	Tag     string `json:"tag,omitempty" jsonschema:"only entities carrying this tag"`
	Layer   string `json:"layer,omitempty" jsonschema:"lore layer filter"`
}

type GetEntityInput struct {
	ID string `json:"id" jsonschema:"entity id"`
}

type GetRelationshipsInput struct {
	ID        string `json:"id" jsonschema:"starting entity id"`
	Kind      string `json:"kind,omitempty" jsonschema:"relationship kind filter"`
	Depth     int    `json:"depth,omitempty" jsonschema:"maximum traversal depth"`
	Direction string `json:"direction,omitempty" jsonschema:"src, dst, or both"`
}

type AdvanceInput struct {
	Ticks int `json:"ticks,omitempty" jsonschema:"number of ticks to run, default 1"`
}

type PerformActionInput struct {
	Action string `json:"action" jsonschema:"action id from the domain catalog"`
	Actor  string `json:"actor" jsonschema:"id of the acting entity"`
}

type GetDomainInput struct{}

type WorldOutput struct {
	RunID         string             `json:"run_id"`
	Tick          int                `json:"tick"`
	Era           string             `json:"era,omitempty"`
	Eras          []EraOutput        `json:"eras"`
	Entities      int                `json:"entities"`
	Relationships int                `json:"relationships"`
	Pressures     map[string]float64 `json:"pressures"`
}

type EraOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type EntitySummaryOutput struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Subtype    string `json:"subtype,omitempty"`
	Name       string `json:"name"`
	Status     string `json:"status,omitempty"`
	Prominence string `json:"prominence"`
	Layer      string `json:"layer,omitempty"`
}

type ListEntitiesOutput struct {
	Entities []EntitySummaryOutput `json:"entities"`
}

type EntityOutput struct {
	ID              string               `json:"id"`
	Kind            string               `json:"kind"`
	Subtype         string               `json:"subtype,omitempty"`
	Name            string               `json:"name"`
	Status          string               `json:"status,omitempty"`
	Prominence      string               `json:"prominence"`
	Layer           string               `json:"layer,omitempty"`
	Description     string               `json:"description,omitempty"`
	Culture         string               `json:"culture,omitempty"`
	Tags            map[string]any       `json:"tags,omitempty"`
	CreatedAt       int                  `json:"created_at"`
	UpdatedAt       int                  `json:"updated_at"`
	Relationships   []RelationshipOutput `json:"relationships"`
	CatalyzedEvents []EventOutput        `json:"catalyzed_events,omitempty"`
}

type EventOutput struct {
	Tick        int    `json:"tick"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

type RelationshipOutput struct {
	Kind     string  `json:"kind"`
	Src      string  `json:"src"`
	Dst      string  `json:"dst"`
	Strength float64 `json:"strength"`
	Depth    int     `json:"depth,omitempty"`
}

type GetRelationshipsOutput struct {
	Relationships []RelationshipOutput `json:"relationships"`
}

type TickOutput struct {
	Tick       int      `json:"tick"`
	Era        string   `json:"era,omitempty"`
	EraChanged bool     `json:"era_changed,omitempty"`
	Summary    string   `json:"summary"`
	Systems    []string `json:"systems"`
}

type AdvanceOutput struct {
	Ticks []TickOutput `json:"ticks"`
}

type PerformActionOutput struct {
	Success          bool                 `json:"success"`
	Description      string               `json:"description,omitempty"`
	FailureReason    string               `json:"failure_reason,omitempty"`
	Diagnostic       string               `json:"diagnostic,omitempty"`
	Relationships    []RelationshipOutput `json:"relationships,omitempty"`
	EntitiesModified []string             `json:"entities_modified,omitempty"`
	PressureChanges  map[string]float64   `json:"pressure_changes,omitempty"`
}

type DomainOutput struct {
	Name              string                   `json:"name,omitempty"`
	EntityKinds       []EntityKindOutput       `json:"entity_kinds"`
	RelationshipKinds []RelationshipKindOutput `json:"relationship_kinds"`
	Pressures         []string                 `json:"pressures"`
	Actions           []ActionOutput           `json:"actions"`
	Systems           []SystemOutput           `json:"systems"`
}

type EntityKindOutput struct {
	Name     string   `json:"name"`
	Subtypes []string `json:"subtypes,omitempty"`
	Statuses []string `json:"statuses,omitempty"`
}

type RelationshipKindOutput struct {
	Name      string `json:"name"`
	DecayRate string `json:"decay_rate"`
	Cullable  bool   `json:"cullable"`
	Protected bool   `json:"protected,omitempty"`
	Immutable bool   `json:"immutable,omitempty"`
}

type ActionOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type SystemOutput struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_world",
		Description: "Summarise the running world: tick, eras, counts and pressures",
	}, s.handleGetWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entities",
		Description: "List entities with optional filters",
	}, s.handleListEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entity",
		Description: "Retrieve a specific entity with its relationships and history",
	}, s.handleGetEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_relationships",
		Description: "Traverse relationships from an entity",
	}, s.handleGetRelationships)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "advance",
		Description: "Run the simulation forward by a number of ticks",
	}, s.handleAdvance)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "perform_action",
		Description: "Have an entity perform a catalog action now",
	}, s.handlePerformAction)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_domain",
		Description: "Return the domain registry, actions and systems",
	}, s.handleGetDomain)
}

func (s *Server) handleGetWorld(ctx context.Context, req *sdk.CallToolRequest, input GetWorldInput) (*sdk.CallToolResult, WorldOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.engine.Store()
	out := WorldOutput{
		RunID:         s.engine.RunID(),
		Tick:          store.Tick(),
		Entities:      store.EntityCount(),
		Relationships: store.RelationshipCount(),
		Pressures:     store.Pressures(),
		Eras:          make([]EraOutput, 0),
	}
	if era, ok := store.CurrentEra(); ok {
		out.Era = era.ID
	}
	for _, id := range store.EraIDs() {
		if era, ok := store.Entity(id); ok {
			out.Eras = append(out.Eras, EraOutput{ID: era.ID, Name: era.Name, Status: era.Status})
		}
	}
	return nil, out, nil
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	output := make([]EntitySummaryOutput, 0)
	for _, e := range s.engine.Store().FindEntities(input.Kind, input.Subtype, input.Status) {
		if input.Tag != "" && !e.HasTag(input.Tag) {
			continue
		}
		if input.Layer != "" && !e.TagEquals(seed.LayerTag, input.Layer) {
			continue
		}
		output = append(output, summaryOutputFromGraph(e))
	}
	return nil, ListEntitiesOutput{Entities: output}, nil
}

func (s *Server) handleGetEntity(ctx context.Context, req *sdk.CallToolRequest, input GetEntityInput) (*sdk.CallToolResult, EntityOutput, error) {
	if input.ID == "" {
		return nil, EntityOutput{}, fmt.Errorf("id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.engine.Store().Snapshot(input.ID)
	if !ok {
		return nil, EntityOutput{}, fmt.Errorf("entity not found: %s", input.ID)
	}
	return nil, entityOutputFromGraph(&entity), nil
}

func (s *Server) handleGetRelationships(ctx context.Context, req *sdk.CallToolRequest, input GetRelationshipsInput) (*sdk.CallToolResult, GetRelationshipsOutput, error) {
	if input.ID == "" {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("id is required")
	}
	direction := rules.Direction(strings.ToLower(input.Direction))
	switch direction {
	case "":
		direction = rules.DirectionBoth
	case rules.DirectionSrc, rules.DirectionDst, rules.DirectionBoth:
	default:
		return nil, GetRelationshipsOutput{}, fmt.Errorf("direction must be src, dst, or both")
	}
	depth := input.Depth
	if depth <= 0 {
		depth = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.engine.Store()
	if _, ok := store.Entity(input.ID); !ok {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("entity not found: %s", input.ID)
	}
	return nil, GetRelationshipsOutput{Relationships: traverse(store, input.ID, input.Kind, direction, depth)}, nil
}

// traverse walks breadth-first from start, reporting each relationship
// once at the depth it was first reached.
func traverse(store *graph.Store, start, kind string, direction rules.Direction, depth int) []RelationshipOutput {
	out := make([]RelationshipOutput, 0)
	seen := map[string]bool{}
	visited := map[string]bool{start: true}
	frontier := []string{start}
	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			for _, rel := range store.RelationshipsOf(id, kind) {
				if direction == rules.DirectionSrc && rel.Src != id {
					continue
				}
				if direction == rules.DirectionDst && rel.Dst != id {
					continue
				}
				key := rel.Kind + "|" + rel.Src + "|" + rel.Dst
				if seen[key] {
					continue
				}
				seen[key] = true
				output := relationshipOutputFromGraph(rel)
				output.Depth = level
				out = append(out, output)

				other := rel.Other(id)
				if !visited[other] {
					visited[other] = true
					next = append(next, other)
				}
			}
		}
		frontier = next
	}
	return out
}

func (s *Server) handleAdvance(ctx context.Context, req *sdk.CallToolRequest, input AdvanceInput) (*sdk.CallToolResult, AdvanceOutput, error) {
	ticks := input.Ticks
	if ticks == 0 {
		ticks = 1
	}
	if ticks < 0 || ticks > maxAdvanceTicks {
		return nil, AdvanceOutput{}, fmt.Errorf("ticks must be within [1, %d]", maxAdvanceTicks)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.engine.Run(ctx, ticks)
	output := AdvanceOutput{Ticks: make([]TickOutput, 0, len(reports))}
	for _, report := range reports {
		tick := TickOutput{
			Tick:       report.Tick,
			Era:        report.Era,
			EraChanged: report.EraChanged,
			Summary:    report.Total().Description,
			Systems:    make([]string, 0, len(report.Systems)),
		}
		for _, sys := range report.Systems {
			tick.Systems = append(tick.Systems, sys.Description)
		}
		output.Ticks = append(output.Ticks, tick)
	}
	if err != nil {
		s.log.Warn("advance stopped", zap.Int("completed", len(reports)), zap.Error(err))
		return nil, output, err
	}
	return nil, output, nil
}

func (s *Server) handlePerformAction(ctx context.Context, req *sdk.CallToolRequest, input PerformActionInput) (*sdk.CallToolResult, PerformActionOutput, error) {
	if input.Action == "" || input.Actor == "" {
		return nil, PerformActionOutput{}, fmt.Errorf("action and actor are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.engine.PerformAction(input.Action, input.Actor)
	if err != nil {
		return nil, PerformActionOutput{}, err
	}
	out := PerformActionOutput{
		Success:         result.Success,
		Description:     result.Description,
		FailureReason:   string(result.FailureReason),
		Diagnostic:      result.Diagnostic,
		PressureChanges: result.PressureChanges,
	}
	for _, rel := range result.Relationships {
		out.Relationships = append(out.Relationships, relationshipOutputFromGraph(rel))
	}
	for _, mod := range result.EntitiesModified {
		out.EntitiesModified = append(out.EntitiesModified, mod.ID)
	}
	return nil, out, nil
}

func (s *Server) handleGetDomain(ctx context.Context, req *sdk.CallToolRequest, input GetDomainInput) (*sdk.CallToolResult, DomainOutput, error) {
	domain := s.engine.Domain()
	out := DomainOutput{
		Name:              domain.Name,
		EntityKinds:       make([]EntityKindOutput, 0, len(domain.EntityKinds)),
		RelationshipKinds: make([]RelationshipKindOutput, 0, len(domain.RelationshipKinds)),
		Pressures:         make([]string, 0, len(domain.Pressures)),
		Actions:           make([]ActionOutput, 0, len(domain.Actions)),
		Systems:           make([]SystemOutput, 0, len(domain.Systems)),
	}
	for _, kind := range domain.EntityKinds {
		out.EntityKinds = append(out.EntityKinds, EntityKindOutput{Name: kind.Name, Subtypes: kind.Subtypes, Statuses: kind.Statuses})
	}
	for _, kind := range domain.RelationshipKinds {
		out.RelationshipKinds = append(out.RelationshipKinds, RelationshipKindOutput{
			Name:      kind.Name,
			DecayRate: string(domain.DecayRate(kind.Name)),
			Cullable:  domain.Cullable(kind.Name),
			Protected: domain.Protected(kind.Name),
			Immutable: domain.Immutable(kind.Name),
		})
	}
	for _, pressure := range domain.Pressures {
		out.Pressures = append(out.Pressures, pressure.Name)
	}
	for _, a := range domain.Actions {
		out.Actions = append(out.Actions, ActionOutput{ID: a.ID, Name: a.Name, Description: a.Description})
	}
	for _, spec := range domain.Systems {
		out.Systems = append(out.Systems, SystemOutput{ID: spec.ID(), Type: string(spec.Type)})
	}
	return nil, out, nil
}

func summaryOutputFromGraph(e *graph.Entity) EntitySummaryOutput {
	layer, _ := e.Tags[seed.LayerTag].(string)
	return EntitySummaryOutput{
		ID:         e.ID,
		Kind:       e.Kind,
		Subtype:    e.Subtype,
		Name:       e.Name,
		Status:     e.Status,
		Prominence: e.Prominence.String(),
		Layer:      layer,
	}
}

func entityOutputFromGraph(e *graph.Entity) EntityOutput {
	summary := summaryOutputFromGraph(e)
	out := EntityOutput{
		ID:            summary.ID,
		Kind:          summary.Kind,
		Subtype:       summary.Subtype,
		Name:          summary.Name,
		Status:        summary.Status,
		Prominence:    summary.Prominence,
		Layer:         summary.Layer,
		Description:   e.Description,
		Culture:       e.Culture,
		Tags:          e.Tags,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		Relationships: make([]RelationshipOutput, 0, len(e.Links)),
	}
	for _, link := range e.Links {
		out.Relationships = append(out.Relationships, relationshipOutputFromGraph(link))
	}
	for _, event := range e.CatalyzedEvents {
		out.CatalyzedEvents = append(out.CatalyzedEvents, EventOutput{Tick: event.Tick, Source: event.Source, Description: event.Description})
	}
	return out
}

func relationshipOutputFromGraph(rel graph.Relationship) RelationshipOutput {
	return RelationshipOutput{
		Kind:     rel.Kind,
		Src:      rel.Src,
		Dst:      rel.Dst,
		Strength: rel.StrengthValue(),
	}
}
