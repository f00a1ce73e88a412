package graph

import "fmt"

const (
	KindEra = "era"

	StatusActive     = "active"
	StatusHistorical = "historical"
)

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

type CatalyzedEvent struct {
	Tick        int    `json:"tick"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// Entity is a node in the world graph. Links mirrors the canonical
// relationships touching this entity and is maintained by Store only.
type Entity struct {
	ID              string           `json:"id"`
	Kind            string           `json:"kind"`
	Subtype         string           `json:"subtype,omitempty"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Status          string           `json:"status,omitempty"`
	Prominence      Prominence       `json:"prominence"`
	Culture         string           `json:"culture,omitempty"`
	Tags            map[string]any   `json:"tags,omitempty"`
	Links           []Relationship   `json:"links,omitempty"`
	CreatedAt       int              `json:"created_at"`
	UpdatedAt       int              `json:"updated_at"`
	Coordinates     *Point           `json:"coordinates,omitempty"`
	CatalyzedEvents []CatalyzedEvent `json:"catalyzed_events,omitempty"`
}

func (e *Entity) Tag(key string) (any, bool) {
	if e == nil || e.Tags == nil {
		return nil, false
	}
	value, ok := e.Tags[key]
	return value, ok
}

// HasTag reports whether the tag is present and not explicitly false.
func (e *Entity) HasTag(key string) bool {
	value, ok := e.Tag(key)
	if !ok {
		return false
	}
	if b, isBool := value.(bool); isBool {
		return b
	}
	return true
}

// TagEquals compares a tag against a bool or string value. A nil want
// matches any truthy tag.
func (e *Entity) TagEquals(key string, want any) bool {
	if want == nil {
		return e.HasTag(key)
	}
	value, ok := e.Tag(key)
	if !ok {
		return false
	}
	return fmt.Sprint(value) == fmt.Sprint(want)
}

func (e *Entity) clone() Entity {
	out := *e
	if e.Tags != nil {
		out.Tags = make(map[string]any, len(e.Tags))
		for key, value := range e.Tags {
			out.Tags[key] = value
		}
	}
	out.Links = append([]Relationship(nil), e.Links...)
	out.CatalyzedEvents = append([]CatalyzedEvent(nil), e.CatalyzedEvents...)
	if e.Coordinates != nil {
		point := *e.Coordinates
		out.Coordinates = &point
	}
	return out
}

// EntityChanges is a partial update; nil fields are left untouched.
type EntityChanges struct {
	Status      *string        `json:"status,omitempty"`
	Prominence  *Prominence    `json:"prominence,omitempty"`
	Culture     *string        `json:"culture,omitempty"`
	Description *string        `json:"description,omitempty"`
	Tags        map[string]any `json:"tags,omitempty"`
	RemoveTags  []string       `json:"remove_tags,omitempty"`
}

func (c EntityChanges) Empty() bool {
	return c.Status == nil && c.Prominence == nil && c.Culture == nil &&
		c.Description == nil && len(c.Tags) == 0 && len(c.RemoveTags) == 0
}

func (c EntityChanges) applyTo(e *Entity) {
	if c.Status != nil {
		e.Status = *c.Status
	}
	if c.Prominence != nil {
		e.Prominence = *c.Prominence
	}
	if c.Culture != nil {
		e.Culture = *c.Culture
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if len(c.Tags) > 0 && e.Tags == nil {
		e.Tags = make(map[string]any, len(c.Tags))
	}
	for key, value := range c.Tags {
		e.Tags[key] = value
	}
	for _, key := range c.RemoveTags {
		delete(e.Tags, key)
	}
}
