package selection

import (
	"strings"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

// Resolver turns an entity reference into an entity. References starting
// with '$' are variables; anything else is a literal entity id.
type Resolver interface {
	Resolve(ref string) (*graph.Entity, bool)
}

// LiteralResolver serves system contexts, which have no variables.
type LiteralResolver struct {
	Store *graph.Store
}

func (r LiteralResolver) Resolve(ref string) (*graph.Entity, bool) {
	if r.Store == nil || ref == "" || strings.HasPrefix(ref, "$") {
		return nil, false
	}
	return r.Store.Entity(ref)
}

// Bindings maps variable references to entity ids.
type Bindings map[string]string

// ActionResolver serves action contexts. $resolved_actor is the instigator
// when one was bound, otherwise the actor.
type ActionResolver struct {
	Store    *graph.Store
	Bindings Bindings
}

func (r ActionResolver) Resolve(ref string) (*graph.Entity, bool) {
	if r.Store == nil || ref == "" {
		return nil, false
	}
	if !strings.HasPrefix(ref, "$") {
		return r.Store.Entity(ref)
	}
	id, ok := r.Bindings[ref]
	if !ok && ref == rules.RefResolvedActor {
		if id, ok = r.Bindings[rules.RefInstigator]; !ok {
			id, ok = r.Bindings[rules.RefActor]
		}
	}
	if !ok || id == "" {
		return nil, false
	}
	return r.Store.Entity(id)
}

func resolveID(r Resolver, ref string) (string, bool) {
	if r == nil {
		return "", false
	}
	e, ok := r.Resolve(ref)
	if !ok {
		return "", false
	}
	return e.ID, true
}
