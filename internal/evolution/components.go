package evolution

import "worldweave/internal/graph"

// components is an undirected adjacency index over the relationship kinds
// a component-size limit counts. Accepted pairs are linked as they are
// accepted so later pairs in the same tick see them.
type components struct {
	kinds map[string]bool
	adj   map[string]map[string]bool
}

func newComponents(store *graph.Store, kinds []string) *components {
	c := &components{adj: make(map[string]map[string]bool)}
	if len(kinds) > 0 {
		c.kinds = make(map[string]bool, len(kinds))
		for _, kind := range kinds {
			c.kinds[kind] = true
		}
	}
	for _, rel := range store.Relationships() {
		if c.covers(rel.Kind) {
			c.link(rel.Src, rel.Dst)
		}
	}
	return c
}

func (c *components) covers(kind string) bool {
	return c.kinds == nil || c.kinds[kind]
}

func (c *components) link(a, b string) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if c.adj[pair[0]] == nil {
			c.adj[pair[0]] = make(map[string]bool)
		}
		c.adj[pair[0]][pair[1]] = true
	}
}

// reach collects the component containing start by depth-first traversal.
func (c *components) reach(start string) map[string]bool {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range c.adj[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}

// mergedSize is the size of the component a and b would share if linked.
func (c *components) mergedSize(a, b string) int {
	fromA := c.reach(a)
	if fromA[b] {
		return len(fromA)
	}
	return len(fromA) + len(c.reach(b))
}
