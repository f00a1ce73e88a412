package graph

const DefaultStrength = 0.5

type Relationship struct {
	Kind      string   `json:"kind"`
	Src       string   `json:"src"`
	Dst       string   `json:"dst"`
	Strength  *float64 `json:"strength,omitempty"`
	Distance  *float64 `json:"distance,omitempty"`
	Status    string   `json:"status,omitempty"`
	CreatedAt int      `json:"created_at"`
}

// StrengthValue returns the stored strength, or DefaultStrength when the
// field was never set.
func (r Relationship) StrengthValue() float64 {
	if r.Strength == nil {
		return DefaultStrength
	}
	return *r.Strength
}

func (r Relationship) Same(kind, src, dst string) bool {
	return r.Kind == kind && r.Src == src && r.Dst == dst
}

// Touches reports whether id is one of the endpoints.
func (r Relationship) Touches(id string) bool {
	return r.Src == id || r.Dst == id
}

// Other returns the opposite endpoint of id.
func (r Relationship) Other(id string) string {
	if r.Src == id {
		return r.Dst
	}
	return r.Src
}

func Float(v float64) *float64 {
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
