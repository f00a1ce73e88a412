package rules

type MutationType string

const (
	MutationAdjustProminence   MutationType = "adjust_prominence"
	MutationCreateRelationship MutationType = "create_relationship"
	MutationChangeStatus       MutationType = "change_status"
	MutationSetTag             MutationType = "set_tag"
	MutationAddTag             MutationType = "add_tag"
	MutationRemoveTag          MutationType = "remove_tag"
	MutationAdjustStrength     MutationType = "adjust_relationship_strength"
	MutationModifyPressure     MutationType = "modify_pressure"
)

// Binding references understood by the action resolver.
const (
	RefActor         = "$actor"
	RefResolvedActor = "$resolved_actor"
	RefInstigator    = "$instigator"
	RefTarget        = "$target"
	RefTarget2       = "$target2"
	RefMember        = "$member"
	RefMember2       = "$member2"
	RefSelf          = "$self"
)

// Mutation is a tagged union keyed by Type.
type Mutation struct {
	Type MutationType `yaml:"type" json:"type"`

	// Entity is the binding the mutation acts on (adjust_prominence,
	// change_status, tag mutations).
	Entity string `yaml:"entity" json:"entity,omitempty"`

	// adjust_prominence: up or down
	Direction string `yaml:"direction" json:"direction,omitempty"`

	// create_relationship, adjust_relationship_strength
	Kind          string   `yaml:"kind" json:"kind,omitempty"`
	Src           string   `yaml:"src" json:"src,omitempty"`
	Dst           string   `yaml:"dst" json:"dst,omitempty"`
	Strength      *float64 `yaml:"strength" json:"strength,omitempty"`
	Distance      *float64 `yaml:"distance" json:"distance,omitempty"`
	Bidirectional bool     `yaml:"bidirectional" json:"bidirectional,omitempty"`

	// change_status
	Status string `yaml:"status" json:"status,omitempty"`

	// tag mutations
	Tag   string `yaml:"tag" json:"tag,omitempty"`
	Value any    `yaml:"value" json:"value,omitempty"`

	// adjust_relationship_strength, modify_pressure
	Delta    float64 `yaml:"delta" json:"delta,omitempty"`
	Pressure string  `yaml:"pressure" json:"pressure,omitempty"`
}

type Instigator struct {
	Selection Selection `yaml:"selection" json:"selection"`
	Required  bool      `yaml:"required" json:"required,omitempty"`
}

// Action composes actor checks, targeting and a mutation batch.
type Action struct {
	ID              string      `yaml:"id" json:"id"`
	Name            string      `yaml:"name" json:"name,omitempty"`
	Instigator      *Instigator `yaml:"instigator" json:"instigator,omitempty"`
	ActorConditions []Condition `yaml:"actor_conditions" json:"actor_conditions,omitempty"`
	Targeting       Selection   `yaml:"targeting" json:"targeting"`
	Mutations       []Mutation  `yaml:"mutations" json:"mutations"`
	Description     string      `yaml:"description" json:"description,omitempty"`
}
