// Package rules holds the declarative configuration values evaluated by the
// engine: selections, filters, metrics, conditions, mutations and actions.
// They are plain data decoded from the domain file; evaluation lives in the
// selection, metric, mutation and action packages.
package rules

type Direction string

const (
	DirectionSrc  Direction = "src"
	DirectionDst  Direction = "dst"
	DirectionBoth Direction = "both"
)

type PickStrategy string

const (
	PickAll    PickStrategy = "all"
	PickRandom PickStrategy = "random"
	PickTopN   PickStrategy = "top_n"
)

type Selection struct {
	Kind       string       `yaml:"kind" json:"kind,omitempty"`
	Kinds      []string     `yaml:"kinds" json:"kinds,omitempty"`
	Subtype    string       `yaml:"subtype" json:"subtype,omitempty"`
	Subtypes   []string     `yaml:"subtypes" json:"subtypes,omitempty"`
	Status     string       `yaml:"status" json:"status,omitempty"`
	NotStatus  []string     `yaml:"not_status" json:"not_status,omitempty"`
	Filters    []Filter     `yaml:"filters" json:"filters,omitempty"`
	Pick       PickStrategy `yaml:"pick" json:"pick,omitempty"`
	PickMetric *Metric      `yaml:"pick_metric" json:"pick_metric,omitempty"`
	MaxResults int          `yaml:"max_results" json:"max_results,omitempty"`
}

// CandidateKinds merges the single and list forms.
func (s Selection) CandidateKinds() []string {
	return mergeNames(s.Kind, s.Kinds)
}

func (s Selection) CandidateSubtypes() []string {
	return mergeNames(s.Subtype, s.Subtypes)
}

func mergeNames(single string, list []string) []string {
	if single == "" {
		return list
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, single)
	for _, name := range list {
		if name != single {
			out = append(out, name)
		}
	}
	return out
}

type FilterType string

const (
	FilterExclude           FilterType = "exclude"
	FilterHasRelationship   FilterType = "has_relationship"
	FilterLacksRelationship FilterType = "lacks_relationship"
	FilterHasTag            FilterType = "has_tag"
	FilterHasTags           FilterType = "has_tags"
	FilterHasAnyTag         FilterType = "has_any_tag"
	FilterLacksTag          FilterType = "lacks_tag"
	FilterLacksAnyTag       FilterType = "lacks_any_tag"
	FilterHasCulture        FilterType = "has_culture"
	FilterMatchesCulture    FilterType = "matches_culture"
	FilterHasProminence     FilterType = "has_prominence"
	FilterSharesRelated     FilterType = "shares_related"
	FilterGraphPath         FilterType = "graph_path"
	FilterHasStatus         FilterType = "has_status"
	FilterNotSelf           FilterType = "not_self"
)

// Filter is a tagged union keyed by Type. Fields irrelevant to a type are
// ignored.
type Filter struct {
	Type FilterType `yaml:"type" json:"type"`

	// exclude, not_self
	Entities []string `yaml:"entities" json:"entities,omitempty"`

	// has_relationship, lacks_relationship, shares_related
	Kind      string    `yaml:"kind" json:"kind,omitempty"`
	With      string    `yaml:"with" json:"with,omitempty"`
	Direction Direction `yaml:"direction" json:"direction,omitempty"`

	// tag filters
	Tag   string   `yaml:"tag" json:"tag,omitempty"`
	Value any      `yaml:"value" json:"value,omitempty"`
	Tags  []string `yaml:"tags" json:"tags,omitempty"`

	// has_culture, has_status
	Culture string `yaml:"culture" json:"culture,omitempty"`
	Status  string `yaml:"status" json:"status,omitempty"`

	// has_prominence
	MinProminence string `yaml:"min_prominence" json:"min_prominence,omitempty"`

	// graph_path
	Path *PathAssertion `yaml:"path" json:"path,omitempty"`
}

type PathCheck string

const (
	PathExists    PathCheck = "exists"
	PathNotExists PathCheck = "not_exists"
	PathCountMin  PathCheck = "count_min"
	PathCountMax  PathCheck = "count_max"
)

type PathAssertion struct {
	Check PathCheck     `yaml:"check" json:"check"`
	Steps []PathStep    `yaml:"steps" json:"steps"`
	Count int           `yaml:"count" json:"count,omitempty"`
	Where []PathBinding `yaml:"where" json:"where,omitempty"`
}

type PathStep struct {
	Via           string    `yaml:"via" json:"via"`
	Direction     Direction `yaml:"direction" json:"direction,omitempty"`
	TargetKind    string    `yaml:"target_kind" json:"target_kind,omitempty"`
	TargetSubtype string    `yaml:"target_subtype" json:"target_subtype,omitempty"`
	TargetStatus  string    `yaml:"target_status" json:"target_status,omitempty"`
}

type PathBindingType string

const (
	PathNotSelf PathBindingType = "not_self"
	PathIs      PathBindingType = "is"
	PathIsNot   PathBindingType = "is_not"
)

// PathBinding constrains the entity a path ends on.
type PathBinding struct {
	Type   PathBindingType `yaml:"type" json:"type"`
	Entity string          `yaml:"entity" json:"entity,omitempty"`
}
