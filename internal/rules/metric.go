package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type MetricType string

const (
	MetricConnectionCount    MetricType = "connection_count"
	MetricSharedRelationship MetricType = "shared_relationship"
	MetricCatalyzedEvents    MetricType = "catalyzed_events"
	MetricProminence         MetricType = "prominence"
	MetricPressure           MetricType = "pressure"
)

type Metric struct {
	Type        MetricType `yaml:"type" json:"type"`
	Kinds       []string   `yaml:"kinds" json:"kinds,omitempty"`
	Kind        string     `yaml:"kind" json:"kind,omitempty"`
	Direction   Direction  `yaml:"direction" json:"direction,omitempty"`
	MinStrength float64    `yaml:"min_strength" json:"min_strength,omitempty"`
	Pressure    string     `yaml:"pressure" json:"pressure,omitempty"`
}

// RelationshipKinds merges the single and list forms.
func (m Metric) RelationshipKinds() []string {
	return mergeNames(m.Kind, m.Kinds)
}

type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
)

var operatorAliases = map[string]Operator{
	"=": OpEqual, "==": OpEqual, "eq": OpEqual,
	"!=": OpNotEqual, "≠": OpNotEqual, "ne": OpNotEqual,
	"<": OpLess, "lt": OpLess,
	"<=": OpLessEqual, "≤": OpLessEqual, "lte": OpLessEqual,
	">": OpGreater, "gt": OpGreater,
	">=": OpGreaterEqual, "≥": OpGreaterEqual, "gte": OpGreaterEqual,
}

// ParseOperator normalises the symbolic and word forms.
func ParseOperator(value string) (Operator, bool) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(value))]
	return op, ok
}

func (o *Operator) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if op, ok := ParseOperator(raw); ok {
		*o = op
		return nil
	}
	// Unknown operators survive decoding and evaluate permissively.
	*o = Operator(raw)
	return nil
}

type ThresholdType string

const (
	ThresholdLiteral          ThresholdType = "literal"
	ThresholdProminenceScaled ThresholdType = "prominence_scaled"
)

const DefaultProminenceMultiplier = 6

type Threshold struct {
	Type       ThresholdType `yaml:"type" json:"type"`
	Value      float64       `yaml:"value" json:"value,omitempty"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier,omitempty"`
}

func Literal(v float64) Threshold {
	return Threshold{Type: ThresholdLiteral, Value: v}
}

func ProminenceScaled(multiplier float64) Threshold {
	return Threshold{Type: ThresholdProminenceScaled, Multiplier: multiplier}
}

// UnmarshalYAML accepts a bare number as a literal threshold or a mapping
// with an explicit type.
func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
		*t = Literal(v)
		return nil
	}
	type plain Threshold
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("threshold: %w", err)
	}
	if raw.Type == "" {
		raw.Type = ThresholdLiteral
	}
	*t = Threshold(raw)
	return nil
}

type Condition struct {
	Metric    *Metric   `yaml:"metric" json:"metric,omitempty"`
	Operator  Operator  `yaml:"operator" json:"operator"`
	Threshold Threshold `yaml:"threshold" json:"threshold"`
}
