package metric

import (
	"math"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

const epsilon = 1e-9

type Outcome struct {
	Holds     bool
	Value     float64
	Threshold float64
}

// Threshold resolves t for e. Prominence-scaled thresholds grow with the
// entity's ladder position: (index+1) × multiplier.
func Threshold(t rules.Threshold, e *graph.Entity) float64 {
	switch t.Type {
	case rules.ThresholdProminenceScaled:
		multiplier := t.Multiplier
		if multiplier == 0 {
			multiplier = rules.DefaultProminenceMultiplier
		}
		index := 0
		if e != nil {
			index = e.Prominence.Index()
		}
		return float64(index+1) * multiplier
	default:
		return t.Value
	}
}

// Compare applies op. Unknown operators hold.
func Compare(op rules.Operator, value, threshold float64) bool {
	switch op {
	case rules.OpEqual:
		return math.Abs(value-threshold) < epsilon
	case rules.OpNotEqual:
		return math.Abs(value-threshold) >= epsilon
	case rules.OpLess:
		return value < threshold
	case rules.OpLessEqual:
		return value <= threshold+epsilon
	case rules.OpGreater:
		return value > threshold
	case rules.OpGreaterEqual:
		return value+epsilon >= threshold
	default:
		return true
	}
}

// Check compares an already computed value against c.
func Check(c rules.Condition, e *graph.Entity, value float64) Outcome {
	threshold := Threshold(c.Threshold, e)
	return Outcome{
		Holds:     Compare(c.Operator, value, threshold),
		Value:     value,
		Threshold: threshold,
	}
}

// EvaluateCondition computes the condition's own metric for e and checks
// it. A condition without a metric holds.
func EvaluateCondition(store *graph.Store, c rules.Condition, e *graph.Entity) Outcome {
	if c.Metric == nil {
		return Outcome{Holds: true}
	}
	value := Evaluate(store, *c.Metric, e)
	return Check(c, e, value.Value)
}
