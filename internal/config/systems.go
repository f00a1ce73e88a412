package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"worldweave/internal/catalyst"
	"worldweave/internal/evolution"
	"worldweave/internal/lifecycle"
)

type SystemType string

const (
	SystemRelationshipMaintenance SystemType = "relationship_maintenance"
	SystemConnectionEvolution     SystemType = "connection_evolution"
	SystemCatalyst                SystemType = "catalyst"
)

// SystemSpec is one entry of the domain's systems list. Exactly one of the
// typed configs is set, chosen by Type.
type SystemSpec struct {
	Type        SystemType
	Maintenance *lifecycle.Config
	Evolution   *evolution.Config
	Catalyst    *catalyst.Config
}

func (s *SystemSpec) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type SystemType `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	spec := SystemSpec{Type: head.Type}
	switch head.Type {
	case SystemRelationshipMaintenance:
		spec.Maintenance = &lifecycle.Config{}
		if err := node.Decode(spec.Maintenance); err != nil {
			return fmt.Errorf("%s: %w", head.Type, err)
		}
	case SystemConnectionEvolution:
		spec.Evolution = &evolution.Config{}
		if err := node.Decode(spec.Evolution); err != nil {
			return fmt.Errorf("%s: %w", head.Type, err)
		}
	case SystemCatalyst:
		spec.Catalyst = &catalyst.Config{}
		if err := node.Decode(spec.Catalyst); err != nil {
			return fmt.Errorf("%s: %w", head.Type, err)
		}
	case "":
		return fmt.Errorf("line %d: system type is required", node.Line)
	default:
		return fmt.Errorf("line %d: unknown system type %q", node.Line, head.Type)
	}
	*s = spec
	return nil
}

func (s SystemSpec) ID() string {
	switch {
	case s.Maintenance != nil:
		if s.Maintenance.ID == "" {
			return string(SystemRelationshipMaintenance)
		}
		return s.Maintenance.ID
	case s.Evolution != nil:
		return s.Evolution.ID
	case s.Catalyst != nil:
		return s.Catalyst.ID
	default:
		return ""
	}
}
