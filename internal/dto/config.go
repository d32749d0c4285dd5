package dto

import (
	"fmt"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Loop condition types.
const (
	ConditionRunCount = "runCount"
	ConditionVariable = "variable"
)

// StartConfig configures a start card.
type StartConfig struct {
	WelcomeText string `mapstructure:"welcome_text"`
}

// WorkTaskConfig configures a worktask card.
type WorkTaskConfig struct {
	TaskID      string        `mapstructure:"task_id"`
	OutputField string        `mapstructure:"output_field"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DisplayConfig configures a display card.
type DisplayConfig struct {
	Text string `mapstructure:"text"`
}

// AssignConfig configures an assign card.
type AssignConfig struct {
	Assignments []domain.Assignment `mapstructure:"assignments"`
}

// LoopConfig configures a loop card.
type LoopConfig struct {
	ConditionType string `mapstructure:"condition_type"`
	MaxRuns       int    `mapstructure:"max_runs"`
	Variable      string `mapstructure:"variable"`
	Expected      string `mapstructure:"expected"`
	Yes           string `mapstructure:"yes"`
	No            string `mapstructure:"no"`
}

// DecodeConfig decodes the loose config map of node into out.
// Input is weakly typed: numbers and booleans coming from YAML or JSON are accepted
// where strings are expected, and durations may be written as "30s".
func DecodeConfig(node domain.ExecutionNode, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := dec.Decode(node.Config); err != nil {
		return &domain.NodeConfigError{NodeID: node.ID, Reason: err.Error()}
	}
	return nil
}

// DecodeWorkTask decodes and defaults a worktask config.
func DecodeWorkTask(node domain.ExecutionNode) (WorkTaskConfig, error) {
	var cfg WorkTaskConfig
	if err := DecodeConfig(node, &cfg); err != nil {
		return cfg, err
	}
	if cfg.TaskID == "" {
		return cfg, &domain.NodeConfigError{NodeID: node.ID, Reason: "task_id is required"}
	}
	if cfg.OutputField == "" {
		cfg.OutputField = domain.DefaultOutputField
	}
	return cfg, nil
}

// DecodeAssign decodes an assign config and checks every entry has one value supplier.
func DecodeAssign(node domain.ExecutionNode) (AssignConfig, error) {
	var cfg AssignConfig
	if err := DecodeConfig(node, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Assignments) == 0 {
		return cfg, &domain.NodeConfigError{NodeID: node.ID, Reason: "no assignments configured"}
	}
	return cfg, nil
}

// DecodeLoop decodes a loop config and checks the condition is complete.
func DecodeLoop(node domain.ExecutionNode) (LoopConfig, error) {
	var cfg LoopConfig
	if err := DecodeConfig(node, &cfg); err != nil {
		return cfg, err
	}
	switch cfg.ConditionType {
	case ConditionRunCount:
		if cfg.MaxRuns <= 0 {
			return cfg, &domain.NodeConfigError{NodeID: node.ID, Reason: "max_runs must be positive"}
		}
	case ConditionVariable:
		if cfg.Variable == "" {
			return cfg, &domain.NodeConfigError{NodeID: node.ID, Reason: "variable condition without variable"}
		}
	default:
		return cfg, &domain.NodeConfigError{NodeID: node.ID, Reason: fmt.Sprintf("unknown condition_type %q", cfg.ConditionType)}
	}
	return cfg, nil
}

// ValidateConfig decodes the config of node according to its type.
func ValidateConfig(node domain.ExecutionNode) error {
	switch node.Type {
	case domain.NodeTypeStart:
		return DecodeConfig(node, &StartConfig{})
	case domain.NodeTypeDisplay:
		return DecodeConfig(node, &DisplayConfig{})
	case domain.NodeTypeWorkTask:
		_, err := DecodeWorkTask(node)
		return err
	case domain.NodeTypeAssign:
		_, err := DecodeAssign(node)
		return err
	case domain.NodeTypeLoop:
		_, err := DecodeLoop(node)
		return err
	}
	return &domain.NodeConfigError{NodeID: node.ID, Reason: fmt.Sprintf("unknown node type %q", node.Type)}
}
