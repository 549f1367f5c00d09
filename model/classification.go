package model

import "fmt"

// ClassificationKind is the coarse architectural category the Scout phase
// proposes for a component. It is used only to pick a Drill strategy.
type ClassificationKind string

const (
	PatternA ClassificationKind = "A"
	PatternB ClassificationKind = "B"
	PatternC ClassificationKind = "C"
)

// Classification is the Scout phase's pattern identification. Absence is
// valid; a malformed one is rejected entirely rather than partially accepted.
type Classification struct {
	Kind       ClassificationKind `json:"pattern_type"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
	Evidence   []string           `json:"tools_called"`
}

// Validate checks the classification against its schema. Callers must treat
// any error as "no classification", never as a partial result.
func (c *Classification) Validate() error {
	switch c.Kind {
	case PatternA, PatternB, PatternC:
	default:
		return fmt.Errorf("pattern_type must be A, B, or C, got %q", c.Kind)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0,1], got %v", c.Confidence)
	}
	if c.Reasoning == "" {
		return fmt.Errorf("reasoning must be non-empty")
	}
	if len(c.Evidence) == 0 {
		return fmt.Errorf("tools_called must list at least one tool")
	}
	return nil
}
