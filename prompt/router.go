// Package prompt selects and renders the instruction set for each phase of a
// drilldown run.
//
// Routing is a total function over a closed input space. Every combination of
// phase, focus kind, and classification resolves to exactly one strategy; no
// free-text comparison is involved.
package prompt

import "github.com/richinex/spelunk/model"

// Phase identifies which half of the pipeline is asking for instructions.
type Phase int

const (
	// PhaseScout is the evidence-gathering tool loop.
	PhaseScout Phase = iota
	// PhaseDrill is the synthesis pass over the Scout conclusion.
	PhaseDrill
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseScout:
		return "scout"
	case PhaseDrill:
		return "drill"
	default:
		return "unknown"
	}
}

// Strategy identifies one of the fixed instruction sets.
type Strategy string

const (
	ScoutGeneral    Strategy = "scout-general"
	ScoutStructural Strategy = "scout-structural"
	DrillGeneric    Strategy = "drill-generic"
	DrillPatternA   Strategy = "drill-pattern-a"
	DrillPatternB   Strategy = "drill-pattern-b"
	DrillPatternC   Strategy = "drill-pattern-c"
	DrillStructural Strategy = "drill-structural"
)

// structuralFocusKinds are the code-level node types. Focusing on one of
// these puts the run into the structural strategy family regardless of any
// classification.
var structuralFocusKinds = map[model.NodeType]bool{
	model.NodeClass:    true,
	model.NodeFunction: true,
	model.NodeMethod:   true,
	model.NodeModule:   true,
}

// StructuralFocus reports whether the focus node type is a code-level element.
func StructuralFocus(focus model.NodeType) bool {
	return structuralFocusKinds[focus]
}

// Select maps (phase, focus kind, classification) to a strategy. The focus is
// the node type of the deepest breadcrumb; the zero value means a root-level
// run. A nil classification in the Drill phase selects the generic strategy.
// Select is total: every input resolves to exactly one strategy.
func Select(phase Phase, focus model.NodeType, classification *model.Classification) Strategy {
	structural := StructuralFocus(focus)

	if phase == PhaseScout {
		if structural {
			return ScoutStructural
		}
		return ScoutGeneral
	}

	if structural {
		return DrillStructural
	}
	if classification == nil {
		return DrillGeneric
	}
	switch classification.Kind {
	case model.PatternA:
		return DrillPatternA
	case model.PatternB:
		return DrillPatternB
	case model.PatternC:
		return DrillPatternC
	default:
		return DrillGeneric
	}
}
