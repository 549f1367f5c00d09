package prompt

import (
	"strings"
	"testing"

	"github.com/richinex/spelunk/model"
)

func classificationOf(kind model.ClassificationKind) *model.Classification {
	return &model.Classification{
		Kind:       kind,
		Confidence: 0.9,
		Reasoning:  "observed in the sources",
		Evidence:   []string{"read_source"},
	}
}

func TestSelectScoutStrategies(t *testing.T) {
	if got := Select(PhaseScout, "", nil); got != ScoutGeneral {
		t.Errorf("root scout = %q, want %q", got, ScoutGeneral)
	}
	if got := Select(PhaseScout, model.NodeWorkflow, classificationOf(model.PatternA)); got != ScoutGeneral {
		t.Errorf("workflow scout = %q, want %q", got, ScoutGeneral)
	}
	for _, focus := range []model.NodeType{model.NodeClass, model.NodeFunction, model.NodeMethod, model.NodeModule} {
		if got := Select(PhaseScout, focus, nil); got != ScoutStructural {
			t.Errorf("scout focus %q = %q, want %q", focus, got, ScoutStructural)
		}
	}
}

func TestSelectDrillByClassification(t *testing.T) {
	cases := []struct {
		classification *model.Classification
		want           Strategy
	}{
		{nil, DrillGeneric},
		{classificationOf(model.PatternA), DrillPatternA},
		{classificationOf(model.PatternB), DrillPatternB},
		{classificationOf(model.PatternC), DrillPatternC},
	}
	for _, tc := range cases {
		if got := Select(PhaseDrill, model.NodeWorkflow, tc.classification); got != tc.want {
			t.Errorf("drill(%+v) = %q, want %q", tc.classification, got, tc.want)
		}
	}
}

func TestStructuralFocusOverridesClassification(t *testing.T) {
	for _, focus := range []model.NodeType{model.NodeClass, model.NodeFunction, model.NodeMethod, model.NodeModule} {
		got := Select(PhaseDrill, focus, classificationOf(model.PatternB))
		if got != DrillStructural {
			t.Errorf("drill focus %q = %q, want %q", focus, got, DrillStructural)
		}
	}
}

func TestSelectIsTotal(t *testing.T) {
	// Every node type in the closed set, with and without a classification,
	// must resolve to a named strategy with a non-empty system text.
	focuses := []model.NodeType{
		"", model.NodeCapability, model.NodeCategory, model.NodeWorkflow,
		model.NodePipeline, model.NodeAgent, model.NodeFile, model.NodeFunction,
		model.NodeMethod, model.NodeModule, model.NodeClass, model.NodeModel,
		model.NodeDataset, model.NodePrompt, model.NodeTool, model.NodeService,
		model.NodeGraph, model.NodeSource,
	}
	classifications := []*model.Classification{
		nil,
		classificationOf(model.PatternA),
		classificationOf(model.PatternB),
		classificationOf(model.PatternC),
	}
	for _, phase := range []Phase{PhaseScout, PhaseDrill} {
		for _, focus := range focuses {
			for _, c := range classifications {
				strategy := Select(phase, focus, c)
				if strategy == "" {
					t.Fatalf("Select(%v, %q, %+v) returned empty strategy", phase, focus, c)
				}
				if SystemText(strategy) == "" {
					t.Fatalf("strategy %q has no system text", strategy)
				}
			}
		}
	}
}

func TestFormatRequestRoot(t *testing.T) {
	req := &model.DrilldownRequest{ComponentID: "billing", Title: "Billing Service"}
	text := FormatRequest(req)
	for _, want := range []string{"Component: billing", "Title: Billing Service", "(root)"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted request missing %q:\n%s", want, text)
		}
	}
}

func TestFormatRequestWithPath(t *testing.T) {
	req := &model.DrilldownRequest{
		ComponentID: "billing",
		Breadcrumbs: []model.Breadcrumb{
			{NodeKey: "invoicing", Title: "Invoicing", NodeType: model.NodeCapability},
			{NodeKey: "ledger", Title: "Ledger", NodeType: model.NodeClass, TargetID: "cls_42"},
		},
	}
	text := FormatRequest(req)
	for _, want := range []string{"1. Invoicing [capability]", "2. Ledger [class]", "Current focus: Ledger [class] (target cls_42)"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted request missing %q:\n%s", want, text)
		}
	}
}
