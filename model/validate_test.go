package model

import "testing"

func node(key string, nodeType NodeType, kind ActionKind) NavigationNode {
	return NavigationNode{
		NodeKey:     key,
		Title:       key,
		NodeType:    nodeType,
		Description: "a node",
		Action:      Action{Kind: kind},
	}
}

func viewOf(nodes ...NavigationNode) NextLayerView {
	return NextLayerView{
		FocusLabel: "focus",
		FocusKind:  "service",
		Rationale:  "breakdown",
		Nodes:      nodes,
	}
}

func TestActionKindMatrix(t *testing.T) {
	// Every known node type accepts exactly one action kind.
	allTypes := []NodeType{
		NodeCapability, NodeCategory, NodeWorkflow, NodePipeline, NodeAgent,
		NodeFile, NodeFunction, NodeMethod, NodeModule, NodeClass, NodeModel,
		NodeDataset, NodePrompt, NodeTool, NodeService, NodeGraph, NodeSource,
	}
	for _, nodeType := range allTypes {
		legal := RequiredActionKind(nodeType)
		var illegal ActionKind
		if legal == ActionDrilldown {
			illegal = ActionInspectSource
		} else {
			illegal = ActionDrilldown
		}

		good := viewOf(node("n", nodeType, legal))
		if err := ValidateView(&good); err != nil {
			t.Errorf("type %q with action %q rejected: %v", nodeType, legal, err)
		}

		bad := viewOf(node("n", nodeType, illegal))
		if err := ValidateView(&bad); err == nil {
			t.Errorf("type %q with action %q accepted, want rejection", nodeType, illegal)
		}
	}
}

func TestDrillableSet(t *testing.T) {
	drillable := []NodeType{NodeClass, NodeWorkflow, NodeService, NodeCategory, NodeCapability}
	for _, nodeType := range drillable {
		if !Drillable(nodeType) {
			t.Errorf("type %q should be drillable", nodeType)
		}
		if RequiredActionKind(nodeType) != ActionDrilldown {
			t.Errorf("type %q should require the drilldown action", nodeType)
		}
	}
	for _, nodeType := range []NodeType{NodeFile, NodeFunction, NodeMethod, NodeModule, NodeSource, NodeTool} {
		if Drillable(nodeType) {
			t.Errorf("type %q should not be drillable", nodeType)
		}
		if RequiredActionKind(nodeType) != ActionInspectSource {
			t.Errorf("type %q should require the inspect action", nodeType)
		}
	}
}

func TestValidateViewRejectsEmptyNodes(t *testing.T) {
	view := viewOf()
	if err := ValidateView(&view); err == nil {
		t.Error("empty node list accepted")
	}
}

func TestValidateViewRejectsUnknownType(t *testing.T) {
	view := viewOf(node("n", "spaceship", ActionDrilldown))
	if err := ValidateView(&view); err == nil {
		t.Error("unknown node type accepted")
	}
}

func TestValidateViewRejectsDuplicateKeys(t *testing.T) {
	view := viewOf(
		node("dup", NodeClass, ActionDrilldown),
		node("dup", NodeWorkflow, ActionDrilldown),
	)
	if err := ValidateView(&view); err == nil {
		t.Error("duplicate node keys accepted")
	}
}

func TestValidateViewRelationshipEndpoints(t *testing.T) {
	view := viewOf(
		node("a", NodeClass, ActionDrilldown),
		node("b", NodeWorkflow, ActionDrilldown),
	)
	view.Relationships = []Relationship{{From: "a", To: "b", Label: "calls"}}
	if err := ValidateView(&view); err != nil {
		t.Errorf("valid relationship rejected: %v", err)
	}

	view.Relationships = []Relationship{{From: "a", To: "ghost"}}
	if err := ValidateView(&view); err == nil {
		t.Error("relationship to unknown key accepted")
	}
}

func TestClassificationValidate(t *testing.T) {
	valid := Classification{
		Kind:       PatternA,
		Confidence: 0.5,
		Reasoning:  "layered",
		Evidence:   []string{"read_source"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid classification rejected: %v", err)
	}

	cases := []Classification{
		{Kind: "D", Confidence: 0.5, Reasoning: "x", Evidence: []string{"t"}},
		{Kind: PatternA, Confidence: -0.1, Reasoning: "x", Evidence: []string{"t"}},
		{Kind: PatternA, Confidence: 1.1, Reasoning: "x", Evidence: []string{"t"}},
		{Kind: PatternA, Confidence: 0.5, Reasoning: "", Evidence: []string{"t"}},
		{Kind: PatternA, Confidence: 0.5, Reasoning: "x", Evidence: nil},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: invalid classification accepted: %+v", i, c)
		}
	}
}

func TestCurrentFocus(t *testing.T) {
	req := DrilldownRequest{ComponentID: "billing"}
	if req.CurrentFocus() != nil {
		t.Error("expected nil focus at root")
	}

	req.Breadcrumbs = []Breadcrumb{
		{NodeKey: "a", NodeType: NodeCapability},
		{NodeKey: "b", NodeType: NodeClass},
	}
	focus := req.CurrentFocus()
	if focus == nil || focus.NodeKey != "b" {
		t.Errorf("focus = %+v, want the deepest breadcrumb", focus)
	}
}
