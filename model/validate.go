package model

import "fmt"

// ValidateResponse enforces the structural invariants of a synthesized
// drilldown response. A single inconsistent node rejects the whole response:
// silently repairing it would hide a systemic prompting/schema mismatch.
func ValidateResponse(resp *DrilldownResponse) error {
	return ValidateView(&resp.NextLayer)
}

// ValidateView checks a next-layer view: non-empty node list, closed node
// types, action kinds consistent with drillability, and relationship
// endpoints referencing node keys present in the view.
func ValidateView(view *NextLayerView) error {
	if len(view.Nodes) == 0 {
		return fmt.Errorf("next layer requires at least one navigation node")
	}

	keys := make(map[string]bool, len(view.Nodes))
	for i := range view.Nodes {
		node := &view.Nodes[i]
		if err := validateNode(node); err != nil {
			return fmt.Errorf("node %q: %w", node.NodeKey, err)
		}
		if keys[node.NodeKey] {
			return fmt.Errorf("node key %q duplicated within layer", node.NodeKey)
		}
		keys[node.NodeKey] = true
	}

	for _, rel := range view.Relationships {
		if !keys[rel.From] {
			return fmt.Errorf("relationship references unknown node key %q", rel.From)
		}
		if !keys[rel.To] {
			return fmt.Errorf("relationship references unknown node key %q", rel.To)
		}
	}

	return nil
}

func validateNode(node *NavigationNode) error {
	if node.NodeKey == "" {
		return fmt.Errorf("node_key must be non-empty")
	}
	if !KnownNodeType(node.NodeType) {
		return fmt.Errorf("unknown node_type %q", node.NodeType)
	}
	if want := RequiredActionKind(node.NodeType); node.Action.Kind != want {
		return fmt.Errorf("node_type %q requires action kind %q, got %q",
			node.NodeType, want, node.Action.Kind)
	}
	return nil
}
