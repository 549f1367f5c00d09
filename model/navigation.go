// Package model provides the validated data contracts for the drilldown pipeline.
//
// Information Hiding:
// - Drillability rules encapsulated behind RequiredActionKind
// - Validation logic hidden in ValidateResponse
package model

import "encoding/json"

// NodeType is the closed enumeration of navigation node types.
type NodeType string

const (
	NodeCapability NodeType = "capability"
	NodeCategory   NodeType = "category"
	NodeWorkflow   NodeType = "workflow"
	NodePipeline   NodeType = "pipeline"
	NodeAgent      NodeType = "agent"
	NodeFile       NodeType = "file"
	NodeFunction   NodeType = "function"
	NodeMethod     NodeType = "method"
	NodeModule     NodeType = "module"
	NodeClass      NodeType = "class"
	NodeModel      NodeType = "model"
	NodeDataset    NodeType = "dataset"
	NodePrompt     NodeType = "prompt"
	NodeTool       NodeType = "tool"
	NodeService    NodeType = "service"
	NodeGraph      NodeType = "graph"
	NodeSource     NodeType = "source"
)

// nodeTypes is the full closed set; anything outside it fails validation.
var nodeTypes = map[NodeType]bool{
	NodeCapability: true, NodeCategory: true, NodeWorkflow: true,
	NodePipeline: true, NodeAgent: true, NodeFile: true,
	NodeFunction: true, NodeMethod: true, NodeModule: true,
	NodeClass: true, NodeModel: true, NodeDataset: true,
	NodePrompt: true, NodeTool: true, NodeService: true,
	NodeGraph: true, NodeSource: true,
}

// drillableNodeTypes is the fixed subset whose selection triggers a further
// drilldown request instead of a source inspection.
var drillableNodeTypes = map[NodeType]bool{
	NodeClass:      true,
	NodeWorkflow:   true,
	NodeService:    true,
	NodeCategory:   true,
	NodeCapability: true,
}

// ActionKind describes how a caller should respond when a node is selected.
type ActionKind string

const (
	ActionDrilldown     ActionKind = "component_drilldown"
	ActionInspectSource ActionKind = "inspect_source"
)

// KnownNodeType reports whether t belongs to the closed node-type set.
func KnownNodeType(t NodeType) bool {
	return nodeTypes[t]
}

// Drillable reports whether a node type belongs to the drillable set.
func Drillable(t NodeType) bool {
	return drillableNodeTypes[t]
}

// RequiredActionKind returns the only legal action kind for a node type.
func RequiredActionKind(t NodeType) ActionKind {
	if drillableNodeTypes[t] {
		return ActionDrilldown
	}
	return ActionInspectSource
}

// Action is the navigation metadata exposed when a node is selected.
type Action struct {
	Kind       ActionKind                 `json:"kind"`
	TargetID   string                     `json:"target_id,omitempty"`
	Parameters map[string]json.RawMessage `json:"parameters,omitempty"`
}

// EvidenceItem ties a navigation node back to a structural signal.
type EvidenceItem struct {
	SourceType string `json:"source_type"`
	NodeID     string `json:"node_id,omitempty"`
	Label      string `json:"label,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	Rationale  string `json:"rationale,omitempty"`
}

// SemanticMetadata carries optional business-level annotations for a node.
type SemanticMetadata struct {
	Role              string   `json:"semantic_role,omitempty"`
	BusinessContext   string   `json:"business_context,omitempty"`
	FlowPosition      string   `json:"flow_position,omitempty"`
	RiskLevel         string   `json:"risk_level,omitempty"`
	ImpactedWorkflows []string `json:"impacted_workflows,omitempty"`
}

// NavigationNode is one selectable entry in the next drilldown layer.
type NavigationNode struct {
	NodeKey       string            `json:"node_key"`
	Title         string            `json:"title"`
	NodeType      NodeType          `json:"node_type"`
	Description   string            `json:"description"`
	Action        Action            `json:"action"`
	Evidence      []EvidenceItem    `json:"evidence,omitempty"`
	SequenceOrder *int              `json:"sequence_order,omitempty"`
	Semantic      *SemanticMetadata `json:"semantic_metadata,omitempty"`
	Narrative     string            `json:"business_narrative,omitempty"`
}

// Relationship is a directed edge between two node keys in the same view.
type Relationship struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// NextLayerView is the structured breakdown the Drill phase synthesizes.
type NextLayerView struct {
	FocusLabel    string           `json:"focus_label"`
	FocusKind     string           `json:"focus_kind"`
	Rationale     string           `json:"rationale"`
	Nodes         []NavigationNode `json:"nodes"`
	Relationships []Relationship   `json:"relationships,omitempty"`
	Narrative     string           `json:"workflow_narrative,omitempty"`
	IsSequential  bool             `json:"is_sequential"`
}

// Breadcrumb is one step of the drilldown path taken so far (root-first).
type Breadcrumb struct {
	NodeKey  string                     `json:"node_key"`
	Title    string                     `json:"title"`
	NodeType NodeType                   `json:"node_type"`
	TargetID string                     `json:"target_id,omitempty"`
	Metadata map[string]json.RawMessage `json:"metadata,omitempty"`
}

// TokenMetrics aggregates token usage and estimated cost for one run.
type TokenMetrics struct {
	PromptTokens     uint32  `json:"prompt_tokens"`
	CompletionTokens uint32  `json:"completion_tokens"`
	TotalTokens      uint32  `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

// DrilldownRequest describes the component to analyse and the path so far.
type DrilldownRequest struct {
	ComponentID   string          `json:"component_id"`
	ComponentCard json.RawMessage `json:"component_card,omitempty"`
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	Objectives    []string        `json:"objectives,omitempty"`
	Breadcrumbs   []Breadcrumb    `json:"breadcrumbs,omitempty"`
}

// CurrentFocus returns the deepest breadcrumb, or nil at the root.
func (r *DrilldownRequest) CurrentFocus() *Breadcrumb {
	if len(r.Breadcrumbs) == 0 {
		return nil
	}
	return &r.Breadcrumbs[len(r.Breadcrumbs)-1]
}

// DrilldownResponse is the unit persisted to cache and returned to the caller.
type DrilldownResponse struct {
	ComponentID  string        `json:"component_id"`
	AgentGoal    string        `json:"agent_goal"`
	Breadcrumbs  []Breadcrumb  `json:"breadcrumbs,omitempty"`
	NextLayer    NextLayerView `json:"next_layer"`
	Notes        []string      `json:"notes,omitempty"`
	TokenMetrics *TokenMetrics `json:"token_metrics,omitempty"`
}
