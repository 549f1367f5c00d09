package prompt

import (
	"fmt"
	"strings"

	"github.com/richinex/spelunk/model"
)

// responseSchema describes the JSON shape every Drill strategy must produce.
const responseSchema = `Respond with a single JSON object of this shape:
{
  "focus_label": "<what this layer focuses on>",
  "focus_kind": "<capability|category|workflow|pipeline|agent|file|function|method|module|class|model|dataset|prompt|tool|service|graph|source>",
  "rationale": "<why this breakdown>",
  "is_sequential": <true if the nodes form an ordered flow>,
  "workflow_narrative": "<optional prose walk-through of the flow>",
  "nodes": [
    {
      "node_key": "<stable snake_case key>",
      "title": "<short display title>",
      "node_type": "<one of the focus_kind values above>",
      "description": "<one or two sentences>",
      "action": {"kind": "<component_drilldown|inspect_source>", "target_id": "<optional>"},
      "sequence_order": <optional integer for sequential flows>,
      "evidence": [{"source_type": "<tool|file|graph>", "file_path": "<optional>", "rationale": "<optional>"}]
    }
  ],
  "relationships": [{"from": "<node_key>", "to": "<node_key>", "label": "<optional>"}]
}
Node types class, workflow, service, category and capability take the
component_drilldown action; every other node type takes inspect_source.
Relationship endpoints must name node_key values present in "nodes".`

const scoutGeneralText = `You are the Scout, the evidence-gathering half of a code drilldown agent.
Explore the component using the available tools. Read what you need, no more.
When you have enough evidence, stop calling tools and write a conclusion:
what the component does, how it is organized, and which architectural
pattern fits it best.

End your conclusion with a JSON object under the key
"scout_pattern_identification":
{"scout_pattern_identification": {
  "pattern_type": "A" | "B" | "C",
  "confidence": <0.0-1.0>,
  "reasoning": "<one paragraph>",
  "tools_called": ["<tool names you used>"]
}}
Pattern A means layered or hierarchical composition. Pattern B means a
pipeline or staged data flow. Pattern C means event-driven or reactive
fan-out. If none fits, omit the JSON object entirely.`

const scoutStructuralText = `You are the Scout, the evidence-gathering half of a code drilldown agent.
The current focus is a single code element (a class, function, method or
module). Use the tools to read its definition, its direct callers and its
callees. Do not survey the wider component.
When you have enough evidence, stop calling tools and write a conclusion
describing the element's responsibilities, collaborators and internal
structure. Do not emit a pattern classification for a single code element.`

const drillGenericText = `You are the Drill, the synthesis half of a code drilldown agent.
You receive a request and a Scout conclusion. You must not call tools or ask
for more evidence; work only from what you were given.
Break the component into 3-8 navigable nodes a developer would drill into
next. Prefer conceptual groupings over file listings.
` + responseSchema

const drillPatternAText = `You are the Drill, the synthesis half of a code drilldown agent.
The Scout identified a layered composition. Break the component into its
layers, top-down, one node per layer. Capture cross-layer dependencies as
relationships pointing from the depending layer to the layer it uses.
Work only from the request and the Scout conclusion; do not call tools.
` + responseSchema

const drillPatternBText = `You are the Drill, the synthesis half of a code drilldown agent.
The Scout identified a staged pipeline. Break the component into its stages
in execution order, set "is_sequential" to true, give every node a
sequence_order, and write a workflow_narrative walking through one item's
journey end to end.
Work only from the request and the Scout conclusion; do not call tools.
` + responseSchema

const drillPatternCText = `You are the Drill, the synthesis half of a code drilldown agent.
The Scout identified an event-driven design. Break the component into its
event sources, handlers and sinks. Capture every publish/subscribe edge as a
relationship labelled with the event it carries.
Work only from the request and the Scout conclusion; do not call tools.
` + responseSchema

const drillStructuralText = `You are the Drill, the synthesis half of a code drilldown agent.
The focus is a single code element. Break it into its members, inner helpers
and direct collaborators. Use inspect_source actions with target_id set to
the element's identifier wherever you can resolve one.
Work only from the request and the Scout conclusion; do not call tools.
` + responseSchema

var strategyTexts = map[Strategy]string{
	ScoutGeneral:    scoutGeneralText,
	ScoutStructural: scoutStructuralText,
	DrillGeneric:    drillGenericText,
	DrillPatternA:   drillPatternAText,
	DrillPatternB:   drillPatternBText,
	DrillPatternC:   drillPatternCText,
	DrillStructural: drillStructuralText,
}

// SystemText returns the system prompt for a strategy.
func SystemText(s Strategy) string {
	return strategyTexts[s]
}

// FormatRequest renders a drilldown request as the user message for either
// phase. The same rendering is used in both so the Drill phase sees exactly
// what the Scout phase was asked.
func FormatRequest(req *model.DrilldownRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Component: %s\n", req.ComponentID)
	if req.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", req.Title)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	for _, objective := range req.Objectives {
		fmt.Fprintf(&b, "Objective: %s\n", objective)
	}
	if len(req.ComponentCard) > 0 {
		fmt.Fprintf(&b, "Component card:\n%s\n", req.ComponentCard)
	}

	if len(req.Breadcrumbs) == 0 {
		b.WriteString("Drilldown path: (root)\n")
	} else {
		b.WriteString("Drilldown path (root first):\n")
		for i, crumb := range req.Breadcrumbs {
			fmt.Fprintf(&b, "  %d. %s [%s]\n", i+1, crumb.Title, crumb.NodeType)
		}
		focus := req.CurrentFocus()
		fmt.Fprintf(&b, "Current focus: %s [%s]", focus.Title, focus.NodeType)
		if focus.TargetID != "" {
			fmt.Fprintf(&b, " (target %s)", focus.TargetID)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatDrillInput renders the Drill phase's user message: the original
// request followed by the Scout conclusion. Nothing else from the Scout
// conversation crosses the phase boundary.
func FormatDrillInput(req *model.DrilldownRequest, scoutConclusion string) string {
	return FormatRequest(req) + "\nScout conclusion:\n" + scoutConclusion
}

// ParseFeedback is the corrective user message sent when a Drill reply could
// not be parsed. attempt is 1-based.
func ParseFeedback(parseErr error, attempt, budget int) string {
	return fmt.Sprintf(
		"Your previous reply could not be parsed (%v). Reply again with only the JSON object, no surrounding prose or code fences. Attempt %d of %d.",
		parseErr, attempt, budget)
}
