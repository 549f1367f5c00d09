// Tool Executor - resolves the invocations requested by one assistant turn.
//
// Failure policy is permissive: an unknown tool name skips that invocation
// (no result turn) and an execution fault becomes an error payload in the
// result turn. Nothing raises past the loop boundary, so a model that
// hallucinates a tool name cannot kill the conversation.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/richinex/spelunk/conversation"
	"github.com/richinex/spelunk/llm"
)

// Executor resolves tool invocations against a registry.
type Executor struct {
	registry *Registry
	verbose  bool
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Verbose enables per-invocation diagnostics on stderr.
func (e *Executor) Verbose(enabled bool) *Executor {
	e.verbose = enabled
	return e
}

// ResolveCalls executes each requested invocation in order and returns one
// result turn per resolved invocation, plus the call ids of invocations
// skipped because no such tool is registered.
func (e *Executor) ResolveCalls(ctx context.Context, calls []llm.ToolCall) ([]conversation.Turn, []string) {
	var results []conversation.Turn
	var skipped []string

	for _, call := range calls {
		tool, ok := e.registry.Get(call.Name)
		if !ok {
			fmt.Fprintf(os.Stderr, "tools: skipping unknown tool %q\n", call.Name)
			skipped = append(skipped, call.ID)
			continue
		}

		if e.verbose {
			fmt.Fprintf(os.Stderr, "[tool:start] %s\n", call.Name)
		}

		result, err := tool.Execute(ctx, call.Arguments)
		if err != nil {
			// Fold the fault into the result payload; the loop stays alive.
			result = FailureResult(err)
		}

		payload, err := json.Marshal(result)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()))
		}

		results = append(results, conversation.Turn{
			Role:       conversation.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
		})
	}

	return results, skipped
}

var _ conversation.ToolResolver = (*Executor)(nil)
