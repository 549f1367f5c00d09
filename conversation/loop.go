package conversation

import (
	"context"
	"fmt"
	"os"

	"github.com/richinex/spelunk/llm"
)

// ToolResolver resolves the tool invocations requested by an assistant turn.
// Implementations return one result turn per resolved invocation, preserving
// invocation order, plus the call ids of invocations they skipped (unknown
// tool names). Execution faults must be folded into result payloads, never
// raised past the loop boundary.
type ToolResolver interface {
	ResolveCalls(ctx context.Context, calls []llm.ToolCall) (results []Turn, skipped []string)
}

// loopState tracks whose move it is.
type loopState int

const (
	stateAwaitModel loopState = iota
	stateAwaitTools
	stateDone
)

// Loop drives turn-taking between a model and a tool resolver until the
// model stops requesting tools. Termination is the model's choice; the
// iteration budget is imposed by the caller at the loop boundary, not by
// the decision logic inside.
type Loop struct {
	provider llm.Provider
	resolver ToolResolver
	defs     []llm.ToolDefinition
	verbose  bool
}

// NewLoop creates a conversation loop.
func NewLoop(provider llm.Provider, resolver ToolResolver, defs []llm.ToolDefinition) *Loop {
	return &Loop{provider: provider, resolver: resolver, defs: defs}
}

// Verbose enables progress diagnostics on stderr.
func (l *Loop) Verbose(enabled bool) *Loop {
	l.verbose = enabled
	return l
}

// Run drives the loop to completion starting from the given log, which must
// already hold the system and user turns. maxModelTurns bounds the number of
// model invocations; zero or negative means unbounded, leaving termination
// entirely to the model (the caller should then bound wall-clock time via ctx).
// The accumulated token usage is returned by value.
func (l *Loop) Run(ctx context.Context, log *Log, maxModelTurns int) (llm.TokenUsage, error) {
	var usage llm.TokenUsage
	modelTurns := 0
	state := stateAwaitModel

	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return usage, fmt.Errorf("conversation cancelled: %w", err)
		}

		switch state {
		case stateAwaitModel:
			if maxModelTurns > 0 && modelTurns >= maxModelTurns {
				return usage, fmt.Errorf("model turn budget of %d exhausted", maxModelTurns)
			}

			resp, err := l.provider.ChatWithTools(ctx, log.Messages(), l.defs)
			if err != nil {
				return usage, fmt.Errorf("model call failed: %w", err)
			}
			modelTurns++
			usage = usage.Add(resp.Usage)

			turn := Turn{
				Role:      RoleAssistant,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			}
			if err := log.Append(turn); err != nil {
				return usage, fmt.Errorf("append assistant turn: %w", err)
			}

			if len(resp.ToolCalls) == 0 {
				state = stateDone
			} else {
				if l.verbose {
					fmt.Fprintf(os.Stderr, "[loop] model requested %d tool calls\n", len(resp.ToolCalls))
				}
				state = stateAwaitTools
			}

		case stateAwaitTools:
			last := log.Last()
			results, skipped := l.resolver.ResolveCalls(ctx, last.ToolCalls)
			for _, result := range results {
				if err := log.Append(result); err != nil {
					return usage, fmt.Errorf("append tool result: %w", err)
				}
			}
			for _, id := range skipped {
				if err := log.SkipPending(id); err != nil {
					return usage, fmt.Errorf("skip tool call: %w", err)
				}
				if l.verbose {
					fmt.Fprintf(os.Stderr, "[loop] skipped unresolved tool call %s\n", id)
				}
			}
			state = stateAwaitModel
		}
	}

	return usage, nil
}
