package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/richinex/spelunk/llm"
)

// scriptedProvider replays a fixed sequence of responses.
type scriptedProvider struct {
	responses []llm.Response
	calls     int
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "test-model" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.Response, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

func (p *scriptedProvider) ChatWithFormat(ctx context.Context, messages []llm.ChatMessage, format *llm.ResponseFormat) (llm.Response, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

func (p *scriptedProvider) ChatWithTools(ctx context.Context, messages []llm.ChatMessage, tools []llm.ToolDefinition) (llm.Response, error) {
	if p.calls >= len(p.responses) {
		return llm.Response{}, errors.New("script exhausted")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

// echoResolver resolves every call except those named "ghost".
type echoResolver struct {
	resolved int
}

func (r *echoResolver) ResolveCalls(ctx context.Context, calls []llm.ToolCall) ([]Turn, []string) {
	var results []Turn
	var skipped []string
	for _, call := range calls {
		if call.Name == "ghost" {
			skipped = append(skipped, call.ID)
			continue
		}
		r.resolved++
		results = append(results, Turn{
			Role:       RoleTool,
			Content:    fmt.Sprintf(`{"success":true,"output":"result of %s"}`, call.Name),
			ToolCallID: call.ID,
		})
	}
	return results, skipped
}

func seededLog(t *testing.T) *Log {
	t.Helper()
	log := NewLog()
	mustAppend(t, log, Turn{Role: RoleSystem, Content: "explore"})
	mustAppend(t, log, Turn{Role: RoleUser, Content: "what is this component"})
	return log
}

func usage(prompt, completion uint32) llm.TokenUsage {
	return llm.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

func TestRunTerminatesWhenModelStopsCallingTools(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Response{
		{
			Content:   "checking",
			ToolCalls: []llm.ToolCall{{ID: "c1", Name: "read_source", Arguments: []byte(`{}`)}},
			Usage:     usage(100, 20),
		},
		{Content: "conclusion", Usage: usage(150, 40)},
	}}
	resolver := &echoResolver{}
	log := seededLog(t)

	total, err := NewLoop(provider, resolver, nil).Run(context.Background(), log, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if resolver.resolved != 1 {
		t.Errorf("resolved = %d, want 1", resolver.resolved)
	}
	if last := log.Last(); last.Content != "conclusion" {
		t.Errorf("last turn = %q, want the conclusion", last.Content)
	}
	if total.TotalTokens != 310 {
		t.Errorf("total tokens = %d, want 310 (summed across turns)", total.TotalTokens)
	}
	if log.PendingCalls() != 0 {
		t.Errorf("pending = %d at end of run", log.PendingCalls())
	}
}

func TestRunSkipsUnknownTools(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Response{
		{
			ToolCalls: []llm.ToolCall{
				{ID: "c1", Name: "ghost", Arguments: []byte(`{}`)},
				{ID: "c2", Name: "read_source", Arguments: []byte(`{}`)},
			},
		},
		{Content: "done"},
	}}
	resolver := &echoResolver{}
	log := seededLog(t)

	if _, err := NewLoop(provider, resolver, nil).Run(context.Background(), log, 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resolver.resolved != 1 {
		t.Errorf("resolved = %d, want 1 (ghost skipped)", resolver.resolved)
	}

	// The skipped call leaves no tool turn behind.
	for _, turn := range log.Turns() {
		if turn.Role == RoleTool && turn.ToolCallID == "c1" {
			t.Error("skipped call produced a result turn")
		}
	}
}

func TestRunResolvesParallelCallsToSameTool(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Response{
		{
			ToolCalls: []llm.ToolCall{
				{ID: "read_source#0", Name: "read_source", Arguments: []byte(`{"path":"a.go"}`)},
				{ID: "read_source#1", Name: "read_source", Arguments: []byte(`{"path":"b.go"}`)},
			},
		},
		{Content: "done"},
	}}
	resolver := &echoResolver{}
	log := seededLog(t)

	if _, err := NewLoop(provider, resolver, nil).Run(context.Background(), log, 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resolver.resolved != 2 {
		t.Errorf("resolved = %d, want both calls", resolver.resolved)
	}
	if log.PendingCalls() != 0 {
		t.Errorf("pending = %d at end of run", log.PendingCalls())
	}
}

func TestRunEnforcesTurnBudget(t *testing.T) {
	// The model asks for tools forever.
	endless := llm.Response{
		ToolCalls: []llm.ToolCall{{ID: "c", Name: "read_source", Arguments: []byte(`{}`)}},
	}
	responses := make([]llm.Response, 10)
	for i := range responses {
		r := endless
		r.ToolCalls = []llm.ToolCall{{ID: fmt.Sprintf("c%d", i), Name: "read_source", Arguments: []byte(`{}`)}}
		responses[i] = r
	}
	provider := &scriptedProvider{responses: responses}
	log := seededLog(t)

	_, err := NewLoop(provider, &echoResolver{}, nil).Run(context.Background(), log, 3)
	if err == nil {
		t.Fatal("expected a budget error")
	}
	if provider.calls != 3 {
		t.Errorf("model calls = %d, want exactly 3", provider.calls)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Response{{Content: "never reached"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoop(provider, &echoResolver{}, nil).Run(ctx, seededLog(t), 10)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if provider.calls != 0 {
		t.Errorf("model called %d times after cancellation", provider.calls)
	}
}

func TestRunPropagatesProviderError(t *testing.T) {
	provider := &scriptedProvider{} // empty script errors on first call
	_, err := NewLoop(provider, &echoResolver{}, nil).Run(context.Background(), seededLog(t), 10)
	if err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

var _ llm.Provider = (*scriptedProvider)(nil)
