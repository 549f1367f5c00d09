// Two-phase drilldown orchestration.
//
// This is THE canonical implementation of the Scout/Drill pipeline.
// All drilldown execution goes through this module.
//
// Information Hiding:
// - Phase sequencing hidden
// - LLM communication hidden
// - Cache and run-log coordination hidden

package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	jsonutil "github.com/richinex/spelunk/internal/json"

	"github.com/richinex/spelunk/cache"
	"github.com/richinex/spelunk/conversation"
	"github.com/richinex/spelunk/llm"
	"github.com/richinex/spelunk/model"
	"github.com/richinex/spelunk/pattern"
	"github.com/richinex/spelunk/prompt"
	"github.com/richinex/spelunk/storage"
	"github.com/richinex/spelunk/tools"
)

// Agent runs the two-phase drilldown: a Scout conversation gathers evidence
// through tool calls, then a Drill pass synthesizes the Scout conclusion into
// a validated navigation layer.
type Agent struct {
	provider      llm.Provider
	registry      *tools.Registry
	cache         *cache.Cache
	runLog        *storage.RunLog
	maxScoutTurns int
	parseRetries  int
	verbose       bool
}

// New creates an agent. cache may be nil to disable caching.
func New(provider llm.Provider, registry *tools.Registry, responseCache *cache.Cache) *Agent {
	return &Agent{
		provider:      provider,
		registry:      registry,
		cache:         responseCache,
		maxScoutTurns: 15,
		parseRetries:  2,
	}
}

// WithRunLog enables best-effort run history recording.
func (a *Agent) WithRunLog(runLog *storage.RunLog) *Agent {
	a.runLog = runLog
	return a
}

// WithScoutBudget bounds the number of Scout model turns. Zero or negative
// leaves the loop unbounded; bound wall-clock time via ctx in that case.
func (a *Agent) WithScoutBudget(maxTurns int) *Agent {
	a.maxScoutTurns = maxTurns
	return a
}

// WithParseRetries sets how many corrective re-prompts a malformed Drill
// reply gets before the run fails.
func (a *Agent) WithParseRetries(retries int) *Agent {
	a.parseRetries = retries
	return a
}

// Verbose enables progress diagnostics on stderr.
func (a *Agent) Verbose(enabled bool) *Agent {
	a.verbose = enabled
	return a
}

// Drilldown answers one drilldown request. A cached response for the same
// (component, path) short-circuits both phases. Validation failures are hard
// errors; extraction and cache failures are recovered internally.
func (a *Agent) Drilldown(ctx context.Context, req *model.DrilldownRequest) (*model.DrilldownResponse, error) {
	if req.ComponentID == "" {
		return nil, fmt.Errorf("drilldown request requires a component id")
	}

	if a.cache != nil {
		if cached := a.cache.Get(req.ComponentID, req.Breadcrumbs, true); cached != nil {
			if a.verbose {
				fmt.Fprintf(os.Stderr, "[agent] cache hit for %s/%s\n",
					req.ComponentID, cache.PathHash(req.Breadcrumbs))
			}
			return cached, nil
		}
	}

	started := time.Now()

	var focusKind model.NodeType
	if focus := req.CurrentFocus(); focus != nil {
		focusKind = focus.NodeType
	}

	conclusion, scoutUsage, err := a.runScout(ctx, req, focusKind)
	if err != nil {
		a.recordRun(req, "", scoutUsage, 0, started, err)
		return nil, fmt.Errorf("scout phase: %w", err)
	}

	// A missing or malformed classification is not an error; the generic
	// strategy absorbs it.
	classification := pattern.Extract(conclusion)
	strategy := prompt.Select(prompt.PhaseDrill, focusKind, classification)
	if a.verbose {
		fmt.Fprintf(os.Stderr, "[agent] drill strategy %s\n", strategy)
	}

	view, drillUsage, err := a.runDrill(ctx, req, strategy, conclusion)
	totalUsage := scoutUsage.Add(drillUsage)
	if err != nil {
		a.recordRun(req, string(strategy), totalUsage, 0, started, err)
		return nil, fmt.Errorf("drill phase: %w", err)
	}

	response := a.assemble(req, view, totalUsage)
	if err := model.ValidateResponse(response); err != nil {
		a.recordRun(req, string(strategy), totalUsage, response.TokenMetrics.EstimatedCost, started, err)
		return nil, fmt.Errorf("drill phase produced an invalid response: %w", err)
	}

	if a.cache != nil {
		a.cache.Put(req.ComponentID, req.Breadcrumbs, response)
	}
	a.recordRun(req, string(strategy), totalUsage, response.TokenMetrics.EstimatedCost, started, nil)

	return response, nil
}

// runScout drives the evidence-gathering loop and returns the model's
// final conclusion text.
func (a *Agent) runScout(ctx context.Context, req *model.DrilldownRequest, focusKind model.NodeType) (string, llm.TokenUsage, error) {
	strategy := prompt.Select(prompt.PhaseScout, focusKind, nil)

	log := conversation.NewLog()
	if err := log.Append(conversation.Turn{Role: conversation.RoleSystem, Content: prompt.SystemText(strategy)}); err != nil {
		return "", llm.TokenUsage{}, err
	}
	if err := log.Append(conversation.Turn{Role: conversation.RoleUser, Content: prompt.FormatRequest(req)}); err != nil {
		return "", llm.TokenUsage{}, err
	}

	executor := tools.NewExecutor(a.registry).Verbose(a.verbose)
	loop := conversation.NewLoop(a.provider, executor, a.registry.Definitions()).Verbose(a.verbose)

	usage, err := loop.Run(ctx, log, a.maxScoutTurns)
	if err != nil {
		return "", usage, err
	}

	conclusion := log.LastAssistant()
	if conclusion == nil || conclusion.Content == "" {
		return "", usage, fmt.Errorf("scout ended without a conclusion")
	}
	return conclusion.Content, usage, nil
}

// runDrill synthesizes the next layer from the Scout conclusion alone. Only
// the strategy prompt, the original request and the conclusion cross the
// phase boundary. Malformed replies get corrective re-prompts up to the
// retry budget; validation failures never retry.
func (a *Agent) runDrill(ctx context.Context, req *model.DrilldownRequest, strategy prompt.Strategy, conclusion string) (*model.NextLayerView, llm.TokenUsage, error) {
	var usage llm.TokenUsage

	messages := []llm.ChatMessage{
		llm.SystemMessage(prompt.SystemText(strategy)),
		llm.UserMessage(prompt.FormatDrillInput(req, conclusion)),
	}

	budget := a.parseRetries + 1
	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, usage, fmt.Errorf("drill cancelled: %w", err)
		}

		resp, err := a.provider.ChatWithFormat(ctx, messages, llm.NewJSONObjectFormat())
		if err != nil {
			return nil, usage, fmt.Errorf("model call failed: %w", err)
		}
		usage = usage.Add(resp.Usage)

		var view model.NextLayerView
		parseErr := jsonutil.ExtractInto(resp.Content, &view)
		if parseErr == nil {
			return &view, usage, nil
		}

		if attempt == budget {
			return nil, usage, fmt.Errorf("unparseable drill reply after %d attempts: %w", budget, parseErr)
		}
		if a.verbose {
			fmt.Fprintf(os.Stderr, "[agent] drill parse attempt %d failed: %v\n", attempt, parseErr)
		}
		messages = append(messages,
			llm.AssistantMessage(resp.Content),
			llm.UserMessage(prompt.ParseFeedback(parseErr, attempt, budget)),
		)
	}

	return nil, usage, fmt.Errorf("unparseable drill reply")
}

// assemble backfills request-derived fields and attaches token metrics.
func (a *Agent) assemble(req *model.DrilldownRequest, view *model.NextLayerView, usage llm.TokenUsage) *model.DrilldownResponse {
	goal := req.Title
	if goal == "" {
		goal = req.ComponentID
	}

	metrics := buildMetrics(usage, a.provider.Model())
	return &model.DrilldownResponse{
		ComponentID:  req.ComponentID,
		AgentGoal:    fmt.Sprintf("drill into %s", goal),
		Breadcrumbs:  req.Breadcrumbs,
		NextLayer:    *view,
		TokenMetrics: &metrics,
	}
}

// recordRun writes a run history record. Best effort: a run-log fault never
// affects the drilldown result.
func (a *Agent) recordRun(req *model.DrilldownRequest, strategy string, usage llm.TokenUsage, cost float64, started time.Time, runErr error) {
	if a.runLog == nil {
		return
	}

	record := storage.RunRecord{
		ComponentID:      req.ComponentID,
		PathHash:         cache.PathHash(req.Breadcrumbs),
		Strategy:         strategy,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		EstimatedCost:    cost,
		DurationMS:       time.Since(started).Milliseconds(),
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := a.runLog.Record(ctx, record); err != nil {
		fmt.Fprintf(os.Stderr, "[agent] run log write failed: %v\n", err)
	}
}
