// Command execution for CLI commands.
//
// Information Hiding:
// - Agent and cache setup hidden
// - Output formatting hidden

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/richinex/spelunk/agent"
	"github.com/richinex/spelunk/cache"
	"github.com/richinex/spelunk/config"
	"github.com/richinex/spelunk/llm"
	"github.com/richinex/spelunk/model"
	"github.com/richinex/spelunk/storage"
	"github.com/richinex/spelunk/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
}

// Drill runs one drilldown for a component. pathKeys are the breadcrumb node
// keys taken so far, root first; nodeTypes pairs with them positionally.
func Drill(ctx context.Context, componentID, title string, pathKeys, nodeTypes []string, opts Options) error {
	settings, responseCache, runLog, cleanup, err := setup(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}

	breadcrumbs, err := buildBreadcrumbs(pathKeys, nodeTypes)
	if err != nil {
		return err
	}

	registry, err := tools.DefaultRegistry(settings.Agent.WorkspaceRoot)
	if err != nil {
		return err
	}

	a := agent.New(provider, registry, responseCache).
		WithRunLog(runLog).
		WithScoutBudget(settings.Agent.MaxScoutTurns).
		WithParseRetries(settings.Agent.DrillParseRetry).
		Verbose(opts.Verbose)

	req := &model.DrilldownRequest{
		ComponentID: componentID,
		Title:       title,
		Breadcrumbs: breadcrumbs,
	}

	started := time.Now()
	response, err := a.Drilldown(ctx, req)
	if err != nil {
		return fmt.Errorf("drilldown failed: %w", err)
	}

	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Println(string(data))

	if opts.Verbose && response.TokenMetrics != nil {
		fmt.Fprintf(os.Stderr, "\n%d tokens, $%.4f estimated, %s\n",
			response.TokenMetrics.TotalTokens,
			response.TokenMetrics.EstimatedCost,
			time.Since(started).Round(time.Millisecond))
	}
	return nil
}

// SweepCache removes expired cache records across all components.
func SweepCache(opts Options) error {
	_, responseCache, _, cleanup, err := setup(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	removed := responseCache.SweepExpired()
	fmt.Printf("Removed %d expired records\n", removed)
	return nil
}

// ClearCache removes cache records for a component. With pathKeys set, only
// that drilldown path is cleared; otherwise the whole component goes.
func ClearCache(componentID string, pathKeys []string, opts Options) error {
	_, responseCache, _, cleanup, err := setup(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(pathKeys) > 0 {
		breadcrumbs, err := buildBreadcrumbs(pathKeys, nil)
		if err != nil {
			return err
		}
		responseCache.ClearPath(componentID, breadcrumbs)
		fmt.Printf("Cleared cached path %s for %s\n", cache.PathHash(breadcrumbs), componentID)
		return nil
	}

	if err := responseCache.ClearComponent(componentID); err != nil {
		return err
	}
	fmt.Printf("Cleared cache for %s\n", componentID)
	return nil
}

// History prints the most recent drilldown runs for a component. An empty
// componentID lists runs across all components.
func History(ctx context.Context, componentID string, limit int, opts Options) error {
	_, _, runLog, cleanup, err := setup(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := runLog.Recent(ctx, componentID, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	for _, r := range records {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}
		fmt.Printf("%s  %s  %s/%s  %s  %d tokens  $%.4f  %dms  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ID[:8],
			r.ComponentID, r.PathHash,
			r.Strategy,
			r.PromptTokens+r.CompletionTokens,
			r.EstimatedCost,
			r.DurationMS,
			status)
	}
	return nil
}

// setup loads settings and opens the cache and run log.
func setup(opts Options) (config.Settings, *cache.Cache, *storage.RunLog, func(), error) {
	providerName := opts.Provider
	if providerName == "" {
		providerName = "openai"
	}

	settings, err := config.New(providerName)
	if err != nil {
		return config.Settings{}, nil, nil, nil,
			fmt.Errorf("%w (supported: %s)", err, strings.Join(config.SupportedProviders(), ", "))
	}

	responseCache := cache.New(settings.Cache.Dir, settings.Cache.TTL)

	runLog, err := storage.OpenRunLog(settings.Cache.RunLogPath)
	if err != nil {
		return config.Settings{}, nil, nil, nil, fmt.Errorf("failed to open run log: %w", err)
	}

	cleanup := func() { _ = runLog.Close() }
	return settings, responseCache, runLog, cleanup, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return llm.NewProvider(providerType, settings.LLM.Model, settings.LLM.MaxTokens, float32(settings.LLM.Temperature))
}

// buildBreadcrumbs pairs path keys with node types. A missing type defaults
// to capability; a bogus type is rejected before any model call is made.
func buildBreadcrumbs(pathKeys, nodeTypes []string) ([]model.Breadcrumb, error) {
	if len(nodeTypes) > len(pathKeys) {
		return nil, fmt.Errorf("more node types (%d) than path keys (%d)", len(nodeTypes), len(pathKeys))
	}

	breadcrumbs := make([]model.Breadcrumb, len(pathKeys))
	for i, key := range pathKeys {
		nodeType := model.NodeCapability
		if i < len(nodeTypes) {
			nodeType = model.NodeType(strings.ToLower(nodeTypes[i]))
		}
		if !model.KnownNodeType(nodeType) {
			return nil, fmt.Errorf("unknown node type %q for path key %q", nodeType, key)
		}
		breadcrumbs[i] = model.Breadcrumb{
			NodeKey:  key,
			Title:    key,
			NodeType: nodeType,
		}
	}
	return breadcrumbs, nil
}
