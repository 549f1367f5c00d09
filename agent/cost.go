package agent

import (
	"math"
	"strings"

	"github.com/richinex/spelunk/llm"
	"github.com/richinex/spelunk/model"
)

// modelPricing holds USD cost per million tokens.
type modelPricing struct {
	prompt     float64
	completion float64
}

// Approximate published prices. Unknown models fall back to defaultPricing;
// the estimate is informational, never billed.
var pricingTable = map[string]modelPricing{
	"gpt-4o":           {2.50, 10.00},
	"gpt-4o-mini":      {0.15, 0.60},
	"claude-sonnet":    {3.00, 15.00},
	"claude-haiku":     {0.80, 4.00},
	"gemini-2.5-flash": {0.30, 2.50},
	"gemini-2.5-pro":   {1.25, 10.00},
}

var defaultPricing = modelPricing{3.00, 15.00}

// pricingFor matches a model name against the table by prefix, so dated
// variants like claude-sonnet-4-20250514 resolve to their family.
func pricingFor(modelName string) modelPricing {
	if p, ok := pricingTable[modelName]; ok {
		return p
	}
	for prefix, p := range pricingTable {
		if strings.HasPrefix(modelName, prefix) {
			return p
		}
	}
	return defaultPricing
}

// buildMetrics folds token usage and an estimated cost into response metrics.
func buildMetrics(usage llm.TokenUsage, modelName string) model.TokenMetrics {
	p := pricingFor(modelName)
	cost := float64(usage.PromptTokens)/1e6*p.prompt +
		float64(usage.CompletionTokens)/1e6*p.completion

	return model.TokenMetrics{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		EstimatedCost:    math.Round(cost*1e6) / 1e6,
	}
}
