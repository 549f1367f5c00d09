package llm

import "testing"

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input string
		want  ProviderType
	}{
		{"openai", ProviderOpenAI},
		{"OpenAI", ProviderOpenAI},
		{"gpt", ProviderOpenAI},
		{"anthropic", ProviderAnthropic},
		{"claude", ProviderAnthropic},
		{"gemini", ProviderGemini},
		{"google", ProviderGemini},
	}
	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if err != nil {
			t.Errorf("ParseProviderType(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := ParseProviderType("mistral"); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestProviderTypeMetadata(t *testing.T) {
	for _, p := range []ProviderType{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		if p.String() == "unknown" {
			t.Errorf("provider %d has no string form", p)
		}
		if p.EnvVar() == "" {
			t.Errorf("provider %s has no API key env var", p)
		}
		if p.DefaultModel() == "" {
			t.Errorf("provider %s has no default model", p)
		}
	}
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewProvider(ProviderOpenAI, "", 0, 0); err == nil {
		t.Error("expected an error when the API key is unset")
	}
}

func TestTokenUsageAdd(t *testing.T) {
	a := TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}
	b := TokenUsage{PromptTokens: 50, CompletionTokens: 30, TotalTokens: 80}

	sum := a.Add(b)
	if sum.TotalTokens != 200 {
		t.Errorf("total = %d, want 200", sum.TotalTokens)
	}
	// Add returns a new value; the operands stay untouched.
	if a.TotalTokens != 120 || b.TotalTokens != 80 {
		t.Error("Add mutated an operand")
	}
}
