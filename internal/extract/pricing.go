package extract

import "github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"

// modelPrices holds USD per million tokens, prompt and completion.
// Bookkeeping only — pricing never drives control flow.
var modelPrices = map[string]struct{ prompt, completion float64 }{
	"gpt-4o-mini":   {0.15, 0.60},
	"gpt-4o":        {2.50, 10.00},
	"gpt-4.1-mini":  {0.40, 1.60},
	"gpt-4.1-nano":  {0.10, 0.40},
	"o4-mini":       {1.10, 4.40},
	"deepseek-chat": {0.27, 1.10},
}

// EstimateCost returns the USD cost for a call's token usage. Unknown
// models cost zero; the usage itself is still reported.
func EstimateCost(model string, u llm.Usage) float64 {
	p, ok := modelPrices[model]
	if !ok {
		return 0
	}
	return float64(u.PromptTokens)*p.prompt/1e6 + float64(u.CompletionTokens)*p.completion/1e6
}
