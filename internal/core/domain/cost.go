package domain

// Pricing is the provider's per-token batch price table, in USD per one
// million tokens.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// CostEstimate is the pre-submission estimate shown to the operator
// before any money is spent.
type CostEstimate struct {
	ItemCount       int     `json:"item_count"`
	EstimatedTokens int     `json:"estimated_tokens"`
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	InputCostUSD    float64 `json:"input_cost_usd"`
	OutputCostUSD   float64 `json:"output_cost_usd"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
}

// EstimateCost approximates token usage for a set of rendered requests
// using the chars/4 heuristic, with the total split evenly between input
// and output. Deliberately rough: it exists as a confirmation gate, not
// as billing.
func EstimateCost(requests []AnalysisRequest, pricing Pricing) CostEstimate {
	totalChars := 0
	for _, req := range requests {
		totalChars += len(req.System) + len(req.Prompt)
	}

	estimatedTokens := (totalChars + 3) / 4
	inputTokens := (estimatedTokens + 1) / 2
	outputTokens := (estimatedTokens + 1) / 2

	inputCost := float64(inputTokens) / 1_000_000 * pricing.InputPerMTok
	outputCost := float64(outputTokens) / 1_000_000 * pricing.OutputPerMTok

	return CostEstimate{
		ItemCount:       len(requests),
		EstimatedTokens: estimatedTokens,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		InputCostUSD:    inputCost,
		OutputCostUSD:   outputCost,
		TotalCostUSD:    inputCost + outputCost,
	}
}
