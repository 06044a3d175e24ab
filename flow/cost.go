package flow

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing defines input and output token costs for a model.
// Prices are in USD per 1M tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// Static pricing for the providers the model adapters support.
// Prices are in USD per 1M tokens and change at the vendors' whim;
// SetCustomPricing overrides entries without rebuilding.
var defaultModelPricing = map[string]ModelPricing{
	// Google Gemini
	"gemini-1.5-flash": {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.5-pro":   {InputPer1M: 1.25, OutputPer1M: 5.00},

	// OpenAI
	"gpt-3.5-turbo": {InputPer1M: 0.50, OutputPer1M: 1.50},
	"gpt-4o":        {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":   {InputPer1M: 0.15, OutputPer1M: 0.60},

	// Anthropic Claude
	"claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-sonnet-20240229":   {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
}

// LLMCall is one recorded model invocation with usage and cost.
type LLMCall struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
	NodeID       string
}

// CostTracker accumulates token usage and dollar cost across the LLM
// calls of a run.
//
// Models missing from the pricing table are still recorded, at zero
// cost, so token totals stay complete even when pricing lags behind a
// new model name.
//
//	tracker := flow.NewCostTracker("run-123", "USD")
//	tracker.RecordLLMCall("gemini-1.5-flash", 1200, 450, "writer")
//	fmt.Printf("total: $%.4f\n", tracker.GetTotalCost())
//
// All methods are safe for concurrent use.
type CostTracker struct {
	// RunID associates costs with a specific run.
	RunID string

	// Currency is the cost unit, normally "USD".
	Currency string

	// Pricing maps model names to token costs.
	Pricing map[string]ModelPricing

	// Calls records every invocation in order.
	Calls []LLMCall

	// TotalCost accumulates cost across all calls.
	TotalCost float64

	// ModelCosts attributes cost per model.
	ModelCosts map[string]float64

	// InputTokens and OutputTokens total usage across all calls.
	InputTokens  int64
	OutputTokens int64

	// CreatedAt marks when tracking began.
	CreatedAt time.Time

	mu      sync.RWMutex
	enabled bool
}

// NewCostTracker creates a tracker seeded with the default pricing
// table.
func NewCostTracker(runID, currency string) *CostTracker {
	pricing := make(map[string]ModelPricing, len(defaultModelPricing))
	for model, p := range defaultModelPricing {
		pricing[model] = p
	}

	return &CostTracker{
		RunID:      runID,
		Currency:   currency,
		Pricing:    pricing,
		Calls:      make([]LLMCall, 0, 16),
		ModelCosts: make(map[string]float64),
		CreatedAt:  time.Now(),
		enabled:    true,
	}
}

// RecordLLMCall records one model invocation, updates the totals, and
// returns the recorded call so callers can log its cost.
//
// Cost is (inputTokens * inputPrice + outputTokens * outputPrice) / 1M.
// The nodeID attributes the call to an agent and may be empty. When the
// tracker is disabled the zero LLMCall is returned.
func (ct *CostTracker) RecordLLMCall(model string, inputTokens, outputTokens int, nodeID string) LLMCall {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if !ct.enabled {
		return LLMCall{}
	}

	pricing := ct.Pricing[model] // zero-cost fallback for unknown models

	inputCost := (float64(inputTokens) / 1_000_000.0) * pricing.InputPer1M
	outputCost := (float64(outputTokens) / 1_000_000.0) * pricing.OutputPer1M
	totalCost := inputCost + outputCost

	call := LLMCall{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      totalCost,
		Timestamp:    time.Now(),
		NodeID:       nodeID,
	}
	ct.Calls = append(ct.Calls, call)

	ct.TotalCost += totalCost
	ct.ModelCosts[model] += totalCost
	ct.InputTokens += int64(inputTokens)
	ct.OutputTokens += int64(outputTokens)

	return call
}

// GetTotalCost returns the cumulative cost across all recorded calls.
func (ct *CostTracker) GetTotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.TotalCost
}

// GetCostByModel returns per-model cost attribution as a copy.
func (ct *CostTracker) GetCostByModel() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	costs := make(map[string]float64, len(ct.ModelCosts))
	for model, cost := range ct.ModelCosts {
		costs[model] = cost
	}
	return costs
}

// GetCallHistory returns all recorded calls in order as a copy.
func (ct *CostTracker) GetCallHistory() []LLMCall {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	calls := make([]LLMCall, len(ct.Calls))
	copy(calls, ct.Calls)
	return calls
}

// GetTokenUsage returns total input and output token counts.
func (ct *CostTracker) GetTokenUsage() (inputTokens, outputTokens int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.InputTokens, ct.OutputTokens
}

// SetCustomPricing overrides pricing for one model. Useful for
// enterprise rates or models newer than the built-in table.
func (ct *CostTracker) SetCustomPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.Pricing == nil {
		ct.Pricing = make(map[string]ModelPricing)
	}
	ct.Pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

// Disable suspends recording. Useful in tests.
func (ct *CostTracker) Disable() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.enabled = false
}

// Enable resumes recording after Disable.
func (ct *CostTracker) Enable() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.enabled = true
}

// Reset clears recorded data but keeps pricing configuration.
func (ct *CostTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.Calls = make([]LLMCall, 0, 16)
	ct.TotalCost = 0
	ct.ModelCosts = make(map[string]float64)
	ct.InputTokens = 0
	ct.OutputTokens = 0
}

// String returns a one-line summary of the tracked run.
func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	return fmt.Sprintf(
		"CostTracker{RunID: %s, Calls: %d, TotalCost: $%.4f %s, InputTokens: %d, OutputTokens: %d}",
		ct.RunID, len(ct.Calls), ct.TotalCost, ct.Currency, ct.InputTokens, ct.OutputTokens,
	)
}
