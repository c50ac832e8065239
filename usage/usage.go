// Package usage accumulates token consumption across pipeline stages and
// estimates cost. The ledger is an explicit value handed to each stage, not
// a process-wide singleton, so concurrent runs never share counters.
package usage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/imchangchang/video2markdown/llm"
)

// Record is one model invocation's token consumption.
type Record struct {
	// Stage names the pipeline stage that made the call.
	Stage string `json:"stage"`
	// Model is the model identifier reported by the provider.
	Model string `json:"model"`
	// Usage is the token consumption of the call.
	Usage llm.Usage `json:"usage"`
}

// Ledger is a concurrency-safe usage accumulator.
type Ledger struct {
	mu      sync.Mutex
	records []Record
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add appends one invocation record. Zero-usage records are kept so the
// call count stays honest.
func (l *Ledger) Add(stage, model string, u llm.Usage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record{Stage: stage, Model: model, Usage: u})
}

// Merge folds another ledger's records into this one.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	for _, r := range other.Records() {
		l.Add(r.Stage, r.Model, r.Usage)
	}
}

// Records returns a copy of all records in insertion order.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Calls returns the number of recorded invocations.
func (l *Ledger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Total sums token usage across all records.
func (l *Ledger) Total() llm.Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total llm.Usage
	for _, r := range l.records {
		total = total.Add(r.Usage)
	}
	return total
}

// ByStage sums token usage per stage.
func (l *Ledger) ByStage() map[string]llm.Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]llm.Usage)
	for _, r := range l.records {
		out[r.Stage] = out[r.Stage].Add(r.Usage)
	}
	return out
}

// Pricing holds per-million-token prices for cost estimation.
type Pricing struct {
	// PromptPerMillion is the price per million prompt tokens.
	PromptPerMillion float64 `json:"prompt_per_million" yaml:"prompt_per_million" mapstructure:"prompt_per_million"`
	// CompletionPerMillion is the price per million completion tokens.
	CompletionPerMillion float64 `json:"completion_per_million" yaml:"completion_per_million" mapstructure:"completion_per_million"`
}

// EstimateCost prices the ledger's total usage.
func (l *Ledger) EstimateCost(p Pricing) float64 {
	total := l.Total()
	return float64(total.PromptTokens)/1e6*p.PromptPerMillion +
		float64(total.CompletionTokens)/1e6*p.CompletionPerMillion
}

// Report renders a human-readable summary, stages sorted by name.
func (l *Ledger) Report(p Pricing) string {
	byStage := l.ByStage()
	stages := make([]string, 0, len(byStage))
	for s := range byStage {
		stages = append(stages, s)
	}
	sort.Strings(stages)

	var b strings.Builder
	b.WriteString("Token usage:\n")
	for _, s := range stages {
		u := byStage[s]
		fmt.Fprintf(&b, "  %-24s prompt=%d completion=%d total=%d\n", s, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	}
	total := l.Total()
	fmt.Fprintf(&b, "  %-24s prompt=%d completion=%d total=%d\n", "all", total.PromptTokens, total.CompletionTokens, total.TotalTokens)
	fmt.Fprintf(&b, "  estimated cost: $%.4f\n", l.EstimateCost(p))
	return b.String()
}
