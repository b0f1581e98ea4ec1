// Package agents implements the stages of the query pipeline: parsing,
// strategy, risk, implementation planning, output formatting and
// rule-based financial health analysis. Every stage that calls the LLM
// degrades to a documented static fallback instead of returning an error,
// so a single upstream outage never aborts the pipeline.
package agents

import "context"

// Completer is the single LLM operation the stages depend on.
type Completer interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
}
