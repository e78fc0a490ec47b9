package extractor

import (
	"github.com/MikeSquared-Agency/souli/internal/metrics"
	"github.com/MikeSquared-Agency/souli/internal/node"
)

// SkippedItem records an array element that failed validation.
type SkippedItem struct {
	Index int                   `json:"index"`
	Err   *node.ValidationError `json:"-"`
}

// Result is the outcome of extracting one transcript. Nodes is never nil.
//
// Err is nil on success (possibly with zero nodes), a *ParseError when every
// attempt returned unrecoverable output, or an *llm.TransportError when the
// model could not be called.
type Result struct {
	SourceID  string
	SourceURL string
	Nodes     []node.EnergyNode
	Attempts  int
	Skipped   []SkippedItem
	Err       error
}

// Outcome classifies the result for metrics and reports.
func (r *Result) Outcome() string {
	switch {
	case r.Err == nil && len(r.Nodes) > 0:
		return metrics.OutcomeOK
	case r.Err == nil:
		return metrics.OutcomeEmpty
	case IsRetryable(r.Err):
		return metrics.OutcomeParseFailed
	default:
		return metrics.OutcomeTransportFailed
	}
}
