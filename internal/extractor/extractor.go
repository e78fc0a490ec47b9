package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/souli/internal/llm"
	"github.com/MikeSquared-Agency/souli/internal/metrics"
	"github.com/MikeSquared-Agency/souli/internal/node"
	"github.com/MikeSquared-Agency/souli/internal/transcript"
)

const rawLogLimit = 800

type Extractor struct {
	model    llm.Model
	logger   *slog.Logger
	policy   RetryPolicy
	maxChars int
	metrics  *metrics.Collector
}

type Option func(*Extractor)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Extractor) { e.policy = p }
}

func WithMaxChars(n int) Option {
	return func(e *Extractor) { e.maxChars = n }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(e *Extractor) { e.metrics = c }
}

func New(model llm.Model, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		model:    model,
		logger:   logger,
		policy:   DefaultRetryPolicy(),
		maxChars: transcript.DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract turns a raw transcript into energy nodes. It never returns an
// error: call-level failures are reported on Result.Err and leave Nodes
// empty, and malformed items are listed in Result.Skipped.
func (e *Extractor) Extract(ctx context.Context, raw, sourceID, sourceURL string) *Result {
	start := time.Now()
	res := &Result{SourceID: sourceID, SourceURL: sourceURL, Nodes: []node.EnergyNode{}}
	defer func() { e.metrics.Extraction(res.Outcome(), time.Since(start)) }()

	cleaned := transcript.Clean(raw)
	prepared := transcript.Truncate(cleaned, e.maxChars)

	e.logger.Info("extracting from transcript",
		"source_id", sourceID,
		"raw_len", len(raw),
		"cleaned_len", len(cleaned),
		"prepared_len", len(prepared),
	)

	if prepared == "" {
		e.logger.Warn("transcript empty after cleaning, skipping model call", "source_id", sourceID)
		return res
	}

	system, user := Prompt(prepared)

	items, err := Retry(ctx, e.policy, func() ([]json.RawMessage, error) {
		res.Attempts++
		e.metrics.ModelAttempt()

		out, err := e.model.Complete(ctx, system, user)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("model response", "source_id", sourceID, "attempt", res.Attempts, "raw", truncate(out, rawLogLimit))
		return ExtractJSONArray(out)
	}, func(err error, next time.Duration) {
		e.logger.Warn("extraction attempt failed, retrying",
			"source_id", sourceID,
			"attempt", res.Attempts,
			"backoff", next.String(),
			"error", err,
		)
	})
	if err != nil {
		res.Err = classify(err, e.policy.Retryable)
		e.logger.Error("extraction failed",
			"source_id", sourceID,
			"attempts", res.Attempts,
			"error", res.Err,
		)
		return res
	}

	for i, item := range items {
		n, err := node.Decode(item, sourceID, sourceURL)
		if err != nil {
			var ve *node.ValidationError
			if !errors.As(err, &ve) {
				ve = &node.ValidationError{Kind: node.WrongType, Detail: err.Error()}
			}
			res.Skipped = append(res.Skipped, SkippedItem{Index: i, Err: ve})
			e.metrics.ItemSkipped(ve.Kind.String())
			e.logger.Warn("skipping malformed item",
				"source_id", sourceID,
				"index", i,
				"kind", ve.Kind.String(),
				"field", ve.Field,
			)
			continue
		}
		e.noteVocabulary(sourceID, n)
		res.Nodes = append(res.Nodes, n)
	}

	e.logger.Info("extraction complete",
		"source_id", sourceID,
		"attempts", res.Attempts,
		"items", len(items),
		"nodes", len(res.Nodes),
		"skipped", len(res.Skipped),
	)
	return res
}

// noteVocabulary records labels the model coined outside the known lists.
// Such nodes are kept.
func (e *Extractor) noteVocabulary(sourceID string, n node.EnergyNode) {
	if !node.IsKnownCategory(n.Category) {
		e.metrics.UnknownLabel("category")
		e.logger.Info("free-form category", "source_id", sourceID, "category", n.Category)
	}
	if !node.IsKnownEnergyLabel(n.DiagnosticLayer.EnergyNode) {
		e.metrics.UnknownLabel("energy_node")
		e.logger.Info("free-form energy label", "source_id", sourceID, "energy_node", n.DiagnosticLayer.EnergyNode)
	}
}

// classify maps a failed call to *ParseError or *llm.TransportError.
func classify(err error, retryable func(error) bool) error {
	if retryable == nil {
		retryable = IsRetryable
	}
	if retryable(err) {
		var pe *ParseError
		if errors.As(err, &pe) {
			return pe
		}
		return &ParseError{Reason: err.Error()}
	}
	var te *llm.TransportError
	if errors.As(err, &te) {
		return te
	}
	return &llm.TransportError{Backend: "model", Err: err}
}
