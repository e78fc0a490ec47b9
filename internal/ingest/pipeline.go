// Package ingest drives transcripts from source links into the vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/souli/internal/extractor"
	"github.com/MikeSquared-Agency/souli/internal/llm"
	"github.com/MikeSquared-Agency/souli/internal/node"
)

type TranscriptSource interface {
	Fetch(ctx context.Context, url string) (sourceID, text string, err error)
}

type Extractor interface {
	Extract(ctx context.Context, raw, sourceID, sourceURL string) *extractor.Result
}

type Indexer interface {
	Upsert(ctx context.Context, nodes []node.EnergyNode) (int, error)
}

type Publisher interface {
	Publish(subject string, data any) error
}

// Pipeline processes one link: fetch, then extract.
type Pipeline struct {
	source    TranscriptSource
	extractor Extractor
	logger    *slog.Logger
}

func NewPipeline(src TranscriptSource, ext Extractor, logger *slog.Logger) *Pipeline {
	return &Pipeline{source: src, extractor: ext, logger: logger}
}

// ProcessURL returns an error when the link should be counted as failed:
// the transcript could not be fetched or the model was unreachable. A
// response that never parsed yields a result with zero nodes and no error.
func (p *Pipeline) ProcessURL(ctx context.Context, url string) (*extractor.Result, error) {
	sourceID, text, err := p.source.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}

	res := p.extractor.Extract(ctx, text, sourceID, url)

	var te *llm.TransportError
	if errors.As(res.Err, &te) {
		return res, fmt.Errorf("extract %s: %w", sourceID, res.Err)
	}
	if res.Err != nil {
		p.logger.Warn("extraction degraded to empty result", "source_id", sourceID, "error", res.Err)
	}
	return res, nil
}
