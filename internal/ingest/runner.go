package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/souli/internal/extractor"
	"github.com/MikeSquared-Agency/souli/internal/hermes"
	"github.com/MikeSquared-Agency/souli/internal/metrics"
	"github.com/MikeSquared-Agency/souli/internal/node"
)

const (
	DefaultWorkers = 4
	previewSize    = 10
)

// Report summarises a batch. Every failed link and every skipped item is
// accounted for here.
type Report struct {
	ProcessedLinks      int              `json:"processed_links"`
	FailedLinks         []string         `json:"failed_links"`
	TotalNodesExtracted int              `json:"total_nodes_extracted"`
	TotalNodesUpserted  int              `json:"total_nodes_upserted"`
	SkippedItems        int              `json:"skipped_items"`
	EmptyExtractions    []string         `json:"empty_extractions"`
	Preview             []map[string]any `json:"preview"`
	Duration            string           `json:"duration"`
}

type Runner struct {
	pipeline  *Pipeline
	indexer   Indexer
	publisher Publisher
	metrics   *metrics.Collector
	workers   int
	logger    *slog.Logger
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

func NewRunner(p *Pipeline, ix Indexer, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{pipeline: p, indexer: ix, workers: DefaultWorkers, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type linkOutcome struct {
	res *extractor.Result
	err error
}

// Run processes links concurrently and upserts every extracted node in one
// pass. Per-link failures are reported, not returned; only an upsert failure
// is returned as an error, alongside the partial report.
func (r *Runner) Run(ctx context.Context, links []string) (*Report, error) {
	start := time.Now()
	links = uniqueLinks(links)
	r.logger.Info("ingest started", "links", len(links), "workers", r.workers)

	outcomes := make([]linkOutcome, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, link := range links {
		g.Go(func() error {
			res, err := r.pipeline.ProcessURL(gctx, link)
			outcomes[i] = linkOutcome{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		FailedLinks:      []string{},
		EmptyExtractions: []string{},
		Preview:          []map[string]any{},
	}
	var nodes []node.EnergyNode

	for i, link := range links {
		out := outcomes[i]
		if out.err != nil {
			r.logger.Error("failed to process link", "url", link, "error", out.err)
			report.FailedLinks = append(report.FailedLinks, link)
			r.metrics.LinkFailed()
			continue
		}

		res := out.res
		report.SkippedItems += len(res.Skipped)
		if len(res.Nodes) == 0 {
			report.EmptyExtractions = append(report.EmptyExtractions, link)
		}
		nodes = append(nodes, res.Nodes...)
		r.logger.Info("extracted nodes", "url", link, "source_id", res.SourceID, "nodes", len(res.Nodes))
		r.publish(hermes.SubjectNodesExtracted, hermes.NodesExtracted{
			SourceID:  res.SourceID,
			SourceURL: link,
			Outcome:   res.Outcome(),
			Count:     len(res.Nodes),
			Skipped:   len(res.Skipped),
			Attempts:  res.Attempts,
		})
	}

	report.ProcessedLinks = len(links) - len(report.FailedLinks)
	report.TotalNodesExtracted = len(nodes)
	for i := 0; i < len(nodes) && i < previewSize; i++ {
		report.Preview = append(report.Preview, nodes[i].Payload())
	}

	if len(nodes) > 0 {
		n, err := r.indexer.Upsert(ctx, nodes)
		report.TotalNodesUpserted = n
		r.metrics.Upserted(n)
		if err != nil {
			report.Duration = time.Since(start).String()
			r.logger.Error("upsert failed", "nodes", len(nodes), "written", n, "error", err)
			return report, fmt.Errorf("upsert nodes: %w", err)
		}
	}

	report.Duration = time.Since(start).String()
	r.logger.Info("ingest complete",
		"processed", report.ProcessedLinks,
		"failed", len(report.FailedLinks),
		"extracted", report.TotalNodesExtracted,
		"upserted", report.TotalNodesUpserted,
		"skipped_items", report.SkippedItems,
		"duration", report.Duration,
	)
	return report, nil
}

func (r *Runner) publish(subject string, data any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(subject, data); err != nil {
		r.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// uniqueLinks trims links and drops blanks and repeats, keeping first-seen
// order.
func uniqueLinks(links []string) []string {
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
