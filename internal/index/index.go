// Package index embeds energy nodes and queries them from the vector store.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/souli/internal/node"
	"github.com/MikeSquared-Agency/souli/internal/store"
)

const (
	BatchSize = 64
	DefaultK  = 3
)

var ErrEmptyQuery = errors.New("query text is empty")

type VectorStore interface {
	EnsureIndex(ctx context.Context, name string, dim int, metric store.Distance) error
	Upsert(ctx context.Context, collection string, points []store.Point) (int, error)
	Search(ctx context.Context, collection string, vector []float32, k int, threshold float64) ([]store.ScoredPayload, error)
	CollectionInfo(ctx context.Context, name string) (*store.CollectionStats, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

type Indexer struct {
	store      VectorStore
	embedder   Embedder
	collection string
	logger     *slog.Logger

	mu      sync.Mutex
	ensured bool
}

func New(vs VectorStore, emb Embedder, collection string, logger *slog.Logger) *Indexer {
	return &Indexer{store: vs, embedder: emb, collection: collection, logger: logger}
}

func (ix *Indexer) Collection() string { return ix.collection }

// EnsureCollection creates the collection on first use. A failed attempt is
// retried on the next call.
func (ix *Indexer) EnsureCollection(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.ensured {
		return nil
	}
	if err := ix.store.EnsureIndex(ctx, ix.collection, ix.embedder.Dim(), store.Cosine); err != nil {
		return fmt.Errorf("ensure collection %s: %w", ix.collection, err)
	}
	ix.ensured = true
	ix.logger.Info("collection ready", "collection", ix.collection, "dim", ix.embedder.Dim())
	return nil
}

// Upsert embeds and stores nodes in batches, assigning each a fresh ID.
// It returns the number of points written.
func (ix *Indexer) Upsert(ctx context.Context, nodes []node.EnergyNode) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}
	if err := ix.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	total := 0
	for start := 0; start < len(nodes); start += BatchSize {
		end := min(start+BatchSize, len(nodes))
		batch := nodes[start:end]

		texts := make([]string, len(batch))
		for i, n := range batch {
			texts[i] = n.EmbedText()
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return total, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		points := make([]store.Point, len(batch))
		for i, n := range batch {
			points[i] = store.Point{ID: uuid.New(), Vector: vectors[i], Payload: n.Payload()}
		}
		written, err := ix.store.Upsert(ctx, ix.collection, points)
		total += written
		if err != nil {
			return total, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	ix.logger.Info("nodes upserted", "collection", ix.collection, "count", total)
	return total, nil
}

// Search embeds query and returns matching payloads, each annotated with
// its similarity under "_score".
func (ix *Indexer) Search(ctx context.Context, query string, k int, threshold float64) ([]map[string]any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultK
	}

	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := ix.store.Search(ctx, ix.collection, vec, k, threshold)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", ix.collection, err)
	}

	results := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		p := make(map[string]any, len(h.Payload)+1)
		for key, v := range h.Payload {
			p[key] = v
		}
		p["_score"] = h.Score
		results = append(results, p)
	}
	return results, nil
}

func (ix *Indexer) Info(ctx context.Context) (*store.CollectionStats, error) {
	return ix.store.CollectionInfo(ctx, ix.collection)
}
