package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Distance is the similarity metric a collection is indexed with.
type Distance string

const (
	Cosine Distance = "cosine"
	Dot    Distance = "dot"
	Euclid Distance = "euclid"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("collection dimension mismatch")

	// 49 characters leaves room for indexSuffix within Postgres' 63-byte
	// identifier limit.
	collectionName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,48}$`)
)

func (d Distance) Valid() bool {
	switch d {
	case Cosine, Dot, Euclid:
		return true
	}
	return false
}

func (d Distance) opclass() string {
	switch d {
	case Dot:
		return "vector_ip_ops"
	case Euclid:
		return "vector_l2_ops"
	default:
		return "vector_cosine_ops"
	}
}

func (d Distance) operator() string {
	switch d {
	case Dot:
		return "<#>"
	case Euclid:
		return "<->"
	default:
		return "<=>"
	}
}

// scoreExpr turns the index distance into a higher-is-better score.
// pgvector's <#> is the negated inner product.
func (d Distance) scoreExpr() string {
	switch d {
	case Dot:
		return "(embedding <#> $1::vector) * -1"
	case Euclid:
		return "(embedding <-> $1::vector) * -1"
	default:
		return "1 - (embedding <=> $1::vector)"
	}
}

type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload map[string]any
}

type ScoredPayload struct {
	ID      uuid.UUID
	Score   float64
	Payload map[string]any
}

type CollectionStats struct {
	Name        string   `json:"name"`
	PointsCount int64    `json:"points_count"`
	VectorSize  int      `json:"vector_size"`
	Distance    Distance `json:"distance"`
}

const indexSuffix = "_embedding_idx"

func tableIdent(name string) (string, error) {
	if !collectionName.MatchString(name) {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func indexIdent(name string) string {
	return pgx.Identifier{name + indexSuffix}.Sanitize()
}

const registryDDL = `
	CREATE TABLE IF NOT EXISTS vector_collections (
		name       text PRIMARY KEY,
		dim        integer NOT NULL,
		distance   text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`

// EnsureIndex creates the collection table and its HNSW index if they do not
// exist. An existing collection must have the same dimension and metric.
func (s *Store) EnsureIndex(ctx context.Context, name string, dim int, metric Distance) error {
	ident, err := tableIdent(name)
	if err != nil {
		return err
	}
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	if !metric.Valid() {
		return fmt.Errorf("invalid distance %q", metric)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ensure index: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := tx.Exec(ctx, registryDDL); err != nil {
		return fmt.Errorf("create collection registry: %w", err)
	}

	var existingDim int
	var existingDist string
	err = tx.QueryRow(ctx, `SELECT dim, distance FROM vector_collections WHERE name = $1`, name).Scan(&existingDim, &existingDist)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx,
			`INSERT INTO vector_collections (name, dim, distance) VALUES ($1, $2, $3)`,
			name, dim, string(metric),
		); err != nil {
			return fmt.Errorf("register collection: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup collection: %w", err)
	case existingDim != dim || Distance(existingDist) != metric:
		return fmt.Errorf("%w: %s is %d/%s, requested %d/%s",
			ErrDimensionMismatch, name, existingDim, existingDist, dim, metric)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY,
			embedding  vector(%d) NOT NULL,
			payload    jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, ident, dim)); err != nil {
		return fmt.Errorf("create collection table: %w", err)
	}

	idx := indexIdent(name)
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s)`,
		idx, ident, metric.opclass(),
	)); err != nil {
		return fmt.Errorf("create collection index: %w", err)
	}

	return tx.Commit(ctx)
}

// Upsert writes points in a single batch and returns how many were written.
func (s *Store) Upsert(ctx context.Context, collection string, points []Point) (int, error) {
	ident, err := tableIdent(collection)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, payload) VALUES ($1, $2::vector, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`, ident)

	batch := &pgx.Batch{}
	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return 0, fmt.Errorf("marshal payload %s: %w", p.ID, err)
		}
		batch.Queue(query, p.ID, pgVector(p.Vector), payload)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	written := 0
	for _, p := range points {
		if _, err := br.Exec(); err != nil {
			return written, fmt.Errorf("upsert point %s: %w", p.ID, err)
		}
		written++
	}
	return written, nil
}

func (s *Store) collectionMeta(ctx context.Context, name string) (int, Distance, error) {
	var dim int
	var dist string
	err := s.pool.QueryRow(ctx, `SELECT dim, distance FROM vector_collections WHERE name = $1`, name).Scan(&dim, &dist)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, "", fmt.Errorf("lookup collection: %w", err)
	}
	return dim, Distance(dist), nil
}

func searchSQL(ident string, metric Distance) string {
	return fmt.Sprintf(
		`SELECT id, payload, %s AS score FROM %s ORDER BY embedding %s $1::vector LIMIT $2`,
		metric.scoreExpr(), ident, metric.operator(),
	)
}

// Search returns up to k payloads ordered by descending score. A threshold
// of zero or less disables score filtering.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, k int, threshold float64) ([]ScoredPayload, error) {
	ident, err := tableIdent(collection)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	dim, metric, err := s.collectionMeta(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			ErrDimensionMismatch, len(vector), collection, dim)
	}

	rows, err := s.pool.Query(ctx, searchSQL(ident, metric), pgVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	defer rows.Close()

	results := []ScoredPayload{}
	for rows.Next() {
		var r ScoredPayload
		var raw []byte
		if err := rows.Scan(&r.ID, &raw, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		if threshold > 0 && r.Score < threshold {
			continue
		}
		if err := json.Unmarshal(raw, &r.Payload); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", r.ID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CollectionInfo reports the size and shape of a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*CollectionStats, error) {
	ident, err := tableIdent(name)
	if err != nil {
		return nil, err
	}
	dim, metric, err := s.collectionMeta(ctx, name)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, ident)).Scan(&count); err != nil {
		return nil, fmt.Errorf("count %s: %w", name, err)
	}
	return &CollectionStats{Name: name, PointsCount: count, VectorSize: dim, Distance: metric}, nil
}
