//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func testCollection(t *testing.T, s *Store) string {
	t.Helper()
	name := "it_" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	t.Cleanup(func() {
		ctx := context.Background()
		s.pool.Exec(ctx, `DROP TABLE IF EXISTS `+name)
		s.pool.Exec(ctx, `DELETE FROM vector_collections WHERE name = $1`, name)
	})
	return name
}

func TestIntegration_UpsertAndSearch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	name := testCollection(t, s)

	if err := s.EnsureIndex(ctx, name, 3, Cosine); err != nil {
		t.Fatalf("EnsureIndex failed: %v", err)
	}
	// idempotent
	if err := s.EnsureIndex(ctx, name, 3, Cosine); err != nil {
		t.Fatalf("second EnsureIndex failed: %v", err)
	}

	near := uuid.New()
	far := uuid.New()
	n, err := s.Upsert(ctx, name, []Point{
		{ID: near, Vector: []float32{1, 0, 0}, Payload: map[string]any{"main_question": "near"}},
		{ID: far, Vector: []float32{0, 1, 0}, Payload: map[string]any{"main_question": "far"}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 written, got %d", n)
	}

	results, err := s.Search(ctx, name, []float32{0.9, 0.1, 0}, 2, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != near || results[0].Payload["main_question"] != "near" {
		t.Errorf("expected nearest first, got %+v", results[0])
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not ordered by score: %v %v", results[0].Score, results[1].Score)
	}

	filtered, err := s.Search(ctx, name, []float32{0.9, 0.1, 0}, 2, 0.5)
	if err != nil {
		t.Fatalf("filtered Search failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("expected threshold to drop the far point, got %d", len(filtered))
	}

	// upsert overwrites by id
	if _, err := s.Upsert(ctx, name, []Point{{ID: far, Vector: []float32{1, 0, 0}, Payload: map[string]any{"main_question": "moved"}}}); err != nil {
		t.Fatalf("re-upsert failed: %v", err)
	}

	info, err := s.CollectionInfo(ctx, name)
	if err != nil {
		t.Fatalf("CollectionInfo failed: %v", err)
	}
	if info.PointsCount != 2 || info.VectorSize != 3 || info.Distance != Cosine {
		t.Errorf("unexpected stats: %+v", info)
	}
}

func TestIntegration_DimensionMismatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	name := testCollection(t, s)

	if err := s.EnsureIndex(ctx, name, 3, Cosine); err != nil {
		t.Fatalf("EnsureIndex failed: %v", err)
	}
	if err := s.EnsureIndex(ctx, name, 4, Cosine); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := s.Search(ctx, name, []float32{1, 0}, 1, 0); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for short query, got %v", err)
	}
}

func TestIntegration_UnknownCollection(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.CollectionInfo(context.Background(), "does_not_exist"); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}
