package store

import (
	"strings"
	"testing"
)

func TestPGVector(t *testing.T) {
	got := pgVector([]float32{0.1, -2, 3.5})
	if got != "[0.1,-2,3.5]" {
		t.Errorf("pgVector = %q", got)
	}
	if pgVector(nil) != "[]" {
		t.Errorf("empty vector = %q", pgVector(nil))
	}
}

func TestTableIdent(t *testing.T) {
	ident, err := tableIdent("souli_knowledge_base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ident != `"souli_knowledge_base"` {
		t.Errorf("ident = %s", ident)
	}

	for _, bad := range []string{"", "Souli", "1abc", "drop table;", "a-b", strings.Repeat("a", 50), strings.Repeat("a", 64)} {
		if _, err := tableIdent(bad); err == nil {
			t.Errorf("tableIdent(%q) expected error", bad)
		}
	}
}

func TestIndexIdent_FitsIdentifierLimit(t *testing.T) {
	longest := strings.Repeat("a", 49)
	if _, err := tableIdent(longest); err != nil {
		t.Fatalf("49-character name rejected: %v", err)
	}
	idx := indexIdent(longest)
	if unquoted := strings.Trim(idx, `"`); len(unquoted) > 63 {
		t.Errorf("index name %d bytes, exceeds 63", len(unquoted))
	}
	if indexIdent("souli_knowledge_base") != `"souli_knowledge_base_embedding_idx"` {
		t.Errorf("index ident = %s", indexIdent("souli_knowledge_base"))
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		d        Distance
		opclass  string
		operator string
	}{
		{Cosine, "vector_cosine_ops", "<=>"},
		{Dot, "vector_ip_ops", "<#>"},
		{Euclid, "vector_l2_ops", "<->"},
	}
	for _, tt := range tests {
		if !tt.d.Valid() {
			t.Errorf("%s should be valid", tt.d)
		}
		if tt.d.opclass() != tt.opclass {
			t.Errorf("%s opclass = %s", tt.d, tt.d.opclass())
		}
		if tt.d.operator() != tt.operator {
			t.Errorf("%s operator = %s", tt.d, tt.d.operator())
		}
	}
	if Distance("manhattan").Valid() {
		t.Error("unknown distance should be invalid")
	}
}

func TestSearchSQL(t *testing.T) {
	q := searchSQL(`"kb"`, Cosine)
	for _, want := range []string{`FROM "kb"`, "1 - (embedding <=> $1::vector) AS score", "ORDER BY embedding <=> $1::vector", "LIMIT $2"} {
		if !strings.Contains(q, want) {
			t.Errorf("cosine query missing %q: %s", want, q)
		}
	}
	if !strings.Contains(searchSQL(`"kb"`, Dot), "(embedding <#> $1::vector) * -1 AS score") {
		t.Error("dot score should negate pgvector's negative inner product")
	}
	if !strings.Contains(searchSQL(`"kb"`, Euclid), "ORDER BY embedding <-> $1::vector") {
		t.Error("euclid query should order by l2 distance")
	}
}
