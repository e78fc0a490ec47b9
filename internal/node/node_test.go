package node

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const validItem = `{
	"main_question": "How do I stop feeling overwhelmed?",
	"category": "Anxiety",
	"diagnostic_layer": {
		"related_inner_issues": "chronic stress, suppressed fear",
		"reality_commitment_check": "Are you willing to slow down?",
		"hidden_benefit": "staying busy avoids uncomfortable feelings",
		"energy_node": "hypervigilant_energy"
	},
	"pillars": {
		"intervention_narrative": "Anxiety is a smoke alarm, not a fire.",
		"intervention_action": "3-minute morning body scan.",
		"intervention_shift": "From what is wrong with me to what is my body telling me."
	},
	"atmosphere": {"tone": "warm and reassuring", "pacing": "slow and deliberate"},
	"overflow": ["Your nervous system is not broken.", "Build a language with your body."]
}`

func TestDecode_Valid(t *testing.T) {
	n, err := Decode(json.RawMessage(validItem), "vid123", "https://youtu.be/vid123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.SourceID != "vid123" || n.SourceURL != "https://youtu.be/vid123" {
		t.Errorf("provenance not passed through: %q %q", n.SourceID, n.SourceURL)
	}
	if n.DiagnosticLayer.EnergyNode != "hypervigilant_energy" {
		t.Errorf("energy_node = %q", n.DiagnosticLayer.EnergyNode)
	}
	if n.Pillars.InterventionAction != "3-minute morning body scan." {
		t.Errorf("intervention_action = %q", n.Pillars.InterventionAction)
	}
	if len(n.Overflow) != 2 {
		t.Errorf("expected 2 overflow items, got %d", len(n.Overflow))
	}
}

func TestDecode_OverflowDefaultsToEmpty(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal([]byte(validItem), &m); err != nil {
		t.Fatal(err)
	}
	delete(m, "overflow")
	raw, _ := json.Marshal(m)

	n, err := Decode(raw, "id", "url")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Overflow == nil || len(n.Overflow) != 0 {
		t.Errorf("expected empty non-nil overflow, got %#v", n.Overflow)
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(m map[string]any)
		raw   string
		kind  Kind
		field string
	}{
		{
			name:  "missing pillars",
			edit:  func(m map[string]any) { delete(m, "pillars") },
			kind:  MissingField,
			field: "pillars",
		},
		{
			name:  "missing main question",
			edit:  func(m map[string]any) { delete(m, "main_question") },
			kind:  MissingField,
			field: "main_question",
		},
		{
			name: "missing atmosphere sub-field",
			edit: func(m map[string]any) {
				m["atmosphere"] = map[string]any{"tone": "warm"}
			},
			kind:  MissingField,
			field: "atmosphere.pacing",
		},
		{
			name: "missing diagnostic sub-field defaults to empty",
			edit: func(m map[string]any) {
				dl := m["diagnostic_layer"].(map[string]any)
				delete(dl, "hidden_benefit")
			},
			kind:  EmptyField,
			field: "diagnostic_layer.hidden_benefit",
		},
		{
			name:  "missing diagnostic layer",
			edit:  func(m map[string]any) { delete(m, "diagnostic_layer") },
			kind:  EmptyField,
			field: "diagnostic_layer.related_inner_issues",
		},
		{
			name:  "blank category",
			edit:  func(m map[string]any) { m["category"] = "   " },
			kind:  EmptyField,
			field: "category",
		},
		{
			name:  "pillars as string",
			edit:  func(m map[string]any) { m["pillars"] = "be kind" },
			kind:  WrongType,
			field: "pillars",
		},
		{
			name:  "overflow as string",
			edit:  func(m map[string]any) { m["overflow"] = "gem" },
			kind:  WrongType,
			field: "overflow",
		},
		{
			name:  "numeric main question",
			edit:  func(m map[string]any) { m["main_question"] = 42 },
			kind:  WrongType,
			field: "main_question",
		},
		{
			name:  "item is not an object",
			raw:   `"just a string"`,
			kind:  WrongType,
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(tt.raw)
			if tt.edit != nil {
				var m map[string]any
				if err := json.Unmarshal([]byte(validItem), &m); err != nil {
					t.Fatal(err)
				}
				tt.edit(m)
				raw, _ = json.Marshal(m)
			}

			_, err := Decode(raw, "id", "url")
			if err == nil {
				t.Fatal("expected error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", ve.Kind, tt.kind)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestEmbedText_ContainsRoutingFields(t *testing.T) {
	n, err := Decode(json.RawMessage(validItem), "id", "url")
	if err != nil {
		t.Fatal(err)
	}
	text := n.EmbedText()
	for _, want := range []string{
		n.MainQuestion,
		n.Category,
		n.DiagnosticLayer.RelatedInnerIssues,
		n.DiagnosticLayer.RealityCommitmentCheck,
		n.DiagnosticLayer.HiddenBenefit,
		n.DiagnosticLayer.EnergyNode,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("embed text missing %q: %s", want, text)
		}
	}
	if strings.Contains(text, n.Pillars.InterventionAction) {
		t.Error("embed text should not include pillars")
	}
}

func TestPayload(t *testing.T) {
	n, err := Decode(json.RawMessage(validItem), "vid", "https://youtu.be/vid")
	if err != nil {
		t.Fatal(err)
	}
	p := n.Payload()
	if p["source_id"] != "vid" {
		t.Errorf("source_id = %v", p["source_id"])
	}
	dl, ok := p["diagnostic_layer"].(map[string]any)
	if !ok {
		t.Fatalf("diagnostic_layer has type %T", p["diagnostic_layer"])
	}
	if dl["energy_node"] != "hypervigilant_energy" {
		t.Errorf("energy_node = %v", dl["energy_node"])
	}

	// payload must not alias the node's overflow slice
	p["overflow"].([]string)[0] = "changed"
	if n.Overflow[0] == "changed" {
		t.Error("payload overflow aliases node overflow")
	}
}

func TestVocabulary(t *testing.T) {
	if !IsKnownCategory("Burnout") {
		t.Error("Burnout should be a known category")
	}
	if IsKnownCategory("Gardening") {
		t.Error("Gardening should not be a known category")
	}
	if !IsKnownEnergyLabel("depleted_energy") {
		t.Error("depleted_energy should be a known label")
	}
	if IsKnownEnergyLabel("Depleted Energy") {
		t.Error("labels are case-sensitive snake_case")
	}
}

func TestKindString(t *testing.T) {
	if MissingField.String() != "missing_field" || WrongType.String() != "wrong_type" || EmptyField.String() != "empty_field" {
		t.Error("unexpected kind names")
	}
}
