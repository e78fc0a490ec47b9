package node

import "strings"

// DiagnosticLayer describes the psychological root state behind a surface
// complaint. It is the primary routing signal for retrieval.
type DiagnosticLayer struct {
	RelatedInnerIssues     string `json:"related_inner_issues" validate:"required"`
	RealityCommitmentCheck string `json:"reality_commitment_check" validate:"required"`
	HiddenBenefit          string `json:"hidden_benefit" validate:"required"`
	EnergyNode             string `json:"energy_node" validate:"required"` // canonical label, see EnergyLabels
}

// Pillars are the three parts of a coaching response.
type Pillars struct {
	InterventionNarrative string `json:"intervention_narrative" validate:"required"`
	InterventionAction    string `json:"intervention_action" validate:"required"`
	InterventionShift     string `json:"intervention_shift" validate:"required"`
}

// Atmosphere is the delivery style of the coach.
type Atmosphere struct {
	Tone   string `json:"tone" validate:"required"`
	Pacing string `json:"pacing" validate:"required"`
}

// EnergyNode is one coaching use-case extracted from a transcript. Values are
// built by Decode and are not modified afterwards.
type EnergyNode struct {
	SourceID        string          `json:"source_id"`
	SourceURL       string          `json:"source_url"`
	MainQuestion    string          `json:"main_question" validate:"required"`
	Category        string          `json:"category" validate:"required"`
	DiagnosticLayer DiagnosticLayer `json:"diagnostic_layer"`
	Pillars         Pillars         `json:"pillars"`
	Atmosphere      Atmosphere      `json:"atmosphere"`
	Overflow        []string        `json:"overflow"`
}

// EmbedText returns the string vectorised for similarity search: the surface
// question, its category and the full diagnostic layer.
func (n EnergyNode) EmbedText() string {
	dl := n.DiagnosticLayer
	return strings.Join([]string{
		n.MainQuestion,
		n.Category,
		dl.RelatedInnerIssues,
		dl.RealityCommitmentCheck,
		dl.HiddenBenefit,
		dl.EnergyNode,
	}, " ")
}

// Payload returns the full nested record keyed by JSON field names, ready to
// be stored next to the vector.
func (n EnergyNode) Payload() map[string]any {
	overflow := make([]string, len(n.Overflow))
	copy(overflow, n.Overflow)

	return map[string]any{
		"source_id":     n.SourceID,
		"source_url":    n.SourceURL,
		"main_question": n.MainQuestion,
		"category":      n.Category,
		"diagnostic_layer": map[string]any{
			"related_inner_issues":     n.DiagnosticLayer.RelatedInnerIssues,
			"reality_commitment_check": n.DiagnosticLayer.RealityCommitmentCheck,
			"hidden_benefit":           n.DiagnosticLayer.HiddenBenefit,
			"energy_node":              n.DiagnosticLayer.EnergyNode,
		},
		"pillars": map[string]any{
			"intervention_narrative": n.Pillars.InterventionNarrative,
			"intervention_action":    n.Pillars.InterventionAction,
			"intervention_shift":     n.Pillars.InterventionShift,
		},
		"atmosphere": map[string]any{
			"tone":   n.Atmosphere.Tone,
			"pacing": n.Atmosphere.Pacing,
		},
		"overflow": overflow,
	}
}
