package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind enumerates the ways an extracted item can fail to become an EnergyNode.
type Kind int

const (
	MissingField Kind = iota + 1
	WrongType
	EmptyField
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case WrongType:
		return "wrong_type"
	case EmptyField:
		return "empty_field"
	default:
		return "unknown"
	}
}

// ValidationError reports why a single extracted item was rejected. Field is
// the dotted JSON path of the offending value ("" for the item itself).
type ValidationError struct {
	Kind   Kind
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	field := e.Field
	if field == "" {
		field = "<item>"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, field, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, field)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// wire types mirror the model output. Pointers distinguish an absent value
// from an empty one.
type wireNode struct {
	MainQuestion    *string         `json:"main_question"`
	Category        *string         `json:"category"`
	DiagnosticLayer *wireDiagnostic `json:"diagnostic_layer"`
	Pillars         *wirePillars    `json:"pillars"`
	Atmosphere      *wireAtmosphere `json:"atmosphere"`
	Overflow        []string        `json:"overflow"`
}

// Absent diagnostic fields decode to "" and are rejected as EmptyField.
type wireDiagnostic struct {
	RelatedInnerIssues     string `json:"related_inner_issues"`
	RealityCommitmentCheck string `json:"reality_commitment_check"`
	HiddenBenefit          string `json:"hidden_benefit"`
	EnergyNode             string `json:"energy_node"`
}

type wirePillars struct {
	InterventionNarrative *string `json:"intervention_narrative"`
	InterventionAction    *string `json:"intervention_action"`
	InterventionShift     *string `json:"intervention_shift"`
}

type wireAtmosphere struct {
	Tone   *string `json:"tone"`
	Pacing *string `json:"pacing"`
}

// Decode builds an EnergyNode from one raw item of the model's JSON array.
// Provenance is taken from the caller unchanged. Any failure is returned as a
// *ValidationError.
func Decode(item json.RawMessage, sourceID, sourceURL string) (EnergyNode, error) {
	var w wireNode
	if err := json.Unmarshal(item, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return EnergyNode{}, &ValidationError{
				Kind:   WrongType,
				Field:  typeErr.Field,
				Detail: fmt.Sprintf("got %s, want %s", typeErr.Value, typeErr.Type),
			}
		}
		return EnergyNode{}, &ValidationError{Kind: WrongType, Detail: err.Error()}
	}

	var missing string
	need := func(path string, v *string) string {
		if v == nil {
			if missing == "" {
				missing = path
			}
			return ""
		}
		return strings.TrimSpace(*v)
	}

	n := EnergyNode{
		SourceID:     sourceID,
		SourceURL:    sourceURL,
		MainQuestion: need("main_question", w.MainQuestion),
		Category:     need("category", w.Category),
		Overflow:     []string{},
	}
	if w.DiagnosticLayer != nil {
		n.DiagnosticLayer = DiagnosticLayer{
			RelatedInnerIssues:     strings.TrimSpace(w.DiagnosticLayer.RelatedInnerIssues),
			RealityCommitmentCheck: strings.TrimSpace(w.DiagnosticLayer.RealityCommitmentCheck),
			HiddenBenefit:          strings.TrimSpace(w.DiagnosticLayer.HiddenBenefit),
			EnergyNode:             strings.TrimSpace(w.DiagnosticLayer.EnergyNode),
		}
	}
	if w.Pillars == nil {
		need("pillars", nil)
	} else {
		n.Pillars = Pillars{
			InterventionNarrative: need("pillars.intervention_narrative", w.Pillars.InterventionNarrative),
			InterventionAction:    need("pillars.intervention_action", w.Pillars.InterventionAction),
			InterventionShift:     need("pillars.intervention_shift", w.Pillars.InterventionShift),
		}
	}
	if w.Atmosphere == nil {
		need("atmosphere", nil)
	} else {
		n.Atmosphere = Atmosphere{
			Tone:   need("atmosphere.tone", w.Atmosphere.Tone),
			Pacing: need("atmosphere.pacing", w.Atmosphere.Pacing),
		}
	}
	if missing != "" {
		return EnergyNode{}, &ValidationError{Kind: MissingField, Field: missing}
	}
	if w.Overflow != nil {
		n.Overflow = w.Overflow
	}

	if err := Validate(n); err != nil {
		return EnergyNode{}, err
	}
	return n, nil
}

// Validate checks the non-empty invariants of an EnergyNode.
func Validate(n EnergyNode) error {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Kind: WrongType, Detail: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{
		Kind:   EmptyField,
		Field:  jsonPath(fe.Namespace()),
		Detail: fe.Tag(),
	}
}

// jsonPath drops the root struct name from a validator namespace.
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
