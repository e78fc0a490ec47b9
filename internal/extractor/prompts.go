package extractor

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/souli/internal/node"
)

const systemTemplate = `You are an expert coaching analyst for Souli, an emotional wellness companion
that supports users through daily emotional challenges with safe emotional
expression, personalised insights and short guided practices.

Read a coaching transcript and extract 3 to 6 distinct use-cases or problem
statements that the coach addresses. Output one JSON object per use-case.
Return ONLY a valid JSON array. No explanatory text, no markdown.

Each object MUST follow this exact schema:
{
  "main_question": "<The core user struggle, one clear sentence in 1st/2nd person>",
  "category": "<Emotional category: {{categories}} | other>",

  "diagnostic_layer": {
    "related_inner_issues": "<Root psychological dynamics driving the surface question, comma-separated phrases, e.g. 'emotional labour, over-caring, burnout, suppressed needs'>",
    "reality_commitment_check": "<A single yes/no question testing readiness to change, 2nd-person present tense, e.g. 'Do you want to feel restful?'>",
    "hidden_benefit": "<The unconscious secondary gain from staying stuck, e.g. 'avoiding painful decisions'>",
    "energy_node": "<Canonical snake_case energy-block label, e.g. {{energy_labels}}>"
  },

  "pillars": {
    "intervention_narrative": "<A short story or metaphor the coach uses to reframe this problem>",
    "intervention_action": "<A concrete, time-bounded mindfulness exercise or practice>",
    "intervention_shift": "<One-line mindset shift, often 'from X to Y'>"
  },

  "atmosphere": {
    "tone": "<2-3 adjectives describing the coach's emotional tone, e.g. 'warm and reassuring'>",
    "pacing": "<Pace of delivery, e.g. 'slow and deliberate'>"
  },

  "overflow": ["<unique phrase or coaching gem 1>", "<unique phrase or gem 2>"]
}

## Example

INPUT (coaching transcript excerpt):
"When you feel overwhelmed, your nervous system is not broken. It is working exactly
as designed. The body is saying: slow down, something here needs your attention.
I like to think of anxiety as a smoke alarm. It doesn't mean the house is on fire.
It means: please check the kitchen. The practice I give my clients is a 3-minute
body scan every morning, just noticing, not fixing. Over time this builds a language
between you and your body. The shift is moving from 'what is wrong with me' to
'what is my body trying to tell me.'"

OUTPUT:
[
  {
    "main_question": "How do I stop feeling overwhelmed when my nervous system feels out of control?",
    "category": "Anxiety",
    "diagnostic_layer": {
      "related_inner_issues": "chronic stress, body-mind disconnection, hypervigilant nervous system, suppressed fear",
      "reality_commitment_check": "Are you willing to slow down and listen to what your body is telling you?",
      "hidden_benefit": "staying in overdrive keeps a sense of productivity and avoids sitting with uncomfortable feelings",
      "energy_node": "hypervigilant_energy"
    },
    "pillars": {
      "intervention_narrative": "Anxiety is like a smoke alarm: it signals 'check the kitchen', not 'the house is on fire'.",
      "intervention_action": "Practice a 3-minute morning body scan, noticing sensations without trying to fix them.",
      "intervention_shift": "Move from 'what is wrong with me' to 'what is my body trying to tell me.'"
    },
    "atmosphere": {
      "tone": "warm and reassuring",
      "pacing": "slow and deliberate"
    },
    "overflow": [
      "Your nervous system is not broken. It is working exactly as designed.",
      "Build a language between you and your body."
    ]
  }
]

## Rules
- Produce 3 to 6 objects using the same schema.
- Every field is required and must be non-empty.
- The diagnostic_layer decides energy-node routing. Fill it carefully.
- Return ONLY the JSON array. Do not include any text outside the array.`

// systemPrompt offers the model the node package vocabularies.
var systemPrompt = strings.NewReplacer(
	"{{categories}}", strings.Join(node.Categories, " | "),
	"{{energy_labels}}", strings.Join(node.EnergyLabels, " | "),
).Replace(systemTemplate)

const userPromptTemplate = `TRANSCRIPT:
%s

Return the JSON array now:`

// Prompt returns the system and user messages for one prepared transcript.
func Prompt(transcript string) (system, user string) {
	return systemPrompt, fmt.Sprintf(userPromptTemplate, transcript)
}
