package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
)

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "intent": {
      "type": "string"
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "entities": {
      "type": "object",
      "properties": {
        "appliance_type": {"type": "string"},
        "brand": {"type": "string"},
        "part_type": {"type": "string"},
        "model_number": {"type": "string"},
        "issue_keywords": {"type": "array", "items": {"type": "string"}},
        "installation": {"type": "boolean"},
        "comparison": {"type": "boolean"}
      },
      "required": ["appliance_type", "brand", "part_type", "model_number", "issue_keywords", "installation", "comparison"],
      "additionalProperties": false
    }
  },
  "required": ["intent", "confidence", "entities"],
  "additionalProperties": false
}`

const analysisPromptTemplate = `You are a query analyzer for an appliance parts assistant. Classify the user's message and extract the entities it mentions, returning them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Intent must be exactly one of: %s.
  - product_search: the user wants to find or buy a specific part.
  - compatibility_check: the user wants to know if a part fits their appliance model.
  - troubleshooting: the user has an appliance problem and needs a diagnosis.
  - installation_guide: the user needs help installing or replacing a part.
  - general_question: everything else.
- appliance_type must be one of: %s. Use "" if no appliance is mentioned.
- brand must be one of: %s. Use "" if no brand is mentioned.
- part_type must be one of: %s. Use "" if no part is mentioned.
- model_number is the appliance model code exactly as written (e.g. "RS25J500DSG"). Use "" if absent.
- issue_keywords lists the problem phrases from the message (e.g. "leaking", "not cooling"). Use [] if none.
- installation is true when the message mentions installing, replacing, or removing a part.
- comparison is true when the message asks to compare options or for a recommendation.
- confidence is a number from 0 to 1 rating how certain the classification is.
- Extract only what the message states or clearly implies. Do not hallucinate.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example (troubleshooting):
Input: "My Whirlpool fridge is leaking water from the dispenser"
Output:
{
  "intent": "troubleshooting",
  "confidence": 0.9,
  "entities": {
    "appliance_type": "refrigerator",
    "brand": "whirlpool",
    "part_type": "water_dispenser",
    "model_number": "",
    "issue_keywords": ["leaking"],
    "installation": false,
    "comparison": false
  }
}

Example (installation, no punctuation):
Input: "how do i put in a new spray arm on my bosch dishwasher"
Output:
{
  "intent": "installation_guide",
  "confidence": 0.85,
  "entities": {
    "appliance_type": "dishwasher",
    "brand": "bosch",
    "part_type": "spray_arm",
    "model_number": "",
    "issue_keywords": [],
    "installation": true,
    "comparison": false
  }
}

Example (compatibility with model number):
Input: "will this door handle fit my samsung RS25J500DSG"
Output:
{
  "intent": "compatibility_check",
  "confidence": 0.9,
  "entities": {
    "appliance_type": "refrigerator",
    "brand": "samsung",
    "part_type": "door_handle",
    "model_number": "RS25J500DSG",
    "issue_keywords": [],
    "installation": false,
    "comparison": false
  }
}

Example (product search with recommendation):
Input: "whats the best replacement thermostat for a ge fridge"
Output:
{
  "intent": "product_search",
  "confidence": 0.8,
  "entities": {
    "appliance_type": "refrigerator",
    "brand": "ge",
    "part_type": "thermostat",
    "model_number": "",
    "issue_keywords": [],
    "installation": true,
    "comparison": true
  }
}`

// buildSystemPrompt creates the system prompt with the intent and entity
// vocabularies embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(analysisPromptTemplate,
		analysisResponseSchema,
		intentLabels(),
		strings.Join(ai.ApplianceTypes, ", "),
		strings.Join(ai.Brands, ", "),
		strings.Join(ai.PartTypes, ", "))
}

// intentLabels joins the recognized intents for prompt embedding.
func intentLabels() string {
	intents := core.Intents()
	labels := make([]string, len(intents))
	for i, intent := range intents {
		labels[i] = string(intent)
	}
	return strings.Join(labels, ", ")
}
