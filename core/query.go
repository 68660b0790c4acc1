package core

import "strings"

// Intent classifies what a support query is asking for. Intents route queries
// to the matching retriever.
type Intent string

const (
	// IntentProductSearch means the user wants to find or buy a specific part.
	IntentProductSearch Intent = "product_search"
	// IntentCompatibilityCheck means the user wants to know if a part fits
	// their appliance model.
	IntentCompatibilityCheck Intent = "compatibility_check"
	// IntentTroubleshooting means the user has an appliance problem and needs
	// a diagnosis.
	IntentTroubleshooting Intent = "troubleshooting"
	// IntentInstallationGuide means the user needs help installing a part.
	IntentInstallationGuide Intent = "installation_guide"
	// IntentGeneralQuestion covers everything else.
	IntentGeneralQuestion Intent = "general_question"
)

// Intents returns every recognized intent.
func Intents() []Intent {
	return []Intent{
		IntentProductSearch,
		IntentCompatibilityCheck,
		IntentTroubleshooting,
		IntentInstallationGuide,
		IntentGeneralQuestion,
	}
}

// ParseIntent normalizes a raw intent label. Labels that do not match a
// recognized intent map to IntentGeneralQuestion.
func ParseIntent(s string) Intent {
	label := Intent(strings.ToLower(strings.TrimSpace(s)))
	for _, intent := range Intents() {
		if label == intent {
			return intent
		}
	}
	return IntentGeneralQuestion
}

// Entities are the structured attributes extracted from a support query.
// Zero values mean the attribute was not detected. Appliance, brand, and
// part labels are canonically lowercase so equality filters match the
// seeded catalog metadata.
type Entities struct {
	ApplianceType string   // "refrigerator" or "dishwasher"
	Brand         string   // "lg", "samsung", ...
	PartType      string   // "water_dispenser", "spray_arm", ...
	ModelNumber   string   // "RS25J500DSG", ...
	IssueKeywords []string // "leaking", "not cooling", ...
	Installation  bool     // query mentions installing or replacing
	Comparison    bool     // query asks for a comparison or recommendation
}

// QueryAnalysis is the combined result of intent classification and entity
// extraction for one user message.
type QueryAnalysis struct {
	Intent     Intent
	Entities   Entities
	Confidence float64
}
