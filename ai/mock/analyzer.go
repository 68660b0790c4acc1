package mock

import (
	"context"
	"regexp"
	"strings"

	"github.com/poiesic/fixit/core"
)

// MockQueryAnalyzer is a test double for ai.QueryAnalyzer.
// It allows custom behavior injection via function fields.
type MockQueryAnalyzer struct {
	// AnalyzeQueryFunc is called by AnalyzeQuery if set.
	// If nil, uses default keyword-based behavior.
	AnalyzeQueryFunc func(ctx context.Context, query string) (*core.QueryAnalysis, error)

	callCount int
}

// NewMockQueryAnalyzer creates a mock query analyzer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnalyzer().
func NewMockQueryAnalyzer() *MockQueryAnalyzer {
	return &MockQueryAnalyzer{}
}

var mockModelNumberPattern = regexp.MustCompile(`\b[A-Z]{1,2}\d{2,3}[A-Z0-9]{4,8}\b`)

// AnalyzeQuery produces a simple keyword-driven analysis.
// Default behavior: scans for a handful of intent and appliance markers,
// enough to drive routing in tests without an LLM.
func (m *MockQueryAnalyzer) AnalyzeQuery(ctx context.Context, query string) (*core.QueryAnalysis, error) {
	m.callCount++

	if m.AnalyzeQueryFunc != nil {
		return m.AnalyzeQueryFunc(ctx, query)
	}

	lower := strings.ToLower(query)
	analysis := &core.QueryAnalysis{
		Intent:     core.IntentGeneralQuestion,
		Confidence: 0.5,
	}

	switch {
	case strings.Contains(lower, "install") || strings.Contains(lower, "how to"):
		analysis.Intent = core.IntentInstallationGuide
		analysis.Entities.Installation = true
	case strings.Contains(lower, "compatible") || strings.Contains(lower, "fit"):
		analysis.Intent = core.IntentCompatibilityCheck
	case strings.Contains(lower, "leak") || strings.Contains(lower, "broken") ||
		strings.Contains(lower, "not working") || strings.Contains(lower, "noise"):
		analysis.Intent = core.IntentTroubleshooting
	case strings.Contains(lower, "find") || strings.Contains(lower, "need") ||
		strings.Contains(lower, "buy"):
		analysis.Intent = core.IntentProductSearch
	}

	if strings.Contains(lower, "fridge") || strings.Contains(lower, "refrigerator") ||
		strings.Contains(lower, "freezer") {
		analysis.Entities.ApplianceType = "refrigerator"
	} else if strings.Contains(lower, "dishwasher") {
		analysis.Entities.ApplianceType = "dishwasher"
	}

	if match := mockModelNumberPattern.FindString(query); match != "" {
		analysis.Entities.ModelNumber = match
	}

	return analysis, nil
}

// CallCount returns the number of times AnalyzeQuery was called.
func (m *MockQueryAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockQueryAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeQueryFunc = nil
}
