package retrieval

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
)

// intentKeywords scores intents by keyword hits. Order is the routing
// priority when several intents match.
var intentKeywords = []struct {
	intent   core.Intent
	keywords []string
}{
	{core.IntentTroubleshooting, []string{
		"problem", "issue", "broken", "not working", "doesn't work",
		"error", "making noise", "leaking", "noisy", "sound",
		"won't", "can't", "help", "fix", "trouble",
		"symptom", "damage", "repair", "fail",
	}},
	{core.IntentProductSearch, []string{
		"find", "search", "looking for", "need", "want",
		"where can i", "show me", "do you have", "price",
		"cost", "available", "in stock", "buy",
	}},
	{core.IntentCompatibilityCheck, []string{
		"compatible", "fit", "work with", "match", "model",
		"will it work", "is it compatible", "does it fit",
		"model number",
	}},
	{core.IntentInstallationGuide, []string{
		"install", "installation", "how to install", "replace",
		"replacement", "remove", "setup", "fit", "attach",
		"mount", "connection", "tool", "step",
	}},
}

// applianceKeywords maps mention phrases to the canonical appliance type.
// Slice order decides which appliance wins when a query mentions both.
var applianceKeywords = []struct {
	appliance string
	keywords  []string
}{
	{ApplianceRefrigerator, []string{"fridge", "refrigerator", "frig", "ice maker", "freezer"}},
	{ApplianceDishwasher, []string{"dishwasher", "dish washer", "washing dishes"}},
}

// brandKeywords maps mention phrases to the canonical lowercase brand.
var brandKeywords = []struct {
	brand    string
	keywords []string
}{
	{"lg", []string{"lg"}},
	{"samsung", []string{"samsung"}},
	{"ge", []string{"ge", "general electric"}},
	{"whirlpool", []string{"whirlpool"}},
	{"electrolux", []string{"electrolux"}},
	{"bosch", []string{"bosch"}},
	{"thermador", []string{"thermador"}},
	{"kitchenaid", []string{"kitchenaid"}},
	{"maytag", []string{"maytag"}},
	{"frigidaire", []string{"frigidaire"}},
}

// partTypeKeywords maps mention phrases to the canonical part type.
var partTypeKeywords = []struct {
	partType string
	keywords []string
}{
	{"water_dispenser", []string{"water dispenser", "ice dispenser", "water filter"}},
	{"spray_arm", []string{"spray arm", "spray ball", "wash arm"}},
	{"compressor", []string{"compressor"}},
	{"condenser", []string{"condenser", "condenser fan"}},
	{"evaporator", []string{"evaporator", "evaporator fan"}},
	{"door_handle", []string{"door handle", "handle"}},
	{"thermostat", []string{"thermostat"}},
	{"motor", []string{"motor", "fan motor"}},
	{"seal", []string{"seal", "gasket"}},
	{"shelf", []string{"shelf", "shelf assembly"}},
}

var issueKeywords = []string{
	"noise", "leaking", "not cooling", "not freezing",
	"ice maker", "water dispenser", "door won't close",
	"grinding", "squealing", "broken", "cracked", "stopped",
	"error", "beeping", "won't drain",
}

var installationKeywords = []string{"install", "replace", "how to", "setup", "remove"}

var comparisonKeywords = []string{"compare", "vs", "versus", "better", "best", "difference", "recommend"}

// modelNumberPattern matches appliance model numbers like RS25J500DSG. The
// pattern is case-sensitive: models are conventionally written uppercase.
var modelNumberPattern = regexp.MustCompile(`\b[A-Z]{1,2}\d{2,3}[A-Z0-9]{4,8}\b`)

// KeywordAnalyzer classifies support queries with keyword dictionaries and
// extracts the entities they mention. It needs no model calls, making it the
// always-available fallback analyzer. Safe for concurrent use.
type KeywordAnalyzer struct{}

var _ ai.QueryAnalyzer = (*KeywordAnalyzer)(nil)

// NewKeywordAnalyzer creates a dictionary-driven query analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

// AnalyzeQuery scores each intent by its keyword hit rate, picks the
// highest-priority intent that matched, and extracts appliance, brand, part
// type, model number, and issue entities. Queries matching no intent
// dictionary map to core.IntentGeneralQuestion with confidence 0.
func (a *KeywordAnalyzer) AnalyzeQuery(_ context.Context, query string) (*core.QueryAnalysis, error) {
	lower := strings.ToLower(query)
	tokens := queryTokens(lower)

	intent := core.IntentGeneralQuestion
	matched := 0
	totalScore := 0.0
	for _, entry := range intentKeywords {
		hits := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		if matched == 0 {
			intent = entry.intent
		}
		matched++
		totalScore += float64(hits) / float64(len(entry.keywords))
	}

	confidence := 0.0
	if matched > 0 {
		confidence = totalScore / float64(matched)
	}

	return &core.QueryAnalysis{
		Intent:     intent,
		Entities:   extractEntities(query, lower, tokens),
		Confidence: confidence,
	}, nil
}

func extractEntities(query, lower string, tokens map[string]struct{}) core.Entities {
	e := core.Entities{}

	for _, entry := range applianceKeywords {
		if matchAny(lower, tokens, entry.keywords) {
			e.ApplianceType = entry.appliance
			break
		}
	}
	for _, entry := range brandKeywords {
		if matchAny(lower, tokens, entry.keywords) {
			e.Brand = entry.brand
			break
		}
	}
	for _, entry := range partTypeKeywords {
		if matchAny(lower, tokens, entry.keywords) {
			e.PartType = entry.partType
			break
		}
	}

	// Model numbers are matched against the raw query: the pattern relies
	// on uppercase letters.
	e.ModelNumber = modelNumberPattern.FindString(query)

	for _, kw := range issueKeywords {
		if strings.Contains(lower, kw) {
			e.IssueKeywords = append(e.IssueKeywords, kw)
		}
	}

	e.Installation = containsAny(lower, installationKeywords)
	e.Comparison = containsAny(lower, comparisonKeywords)

	return e
}

// matchAny reports whether the query mentions any of the keywords.
// Multiword keywords match as substrings; single words must match a whole
// token, so short brand codes ("ge", "lg") never fire inside other words.
func matchAny(lower string, tokens map[string]struct{}, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if _, ok := tokens[kw]; ok {
			return true
		}
	}
	return false
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// queryTokens splits a lowercased query into words with surrounding
// punctuation trimmed, for exact-word dictionary matches.
func queryTokens(lower string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(lower) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if word != "" {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// FallbackAnalyzer consults a model-backed analyzer and degrades to the
// keyword dictionaries when it fails or none is configured.
type FallbackAnalyzer struct {
	primary ai.QueryAnalyzer
	keyword *KeywordAnalyzer
	logger  *slog.Logger
}

var _ ai.QueryAnalyzer = (*FallbackAnalyzer)(nil)

// NewFallbackAnalyzer wraps primary with the keyword fallback. A nil primary
// is allowed and routes every query through the dictionaries.
func NewFallbackAnalyzer(primary ai.QueryAnalyzer, opts ...Option) (*FallbackAnalyzer, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &FallbackAnalyzer{
		primary: primary,
		keyword: NewKeywordAnalyzer(),
		logger:  o.logger.With("component", "analyzer"),
	}, nil
}

// AnalyzeQuery runs the primary analyzer, falling back to the keyword
// dictionaries on failure. The fallback cannot fail, so the returned error
// is always nil today; callers should still check it.
func (f *FallbackAnalyzer) AnalyzeQuery(ctx context.Context, query string) (*core.QueryAnalysis, error) {
	if f.primary != nil {
		analysis, err := f.primary.AnalyzeQuery(ctx, query)
		if err == nil {
			return analysis, nil
		}
		f.logger.Warn("query analysis failed, using keyword dictionaries", "err", err)
	}
	return f.keyword.AnalyzeQuery(ctx, query)
}
