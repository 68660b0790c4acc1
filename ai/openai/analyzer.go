// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// QueryAnalyzer implements ai.QueryAnalyzer using OpenAI-compatible chat APIs.
type QueryAnalyzer struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// queryEntities is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type queryEntities struct {
	ApplianceType string   `json:"appliance_type"`
	Brand         string   `json:"brand"`
	PartType      string   `json:"part_type"`
	ModelNumber   string   `json:"model_number"`
	IssueKeywords []string `json:"issue_keywords"`
	Installation  bool     `json:"installation"`
	Comparison    bool     `json:"comparison"`
}

// queryAnalysis is the wrapper structure for the LLM's JSON response.
type queryAnalysis struct {
	Intent     string        `json:"intent"`
	Confidence float64       `json:"confidence"`
	Entities   queryEntities `json:"entities"`
}

// newQueryAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryAnalyzer(config *ai.Config) (*QueryAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/analysis
	client, err := openai.New(
		openai.WithBaseURL(config.AnalyzerHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.AnalyzerModel),
	)
	if err != nil {
		return nil, err
	}

	return &QueryAnalyzer{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewQueryAnalyzer creates a new query analyzer using the provided configuration.
//
// Returns ai.QueryAnalyzer interface to enforce abstraction.
func NewQueryAnalyzer(config *ai.Config) (ai.QueryAnalyzer, error) {
	return newQueryAnalyzer(config)
}

// AnalyzeQuery classifies a support query and extracts entities using an LLM.
// Entity values are canonicalized: lowercase appliance/brand/part labels,
// underscored part types, uppercase model numbers.
func (a *QueryAnalyzer) AnalyzeQuery(ctx context.Context, query string) (*core.QueryAnalysis, error) {
	query = normalizeQuery(query)

	// Build the system and user prompts
	systemPrompt := buildSystemPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(query),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result queryAnalysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(a.temperature), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return &core.QueryAnalysis{Intent: core.IntentGeneralQuestion}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analyzer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse analyzer response after retries", "err", lastErr)
		return nil, lastErr
	}

	analysis := &core.QueryAnalysis{
		Intent:     core.ParseIntent(result.Intent),
		Confidence: clampConfidence(result.Confidence),
		Entities: core.Entities{
			ApplianceType: canonicalLabel(result.Entities.ApplianceType),
			Brand:         canonicalLabel(result.Entities.Brand),
			PartType:      canonicalLabel(result.Entities.PartType),
			ModelNumber:   strings.ToUpper(strings.TrimSpace(result.Entities.ModelNumber)),
			IssueKeywords: canonicalKeywords(result.Entities.IssueKeywords),
			Installation:  result.Entities.Installation,
			Comparison:    result.Entities.Comparison,
		},
	}

	a.logger.Debug("analyzed query",
		"intent", analysis.Intent,
		"confidence", analysis.Confidence,
		"appliance", analysis.Entities.ApplianceType)

	return analysis, nil
}

// canonicalLabel lowercases a label and joins its words with underscores,
// matching the metadata vocabulary used by the seeded catalog.
func canonicalLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// canonicalKeywords lowercases issue keywords and drops empty entries.
func canonicalKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
