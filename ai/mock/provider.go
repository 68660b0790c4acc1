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


package mock

import "github.com/poiesic/fixit/ai"

// MockProvider is the ai.AIProvider test double, pairing a mock embedder
// with a mock analyzer.
type MockProvider struct {
	embedder *MockEmbedder
	analyzer *MockQueryAnalyzer
}

// NewMockProvider creates a provider over fresh default doubles, returned
// as the interface to mirror the production constructor.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockQueryAnalyzer())
}

// NewMockProviderWithServices creates a provider over caller-supplied
// doubles, for tests that configure them up front.
func NewMockProviderWithServices(embedder *MockEmbedder, analyzer *MockQueryAnalyzer) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		analyzer: analyzer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// QueryAnalyzer returns the mock query analyzer.
func (p *MockProvider) QueryAnalyzer() ai.QueryAnalyzer {
	return p.analyzer
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder recovers the concrete embedder for assertions and
// behavior injection.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockAnalyzer recovers the concrete analyzer for assertions and
// behavior injection.
func (p *MockProvider) GetMockAnalyzer() *MockQueryAnalyzer {
	return p.analyzer
}
