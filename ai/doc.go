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


// Package ai defines the model-service boundary: text embeddings and query
// analysis as interfaces, so everything above them depends on the contract
// rather than on a particular backend.
//
// Three interfaces make up the boundary:
//
//   - Embedder: turns text into embedding vectors
//   - QueryAnalyzer: classifies a support query's intent and pulls out the
//     entities it mentions (appliance, brand, model number, part)
//   - AIProvider: bundles both behind one handle with a common lifecycle
//
// Two sub-packages implement it: ai/openai talks to OpenAI-compatible HTTP
// APIs, and ai/mock supplies deterministic test doubles.
//
// # Constructors
//
// Production constructors return the interface, not the implementation, so
// callers cannot reach backend-specific details:
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// The mock constructors do the opposite on purpose: tests need the concrete
// type to inject behavior through the exported function fields and to read
// call counts back.
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	mockEmbed.EmbedTextFunc = ...
//	count := mockEmbed.CallCount()
//
// mock.NewMockProvider returns the interface like the production entry point
// does; GetMockEmbedder and GetMockAnalyzer recover the concrete doubles
// when a test needs them.
//
// # Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "replacement door gasket")
//	analysis, err := provider.QueryAnalyzer().AnalyzeQuery(ctx, "my LG fridge is leaking")
package ai
