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


// Package retrieval implements the intent-specific retrievers between the
// chat surface and the search core.
//
// Each retriever answers one kind of support question over the stored corpus:
//
//   - PartSearch finds catalog parts by free-text description, filtered by
//     brand and stock status (pure vector search over the parts collections).
//   - Compatibility finds parts that fit an appliance model, composing a
//     search query from the model number and part type when no free-text
//     query is given.
//   - Troubleshooting diagnoses appliance problems over the repair guides
//     using hybrid keyword+vector search, boosting guides that carry a video
//     tutorial and supplementing with long-form article chunks.
//   - Installation retrieves replacement guides for a named part, again over
//     the hybrid path, supplemented with article chunks and near-exact
//     catalog matches for time estimates.
//
// Retrievers degrade rather than fail: when one search source errors the
// remaining sources still contribute, the outcome is flagged Degraded, and
// only a total loss of every source is an error. Hybrid retrievers fall back
// to vector-only search over the same collection first.
//
// The package also provides KeywordAnalyzer, a dictionary-driven
// ai.QueryAnalyzer requiring no model calls, and FallbackAnalyzer which
// degrades from a model-backed analyzer to the dictionaries.
package retrieval
