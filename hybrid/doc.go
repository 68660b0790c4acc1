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


// Package hybrid merges keyword and vector retrieval into one ranked list.
//
// The two paths run concurrently over the same query: the BM25 scorer for
// exact-term matches and the vector index for semantic ones. Keyword scores
// are normalized against the batch maximum so both paths land on a common
// [0, 1] scale, then candidates merge by document id and rank by a weighted
// combination of the two scores.
//
// A failing path degrades the search rather than failing it: the result
// carries the surviving path's ranking plus typed degradation flags that
// callers and tests can assert on. Only when both paths fail does Search
// return an error.
//
// Callers may attach a boost policy for results whose metadata marks a
// richer resource. The policy sees a typed view built by the caller, never
// raw metadata keys, and boosted scores stay clamped to 1.0.
package hybrid
