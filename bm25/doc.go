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


// Package bm25 implements an in-memory BM25 keyword scorer.
//
// The scorer exists to keep exact technical terms first-class during
// retrieval: part numbers, error codes, and model identifiers that a purely
// semantic retriever can blur away. Query and document text are lowercased
// and whitespace-split with no stemming and no stopword removal, so a query
// for "PS11752778" matches only documents that actually contain it.
//
// Scoring uses the classic probabilistic formula with the +1 IDF variant:
//
//	IDF(t) = ln((N - n_t + 0.5) / (n_t + 0.5) + 1)
//
// which stays non-negative even for terms present in every document. Term
// contributions saturate with frequency and are normalized by document
// length against the corpus average.
//
// Indexing replaces the whole corpus in one call. The scorer keeps its index
// behind an atomic pointer: queries in flight keep reading the snapshot they
// started with while a rebuild swaps in a fresh one.
package bm25
