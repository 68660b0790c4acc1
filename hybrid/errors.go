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


package hybrid

import "errors"

var (
	// ErrVectorSearcherRequired is returned when a vector searcher is not provided.
	ErrVectorSearcherRequired = errors.New("vector searcher required")

	// ErrKeywordScorerRequired is returned when a keyword scorer is not provided.
	ErrKeywordScorerRequired = errors.New("keyword scorer required")

	// ErrInvalidTopK is returned when a negative top-k is requested.
	ErrInvalidTopK = errors.New("top k must be non-negative")

	// ErrInvalidWeight is returned when a search weight is negative.
	ErrInvalidWeight = errors.New("search weights must be non-negative")

	// ErrInvalidBoostFactor is returned when a boost factor is not positive.
	ErrInvalidBoostFactor = errors.New("boost factor must be positive")

	// ErrInvalidTimeout is returned when the vector path timeout is not positive.
	ErrInvalidTimeout = errors.New("vector timeout must be positive")

	// ErrAllPathsFailed is returned when neither retrieval path produced a
	// result set. Single-path failures degrade instead.
	ErrAllPathsFailed = errors.New("all retrieval paths failed")
)
