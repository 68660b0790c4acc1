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


package retrieval

import "errors"

var (
	// ErrPartsSearcherRequired is returned when a parts catalog searcher is
	// not provided.
	ErrPartsSearcherRequired = errors.New("parts catalog searchers required")

	// ErrRepairSearcherRequired is returned when the repair guides fallback
	// searcher is not provided.
	ErrRepairSearcherRequired = errors.New("repair guides searcher required")

	// ErrBlogSearcherRequired is returned when the blog articles searcher is
	// not provided.
	ErrBlogSearcherRequired = errors.New("blog articles searcher required")

	// ErrHybridSearcherRequired is returned when the hybrid search path is
	// not provided.
	ErrHybridSearcherRequired = errors.New("hybrid searcher required")

	// ErrInvalidTopK is returned when a negative top-k is requested.
	ErrInvalidTopK = errors.New("top k must be non-negative")

	// ErrUnknownApplianceType is returned for appliance types the catalog
	// does not cover.
	ErrUnknownApplianceType = errors.New("unknown appliance type")

	// ErrEmptyQuery is returned when a query carries nothing to search on.
	ErrEmptyQuery = errors.New("empty query")

	// ErrAllSourcesFailed is returned when every search source a retriever
	// consulted failed. Partial failures degrade instead.
	ErrAllSourcesFailed = errors.New("all retrieval sources failed")
)
