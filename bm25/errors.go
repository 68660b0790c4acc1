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


package bm25

import "errors"

var (
	// ErrNotIndexed is returned when Score is called before any Index call.
	// It marks a caller programming error, not an empty-corpus condition.
	ErrNotIndexed = errors.New("scorer has no index, call Index first")

	// ErrInvalidTopK is returned when a negative top-k is requested.
	ErrInvalidTopK = errors.New("top k must be non-negative")

	// ErrDuplicateDocumentId is returned when an Index batch contains the
	// same document id twice.
	ErrDuplicateDocumentId = errors.New("duplicate document id in index batch")

	// ErrInvalidK1 is returned when the k1 parameter is negative.
	ErrInvalidK1 = errors.New("k1 must be non-negative")

	// ErrInvalidB is returned when the b parameter is outside [0, 1].
	ErrInvalidB = errors.New("b must be between 0 and 1")
)
