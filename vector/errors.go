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


package vector

import "errors"

var (
	// ErrNilRepository is returned when a document repository is not provided.
	ErrNilRepository = errors.New("document repository required")

	// ErrNilEmbedder is returned when an embedder is not provided.
	ErrNilEmbedder = errors.New("embedder required")

	// ErrEmptyCollection is returned when a collection name is not provided.
	ErrEmptyCollection = errors.New("collection required")

	// ErrInvalidMaxDistance is returned when a distance cap falls outside
	// the cosine range [0, 2].
	ErrInvalidMaxDistance = errors.New("max distance must be in [0, 2]")
)
