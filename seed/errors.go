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


package seed

import "errors"

var (
	// ErrPipelineRequired is returned when no ingestion pipeline is provided.
	ErrPipelineRequired = errors.New("ingestion pipeline required")

	// ErrDocumentRepositoryRequired is returned when no document repository
	// is provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrNoCorpus is returned when a seeding run names no corpus files.
	ErrNoCorpus = errors.New("no corpus files to load")
)
