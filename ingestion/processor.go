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


package ingestion

import (
	"context"

	"github.com/poiesic/fixit/core"
)

// processor is an internal interface for enriching stored documents.
// Implementations handle a specific enrichment task, such as embedding
// generation.
type processor interface {
	// process enriches the documents identified by ids within collection.
	process(ctx context.Context, collection core.Collection, ids ...string) error

	// checkpoint persists the processor's progress for the collection so a
	// maintenance pass can tell how far enrichment got.
	checkpoint(ctx context.Context, collection core.Collection) error
}
