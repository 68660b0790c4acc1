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


// Package seed loads the scraped corpus files into the document store.
//
// Three JSON files feed the four collections: the parts catalog splits by
// appliance into parts_refrigerator and parts_dishwasher, blog articles are
// chunked into blogs_articles, and repair symptom guides become one document
// per part description and per repair guide in repair_symptoms. Each loader
// composes searchable document text from the scraped fields and flattens the
// rest into metadata, with filterable attributes (brand, appliance type,
// part type, stock status, difficulty, topic) canonicalized to lowercase
// snake_case so retriever equality filters match.
//
// Collections load concurrently, each through the ingestion pipeline, which
// skips sources whose content is unchanged since the last run. A reset run
// drops each collection first, forcing a full re-embed.
package seed
