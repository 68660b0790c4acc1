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


// Package server exposes the retrieval engine over HTTP.
//
// One route per retriever, a raw hybrid search route, and a query route
// that classifies free text and dispatches to the retriever matching its
// intent. Responses carry ranked context, never generated answer text.
// Conversation state is held in an in-memory session store so follow-up
// queries inherit the appliance under discussion.
//
// The optional corpus watcher reseeds a collection when its source file
// changes on disk and swaps the lexical indexes afterwards.
package server
