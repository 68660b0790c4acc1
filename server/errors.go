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


package server

import "errors"

var (
	// ErrEngineRequired is returned when a server is created without an engine.
	ErrEngineRequired = errors.New("engine required")

	// ErrSeederRequired is returned when a watcher is created without a seeder.
	ErrSeederRequired = errors.New("seeder required")

	// ErrRefreshRequired is returned when a watcher is created without an
	// index refresh function.
	ErrRefreshRequired = errors.New("index refresh function required")

	// ErrNoWatchPaths is returned when a watcher is created with no corpus
	// files to watch.
	ErrNoWatchPaths = errors.New("no corpus files to watch")
)
