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


package chunk

import "errors"

var (
	// ErrInvalidMaxTokens is returned when the chunk token budget is not positive.
	ErrInvalidMaxTokens = errors.New("max tokens must be positive")

	// ErrInvalidOverlap is returned when the overlap is negative or exceeds the chunk budget.
	ErrInvalidOverlap = errors.New("overlap tokens must be non-negative and at most max tokens")

	// ErrUnknownMethod is returned when the chunking method is not recognized.
	ErrUnknownMethod = errors.New("unknown chunking method")
)
