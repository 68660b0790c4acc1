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


package reindex

import (
	"context"
	"log/slog"
	"time"
)

// Backoff retries a failing operation with exponentially growing waits
// between attempts: Base before the second try, doubling after each failure.
type Backoff struct {
	Attempts int           // total tries, including the first; must be positive
	Base     time.Duration // wait before the second try
}

// Do runs op until it succeeds, the attempts are exhausted, or ctx ends.
// When every try fails, the error from the final attempt is returned;
// context cancellation is returned as-is, including mid-wait.
func (b Backoff) Do(ctx context.Context, op func() error) error {
	if b.Attempts <= 0 {
		return ErrInvalidAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 1 {
			wait := b.Base << (attempt - 2)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if lastErr = op(); lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation recovered", "attempt", attempt)
			}
			return nil
		}
		slog.Debug("operation failed", "attempt", attempt, "attempts", b.Attempts, "err", lastErr)
	}

	return lastErr
}
