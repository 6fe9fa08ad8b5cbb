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


package ingest

import (
	"context"
	"time"
)

// attemptBudget tracks failed attempts for one batch. The embedding stage,
// the indexing stage, and the batch-level retry loop all draw on the same
// budget, so a batch is attempted a bounded number of times no matter where
// its failures occur.
type attemptBudget struct {
	failures int
	max      int
}

func newAttemptBudget(max int) *attemptBudget {
	if max < 0 {
		max = 0
	}
	return &attemptBudget{max: max}
}

// spend records one failed attempt and reports whether another try is allowed.
func (b *attemptBudget) spend() bool {
	b.failures++
	return b.failures < b.max
}

// remaining reports whether another try is allowed without recording a failure.
func (b *attemptBudget) remaining() bool {
	return b.failures < b.max
}

// sleepContext waits for d or until the context is cancelled, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
