// Copyright 2025 walteh LLC
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

// Package schedule re-triggers batch runs on a fixed interval.
package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/xorbatch/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// ⏰ Ticker calls Trigger every Interval until its context ends
type Ticker struct {
	// Interval between triggers. Must be positive.
	Interval time.Duration
	// Trigger starts a run. Returning operation.ErrRunning means the previous
	// run is still going and the tick is dropped.
	Trigger func(ctx context.Context) error
	// Immediate also triggers once before the first interval has elapsed.
	Immediate bool
}

// 🏃 Run blocks until ctx is done. Trigger errors are logged and never stop
// the ticker.
func (t *Ticker) Run(ctx context.Context) error {
	if t.Interval <= 0 {
		return errors.Errorf("interval must be positive, got %s", t.Interval)
	}
	if t.Trigger == nil {
		return errors.Errorf("trigger is required")
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Dur("interval", t.Interval).Bool("immediate", t.Immediate).Msg("starting ticker")

	if t.Immediate {
		t.fire(ctx)
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("ticker stopped")
			return nil
		case <-ticker.C:
			t.fire(ctx)
		}
	}
}

func (t *Ticker) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	err := t.Trigger(ctx)
	switch {
	case err == nil:
	case errors.Is(err, operation.ErrRunning):
		zerolog.Ctx(ctx).Debug().Msg("previous run still in progress, skipping tick")
	default:
		zerolog.Ctx(ctx).Warn().Err(err).Msg("triggering run")
	}
}
