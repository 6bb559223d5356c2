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

package operation

import (
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/xorbatch/pkg/config"
	"github.com/walteh/xorbatch/pkg/scan"
	"github.com/walteh/xorbatch/pkg/status"
	"github.com/walteh/xorbatch/pkg/xor"
	"gitlab.com/tozd/go/errors"
)

// ErrSameFile is the diagnostic error when the chosen output is the source itself.
var ErrSameFile = errors.Base("output path is the input file")

// ⚡ execute runs r to completion on the worker goroutine. Finished is
// delivered before the run is marked terminal, so a caller released by Wait
// has seen every notification.
func (p *Processor) execute(ctx context.Context, r *run) {
	logger := zerolog.Ctx(ctx).With().
		Str("input", r.cfg.InputPath).
		Str("output", r.cfg.OutputPath).
		Logger()
	ctx = logger.WithContext(ctx)

	outcome := p.process(ctx, r)

	logger.Debug().
		Stringer("state", outcome.State).
		Int("processed", outcome.Processed).
		Int("total", outcome.Total).
		Msg("run finished")

	p.reporter.Finished(ctx, outcome)

	p.mu.Lock()
	r.outcome = outcome
	p.state = outcome.State
	p.mu.Unlock()

	close(r.done)
}

// 🔄 process walks the candidates fixed at scan time
func (p *Processor) process(ctx context.Context, r *run) status.Outcome {
	logger := zerolog.Ctx(ctx)
	cfg := r.cfg

	candidates, err := p.scanner.Scan(ctx, cfg.InputPath, cfg.InputMask)
	if err != nil {
		logger.Warn().Err(err).Msg("scanning input")
		return status.Outcome{
			State: status.StateCompleted,
			Err:   errors.Errorf("scanning input: %w", err),
		}
	}

	outcome := status.Outcome{
		State: status.StateCompleted,
		Total: len(candidates),
	}
	if len(candidates) == 0 {
		logger.Debug().Str("mask", cfg.InputMask).Msg("no matching files")
		return outcome
	}

	if err := p.files.CreateDir(ctx, cfg.OutputPath); err != nil {
		logger.Warn().Err(err).Msg("preparing output directory")
	}

	// the key is the same for every file, so a bad one skips them all
	key, keyErr := cfg.Key()
	if keyErr != nil {
		logger.Warn().Err(keyErr).Msg("invalid xor value")
	}

	for _, c := range candidates {
		if r.cancelled.Load() || ctx.Err() != nil {
			logger.Info().Int("remaining", outcome.Total-outcome.Processed-outcome.Skipped()).Msg("run cancelled")
			outcome.State = status.StateCancelled
			break
		}

		diags, ok := p.processFile(ctx, cfg, c, key, keyErr)
		for _, d := range diags {
			outcome.Diagnostics = append(outcome.Diagnostics, d)
			p.reporter.Diagnostic(ctx, d)
		}
		if ok {
			outcome.Processed++
			p.reporter.FileProcessed(ctx, c.Name)
		}
		p.reporter.Progress(ctx, outcome.Processed*100/outcome.Total)
	}

	return outcome
}

// 📄 processFile transforms one candidate. It reports whether the output was
// written, plus any diagnostics.
func (p *Processor) processFile(ctx context.Context, cfg *config.Config, c scan.Candidate, key xor.Key, keyErr error) ([]status.Diagnostic, bool) {
	logger := zerolog.Ctx(ctx).With().Str("file", c.Name).Logger()

	skip := func(reason status.Reason, err error) ([]status.Diagnostic, bool) {
		logger.Debug().Err(err).Stringer("reason", reason).Msg("skipping file")
		return []status.Diagnostic{{Name: c.Name, Reason: reason, Err: err}}, false
	}

	rc, err := p.files.OpenFile(ctx, c.Path)
	if err != nil {
		return skip(status.ReasonOpen, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return skip(status.ReasonRead, errors.Errorf("reading input: %w", err))
	}

	if keyErr != nil {
		return skip(status.ReasonKeyParse, keyErr)
	}

	xor.TransformInPlace(data, key)

	out, err := p.resolver.Resolve(ctx, filepath.Join(cfg.OutputPath, c.Name), cfg.ConflictPolicy)
	if err != nil {
		return skip(status.ReasonResolve, err)
	}
	if samePath(out, c.Path) {
		return skip(status.ReasonResolve, errors.Errorf("%w: %s", ErrSameFile, out))
	}

	if err := p.files.WriteFile(ctx, out, data); err != nil {
		return skip(status.ReasonWrite, err)
	}
	logger.Debug().Str("path", out).Int("bytes", len(data)).Msg("wrote output")

	if !cfg.DeleteInput {
		return nil, true
	}
	if err := p.files.DeleteFile(ctx, c.Path); err != nil {
		logger.Warn().Err(err).Msg("removing input")
		return []status.Diagnostic{{Name: c.Name, Reason: status.ReasonDelete, Err: err}}, true
	}
	return nil, true
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
