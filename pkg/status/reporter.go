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

package status

import (
	"context"

	"github.com/rs/zerolog"
)

// 📝 LogReporter writes run events to the context logger
type LogReporter struct {
	formatter FileFormatter
}

var _ Reporter = (*LogReporter)(nil)

// NewLogReporter creates a reporter that logs through zerolog.Ctx. A nil
// formatter uses the default one.
func NewLogReporter(formatter FileFormatter) *LogReporter {
	if formatter == nil {
		formatter = NewDefaultFileFormatter()
	}
	return &LogReporter{formatter: formatter}
}

func (r *LogReporter) Progress(ctx context.Context, percent int) {
	zerolog.Ctx(ctx).Debug().Int("percent", percent).Msg(r.formatter.FormatPercent(percent))
}

func (r *LogReporter) FileProcessed(ctx context.Context, name string) {
	zerolog.Ctx(ctx).Info().Str("file", name).Msg(r.formatter.FormatFileProcessed(name))
}

func (r *LogReporter) Diagnostic(ctx context.Context, d Diagnostic) {
	zerolog.Ctx(ctx).Warn().
		Str("file", d.Name).
		Stringer("reason", d.Reason).
		Err(d.Err).
		Msg(r.formatter.FormatDiagnostic(d))
}

func (r *LogReporter) Finished(ctx context.Context, o Outcome) {
	ev := zerolog.Ctx(ctx).Info()
	if o.Err != nil {
		ev = zerolog.Ctx(ctx).Warn().Err(o.Err)
	}
	ev.Stringer("state", o.State).
		Int("processed", o.Processed).
		Int("skipped", o.Skipped()).
		Int("total", o.Total).
		Str("progress", r.formatter.FormatProgress(o.Processed, o.Total)).
		Msg(r.formatter.FormatOutcome(o))
}

// 🎛️ Callbacks adapts plain functions to a Reporter. Nil fields are ignored.
type Callbacks struct {
	OnProgress      func(percent int)
	OnFileProcessed func(name string)
	OnDiagnostic    func(d Diagnostic)
	OnFinished      func(o Outcome)
}

var _ Reporter = Callbacks{}

func (c Callbacks) Progress(ctx context.Context, percent int) {
	if c.OnProgress != nil {
		c.OnProgress(percent)
	}
}

func (c Callbacks) FileProcessed(ctx context.Context, name string) {
	if c.OnFileProcessed != nil {
		c.OnFileProcessed(name)
	}
}

func (c Callbacks) Diagnostic(ctx context.Context, d Diagnostic) {
	if c.OnDiagnostic != nil {
		c.OnDiagnostic(d)
	}
}

func (c Callbacks) Finished(ctx context.Context, o Outcome) {
	if c.OnFinished != nil {
		c.OnFinished(o)
	}
}

// 🔀 Multi fans every event out to each reporter in order
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type multi []Reporter

func (m multi) Progress(ctx context.Context, percent int) {
	for _, r := range m {
		r.Progress(ctx, percent)
	}
}

func (m multi) FileProcessed(ctx context.Context, name string) {
	for _, r := range m {
		r.FileProcessed(ctx, name)
	}
}

func (m multi) Diagnostic(ctx context.Context, d Diagnostic) {
	for _, r := range m {
		r.Diagnostic(ctx, d)
	}
}

func (m multi) Finished(ctx context.Context, o Outcome) {
	for _, r := range m {
		r.Finished(ctx, o)
	}
}
