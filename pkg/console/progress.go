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

package console

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/walteh/xorbatch/pkg/status"
)

// 📊 ProgressReporter draws a progress bar per run and prints one line per
// file. Events must arrive from a single goroutine, as status.Forward does.
type ProgressReporter struct {
	user  *UserLogger
	title string
	bar   *pterm.ProgressbarPrinter
}

var _ status.Reporter = (*ProgressReporter)(nil)

// 🏭 NewProgressReporter creates a reporter titled after the input directory
func NewProgressReporter(user *UserLogger, title string) *ProgressReporter {
	return &ProgressReporter{user: user, title: title}
}

// Header prints a banner outside of any run.
func (r *ProgressReporter) Header(msg string) {
	r.user.LogStateChange(msg)
}

func (r *ProgressReporter) start() {
	if r.bar != nil {
		return
	}
	bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle(r.title).WithRemoveWhenDone(true).Start()
	if err != nil {
		return
	}
	r.bar = bar
}

func (r *ProgressReporter) stop() {
	if r.bar == nil {
		return
	}
	_, _ = r.bar.Stop()
	r.bar = nil
}

func (r *ProgressReporter) Progress(ctx context.Context, percent int) {
	r.start()
	if r.bar == nil {
		return
	}
	if delta := percent - r.bar.Current; delta > 0 {
		r.bar.Add(delta)
	}
}

func (r *ProgressReporter) FileProcessed(ctx context.Context, name string) {
	r.start()
	r.user.LogFileChange(FileChange{Type: FileProcessed, Path: name})
}

func (r *ProgressReporter) Diagnostic(ctx context.Context, d status.Diagnostic) {
	r.start()
	change := FileChange{
		Type:        FileSkipped,
		Path:        d.Name,
		Description: d.Reason.String(),
		Error:       d.Err,
	}
	if !d.Skipped() {
		change.Type = FileKept
	}
	r.user.LogFileChange(change)
}

func (r *ProgressReporter) Finished(ctx context.Context, o status.Outcome) {
	r.stop()

	switch {
	case o.Err != nil:
		r.user.LogValidation(false, "Nothing to do", o.Err)
	case o.State == status.StateCancelled:
		r.user.LogValidation(false, fmt.Sprintf("Stopped after %d of %d files", o.Processed, o.Total), nil)
	case o.Skipped() > 0:
		r.user.LogValidation(false, fmt.Sprintf("Processed %d of %d files, %d skipped", o.Processed, o.Total, o.Skipped()), nil)
	default:
		r.user.LogValidation(true, fmt.Sprintf("Processed %d of %d files", o.Processed, o.Total), nil)
	}
}
