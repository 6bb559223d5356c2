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

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/xorbatch/pkg/scan"
	"github.com/walteh/xorbatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 15 // Width for status text
)

// 🎯 FileOperation represents the result for one input file
type FileOperation struct {
	Name        string // Input file name
	Status      string // Operation status
	Reason      string // Why the file was not fully handled
	IsProcessed bool   // Whether the output was written
	IsSkipped   bool   // Whether the file was skipped
	IsKept      bool   // Whether the source could not be removed
}

// 📦 RunOperation describes a batch for the console header
type RunOperation struct {
	Input  string // Input directory
	Mask   string // File mask
	Output string // Output directory
	Policy string // Conflict policy
}

// 🎯 Logger handles structured logging with console output. It also
// implements status.Reporter so a run can print straight to the console.
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentOp  *RunOperation
	operations []FileOperation
	section    *RunOperation // opened on the first event of every run
}

var _ status.Reporter = (*Logger)(nil)

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsSkipped:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsKept:
		symbol = '!'
		symbolColor = color.FgYellow
	case op.IsProcessed:
		symbol = '✓'
		symbolColor = color.FgGreen
	default:
		symbol = '-'
		symbolColor = color.FgCyan
	}

	// Build the line
	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Name),
		fmt.Sprintf("%-*s", statusWidth, op.Status),
		color.New(color.Faint).Sprint(op.Reason))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Add to operations list
	l.operations = append(l.operations, op)

	// Format and print
	fmt.Fprintln(l.console, l.formatFileOperation(op))

	// Log to zerolog
	l.zlog.Info().
		Str("file", op.Name).
		Str("status", op.Status).
		Str("reason", op.Reason).
		Bool("is_processed", op.IsProcessed).
		Bool("is_skipped", op.IsSkipped).
		Bool("is_kept", op.IsKept).
		Msg("file operation")
}

// 📝 StartRunOperation starts a new batch section
func (l *Logger) StartRunOperation(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.operations = nil

	// Print run header
	fmt.Fprintf(l.console, "[processing %s]\n",
		color.New(color.FgCyan).Sprint(op.Input))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Mask),
		color.New(color.Faint).Sprint("→"),
		color.New(color.FgYellow).Sprint(op.Output))

	// Log to zerolog
	l.zlog.Info().
		Str("input", op.Input).
		Str("mask", op.Mask).
		Str("output", op.Output).
		Str("policy", op.Policy).
		Msg("starting run")
}

// 🔁 EachRun makes every run reported to the logger open its own section
// described by op, starting with the run's first event.
func (l *Logger) EachRun(op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.section = &op
}

func (l *Logger) beginRun(ctx context.Context) {
	l.mu.Lock()
	op, open := l.section, l.currentOp != nil
	l.mu.Unlock()
	if op == nil || open {
		return
	}
	l.StartRunOperation(ctx, *op)
}

// 📝 EndRunOperation ends the current batch section
func (l *Logger) EndRunOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	// Log summary
	l.zlog.Info().
		Str("input", l.currentOp.Input).
		Int("files", len(l.operations)).
		Msg("run complete")

	l.currentOp = nil
	l.operations = nil
}

// Progress is only recorded in the structured log; the console shows files.
func (l *Logger) Progress(ctx context.Context, percent int) {
	l.beginRun(ctx)
	l.zlog.Debug().Int("percent", percent).Msg("progress")
}

// FileProcessed prints a processed file line.
func (l *Logger) FileProcessed(ctx context.Context, name string) {
	l.beginRun(ctx)
	l.LogFileOperation(ctx, FileOperation{
		Name:        name,
		Status:      "processed",
		IsProcessed: true,
	})
}

// Diagnostic prints a skipped file, or a source that could not be removed.
func (l *Logger) Diagnostic(ctx context.Context, d status.Diagnostic) {
	l.beginRun(ctx)
	op := FileOperation{Name: d.Name, Reason: d.Reason.String()}
	if d.Skipped() {
		op.Status = "skipped"
		op.IsSkipped = true
	} else {
		op.Status = "kept"
		op.IsKept = true
	}
	if d.Err != nil {
		op.Reason = fmt.Sprintf("%s: %v", op.Reason, d.Err)
	}
	l.LogFileOperation(ctx, op)
}

// Finished prints the run summary and closes the section.
func (l *Logger) Finished(ctx context.Context, o status.Outcome) {
	l.beginRun(ctx)
	switch {
	case errors.Is(o.Err, scan.ErrDirectoryNotFound):
		l.Warningf("nothing to do: %v", o.Err)
	case o.Err != nil:
		l.Errorf("run failed: %v", o.Err)
	case o.State == status.StateCancelled:
		l.Warningf("stopped after %d of %d files", o.Processed, o.Total)
	case o.Skipped() > 0:
		l.Warningf("processed %d of %d files, %d skipped", o.Processed, o.Total, o.Skipped())
	case o.Total == 0:
		l.Infof("no files to process")
	default:
		l.Successf("processed %d of %d files", o.Processed, o.Total)
	}
	l.EndRunOperation(ctx)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("xorbatch")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
