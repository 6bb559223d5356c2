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
	"fmt"
)

// 🚦 State is the lifecycle state of a run
type State int

const (
	StateIdle      State = iota // No run started yet
	StateRunning                // Worker is processing candidates
	StateCompleted              // Every candidate was visited
	StateCancelled              // Stopped early at a file boundary
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// 🏷️ Reason classifies why a file was not fully processed
type Reason int

const (
	ReasonOpen     Reason = iota + 1 // Source could not be opened
	ReasonRead                       // Source could not be read
	ReasonKeyParse                   // Configured key is not valid hex
	ReasonResolve                    // No output path could be chosen
	ReasonWrite                      // Output could not be written
	ReasonDelete                     // Source could not be removed after a successful write
)

// String returns a string representation of Reason
func (r Reason) String() string {
	switch r {
	case ReasonOpen:
		return "open"
	case ReasonRead:
		return "read"
	case ReasonKeyParse:
		return "key_parse"
	case ReasonResolve:
		return "resolve"
	case ReasonWrite:
		return "write"
	case ReasonDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// 🩺 Diagnostic records a per-file problem. Every reason except ReasonDelete
// means the file was skipped.
type Diagnostic struct {
	Name   string
	Reason Reason
	Err    error
}

// Skipped reports whether the file was left unprocessed.
func (d Diagnostic) Skipped() bool {
	return d.Reason != ReasonDelete
}

func (d Diagnostic) String() string {
	if d.Err == nil {
		return fmt.Sprintf("%s: %s", d.Name, d.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", d.Name, d.Reason, d.Err)
}

// 🏁 Outcome is the terminal summary of a run
type Outcome struct {
	State       State
	Processed   int
	Total       int
	Diagnostics []Diagnostic
	// Err is set when the run had nothing to do because the input directory
	// could not be listed. The run still counts as completed.
	Err error
}

// Skipped returns the number of candidates that were not processed.
func (o Outcome) Skipped() int {
	n := 0
	for _, d := range o.Diagnostics {
		if d.Skipped() {
			n++
		}
	}
	return n
}

// 📣 Reporter receives notifications from a run, in processing order, on the
// worker goroutine.
type Reporter interface {
	// Progress reports the percentage of candidates processed, 0..100, non-decreasing.
	Progress(ctx context.Context, percent int)
	// FileProcessed is called once per successfully written file.
	FileProcessed(ctx context.Context, name string)
	// Diagnostic reports a skipped file or a failed source deletion.
	Diagnostic(ctx context.Context, d Diagnostic)
	// Finished is called exactly once per run.
	Finished(ctx context.Context, outcome Outcome)
}
