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
	"fmt"
)

// FileFormatter defines how run events are rendered as messages
type FileFormatter interface {
	// FormatFileProcessed formats a successfully processed file
	FormatFileProcessed(name string) string

	// FormatDiagnostic formats a skipped file or failed deletion
	FormatDiagnostic(d Diagnostic) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatPercent formats a bare percentage update
	FormatPercent(percent int) string

	// FormatOutcome formats the end of a run
	FormatOutcome(o Outcome) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

func (f *DefaultFileFormatter) FormatFileProcessed(name string) string {
	return fmt.Sprintf("✨ Processed %s", name)
}

func (f *DefaultFileFormatter) FormatDiagnostic(d Diagnostic) string {
	if d.Reason == ReasonDelete {
		return fmt.Sprintf("🗑️  Could not remove %s", d.Name)
	}
	return fmt.Sprintf("⏭️  Skipped %s (%s)", d.Name, d.Reason)
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	percentage := 0
	if total == 0 {
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = current * 100 / total
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%d%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%d%%)", current, total, percentage)
}

func (f *DefaultFileFormatter) FormatPercent(percent int) string {
	if percent >= 100 {
		return "✅ Progress: 100%"
	}
	return fmt.Sprintf("⏳ Progress: %d%%", percent)
}

func (f *DefaultFileFormatter) FormatOutcome(o Outcome) string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("⚠️  Nothing to do: %v", o.Err)
	case o.State == StateCancelled:
		return fmt.Sprintf("🛑 Stopped: %d/%d files processed", o.Processed, o.Total)
	default:
		return fmt.Sprintf("🏁 Finished: %d/%d files processed", o.Processed, o.Total)
	}
}
