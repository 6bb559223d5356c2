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

// Package scan lists the candidate files of a batch run.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrDirectoryNotFound is returned when the input path is not an existing directory.
	ErrDirectoryNotFound = errors.Base("directory not found")
	// ErrBadMask is returned when a mask is not a valid glob pattern.
	ErrBadMask = errors.Base("bad file mask")
)

// 📄 Candidate is a file found by the scanner
type Candidate struct {
	Name    string    // Base name
	Path    string    // Path joined with the scanned directory
	Size    int64     // Size in bytes at scan time
	ModTime time.Time // Modification time at scan time
}

// 🔍 Scanner lists the files directly inside a directory that match a mask
type Scanner struct {
	// IncludeHidden also returns dot-files.
	IncludeHidden bool
}

// Scan lists matching files in dir with the default scanner.
func Scan(ctx context.Context, dir, mask string) ([]Candidate, error) {
	return (&Scanner{}).Scan(ctx, dir, mask)
}

// Scan returns the regular files directly inside dir whose names match mask,
// sorted by name. Subdirectories are never entered.
//
// The mask is one or more glob patterns separated by ';', as in "*.txt;*.log".
// Spaces inside a pattern are part of it. Matching ignores case. An empty mask
// matches everything.
func (s *Scanner) Scan(ctx context.Context, dir, mask string) ([]Candidate, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return nil, errors.Errorf("checking directory: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	patterns, err := parseMask(mask)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("reading directory: %w", err)
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !s.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if !matchAny(patterns, name) {
			continue
		}

		path := filepath.Join(dir, name)
		fi, ok := regularFile(path, entry)
		if !ok {
			continue
		}

		candidates = append(candidates, Candidate{
			Name:    name,
			Path:    path,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})

	logger.Debug().
		Str("dir", dir).
		Strs("patterns", patterns).
		Int("entries", len(entries)).
		Int("candidates", len(candidates)).
		Msg("scanned directory")

	return candidates, nil
}

// regularFile returns file info for entries that are regular files, following
// symlinks once.
func regularFile(path string, entry fs.DirEntry) (fs.FileInfo, bool) {
	if entry.Type()&fs.ModeSymlink != 0 {
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			return nil, false
		}
		return fi, true
	}
	if !entry.Type().IsRegular() {
		return nil, false
	}
	fi, err := entry.Info()
	if err != nil {
		return nil, false
	}
	return fi, true
}

// parseMask splits a mask on ';' into trimmed, lower-cased, validated patterns.
func parseMask(mask string) ([]string, error) {
	var fields []string
	for _, f := range strings.Split(mask, ";") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return []string{"*"}, nil
	}

	patterns := make([]string, 0, len(fields))
	for _, f := range fields {
		p := strings.ToLower(f)
		if strings.ContainsRune(p, '/') || !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("%w: %q", ErrBadMask, f)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func matchAny(patterns []string, name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, lower); err == nil && ok {
			return true
		}
	}
	return false
}
