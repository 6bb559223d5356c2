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

// Package conflict decides where an output file is written when the desired
// path is already taken.
package conflict

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📋 Policy selects what happens when an output path already exists
type Policy int

const (
	Overwrite Policy = iota // Replace the existing file
	Rename                  // Pick the first free name_N.ext
)

// ErrUnknownPolicy is returned when a policy name cannot be parsed.
var ErrUnknownPolicy = errors.Base("unknown conflict policy")

// String returns the policy name
func (p Policy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Rename:
		return "rename"
	default:
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
}

// 🔍 ParsePolicy accepts "overwrite"/"rename" in any case, or the numeric
// values 0 and 1 used by older settings files.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "0", "":
		return Overwrite, nil
	case "rename", "1":
		return Rename, nil
	default:
		return Overwrite, errors.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Policy) MarshalText() ([]byte, error) {
	if p != Overwrite && p != Rename {
		return nil, errors.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// 🔎 Checker reports whether something already exists at a path
type Checker interface {
	FileExists(ctx context.Context, path string) (bool, error)
}

// OSChecker checks the local filesystem.
type OSChecker struct{}

// FileExists reports whether path exists. Dangling symlinks count as existing.
func (OSChecker) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// 🎯 Resolver maps a desired output path to the path actually written
type Resolver struct {
	checker Checker
}

// NewResolver creates a resolver. A nil checker uses the local filesystem.
func NewResolver(checker Checker) *Resolver {
	if checker == nil {
		checker = OSChecker{}
	}
	return &Resolver{checker: checker}
}

// Resolve returns the path to write to for desired under policy.
//
// With Rename the search is sequential and unbounded. The answer is only
// valid until someone else writes to the directory; the caller owns that race.
func (r *Resolver) Resolve(ctx context.Context, desired string, policy Policy) (string, error) {
	switch policy {
	case Overwrite:
		return desired, nil
	case Rename:
	default:
		return "", errors.Errorf("%w: %d", ErrUnknownPolicy, int(policy))
	}

	exists, err := r.checker.FileExists(ctx, desired)
	if err != nil {
		return "", errors.Errorf("checking %s: %w", desired, err)
	}
	if !exists {
		return desired, nil
	}

	dir, base, ext := splitName(desired)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", errors.Errorf("resolving %s: %w", desired, err)
		}

		candidate := filepath.Join(dir, base+"_"+strconv.Itoa(n)+ext)
		exists, err := r.checker.FileExists(ctx, candidate)
		if err != nil {
			return "", errors.Errorf("checking %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

// splitName splits a path into directory, base name and extension, where
// the extension starts at the last dot. Leading dots belong to the base so
// ".env" has no extension.
func splitName(path string) (dir, base, ext string) {
	dir, name := filepath.Split(path)
	ext = filepath.Ext(name)
	if ext == name {
		ext = ""
	}
	return dir, strings.TrimSuffix(name, ext), ext
}
