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
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/xorbatch/pkg/config"
	"github.com/walteh/xorbatch/pkg/conflict"
	"github.com/walteh/xorbatch/pkg/scan"
	"github.com/walteh/xorbatch/pkg/status"
	"github.com/walteh/xorbatch/pkg/xor"
	"gitlab.com/tozd/go/errors"
)

const testKey = "0102030405060708"

// 📼 recorder collects every event in delivery order
type recorder struct {
	mu     sync.Mutex
	events []status.Event
}

func (r *recorder) add(ev status.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Progress(ctx context.Context, percent int) {
	r.add(status.Event{Kind: status.EventProgress, Percent: percent})
}

func (r *recorder) FileProcessed(ctx context.Context, name string) {
	r.add(status.Event{Kind: status.EventFileProcessed, Name: name})
}

func (r *recorder) Diagnostic(ctx context.Context, d status.Diagnostic) {
	r.add(status.Event{Kind: status.EventDiagnostic, Name: d.Name, Diagnostic: d})
}

func (r *recorder) Finished(ctx context.Context, o status.Outcome) {
	r.add(status.Event{Kind: status.EventFinished, Outcome: o})
}

// summary renders events as short strings, ignoring payload details
func (r *recorder) summary() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		switch ev.Kind {
		case status.EventProgress:
			out = append(out, "progress:"+strconv.Itoa(ev.Percent))
		case status.EventFileProcessed:
			out = append(out, "file:"+ev.Name)
		case status.EventDiagnostic:
			out = append(out, "diag:"+ev.Name+":"+ev.Diagnostic.Reason.String())
		case status.EventFinished:
			out = append(out, "finished:"+ev.Outcome.State.String())
		}
	}
	return out
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func encode(t *testing.T, content string) string {
	t.Helper()
	key, err := xor.ParseKey(testKey)
	require.NoError(t, err)
	return string(xor.Transform([]byte(content), key))
}

func newConfig(in, out string) *config.Config {
	return &config.Config{
		InputPath:      in,
		InputMask:      "*.txt",
		XORValue:       testKey,
		OutputPath:     out,
		ConflictPolicy: conflict.Overwrite,
	}
}

func runToEnd(t *testing.T, ctx context.Context, opts Options, cfg *config.Config) (status.Outcome, *recorder) {
	t.Helper()

	rec := &recorder{}
	if opts.Reporter == nil {
		opts.Reporter = rec
	}
	proc, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, proc.Configure(cfg))
	require.NoError(t, proc.Run(ctx))

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome, err := proc.Wait(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, outcome.State, proc.State())
	return outcome, rec
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reporter is required")

	proc, err := New(Options{Reporter: &recorder{}})
	require.NoError(t, err)
	assert.Equal(t, status.StateIdle, proc.State())
	assert.Nil(t, proc.Config())

	select {
	case <-proc.Done():
	default:
		t.Fatal("done channel should be closed before any run")
	}

	outcome, err := proc.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.StateIdle, outcome.State)

	err = proc.Run(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProcessorRun(t *testing.T) {
	tests := []struct {
		name       string
		inputs     map[string]string
		existing   map[string]string
		setup      func(cfg *config.Config)
		events     []string
		outputs    map[string]string // expected plaintext of each output
		inputsGone bool
		processed  int
		total      int
	}{
		{
			name:   "overwrite",
			inputs: map[string]string{"a.txt": "hello", "b.txt": "world!!!!", "c.log": "ignored"},
			existing: map[string]string{
				"a.txt": "old",
			},
			events: []string{
				"file:a.txt", "progress:50",
				"file:b.txt", "progress:100",
				"finished:completed",
			},
			outputs:   map[string]string{"a.txt": "hello", "b.txt": "world!!!!"},
			processed: 2,
			total:     2,
		},
		{
			name:     "rename",
			inputs:   map[string]string{"a.txt": "hello"},
			existing: map[string]string{"a.txt": "old", "a_1.txt": "older"},
			setup: func(cfg *config.Config) {
				cfg.ConflictPolicy = conflict.Rename
			},
			events:    []string{"file:a.txt", "progress:100", "finished:completed"},
			outputs:   map[string]string{"a_2.txt": "hello"},
			processed: 1,
			total:     1,
		},
		{
			name:   "delete input",
			inputs: map[string]string{"a.txt": "one", "b.txt": "two", "c.txt": "three"},
			setup: func(cfg *config.Config) {
				cfg.DeleteInput = true
			},
			events: []string{
				"file:a.txt", "progress:33",
				"file:b.txt", "progress:66",
				"file:c.txt", "progress:100",
				"finished:completed",
			},
			outputs:    map[string]string{"a.txt": "one", "b.txt": "two", "c.txt": "three"},
			inputsGone: true,
			processed:  3,
			total:      3,
		},
		{
			name:   "bad key skips every file",
			inputs: map[string]string{"a.txt": "one", "b.txt": "two"},
			setup: func(cfg *config.Config) {
				cfg.XORValue = "not-hex"
			},
			events: []string{
				"diag:a.txt:key_parse", "progress:0",
				"diag:b.txt:key_parse", "progress:0",
				"finished:completed",
			},
			outputs:   map[string]string{},
			processed: 0,
			total:     2,
		},
		{
			name:      "no matching files",
			inputs:    map[string]string{"a.log": "one"},
			events:    []string{"finished:completed"},
			outputs:   map[string]string{},
			processed: 0,
			total:     0,
		},
		{
			name:   "mask list",
			inputs: map[string]string{"a.TXT": "one", "b.log": "two", "c.bin": "three"},
			setup: func(cfg *config.Config) {
				cfg.InputMask = "*.txt;*.log"
			},
			events: []string{
				"file:a.TXT", "progress:50",
				"file:b.log", "progress:100",
				"finished:completed",
			},
			outputs:   map[string]string{"a.TXT": "one", "b.log": "two"},
			processed: 2,
			total:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			in := t.TempDir()
			out := filepath.Join(t.TempDir(), "out")
			writeFiles(t, in, tt.inputs)
			if tt.existing != nil {
				require.NoError(t, os.MkdirAll(out, 0755))
				writeFiles(t, out, tt.existing)
			}

			cfg := newConfig(in, out)
			if tt.setup != nil {
				tt.setup(cfg)
			}

			outcome, rec := runToEnd(t, ctx, Options{}, cfg)

			assert.Equal(t, tt.events, rec.summary())
			assert.Equal(t, status.StateCompleted, outcome.State)
			assert.Equal(t, tt.processed, outcome.Processed)
			assert.Equal(t, tt.total, outcome.Total)
			assert.NoError(t, outcome.Err)

			for name, plain := range tt.outputs {
				assert.Equal(t, encode(t, plain), readFile(t, filepath.Join(out, name)), "output %s", name)
			}
			for name := range tt.existing {
				if _, written := tt.outputs[name]; written {
					continue
				}
				assert.Equal(t, tt.existing[name], readFile(t, filepath.Join(out, name)), "existing %s untouched", name)
			}
			for name := range tt.inputs {
				_, err := os.Stat(filepath.Join(in, name))
				_, written := tt.outputs[name]
				if tt.inputsGone && written {
					assert.True(t, os.IsNotExist(err), "input %s should be removed", name)
				} else {
					assert.NoError(t, err, "input %s should remain", name)
				}
			}
		})
	}
}

func TestRunRoundTrip(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	mid := t.TempDir()
	out := t.TempDir()

	content := "the quick brown fox jumps over the lazy dog"
	writeFiles(t, in, map[string]string{"fox.txt": content})

	_, _ = runToEnd(t, ctx, Options{}, newConfig(in, mid))
	assert.NotEqual(t, content, readFile(t, filepath.Join(mid, "fox.txt")))

	_, _ = runToEnd(t, ctx, Options{}, newConfig(mid, out))
	assert.Equal(t, content, readFile(t, filepath.Join(out, "fox.txt")))
}

func TestRunMissingDirectory(t *testing.T) {
	ctx := testContext(t)
	cfg := newConfig(filepath.Join(t.TempDir(), "missing"), t.TempDir())

	outcome, rec := runToEnd(t, ctx, Options{}, cfg)

	assert.Equal(t, []string{"finished:completed"}, rec.summary())
	assert.Equal(t, status.StateCompleted, outcome.State)
	assert.ErrorIs(t, outcome.Err, scan.ErrDirectoryNotFound)
	assert.Zero(t, outcome.Total)
}

func TestRunCancel(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	out := t.TempDir()
	writeFiles(t, in, map[string]string{
		"1.txt": "a", "2.txt": "b", "3.txt": "c", "4.txt": "d", "5.txt": "e",
	})

	rec := &recorder{}
	var proc *Processor
	count := 0
	reporter := status.Multi(rec, status.Callbacks{
		OnFileProcessed: func(name string) {
			count++
			if count == 2 {
				proc.Cancel()
				proc.Cancel()
			}
		},
	})

	var err error
	proc, err = New(Options{Reporter: reporter})
	require.NoError(t, err)
	require.NoError(t, proc.Configure(newConfig(in, out)))
	require.NoError(t, proc.Run(ctx))

	outcome, err := proc.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"file:1.txt", "progress:20",
		"file:2.txt", "progress:40",
		"finished:cancelled",
	}, rec.summary())
	assert.Equal(t, status.StateCancelled, outcome.State)
	assert.Equal(t, 2, outcome.Processed)
	assert.Equal(t, 5, outcome.Total)
	assert.Equal(t, status.StateCancelled, proc.State())

	_, err = os.Stat(filepath.Join(out, "3.txt"))
	assert.True(t, os.IsNotExist(err), "no file is written after cancellation")

	// idle cancel is a no-op and the processor can run again
	proc.Cancel()
	count = 100
	require.NoError(t, proc.Run(ctx))
	outcome, err = proc.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.StateCompleted, outcome.State)
	assert.Equal(t, 5, outcome.Processed)
}

func TestRunContextCancelled(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"a.txt": "a", "b.txt": "b"})

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	outcome, rec := runToEnd(t, ctx, Options{}, newConfig(in, t.TempDir()))

	assert.Equal(t, []string{"finished:cancelled"}, rec.summary())
	assert.Equal(t, status.StateCancelled, outcome.State)
	assert.Zero(t, outcome.Processed)
	assert.Equal(t, 2, outcome.Total)
}

func TestRunWhileRunning(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"a.txt": "a", "b.txt": "b"})

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	reporter := status.Callbacks{
		OnFileProcessed: func(name string) {
			once.Do(func() { close(entered) })
			<-release
		},
	}

	proc, err := New(Options{Reporter: reporter})
	require.NoError(t, err)
	cfg := newConfig(in, t.TempDir())
	require.NoError(t, proc.Configure(cfg))
	require.NoError(t, proc.Run(ctx))

	<-entered
	assert.Equal(t, status.StateRunning, proc.State())
	assert.ErrorIs(t, proc.Run(ctx), ErrRunning)
	assert.ErrorIs(t, proc.Configure(cfg), ErrRunning)

	select {
	case <-proc.Done():
		t.Fatal("run should still be active")
	default:
	}

	close(release)
	<-proc.Done()

	outcome, err := proc.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Processed)
	assert.NoError(t, proc.Configure(cfg))
}

func TestConfigureCopiesSnapshot(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	out := t.TempDir()
	writeFiles(t, in, map[string]string{"a.txt": "a"})

	proc, err := New(Options{Reporter: &recorder{}})
	require.NoError(t, err)

	cfg := newConfig(in, out)
	require.NoError(t, proc.Configure(cfg))
	cfg.InputMask = "*.none"

	require.NoError(t, proc.Run(ctx))
	outcome, err := proc.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Processed, "later edits to the caller's config are not seen")
	assert.Equal(t, "*.txt", proc.Config().InputMask)
}

// 🔧 faultyFiles fails selected operations on top of the local filesystem
type faultyFiles struct {
	*status.Manager
	openFail   map[string]bool
	readFail   map[string]bool
	deleteFail bool
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device error") }
func (failingReader) Close() error             { return nil }

func (f *faultyFiles) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	name := filepath.Base(path)
	if f.openFail[name] {
		return nil, errors.New("permission denied")
	}
	if f.readFail[name] {
		return failingReader{}, nil
	}
	return f.Manager.OpenFile(ctx, path)
}

func (f *faultyFiles) DeleteFile(ctx context.Context, path string) error {
	if f.deleteFail {
		return errors.New("file is locked")
	}
	return f.Manager.DeleteFile(ctx, path)
}

func TestRunFileFailures(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	out := t.TempDir()
	writeFiles(t, in, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c", "d.txt": "d"})

	files := &faultyFiles{
		Manager:  status.NewManager(""),
		openFail: map[string]bool{"a.txt": true},
		readFail: map[string]bool{"c.txt": true},
	}

	outcome, rec := runToEnd(t, ctx, Options{Files: files}, newConfig(in, out))

	assert.Equal(t, []string{
		"diag:a.txt:open", "progress:0",
		"file:b.txt", "progress:25",
		"diag:c.txt:read", "progress:25",
		"file:d.txt", "progress:50",
		"finished:completed",
	}, rec.summary())
	assert.Equal(t, 2, outcome.Processed)
	assert.Equal(t, 2, outcome.Skipped())
	require.Len(t, outcome.Diagnostics, 2)
	assert.Contains(t, outcome.Diagnostics[1].Err.Error(), "device error")
}

func TestRunDeleteFailure(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	out := t.TempDir()
	writeFiles(t, in, map[string]string{"a.txt": "a"})

	cfg := newConfig(in, out)
	cfg.DeleteInput = true
	files := &faultyFiles{Manager: status.NewManager(""), deleteFail: true}

	outcome, rec := runToEnd(t, ctx, Options{Files: files}, cfg)

	assert.Equal(t, []string{
		"diag:a.txt:delete", "file:a.txt", "progress:100", "finished:completed",
	}, rec.summary())
	assert.Equal(t, 1, outcome.Processed)
	assert.Zero(t, outcome.Skipped())
	assert.FileExists(t, filepath.Join(in, "a.txt"))
	assert.FileExists(t, filepath.Join(out, "a.txt"))
}

func TestRunWriteFailure(t *testing.T) {
	ctx := testContext(t)
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"a.txt": "a", "b.txt": "b"})

	// a regular file where the output directory should be
	out := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))

	outcome, rec := runToEnd(t, ctx, Options{}, newConfig(in, out))

	assert.Equal(t, []string{
		"diag:a.txt:write", "progress:0",
		"diag:b.txt:write", "progress:0",
		"finished:completed",
	}, rec.summary())
	assert.Zero(t, outcome.Processed)
	assert.FileExists(t, filepath.Join(in, "a.txt"))
}

func TestRunSameDirectory(t *testing.T) {
	t.Run("overwrite refuses to clobber the source", func(t *testing.T) {
		ctx := testContext(t)
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"a.txt": "a"})

		outcome, rec := runToEnd(t, ctx, Options{}, newConfig(dir, dir))

		assert.Equal(t, []string{"diag:a.txt:resolve", "progress:0", "finished:completed"}, rec.summary())
		require.Len(t, outcome.Diagnostics, 1)
		assert.ErrorIs(t, outcome.Diagnostics[0].Err, ErrSameFile)
		assert.Equal(t, "a", readFile(t, filepath.Join(dir, "a.txt")))
	})

	t.Run("rename writes next to the source", func(t *testing.T) {
		ctx := testContext(t)
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"a.txt": "a"})

		cfg := newConfig(dir, dir)
		cfg.ConflictPolicy = conflict.Rename
		outcome, _ := runToEnd(t, ctx, Options{}, cfg)

		assert.Equal(t, 1, outcome.Processed)
		assert.Equal(t, "a", readFile(t, filepath.Join(dir, "a.txt")))
		assert.Equal(t, encode(t, "a"), readFile(t, filepath.Join(dir, "a_1.txt")))
	})
}
