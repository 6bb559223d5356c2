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
	"sync"
	"sync/atomic"

	"github.com/walteh/xorbatch/pkg/config"
	"github.com/walteh/xorbatch/pkg/conflict"
	"github.com/walteh/xorbatch/pkg/scan"
	"github.com/walteh/xorbatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrRunning is returned when a run is started or reconfigured while one is active.
	ErrRunning = errors.Base("run already in progress")
	// ErrNotConfigured is returned by Run before the first Configure.
	ErrNotConfigured = errors.Base("processor not configured")
)

// 🔧 Options contains the collaborators of a processor
type Options struct {
	// Config is the initial settings snapshot. Optional, see Configure.
	Config *config.Config
	// Reporter receives every run notification. Required.
	Reporter status.Reporter
	// Files performs filesystem access. Defaults to the local filesystem.
	Files status.FileManager
	// Resolver picks output paths. Defaults to one that checks Files.
	Resolver *conflict.Resolver
	// Scanner lists candidates. Defaults to a scanner that skips hidden files.
	Scanner *scan.Scanner
}

// 🎮 Processor runs XOR batches on a worker goroutine, one run at a time
type Processor struct {
	reporter status.Reporter
	files    status.FileManager
	resolver *conflict.Resolver
	scanner  *scan.Scanner

	mu      sync.Mutex
	cfg     *config.Config
	state   status.State
	current *run
}

// run is the state of a single batch
type run struct {
	cfg       *config.Config
	cancelled atomic.Bool
	done      chan struct{}
	outcome   status.Outcome
}

// 🏭 New creates a new processor with the given options
func New(opts Options) (*Processor, error) {
	if opts.Reporter == nil {
		return nil, errors.Errorf("reporter is required")
	}

	p := &Processor{
		reporter: opts.Reporter,
		files:    opts.Files,
		resolver: opts.Resolver,
		scanner:  opts.Scanner,
		state:    status.StateIdle,
	}
	if p.files == nil {
		p.files = status.NewManager("")
	}
	if p.resolver == nil {
		p.resolver = conflict.NewResolver(p.files)
	}
	if p.scanner == nil {
		p.scanner = &scan.Scanner{}
	}
	if opts.Config != nil {
		p.cfg = opts.Config.Clone()
	}
	return p, nil
}

// ⚙️ Configure stores a copy of cfg for the next run. The running batch, if
// any, keeps the snapshot it started with, so reconfiguring is refused until
// it ends.
func (p *Processor) Configure(cfg *config.Config) error {
	if cfg == nil {
		return errors.Errorf("config is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == status.StateRunning {
		return errors.WithStack(ErrRunning)
	}
	p.cfg = cfg.Clone()
	return nil
}

// 🏃 Run starts a batch on a new goroutine and returns without waiting for it.
// Cancelling ctx stops the batch at the next file boundary, like Cancel.
func (p *Processor) Run(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == status.StateRunning {
		return errors.WithStack(ErrRunning)
	}
	if p.cfg == nil {
		return errors.WithStack(ErrNotConfigured)
	}

	r := &run{
		cfg:  p.cfg.Clone(),
		done: make(chan struct{}),
	}
	p.current = r
	p.state = status.StateRunning

	go p.execute(ctx, r)
	return nil
}

// 🛑 Cancel asks the active run to stop before its next file. The file being
// processed is always finished. Calling it while idle does nothing.
func (p *Processor) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == status.StateRunning && p.current != nil {
		p.current.cancelled.Store(true)
	}
}

// ⏳ Wait blocks until the latest run has finished and returns its outcome.
// Without any run it returns an idle outcome immediately.
func (p *Processor) Wait(ctx context.Context) (status.Outcome, error) {
	p.mu.Lock()
	r := p.current
	p.mu.Unlock()

	if r == nil {
		return status.Outcome{State: status.StateIdle}, nil
	}

	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return status.Outcome{}, errors.Errorf("waiting for run: %w", ctx.Err())
	}
}

// Done returns a channel closed when the latest run has finished. It is
// already closed when no run was ever started.
func (p *Processor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.current.done
}

// State returns the lifecycle state of the latest run.
func (p *Processor) State() status.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// 🔧 Config returns a copy of the configured settings, or nil.
func (p *Processor) Config() *config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg == nil {
		return nil
	}
	return p.cfg.Clone()
}
