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
	"sync"

	"gitlab.com/tozd/go/errors"
)

// EventKind identifies the notification carried by an Event
type EventKind int

const (
	EventProgress EventKind = iota + 1
	EventFileProcessed
	EventDiagnostic
	EventFinished
)

// String returns a string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventFileProcessed:
		return "file_processed"
	case EventDiagnostic:
		return "diagnostic"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// 📨 Event is a single run notification. Only the field matching Kind is set.
type Event struct {
	Kind       EventKind
	Percent    int
	Name       string
	Diagnostic Diagnostic
	Outcome    Outcome
}

// 📬 ChannelReporter queues events from the worker and delivers them in
// order on a channel, so a slow consumer never stalls the run.
type ChannelReporter struct {
	mu     sync.Mutex
	queue  []Event
	closed bool

	wake    chan struct{}
	out     chan Event
	done    chan struct{}
	discard sync.Once
}

var _ Reporter = (*ChannelReporter)(nil)

// NewChannelReporter starts the delivery goroutine. Call Close when no more
// runs will report to it.
func NewChannelReporter() *ChannelReporter {
	r := &ChannelReporter{
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
		done: make(chan struct{}),
	}
	go r.pump()
	return r
}

// Events returns the delivery channel. It is closed after Close once every
// queued event has been received.
func (r *ChannelReporter) Events() <-chan Event {
	return r.out
}

// Close stops accepting events. Already queued events are still delivered
// unless the consumer stops reading; Close does not wait for them.
func (r *ChannelReporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.signal()
}

// Discard drops undelivered events and releases the delivery goroutine.
func (r *ChannelReporter) Discard() {
	r.Close()
	r.discard.Do(func() { close(r.done) })
}

func (r *ChannelReporter) Progress(ctx context.Context, percent int) {
	r.push(Event{Kind: EventProgress, Percent: percent})
}

func (r *ChannelReporter) FileProcessed(ctx context.Context, name string) {
	r.push(Event{Kind: EventFileProcessed, Name: name})
}

func (r *ChannelReporter) Diagnostic(ctx context.Context, d Diagnostic) {
	r.push(Event{Kind: EventDiagnostic, Name: d.Name, Diagnostic: d})
}

func (r *ChannelReporter) Finished(ctx context.Context, o Outcome) {
	r.push(Event{Kind: EventFinished, Outcome: o})
}

func (r *ChannelReporter) push(ev Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, ev)
	r.mu.Unlock()
	r.signal()
}

func (r *ChannelReporter) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *ChannelReporter) pump() {
	defer close(r.out)

	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		closed := r.closed
		r.mu.Unlock()

		for _, ev := range batch {
			select {
			case r.out <- ev:
			case <-r.done:
				return
			}
		}

		if closed && len(batch) == 0 {
			return
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-r.wake:
		case <-r.done:
			return
		}
	}
}

// 🔁 Forward replays events from ch on r, in order, until ch is closed or ctx
// is done.
func Forward(ctx context.Context, ch <-chan Event, r Reporter) error {
	for {
		select {
		case <-ctx.Done():
			return errors.Errorf("forwarding events: %w", ctx.Err())
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case EventProgress:
				r.Progress(ctx, ev.Percent)
			case EventFileProcessed:
				r.FileProcessed(ctx, ev.Name)
			case EventDiagnostic:
				r.Diagnostic(ctx, ev.Diagnostic)
			case EventFinished:
				r.Finished(ctx, ev.Outcome)
			}
		}
	}
}
