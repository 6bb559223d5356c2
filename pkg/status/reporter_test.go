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
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockReporter is a mock implementation of Reporter
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Progress(ctx context.Context, percent int) {
	m.Called(ctx, percent)
}

func (m *MockReporter) FileProcessed(ctx context.Context, name string) {
	m.Called(ctx, name)
}

func (m *MockReporter) Diagnostic(ctx context.Context, d Diagnostic) {
	m.Called(ctx, d)
}

func (m *MockReporter) Finished(ctx context.Context, o Outcome) {
	m.Called(ctx, o)
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	diag := Diagnostic{Name: "b.txt", Reason: ReasonWrite}
	outcome := Outcome{State: StateCompleted, Processed: 1, Total: 2}

	first := &MockReporter{}
	second := &MockReporter{}
	for _, m := range []*MockReporter{first, second} {
		m.On("FileProcessed", ctx, "a.txt").Once()
		m.On("Progress", ctx, 50).Once()
		m.On("Diagnostic", ctx, diag).Once()
		m.On("Finished", ctx, outcome).Once()
	}

	r := Multi(first, nil, second)
	r.FileProcessed(ctx, "a.txt")
	r.Progress(ctx, 50)
	r.Diagnostic(ctx, diag)
	r.Finished(ctx, outcome)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestCallbacks(t *testing.T) {
	ctx := context.Background()
	var got []string

	c := Callbacks{
		OnFileProcessed: func(name string) { got = append(got, "file:"+name) },
		OnFinished:      func(o Outcome) { got = append(got, "finished:"+o.State.String()) },
	}

	// nil callbacks must be safe
	c.Progress(ctx, 10)
	c.Diagnostic(ctx, Diagnostic{Name: "x"})

	c.FileProcessed(ctx, "a.txt")
	c.Finished(ctx, Outcome{State: StateCancelled})

	assert.Equal(t, []string{"file:a.txt", "finished:cancelled"}, got)
}

func TestLogReporter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	r := NewLogReporter(nil)
	r.Progress(ctx, 40)
	r.FileProcessed(ctx, "a.txt")
	r.Diagnostic(ctx, Diagnostic{Name: "b.txt", Reason: ReasonRead, Err: errors.New("denied")})
	r.Finished(ctx, Outcome{State: StateCompleted, Processed: 1, Total: 2})

	out := buf.String()
	assert.Contains(t, out, `"percent":40`)
	assert.Contains(t, out, `"file":"a.txt"`)
	assert.Contains(t, out, `"reason":"read"`)
	assert.Contains(t, out, `"error":"denied"`)
	assert.Contains(t, out, `"state":"completed"`)
	assert.Contains(t, out, "Finished: 1/2 files processed")
}

func TestChannelReporter(t *testing.T) {
	ctx := context.Background()
	r := NewChannelReporter()

	// Emit everything before anyone reads; delivery must keep the order.
	r.FileProcessed(ctx, "a.txt")
	r.Progress(ctx, 33)
	r.Diagnostic(ctx, Diagnostic{Name: "b.txt", Reason: ReasonOpen})
	r.Progress(ctx, 33)
	r.FileProcessed(ctx, "c.txt")
	r.Progress(ctx, 66)
	r.Finished(ctx, Outcome{State: StateCompleted, Processed: 2, Total: 3})
	r.Close()

	// dropped after Close
	r.FileProcessed(ctx, "late.txt")

	var kinds []EventKind
	var files []string
	for ev := range r.Events() {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventFileProcessed {
			files = append(files, ev.Name)
		}
	}

	assert.Equal(t, []EventKind{
		EventFileProcessed, EventProgress, EventDiagnostic, EventProgress,
		EventFileProcessed, EventProgress, EventFinished,
	}, kinds)
	assert.Equal(t, []string{"a.txt", "c.txt"}, files)
}

func TestChannelReporterConcurrentConsumer(t *testing.T) {
	ctx := context.Background()
	r := NewChannelReporter()

	received := make(chan []int, 1)
	go func() {
		var got []int
		for ev := range r.Events() {
			if ev.Kind == EventProgress {
				got = append(got, ev.Percent)
			}
		}
		received <- got
	}()

	want := make([]int, 0, 101)
	for p := 0; p <= 100; p++ {
		r.Progress(ctx, p)
		want = append(want, p)
	}
	r.Close()

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "consumer did not finish")
	}
}

func TestChannelReporterDiscard(t *testing.T) {
	r := NewChannelReporter()
	r.Progress(context.Background(), 1)
	r.Discard()
	r.Discard()

	select {
	case _, ok := <-r.Events():
		// the pump may deliver nothing or close straight away
		for ok {
			_, ok = <-r.Events()
		}
	case <-time.After(5 * time.Second):
		require.FailNow(t, "events channel was not closed")
	}
}

func TestForward(t *testing.T) {
	ctx := context.Background()
	diag := Diagnostic{Name: "b.txt", Reason: ReasonRead}
	outcome := Outcome{State: StateCompleted, Processed: 1, Total: 2, Diagnostics: []Diagnostic{diag}}

	target := &MockReporter{}
	mock.InOrder(
		target.On("FileProcessed", ctx, "a.txt").Once(),
		target.On("Progress", ctx, 50).Once(),
		target.On("Diagnostic", ctx, diag).Once(),
		target.On("Progress", ctx, 50).Once(),
		target.On("Finished", ctx, outcome).Once(),
	)

	r := NewChannelReporter()
	r.FileProcessed(ctx, "a.txt")
	r.Progress(ctx, 50)
	r.Diagnostic(ctx, diag)
	r.Progress(ctx, 50)
	r.Finished(ctx, outcome)
	r.Close()

	require.NoError(t, Forward(ctx, r.Events(), target))
	target.AssertExpectations(t)
}

func TestForwardCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewChannelReporter()
	defer r.Discard()

	err := Forward(ctx, r.Events(), &MockReporter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
