package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denwilliams/go-wled-race/internal/color"
	"github.com/denwilliams/go-wled-race/internal/lighting"
	"github.com/denwilliams/go-wled-race/internal/race"
)

type recordingSender struct {
	mu   sync.Mutex
	cmds []lighting.Command
	sent chan lighting.Command
	gate chan struct{}
	err  error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(chan lighting.Command, 32)}
}

func (s *recordingSender) Send(ctx context.Context, cmd lighting.Command) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.cmds = append(s.cmds, cmd)
	s.mu.Unlock()
	s.sent <- cmd
	return s.err
}

func (s *recordingSender) wait(t *testing.T, n int) []lighting.Command {
	t.Helper()
	var got []lighting.Command
	deadline := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case cmd := <-s.sent:
			got = append(got, cmd)
		case <-deadline:
			t.Fatalf("timed out waiting for %d commands, got %d", n, len(got))
		}
	}
	return got
}

func startRunner(t *testing.T, sender Sender) *Runner {
	t.Helper()
	r := NewRunner(sender)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func testMapper(hold time.Duration) *lighting.Mapper {
	return lighting.NewMapper(lighting.DefaultPalette(), lighting.Timings{
		StartHold: hold,
		StopHold:  hold,
		LapHold:   hold,
	})
}

func mustMap(t *testing.T, m *lighting.Mapper, kind race.EventKind, payload lighting.Payload) lighting.Sequence {
	t.Helper()
	seq, err := m.Map(kind, payload)
	require.NoError(t, err)
	return seq
}

func TestRunnerPlaysCommandThenClear(t *testing.T) {
	sender := newRecordingSender()
	r := startRunner(t, sender)

	start := time.Now()
	r.Submit(mustMap(t, testMapper(30*time.Millisecond), race.RaceStart, lighting.Payload{}))

	got := sender.wait(t, 2)
	assert.Equal(t, color.Green.RGB(), got[0].Color)
	assert.Equal(t, color.None.RGB(), got[1].Color)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	assert.Eventually(t, func() bool { return r.Stats().Played == 1 }, time.Second, 5*time.Millisecond)
}

func TestRunnerPreemptsPendingClear(t *testing.T) {
	sender := newRecordingSender()
	r := startRunner(t, sender)

	r.Submit(mustMap(t, testMapper(5*time.Second), race.RaceStop, lighting.Payload{}))
	first := sender.wait(t, 1)
	assert.Equal(t, color.Red.RGB(), first[0].Color)

	pilot := color.Packed(0xFF00FF)
	start := time.Now()
	r.Submit(mustMap(t, testMapper(10*time.Millisecond), race.LapRecorded, lighting.Payload{PilotColor: &pilot}))

	got := sender.wait(t, 2)
	assert.Equal(t, color.RGB{R: 255, B: 255}, got[0].Color)
	assert.Equal(t, color.None.RGB(), got[1].Color)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.Eventually(t, func() bool {
		s := r.Stats()
		return s.Preempted == 1 && s.Played == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunnerKeepsOnlyLatestWhileSending(t *testing.T) {
	sender := newRecordingSender()
	sender.gate = make(chan struct{})
	r := startRunner(t, sender)
	m := testMapper(0)

	r.Submit(mustMap(t, m, race.RaceStage, lighting.Payload{}))
	// Give the runner time to pick up the stage sequence and block in Send.
	time.Sleep(20 * time.Millisecond)

	yellow := color.Yellow
	white := color.White
	r.Submit(mustMap(t, m, race.LapRecorded, lighting.Payload{PilotColor: &yellow}))
	r.Submit(mustMap(t, m, race.LapRecorded, lighting.Payload{PilotColor: &white}))

	close(sender.gate)

	got := sender.wait(t, 3)
	assert.Equal(t, color.Blue.RGB(), got[0].Color)
	assert.Equal(t, color.White.RGB(), got[1].Color)
	assert.Equal(t, color.None.RGB(), got[2].Color)
	assert.Equal(t, int64(1), r.Stats().Dropped)
}

func TestRunnerCountsFailuresAndContinues(t *testing.T) {
	sender := newRecordingSender()
	sender.err = errors.New("unreachable")
	r := startRunner(t, sender)

	r.Submit(mustMap(t, testMapper(time.Millisecond), race.RaceStart, lighting.Payload{}))

	sender.wait(t, 2)
	assert.Eventually(t, func() bool { return r.Stats().Failed == 2 }, time.Second, 5*time.Millisecond)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	sender := newRecordingSender()
	r := NewRunner(sender)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	r.Submit(mustMap(t, testMapper(time.Hour), race.RaceStart, lighting.Payload{}))
	sender.wait(t, 1)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Len(t, sender.sent, 0)
}

func TestRunnerRunOnlyOnce(t *testing.T) {
	r := startRunner(t, newRecordingSender())
	require.Eventually(t, func() bool { return r.running.Load() }, time.Second, time.Millisecond)

	returned := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("second Run did not return")
	}
}

func TestRunnerPlayIsSynchronous(t *testing.T) {
	sender := newRecordingSender()
	r := NewRunner(sender)

	r.Play(context.Background(), mustMap(t, testMapper(time.Millisecond), race.RaceStop, lighting.Payload{}))

	assert.Len(t, sender.cmds, 2)
	assert.Equal(t, int64(1), r.Stats().Played)
}
