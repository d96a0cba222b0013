package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/session"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	os.Exit(m.Run())
}

type mockSweeper struct {
	calls  atomic.Int32
	events []session.Event
}

func (m *mockSweeper) Sweep(context.Context) []session.Event {
	if m.calls.Add(1) == 1 {
		return m.events
	}
	return nil
}

type mockProber struct {
	calls atomic.Int32
	err   error
}

func (m *mockProber) Probe(context.Context) error {
	m.calls.Add(1)
	return m.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func TestSchedulerRunsSweepAndForwardsEvents(t *testing.T) {
	sweeper := &mockSweeper{events: []session.Event{{Kind: session.EventLocked}}}

	var mu sync.Mutex
	var got []session.Event
	s := NewScheduler(sweeper, nil,
		WithSweepInterval(20*time.Millisecond),
		WithEvents(func(ev session.Event) {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		}),
	)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool { return sweeper.calls.Load() >= 3 })

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Kind != session.EventLocked {
		t.Errorf("Expected one lock event, got %+v", got)
	}
}

func TestSchedulerProbesOnStart(t *testing.T) {
	prober := &mockProber{err: errors.New("disk full")}
	s := NewScheduler(nil, prober, WithProbeInterval(time.Hour))
	if err := s.Start(); err != nil {
		t.Fatalf("A failing probe must not stop the scheduler: %v", err)
	}
	defer s.Stop()

	if prober.calls.Load() != 1 {
		t.Errorf("Expected one probe at start, got %d", prober.calls.Load())
	}
}

func TestSchedulerStopHaltsJobs(t *testing.T) {
	sweeper := &mockSweeper{}
	s := NewScheduler(sweeper, nil, WithSweepInterval(20*time.Millisecond))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return sweeper.calls.Load() >= 1 })
	s.Stop()

	time.Sleep(30 * time.Millisecond)
	after := sweeper.calls.Load()
	time.Sleep(80 * time.Millisecond)
	if sweeper.calls.Load() != after {
		t.Error("Sweep kept running after Stop")
	}
}
