package door

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/groblegark/doord/internal/model"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m := New(Config{DoorID: "main_door"})
	t.Cleanup(m.Stop)
	return m
}

func open(session string) *model.DoorRequest {
	return &model.DoorRequest{Mode: model.ModeOpen, Session: session}
}

func release(session string) *model.DoorRequest {
	return &model.DoorRequest{Mode: model.ModeRelease, Session: session}
}

func TestOpenFromClosed(t *testing.T) {
	m := newTestMachine(t)

	st, err := m.Apply(open("s1"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := &model.DoorState{Status: model.StatusOpen, Sessions: []string{"s1"}}
	if !st.Equal(want) {
		t.Errorf("got %+v, want %+v", st, want)
	}
}

func TestOpenJoinsSecondHolder(t *testing.T) {
	m := newTestMachine(t)
	m.Apply(open("s1"))

	st, err := m.Apply(open("s2"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := &model.DoorState{Status: model.StatusOpen, Sessions: []string{"s1", "s2"}}
	if !st.Equal(want) {
		t.Errorf("got %+v, want %+v", st, want)
	}
}

func TestReleaseOneOfTwoHoldersStaysOpen(t *testing.T) {
	m := newTestMachine(t)
	m.Apply(open("s1"))
	m.Apply(open("s2"))

	st, err := m.Apply(release("s1"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := &model.DoorState{Status: model.StatusOpen, Sessions: []string{"s2"}}
	if !st.Equal(want) {
		t.Errorf("got %+v, want %+v", st, want)
	}
}

func TestReleaseLastHolderCloses(t *testing.T) {
	m := newTestMachine(t)
	m.Apply(open("s1"))

	st, err := m.Apply(release("s1"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !st.Equal(model.NewClosedState()) {
		t.Errorf("got %+v, want closed with no sessions", st)
	}
}

func TestOpenWhileMovingIsBusy(t *testing.T) {
	m := New(Config{DoorID: "main_door", Travel: time.Hour})
	t.Cleanup(m.Stop)

	st, err := m.Apply(open("s1"))
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if st.Status != model.StatusMoving {
		t.Fatalf("expected MOVING during travel, got %v", st.Status)
	}

	got, err := m.Apply(open("s2"))
	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if got.Status != model.StatusMoving {
		t.Errorf("state changed on rejected request: %+v", got)
	}
}

func TestInvalidReleases(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
		req   *model.DoorRequest
	}{
		{"release while closed", func(m *Machine) {}, release("s1")},
		{"release unknown session", func(m *Machine) { m.Apply(open("s1")) }, release("s2")},
		{"repeated release", func(m *Machine) {
			m.Apply(open("s1"))
			m.Apply(open("s2"))
			m.Apply(release("s1"))
		}, release("s1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			tt.setup(m)
			before := m.Current()

			got, err := m.Apply(tt.req)
			if !errors.Is(err, ErrInvalidRelease) {
				t.Errorf("expected ErrInvalidRelease, got %v", err)
			}
			if !got.Equal(before) {
				t.Errorf("state changed on rejected release: %+v != %+v", got, before)
			}
		})
	}
}

func TestReleaseWhileMovingIsRejected(t *testing.T) {
	m := New(Config{DoorID: "main_door", Travel: time.Hour})
	t.Cleanup(m.Stop)

	m.Apply(open("s1"))
	if _, err := m.Apply(release("s1")); !errors.Is(err, ErrInvalidRelease) {
		t.Errorf("expected ErrInvalidRelease mid-travel, got %v", err)
	}
}

func TestOpenIsIdempotentPerSession(t *testing.T) {
	m := newTestMachine(t)
	m.Apply(open("s1"))
	m.Apply(open("s1"))
	st, err := m.Apply(open("s1"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(st.Sessions) != 1 {
		t.Errorf("duplicate session recorded: %v", st.Sessions)
	}
}

// The core invariant: for any accepted request sequence, sessions is
// non-empty exactly when the door is OPEN.
func TestSessionsInvariantUnderRequestSequences(t *testing.T) {
	m := newTestMachine(t)
	reqs := []*model.DoorRequest{
		open("a"), open("b"), release("a"), open("c"),
		release("b"), release("c"), open("a"), release("a"),
		open("x"), open("y"), open("x"), release("y"),
	}
	for i, req := range reqs {
		st, err := m.Apply(req)
		if err != nil {
			t.Fatalf("request %d rejected: %v", i, err)
		}
		hasSessions := len(st.Sessions) > 0
		isOpen := st.Status == model.StatusOpen
		if hasSessions != isOpen {
			t.Fatalf("request %d: invariant violated: %+v", i, st)
		}
	}
}

func TestSnapshotsAreImmutable(t *testing.T) {
	m := newTestMachine(t)
	first, _ := m.Apply(open("s1"))
	m.Apply(open("s2"))

	want := []string{"s1"}
	if !slices.Equal(first.Sessions, want) {
		t.Errorf("earlier snapshot mutated: %v, want %v", first.Sessions, want)
	}
}

func TestTravelCompletesAsynchronously(t *testing.T) {
	m := New(Config{DoorID: "main_door", Travel: 5 * time.Millisecond})
	t.Cleanup(m.Stop)

	ch, cancel := m.Watch()
	defer cancel()

	st, err := m.Apply(open("s1"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if st.Status != model.StatusMoving {
		t.Fatalf("expected MOVING, got %v", st.Status)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case got := <-ch:
			if got.Status == model.StatusOpen {
				want := []string{"s1"}
				if !slices.Equal(got.Sessions, want) {
					t.Errorf("arrived open with %v, want %v", got.Sessions, want)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for door to open")
		}
	}
}

func TestWatchSeesEveryTransition(t *testing.T) {
	m := newTestMachine(t)
	ch, cancel := m.Watch()
	defer cancel()

	m.Apply(open("s1"))

	// Zero travel: opening emits MOVING then OPEN.
	var statuses []model.DoorStatus
	for range 2 {
		select {
		case st := <-ch:
			statuses = append(statuses, st.Status)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}
	want := []model.DoorStatus{model.StatusMoving, model.StatusOpen}
	if !slices.Equal(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
}

func TestWatchCancelClosesChannel(t *testing.T) {
	m := newTestMachine(t)
	ch, cancel := m.Watch()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
	// Cancel twice is safe.
	cancel()
}

func TestConcurrentRequestsAreSerialized(t *testing.T) {
	m := newTestMachine(t)
	m.Apply(open("seed"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			session := string(rune('a' + n))
			for j := 0; j < 50; j++ {
				m.Apply(open(session))
				m.Apply(release(session))
			}
		}(i)
	}
	wg.Wait()

	st := m.Current()
	hasSessions := len(st.Sessions) > 0
	if hasSessions != (st.Status == model.StatusOpen) {
		t.Errorf("invariant violated after concurrent load: %+v", st)
	}
	if st.Status == model.StatusOpen && !slices.Contains(st.Sessions, "seed") {
		t.Errorf("seed claim lost: %+v", st)
	}
}

func TestStopCancelsTravel(t *testing.T) {
	m := New(Config{DoorID: "main_door", Travel: 5 * time.Millisecond})
	m.Apply(open("s1"))
	m.Stop()

	time.Sleep(20 * time.Millisecond)
	if st := m.Current(); st.Status != model.StatusMoving {
		t.Errorf("stale timer fired after Stop: %+v", st)
	}
}
