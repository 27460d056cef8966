// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package animation

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

const testUnit = 5 * time.Millisecond

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	once   sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if ev.Type == EventCompleted {
		r.once.Do(func() { close(r.done) })
	}
}

func (r *recorder) count(typ EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDefaultSequenceValid(t *testing.T) {
	seq := DefaultSequence(time.Second)
	if err := seq.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	term, ok := seq.Terminal()
	if !ok || term.Name != StageProgress {
		t.Errorf("terminal stage: got %+v", term)
	}
	if got := seq.Duration(term.End()); got != 3*time.Second {
		t.Errorf("play length: got %v, want 3s", got)
	}
	if seq.SparkleCount != 20 {
		t.Errorf("sparkle count: got %d", seq.SparkleCount)
	}
}

func TestSequenceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Sequence)
		wantErr string
	}{
		{"zero unit", func(s *Sequence) { s.Unit = 0 }, "unit"},
		{"cue after end", func(s *Sequence) { s.Sounds = append(s.Sounds, SoundCue{Name: "late", At: 3.5}) }, "late"},
		{"negative cue", func(s *Sequence) { s.Sounds[0].At = -1 }, "open"},
		{"terminal not longest", func(s *Sequence) { s.Stages[1].Duration = 5 }, "ends after"},
		{"no terminal", func(s *Sequence) { s.Stages[3].Terminal = false }, "found 0"},
		{"two terminals", func(s *Sequence) { s.Stages[0].Terminal = true }, "found 2"},
		{"duplicate stage", func(s *Sequence) { s.Stages[1].Name = StageLid }, "duplicate"},
		{"zero duration", func(s *Sequence) { s.Stages[2].Duration = 0 }, "invalid timing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := DefaultSequence(time.Second)
			tt.mutate(&seq)
			err := seq.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSequenceJSON(t *testing.T) {
	raw, err := json.Marshal(DefaultSequence(250 * time.Millisecond))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		UnitMS int64   `json:"unit_ms"`
		Stages []Stage `json:"stages"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.UnitMS != 250 {
		t.Errorf("unit_ms: got %d, want 250", decoded.UnitMS)
	}
	if len(decoded.Stages) != 4 {
		t.Errorf("stages: got %d, want 4", len(decoded.Stages))
	}
}

func TestControllerSinglePlay(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	c := NewController(DefaultSequence(testUnit), rec.emit)
	defer c.Close()

	if c.State() != Idle {
		t.Fatalf("initial state: %v", c.State())
	}

	id, ok := c.Start()
	if !ok || id == "" {
		t.Fatalf("Start from Idle: got %q, %v", id, ok)
	}
	if c.State() != Started {
		t.Errorf("state after Start: %v", c.State())
	}

	// A second start while running changes nothing.
	if _, ok := c.Start(); ok {
		t.Error("Start while Started should be a no-op")
	}
	if c.AnimationID() != id {
		t.Error("animation id changed by ignored Start")
	}

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no completion event")
	}

	waitFor(t, func() bool { return c.State() == Idle })

	if n := rec.count(EventCompleted); n != 1 {
		t.Errorf("completion events: got %d, want 1", n)
	}
	if n := rec.count(EventStarted); n != 1 {
		t.Errorf("started events: got %d, want 1", n)
	}
	if n := rec.count(EventStageEnd); n != 4 {
		t.Errorf("stage end events: got %d, want 4", n)
	}
	for _, ev := range rec.snapshot() {
		if ev.AnimationID != id {
			t.Errorf("event %s carries id %q, want %q", ev.Type, ev.AnimationID, id)
		}
	}
}

func TestControllerCompletionTiming(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	c := NewController(DefaultSequence(20*time.Millisecond), rec.emit)
	defer c.Close()

	begin := time.Now()
	c.Start()
	<-rec.done
	if elapsed := time.Since(begin); elapsed < 60*time.Millisecond {
		t.Errorf("completed after %v, before the progress stage ended", elapsed)
	}
}

func TestControllerSoundGate(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name  string
		sound bool
		want  int
	}{
		{"muted", false, 0},
		{"enabled", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			c := NewController(DefaultSequence(testUnit), rec.emit)
			defer c.Close()
			c.SetSoundEnabled(tt.sound)

			c.Start()
			<-rec.done

			if got := rec.count(EventSound); got != tt.want {
				t.Errorf("sound events: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestControllerRestartAfterCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	seq := DefaultSequence(testUnit)
	seq.Cooldown = 100 // long enough to still be Completed when restarting
	c := NewController(seq, rec.emit)
	defer c.Close()

	first, _ := c.Start()
	<-rec.done
	if c.State() != Completed {
		t.Fatalf("state after completion: %v", c.State())
	}

	second, ok := c.Start()
	if !ok {
		t.Fatal("Start from Completed should begin a new play")
	}
	if second == first {
		t.Error("new play should get a new animation id")
	}
	waitFor(t, func() bool { return rec.count(EventCompleted) == 2 })
}

func TestControllerReset(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	seq := DefaultSequence(50 * time.Millisecond)
	c := NewController(seq, rec.emit)
	defer c.Close()

	c.Start()
	c.Reset()
	if c.State() != Idle {
		t.Errorf("state after Reset: %v", c.State())
	}

	time.Sleep(seq.Duration(4))
	if n := rec.count(EventCompleted); n != 0 {
		t.Errorf("completion after Reset: got %d events", n)
	}
	if n := rec.count(EventReset); n != 1 {
		t.Errorf("reset events: got %d, want 1", n)
	}

	// Reset on an idle controller is silent.
	c.Reset()
	if n := rec.count(EventReset); n != 1 {
		t.Errorf("reset events after idle Reset: got %d, want 1", n)
	}
}

func TestControllerCloseStopsEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder()
	seq := DefaultSequence(20 * time.Millisecond)
	c := NewController(seq, rec.emit)

	c.Start()
	c.Close()
	before := len(rec.snapshot())

	time.Sleep(seq.Duration(4))
	if after := len(rec.snapshot()); after != before {
		t.Errorf("events after Close: %d new", after-before)
	}
	if _, ok := c.Start(); ok {
		t.Error("Start after Close should be refused")
	}
}

func TestSparkles(t *testing.T) {
	if got := Sparkles(0, nil); got != nil {
		t.Errorf("Sparkles(0) = %v, want nil", got)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	items := Sparkles(20, rng)
	if len(items) != 20 {
		t.Fatalf("len: got %d, want 20", len(items))
	}
	for i, s := range items {
		if s.Left < 0 || s.Left >= 100 || s.Top < 0 || s.Top >= 100 {
			t.Errorf("sparkle %d out of bounds: %+v", i, s)
		}
		if s.Size < 4 || s.Size >= 12 {
			t.Errorf("sparkle %d size %v out of range", i, s.Size)
		}
		if s.Delay < 0 || s.Delay >= 2 {
			t.Errorf("sparkle %d delay %v out of range", i, s.Delay)
		}
	}

	again := Sparkles(20, rand.New(rand.NewPCG(1, 2)))
	if again[0] != items[0] {
		t.Error("same seed should give the same placement")
	}
}
