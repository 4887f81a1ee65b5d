package throttling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// recordingObserver captures observer calls for assertions.
type recordingObserver struct {
	mu       sync.Mutex
	discards []int
	defers   []time.Duration
	timeouts []time.Duration
}

func (o *recordingObserver) OnDiscard(waiting int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discards = append(o.discards, waiting)
}

func (o *recordingObserver) OnDefer(waiting int, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.defers = append(o.defers, delay)
}

func (o *recordingObserver) OnTimeout(waiting int, timeout time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.timeouts = append(o.timeouts, timeout)
}

// recordingWaiter records requested delays without blocking.
type recordingWaiter struct {
	waits []time.Duration
}

func (w *recordingWaiter) Wait(ctx context.Context, d time.Duration) {
	w.waits = append(w.waits, d)
}

func cfg(limit int, strategy Strategy, delay string) Config {
	return Config{Limit: limit, Strategy: strategy, Delay: MustParseDelay(delay)}
}

// apply runs Apply and reports whether proceed was called and with what timeout.
func apply(p *Policy, waiting int) (called bool, timeout time.Duration) {
	p.Apply(context.Background(), waiting, func(t time.Duration) {
		called = true
		timeout = t
	})
	return called, timeout
}

func TestEnsureAllowedValues(t *testing.T) {
	tests := []struct {
		name         string
		in           Config
		wantLimit    int
		wantStrategy Strategy
		wantDelay    string
	}{
		{"negative limit disables", cfg(-5, Discard, "10"), 0, None, "10"},
		{"zero limit disables", cfg(0, DeferForFixedTime, "10"), 0, None, "10"},
		{"negative delay clamps", cfg(3, DeferForFixedTime, "-2.5"), 3, DeferForFixedTime, "0"},
		{"valid config untouched", cfg(10, DiscardOnPercentageTimeout, "12.5"), 10, DiscardOnPercentageTimeout, "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			c.EnsureAllowedValues()
			once := c
			c.EnsureAllowedValues()

			if c.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", c.Limit, tt.wantLimit)
			}
			if c.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %v, want %v", c.Strategy, tt.wantStrategy)
			}
			want := MustParseDelay(tt.wantDelay)
			if c.Delay.Cmp(&want) != 0 {
				t.Errorf("Delay = %s, want %s", c.Delay.String(), tt.wantDelay)
			}
			if c.Limit != once.Limit || c.Strategy != once.Strategy || c.Delay.Cmp(&once.Delay) != 0 {
				t.Error("EnsureAllowedValues is not idempotent")
			}
		})
	}
}

func TestApply_NoThrottling(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		waiting int
	}{
		{"strategy none", cfg(1, None, "100"), 1000},
		{"below limit discard", cfg(10, Discard, "0"), 9},
		{"below limit defer", cfg(10, DeferForFixedTime, "100"), 0},
		{"below limit timeout", cfg(10, DiscardOnFixedTimeout, "100"), 9},
		{"disabled by zero limit", cfg(0, Discard, "0"), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			p := New(tt.config, WithObserver(obs))

			called, timeout := apply(p, tt.waiting)
			if !called {
				t.Fatal("proceed was not called")
			}
			if timeout != 0 {
				t.Errorf("timeout = %v, want 0", timeout)
			}
			if len(obs.discards)+len(obs.defers)+len(obs.timeouts) != 0 {
				t.Error("observer notified while throttling inactive")
			}
		})
	}
}

func TestApply_Discard(t *testing.T) {
	obs := &recordingObserver{}
	p := New(cfg(10, Discard, "0"), WithObserver(obs))

	called, _ := apply(p, 10)
	if called {
		t.Fatal("proceed called for discard strategy")
	}
	if len(obs.discards) != 1 || obs.discards[0] != 10 {
		t.Errorf("discards = %v, want [10]", obs.discards)
	}
}

func TestApply_DiscardOnFixedTimeout(t *testing.T) {
	obs := &recordingObserver{}
	p := New(cfg(10, DiscardOnFixedTimeout, "500"), WithObserver(obs))

	called, timeout := apply(p, 10)
	if !called {
		t.Fatal("proceed was not called")
	}
	if timeout != 500*time.Millisecond {
		t.Errorf("timeout = %v, want 500ms", timeout)
	}
	if len(obs.timeouts) != 1 {
		t.Errorf("timeout notifications = %d, want 1", len(obs.timeouts))
	}
}

func TestApply_DiscardOnPercentageTimeout(t *testing.T) {
	p := New(cfg(100, DiscardOnPercentageTimeout, "50"))

	called, timeout := apply(p, 200)
	if !called {
		t.Fatal("proceed was not called")
	}
	if timeout != 100*time.Millisecond {
		t.Errorf("timeout = %v, want 100ms (200*50/100)", timeout)
	}
}

func TestApply_Truncation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		waiting int
		want    time.Duration
	}{
		{"fixed truncates fraction", cfg(1, DiscardOnFixedTimeout, "10.99"), 1, 10 * time.Millisecond},
		{"percentage truncates", cfg(1, DiscardOnPercentageTimeout, "33.3"), 7, 2 * time.Millisecond},
		{"percentage below one", cfg(1, DiscardOnPercentageTimeout, "99.9"), 1, 0},
		// 3000*2.3/100 is 68.99999999999999 in float64; the exact result is 69.
		{"percentage exact decimal", cfg(1, DiscardOnPercentageTimeout, "2.3"), 3000, 69 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, timeout := apply(New(tt.config), tt.waiting)
			if timeout != tt.want {
				t.Errorf("timeout = %v, want %v", timeout, tt.want)
			}
		})
	}
}

func TestApply_DeferForFixedTime(t *testing.T) {
	obs := &recordingObserver{}
	w := &recordingWaiter{}
	p := New(cfg(1, DeferForFixedTime, "10"), WithObserver(obs), WithWaiter(w))

	called, timeout := apply(p, 1)
	if !called {
		t.Fatal("proceed was not called")
	}
	if timeout != Infinite {
		t.Errorf("timeout = %v, want Infinite", timeout)
	}
	if len(w.waits) != 1 || w.waits[0] != 10*time.Millisecond {
		t.Errorf("waits = %v, want [10ms]", w.waits)
	}
	if len(obs.defers) != 1 || len(obs.timeouts) != 0 {
		t.Errorf("defers = %v, timeouts = %v", obs.defers, obs.timeouts)
	}
}

func TestApply_DeferForPercentageTime(t *testing.T) {
	w := &recordingWaiter{}
	p := New(cfg(4, DeferForPercentageTime, "12.5"), WithWaiter(w))

	_, timeout := apply(p, 20)
	if timeout != Infinite {
		t.Errorf("timeout = %v, want Infinite", timeout)
	}
	if len(w.waits) != 1 || w.waits[0] != 2*time.Millisecond { // 20*12.5/100 = 2.5
		t.Errorf("waits = %v, want [2ms]", w.waits)
	}
}

func TestApply_DeferBlocksCaller(t *testing.T) {
	for _, waiter := range []Waiter{SleepWaiter{}, SpinWaiter{}} {
		p := New(cfg(1, DeferForFixedTime, "10"), WithWaiter(waiter))

		start := time.Now()
		called, timeout := apply(p, 1)
		elapsed := time.Since(start)

		if !called || timeout != Infinite {
			t.Fatalf("%T: called = %v, timeout = %v", waiter, called, timeout)
		}
		if elapsed < 10*time.Millisecond {
			t.Errorf("%T: Apply returned after %v, want >= 10ms", waiter, elapsed)
		}
	}
}

func TestWaiters_StopOnCancel(t *testing.T) {
	for _, waiter := range []Waiter{SleepWaiter{}, SpinWaiter{}} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		start := time.Now()
		waiter.Wait(ctx, time.Minute)
		cancel()

		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("%T: Wait ignored cancellation (%v)", waiter, elapsed)
		}
	}
}

func TestPolicy_UpdateNormalizes(t *testing.T) {
	p := New(DefaultConfig())
	p.Update(Config{Limit: -1, Strategy: Discard, Delay: *apd.New(-3, 0)})

	got := p.Config()
	if got.Limit != 0 || got.Strategy != None || got.Delay.Sign() != 0 {
		t.Errorf("Config() = limit %d strategy %v delay %s", got.Limit, got.Strategy, got.Delay.String())
	}
	if called, _ := apply(p, 100); !called {
		t.Error("normalized policy should not throttle")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"Discard", Discard, false},
		{"DiscardOnFixedTimeout", DiscardOnFixedTimeout, false},
		{"discard_on_percentage_timeout", DiscardOnPercentageTimeout, false},
		{"defer-for-fixed-time", DeferForFixedTime, false},
		{"DEFERFORPERCENTAGETIME", DeferForPercentageTime, false},
		{"drop-everything", None, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr {
			round, err := ParseStrategy(got.String())
			if err != nil || round != got {
				t.Errorf("ParseStrategy(%v.String()) = %v, %v", got, round, err)
			}
		}
	}
}

func TestParseDelay(t *testing.T) {
	if _, err := ParseDelay("abc"); err == nil {
		t.Error("ParseDelay(abc) should fail")
	}
	if _, err := ParseDelay("NaN"); err == nil {
		t.Error("ParseDelay(NaN) should fail")
	}
	d, err := ParseDelay("12.50")
	if err != nil {
		t.Fatalf("ParseDelay(12.50) error = %v", err)
	}
	want := apd.New(125, -1)
	if d.Cmp(want) != 0 {
		t.Errorf("ParseDelay(12.50) = %s, want 12.5", d.String())
	}
}
