package proctor

import (
	"context"
	"sync"
	"time"

	"hireflow/internal/logging"
)

// Clock abstracts time for the tracker so tests can drive the debounce
// window and teardown timer deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the cancelable handle returned by Clock.AfterFunc
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by the time package
func RealClock() Clock { return realClock{} }

// FocusSource emits focus-loss events. Subscribe registers a listener
// and returns a function that removes it; the tracker never receives
// events it did not explicitly subscribe for.
type FocusSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Reporter records one violation with the authority and returns the
// authoritative outcome.
type Reporter interface {
	ReportViolation(ctx context.Context, applicationID string) (Report, error)
}

// Config holds the tracker's tuning knobs
type Config struct {
	// Debounce is the window within which repeated focus-loss events
	// collapse into the accepted one. Zero disables debouncing.
	Debounce time.Duration
	// TeardownDelay is how long after termination the OnTeardown
	// callback fires.
	TeardownDelay time.Duration
}

// Tracker watches focus-loss events for one application, reports each
// accepted event to the authority, and folds the authoritative outcome
// into its state. Termination is absorbing; after it the tracker
// detaches from its focus source and schedules teardown.
type Tracker struct {
	applicationID string
	reporter      Reporter
	clock         Clock
	cfg           Config
	logger        logging.Logger

	// OnUpdate fires after every state change, with the new state.
	// OnTerminated fires exactly once, when the authority terminates
	// the interview. OnTeardown fires TeardownDelay after that.
	// All three are optional and must be set before Attach.
	OnUpdate     func(State)
	OnTerminated func(State)
	OnTeardown   func()

	mu            sync.Mutex
	state         State
	lastAccepted  time.Time
	teardownTimer Timer
	detach        func()
}

// NewTracker creates a tracker for the given application. A nil clock
// means the real clock.
func NewTracker(applicationID string, reporter Reporter, clock Clock, cfg Config) *Tracker {
	if clock == nil {
		clock = RealClock()
	}
	t := &Tracker{
		applicationID: applicationID,
		reporter:      reporter,
		clock:         clock,
		cfg:           cfg,
		logger:        logging.GetGlobalLogger(),
		state:         State{Status: StatusClean},
	}
	return t
}

// State returns the tracker's current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Attach subscribes the tracker to a focus source. Events observed
// before Attach or after Detach are never counted.
func (t *Tracker) Attach(ctx context.Context, source FocusSource) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.detach != nil || t.state.Status == StatusTerminated {
		return
	}
	t.detach = source.Subscribe(func() {
		t.HandleFocusLoss(ctx)
	})
}

// Detach removes the tracker's focus-source subscription, if any
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachLocked()
}

func (t *Tracker) detachLocked() {
	if t.detach != nil {
		t.detach()
		t.detach = nil
	}
}

// HandleFocusLoss processes one focus-loss event: debounce, optimistic
// increment, authoritative report, reduce. Events inside the debounce
// window and events after termination are dropped.
func (t *Tracker) HandleFocusLoss(ctx context.Context) {
	t.mu.Lock()

	if t.state.Status == StatusTerminated {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	if !t.lastAccepted.IsZero() && now.Sub(t.lastAccepted) < t.cfg.Debounce {
		t.mu.Unlock()
		return
	}
	t.lastAccepted = now

	// Optimistic: assume the authority will record the violation. The
	// authoritative response overwrites this either way.
	t.state.Count++
	if t.state.Status == StatusClean {
		t.state.Status = StatusWarned
	}
	optimistic := t.state
	t.mu.Unlock()

	t.notifyUpdate(optimistic)

	report, err := t.reporter.ReportViolation(ctx, t.applicationID)
	if err != nil {
		// Dropped, not retried: the optimistic state stands until the
		// next accepted event brings a fresh authoritative count.
		t.logger.Warn("Violation report failed", map[string]interface{}{
			"application_id": t.applicationID,
			"error":          err.Error(),
		})
		return
	}

	t.applyReport(report)
}

// applyReport folds an authoritative report into the tracker state and
// runs the termination side effects when the report terminates.
func (t *Tracker) applyReport(report Report) {
	t.mu.Lock()

	prev := t.state
	t.state = Reduce(t.state, report)
	next := t.state

	terminatedNow := prev.Status != StatusTerminated && next.Status == StatusTerminated
	if terminatedNow {
		t.detachLocked()
		if t.cfg.TeardownDelay > 0 {
			t.teardownTimer = t.clock.AfterFunc(t.cfg.TeardownDelay, func() {
				if t.OnTeardown != nil {
					t.OnTeardown()
				}
			})
		} else if t.OnTeardown != nil {
			defer t.OnTeardown()
		}
	}
	t.mu.Unlock()

	if next != prev {
		t.notifyUpdate(next)
	}
	if terminatedNow {
		t.logger.Info("Interview terminated by proctoring policy", map[string]interface{}{
			"application_id":  t.applicationID,
			"violation_count": next.Count,
		})
		if t.OnTerminated != nil {
			t.OnTerminated(next)
		}
	}
}

// Stop detaches the tracker and cancels any pending teardown timer
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detachLocked()
	if t.teardownTimer != nil {
		t.teardownTimer.Stop()
		t.teardownTimer = nil
	}
}

func (t *Tracker) notifyUpdate(state State) {
	if t.OnUpdate != nil {
		t.OnUpdate(state)
	}
}
