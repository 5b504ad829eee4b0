package daemon

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of vault change events into a single publish
// trigger. A trigger fires once the vault has been quiet for the quiet
// window, or once maxDelay has elapsed since the first event of a burst,
// whichever comes first. The max delay bounds staleness during sustained
// editing sessions.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	fire     func(count int)
}

// NewDebouncer creates a debouncer that calls fire with the number of
// coalesced events each time a burst settles.
func NewDebouncer(quiet, maxDelay time.Duration, fire func(count int)) *Debouncer {
	return &Debouncer{quiet: quiet, maxDelay: maxDelay, fire: fire}
}

// Run consumes events until ctx is canceled or the channel closes. It never
// fires concurrently with itself; fire runs on the debouncer's goroutine.
func (d *Debouncer) Run(ctx context.Context, events <-chan string) {
	quietTimer := newStoppedTimer()
	defer quietTimer.Stop()
	maxTimer := newStoppedTimer()
	defer maxTimer.Stop()

	// The channel arms are nil while no burst is pending so their cases
	// never fire spuriously.
	var quietC, maxC <-chan time.Time
	count := 0

	emit := func() {
		d.fire(count)
		count = 0
		quietC = nil
		maxC = nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-events:
			if !ok {
				return
			}
			count++
			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C
			if count == 1 {
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			maxTimer.Stop()
			drainTimer(maxTimer)
			emit()

		case <-maxC:
			quietTimer.Stop()
			drainTimer(quietTimer)
			emit()
		}
	}
}

// newStoppedTimer returns a timer that will not fire until reset.
func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	drainTimer(t)
	return t
}

// resetTimer safely resets a timer that may have fired or been stopped.
func resetTimer(t *time.Timer, after time.Duration) {
	t.Stop()
	drainTimer(t)
	t.Reset(after)
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
