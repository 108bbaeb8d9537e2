// Package profiler provides the sampling profiler used by the profile
// runner. A session attributes work to itself by running it through
// Session.Run and produces one trace when stopped.
package profiler

import (
	"context"
	"errors"
	"time"

	"github.com/perfgo/uiprof/trace"
)

// ErrUnavailable is returned when no sampling profiler can be started in
// the current environment.
var ErrUnavailable = errors.New("sampling profiler is not available")

// Profiler starts sampling sessions.
type Profiler interface {
	// Interval returns the configured sampling interval.
	Interval() time.Duration
	// Start begins a new session.
	Start(ctx context.Context) (Session, error)
}

// Session is one running profiler session.
type Session interface {
	// Run executes fn so that its stacks are attributed to the session.
	Run(ctx context.Context, fn func(ctx context.Context) error) error
	// Stop ends sampling and returns the collected trace.
	Stop() (*trace.Trace, error)
}
