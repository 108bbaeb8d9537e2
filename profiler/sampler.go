package profiler

// sampler.go implements a Profiler on top of the runtime goroutine profile.
// Work run through a session carries a pprof label; every interval the
// goroutine profile is captured and the stack of the labelled goroutine is
// appended to the trace. Samples where the goroutine is not found are
// recorded as idle.

import (
	"bytes"
	"context"
	"fmt"
	"runtime/pprof"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/pprof/profile"
	"github.com/perfgo/uiprof/trace"
	"github.com/rs/zerolog"
)

const sessionLabel = "uiprof_session"

// Sampler samples goroutine stacks at a fixed interval.
type Sampler struct {
	logger   zerolog.Logger
	interval time.Duration
	sessions atomic.Uint64
}

// NewSampler creates a sampler with the given interval.
func NewSampler(logger zerolog.Logger, interval time.Duration) *Sampler {
	return &Sampler{
		logger:   logger,
		interval: interval,
	}
}

// Interval returns the configured sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Start begins sampling in a background goroutine.
func (s *Sampler) Start(ctx context.Context) (Session, error) {
	if s.interval <= 0 {
		return nil, fmt.Errorf("%w: invalid sampling interval %s", ErrUnavailable, s.interval)
	}
	goroutines := pprof.Lookup("goroutine")
	if goroutines == nil {
		return nil, fmt.Errorf("%w: goroutine profile missing", ErrUnavailable)
	}

	sess := &samplerSession{
		logger:     s.logger,
		id:         strconv.FormatUint(s.sessions.Add(1), 10),
		interval:   s.interval,
		goroutines: goroutines,
		builder:    trace.NewBuilder(),
		start:      time.Now(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go sess.loop()

	s.logger.Debug().
		Str("session", sess.id).
		Dur("interval", s.interval).
		Msg("Started sampling session")
	return sess, nil
}

type samplerSession struct {
	logger     zerolog.Logger
	id         string
	interval   time.Duration
	goroutines *pprof.Profile
	builder    *trace.Builder
	start      time.Time
	buf        bytes.Buffer

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	err      error
}

func (s *samplerSession) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	pprof.Do(ctx, pprof.Labels(sessionLabel, s.id), func(ctx context.Context) {
		err = fn(ctx)
	})
	return err
}

func (s *samplerSession) Stop() (*trace.Trace, error) {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done

	t := s.builder.Trace()
	s.logger.Debug().
		Str("session", s.id).
		Int("samples", len(t.Samples)).
		Int("frames", len(t.Frames)).
		Msg("Stopped sampling session")
	return t, s.err
}

func (s *samplerSession) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			if err := s.sample(now); err != nil {
				s.err = fmt.Errorf("failed to sample goroutines: %w", err)
				return
			}
		}
	}
}

func (s *samplerSession) sample(now time.Time) error {
	s.buf.Reset()
	if err := s.goroutines.WriteTo(&s.buf, 0); err != nil {
		return err
	}
	prof, err := profile.Parse(&s.buf)
	if err != nil {
		return err
	}

	timestamp := float64(now.Sub(s.start)) / float64(time.Millisecond)
	for _, sample := range prof.Sample {
		if !hasLabel(sample, s.id) {
			continue
		}
		s.builder.Sample(timestamp, s.builder.StackOf(s.frames(sample)))
		return nil
	}
	s.builder.Sample(timestamp, nil)
	return nil
}

// frames interns the stack of a goroutine sample, root first. Inlined
// calls are expanded into their own frames.
func (s *samplerSession) frames(sample *profile.Sample) []int {
	var leafFirst []int
	for _, loc := range sample.Location {
		for _, line := range loc.Line {
			if line.Function == nil {
				continue
			}
			fn := line.Function
			leafFirst = append(leafFirst, s.builder.Frame(fn.Name, fn.Filename, int(fn.StartLine), 0))
		}
	}
	rootFirst := make([]int, len(leafFirst))
	for i, id := range leafFirst {
		rootFirst[len(leafFirst)-1-i] = id
	}
	return rootFirst
}

func hasLabel(sample *profile.Sample, id string) bool {
	for _, v := range sample.Label[sessionLabel] {
		if v == id {
			return true
		}
	}
	return false
}
