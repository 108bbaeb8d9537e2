package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/perfgo/uiprof/profiler"
	"github.com/perfgo/uiprof/scenario"
	"github.com/perfgo/uiprof/trace"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookCounts struct {
	setupSuite, setup, run, cleanup, cleanupSuite int
}

func countingScenario(c *hookCounts, run func(i int) error) *scenario.Scenario {
	return &scenario.Scenario{
		ID:         "counting",
		SetupSuite: func(context.Context) error { c.setupSuite++; return nil },
		Setup:      func(context.Context) error { c.setup++; return nil },
		Run: func(context.Context) error {
			i := c.run
			c.run++
			return run(i)
		},
		Cleanup:      func(context.Context) error { c.cleanup++; return nil },
		CleanupSuite: func(context.Context) error { c.cleanupSuite++; return nil },
	}
}

func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newTestRunner() *Runner {
	r := New(zerolog.Nop())
	r.now = fakeClock(2 * time.Millisecond)
	return r
}

func TestBenchmarkSuccess(t *testing.T) {
	var c hookCounts
	r := newTestRunner()

	res, err := r.Benchmark(context.Background(), countingScenario(&c, func(int) error { return nil }), 5, false)
	require.NoError(t, err)
	assert.Len(t, res.Times, 5)
	assert.Empty(t, res.Errors)
	for _, v := range res.Times {
		assert.Equal(t, 2.0, v)
	}
	assert.Equal(t, hookCounts{setupSuite: 1, setup: 5, run: 5, cleanup: 5, cleanupSuite: 1}, c)
}

func TestBenchmarkAlwaysFailing(t *testing.T) {
	var c hookCounts
	r := newTestRunner()

	res, err := r.Benchmark(context.Background(), countingScenario(&c, func(int) error { return errors.New("flaky") }), 4, false)
	require.NoError(t, err)
	assert.Empty(t, res.Times)
	require.Len(t, res.Errors, 4)
	assert.Equal(t, 3, res.Errors[3].Iteration)
	assert.Equal(t, "flaky", res.Errors[3].Message)
	assert.Equal(t, 4, c.cleanup, "cleanup runs after failed iterations")
}

func TestBenchmarkPartialFailures(t *testing.T) {
	var c hookCounts
	r := newTestRunner()

	res, err := r.Benchmark(context.Background(), countingScenario(&c, func(i int) error {
		if i%2 == 1 {
			return errors.New("odd")
		}
		return nil
	}), 5, false)
	require.NoError(t, err)
	assert.Len(t, res.Times, 3)
	assert.Len(t, res.Errors, 2)
	assert.LessOrEqual(t, len(res.Times)+len(res.Errors), 5)
}

func TestBenchmarkInSuite(t *testing.T) {
	var c hookCounts
	r := newTestRunner()

	_, err := r.Benchmark(context.Background(), countingScenario(&c, func(int) error { return nil }), 3, true)
	require.NoError(t, err)
	assert.Equal(t, hookCounts{setup: 3, run: 3, cleanup: 3}, c)
}

func TestBenchmarkOptionalHooks(t *testing.T) {
	runs := 0
	sc := &scenario.Scenario{ID: "bare", Run: func(context.Context) error { runs++; return nil }}

	res, err := newTestRunner().Benchmark(context.Background(), sc, 3, false)
	require.NoError(t, err)
	assert.Len(t, res.Times, 3)
	assert.Equal(t, 3, runs)
}

func TestBenchmarkSetupFailureAborts(t *testing.T) {
	var c hookCounts
	sc := countingScenario(&c, func(int) error { return nil })
	sc.Setup = func(context.Context) error { return errors.New("no page") }

	_, err := newTestRunner().Benchmark(context.Background(), sc, 3, false)
	require.Error(t, err)
	assert.Equal(t, 0, c.run)
	assert.Equal(t, 1, c.cleanupSuite)
}

func TestBenchmarkRequiresRun(t *testing.T) {
	_, err := newTestRunner().Benchmark(context.Background(), &scenario.Scenario{ID: "x"}, 1, false)
	require.Error(t, err)
}

// fakeProfiler produces one trace with two samples per session.
type fakeProfiler struct {
	started  int
	failStop map[int]bool
}

func (p *fakeProfiler) Interval() time.Duration { return time.Millisecond }

func (p *fakeProfiler) Start(context.Context) (profiler.Session, error) {
	p.started++
	return &fakeSession{fail: p.failStop[p.started]}, nil
}

type fakeSession struct {
	fail bool
	runs int
}

func (s *fakeSession) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.runs++
	return fn(ctx)
}

func (s *fakeSession) Stop() (*trace.Trace, error) {
	if s.fail {
		return nil, errors.New("lost trace")
	}
	b := trace.NewBuilder()
	f := b.Frame("run", "", 0, 0)
	b.Sample(0, b.StackOf([]int{f}))
	b.Sample(1.5, b.StackOf([]int{f}))
	b.Sample(float64(s.runs)*2.5, nil)
	return b.Trace(), nil
}

func TestProfileUnavailable(t *testing.T) {
	var c hookCounts
	_, err := newTestRunner().Profile(context.Background(), countingScenario(&c, func(int) error { return nil }), nil, ModeMicro, nil, 3, false)
	require.ErrorIs(t, err, profiler.ErrUnavailable)
	assert.Equal(t, hookCounts{}, c)
}

func TestProfileMicro(t *testing.T) {
	var c hookCounts
	p := &fakeProfiler{failStop: map[int]bool{2: true}}
	var steps []int

	res, err := newTestRunner().Profile(context.Background(), countingScenario(&c, func(i int) error {
		if i == 0 {
			return errors.New("first fails")
		}
		return nil
	}), p, ModeMicro, func(i int) { steps = append(steps, i) }, 3, false)
	require.NoError(t, err)

	assert.Equal(t, 3, p.started)
	assert.Len(t, res.Traces, 2, "the trace that failed to resolve is skipped")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].Iteration)
	assert.Equal(t, []int{0, 1, 2}, steps)
	assert.Equal(t, 1.0, res.SamplingInterval)
	require.NotNil(t, res.AverageSampleInterval)
	// every trace has intervals 1.5 and 1.0
	assert.InDelta(t, 1.25, *res.AverageSampleInterval, 1e-9)
	assert.Equal(t, hookCounts{setupSuite: 1, setup: 3, run: 3, cleanup: 3, cleanupSuite: 1}, c)
}

func TestProfileMacro(t *testing.T) {
	var c hookCounts
	p := &fakeProfiler{}

	res, err := newTestRunner().Profile(context.Background(), countingScenario(&c, func(int) error { return errors.New("x") }), p, ModeMacro, nil, 4, true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.started)
	require.Len(t, res.Traces, 1)
	assert.Len(t, res.Errors, 4)
	// samples at 0, 1.5 and 10
	assert.InDelta(t, 5.0, *res.AverageSampleInterval, 1e-9)
	assert.Equal(t, hookCounts{setup: 4, run: 4, cleanup: 4}, c)
}

func TestProfileNoIntervals(t *testing.T) {
	p := &fakeProfiler{failStop: map[int]bool{1: true}}
	res, err := newTestRunner().Profile(context.Background(), &scenario.Scenario{ID: "x", Run: func(context.Context) error { return nil }}, p, ModeMacro, nil, 1, false)
	require.NoError(t, err)
	assert.Empty(t, res.Traces)
	assert.Nil(t, res.AverageSampleInterval)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("macro")
	require.NoError(t, err)
	assert.Equal(t, ModeMacro, m)
	_, err = ParseMode("nano")
	require.Error(t, err)
}

func TestProfileWithSampler(t *testing.T) {
	sc := &scenario.Scenario{ID: "sleep", Run: func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	}}
	p := profiler.NewSampler(zerolog.Nop(), time.Millisecond)

	res, err := New(zerolog.Nop()).Profile(context.Background(), sc, p, ModeMicro, nil, 2, false)
	require.NoError(t, err)
	assert.Len(t, res.Traces, 2)
}
