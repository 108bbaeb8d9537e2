package selfprofile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/profiler"
	"github.com/perfgo/uiprof/runner"
	"github.com/perfgo/uiprof/scenario"
	"github.com/perfgo/uiprof/trace"
)

type fakeRunner struct {
	result  *model.ProfileResult
	err     error
	mode    runner.Mode
	inSuite bool
}

func (r *fakeRunner) Profile(ctx context.Context, sc *scenario.Scenario, p profiler.Profiler, mode runner.Mode, onMicroStep func(i int), n int, inSuite bool) (*model.ProfileResult, error) {
	r.mode = mode
	r.inSuite = inSuite
	return r.result, r.err
}

func noop(ctx context.Context) error { return nil }

func TestRun(t *testing.T) {
	doc, err := document.Parse(`<html><body><div><p>a</p><p>b</p></div></body></html>`)
	require.NoError(t, err)

	fr := &fakeRunner{result: &model.ProfileResult{
		Traces:           []*trace.Trace{{}},
		Errors:           []*model.IterationError{},
		SamplingInterval: 1,
	}}
	b := New(zerolog.Nop(), fr, nil, doc)
	clock := time.Unix(0, 0)
	b.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	report, err := b.Run(context.Background(), &scenario.Scenario{ID: "s", Run: noop}, runner.ModeMacro, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, runner.ModeMacro, fr.mode)
	assert.False(t, fr.inSuite)
	assert.Equal(t, "s", report.Scenario)
	assert.Equal(t, "macro", report.Mode)
	assert.Equal(t, 3, report.Repeats)
	assert.Len(t, report.Traces, 1)
	assert.InDelta(t, 250.0, report.Duration, 1e-9)
	assert.Equal(t, 2, report.TagCounts["p"])
	assert.Equal(t, 1, report.TagCounts["body"])
}

func TestRunWithoutDocument(t *testing.T) {
	fr := &fakeRunner{result: &model.ProfileResult{}}
	report, err := New(zerolog.Nop(), fr, nil, nil).Run(context.Background(), &scenario.Scenario{ID: "s", Run: noop}, runner.ModeMicro, 1, nil)
	require.NoError(t, err)
	assert.NotNil(t, report.TagCounts)
	assert.Empty(t, report.TagCounts)
}

func TestRunPropagatesUnavailable(t *testing.T) {
	fr := &fakeRunner{err: profiler.ErrUnavailable}
	_, err := New(zerolog.Nop(), fr, nil, nil).Run(context.Background(), &scenario.Scenario{ID: "s", Run: noop}, runner.ModeMicro, 1, nil)
	assert.True(t, errors.Is(err, profiler.ErrUnavailable))
}

func TestRunWithSampler(t *testing.T) {
	sc := &scenario.Scenario{
		ID: "sleep",
		Run: func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		},
	}
	p := profiler.NewSampler(zerolog.Nop(), time.Millisecond)
	steps := 0
	report, err := New(zerolog.Nop(), runner.New(zerolog.Nop()), p, nil).
		Run(context.Background(), sc, runner.ModeMicro, 2, func(int) { steps++ })
	require.NoError(t, err)

	assert.Equal(t, 2, steps)
	assert.Len(t, report.Traces, 2)
	assert.Empty(t, report.Errors)
	assert.InDelta(t, 1.0, report.SamplingInterval, 1e-9)
	assert.Greater(t, report.Duration, 0.0)
}
