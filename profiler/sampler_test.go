package profiler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func spinUntil(deadline time.Time) int {
	n := 0
	for time.Now().Before(deadline) {
		n++
	}
	return n
}

func TestSamplerUnavailable(t *testing.T) {
	s := NewSampler(zerolog.Nop(), 0)
	_, err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestSamplerCollectsLabelledStacks(t *testing.T) {
	s := NewSampler(zerolog.Nop(), 2*time.Millisecond)
	assert.Equal(t, 2*time.Millisecond, s.Interval())

	sess, err := s.Start(context.Background())
	require.NoError(t, err)

	runErr := errors.New("boom")
	err = sess.Run(context.Background(), func(ctx context.Context) error {
		spinUntil(time.Now().Add(150 * time.Millisecond))
		return runErr
	})
	assert.Equal(t, runErr, err)

	tr, err := sess.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, tr.Samples)

	found := false
	for _, f := range tr.Frames {
		if strings.HasSuffix(f.Name, "spinUntil") {
			found = true
		}
	}
	assert.True(t, found, "expected the spinning function among the sampled frames")

	for i := 1; i < len(tr.Samples); i++ {
		assert.GreaterOrEqual(t, tr.Samples[i].Timestamp, tr.Samples[i-1].Timestamp)
	}
}

func TestSamplerIdleSamples(t *testing.T) {
	s := NewSampler(zerolog.Nop(), time.Millisecond)
	sess, err := s.Start(context.Background())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	tr, err := sess.Stop()
	require.NoError(t, err)
	for _, sample := range tr.Samples {
		assert.Nil(t, sample.StackID)
	}

	// stopping twice is harmless
	_, err = sess.Stop()
	require.NoError(t, err)
}
