package trace

// pprof.go converts traces to pprof profiles so runs can be inspected with
// go tool pprof.

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"
	"github.com/perfgo/uiprof/stats"
)

const nanosPerMilli = 1e6

// ToProfile converts a trace into a pprof profile with a sample count and a
// wall time value per sample. Each sample is weighted with the time until
// the next sample; the last one gets the average interval.
func ToProfile(t *Trace) (*profile.Profile, error) {
	intervals := SampleIntervals(t)
	avg := stats.Mean(intervals)
	if len(intervals) == 0 {
		avg = 0
	}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "wall", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		Period:     int64(avg * nanosPerMilli),
	}
	if n := len(t.Samples); n > 1 {
		prof.DurationNanos = int64((t.Samples[n-1].Timestamp - t.Samples[0].Timestamp) * nanosPerMilli)
	}

	locations := make(map[int]*profile.Location, len(t.Frames))
	location := func(frameID int) *profile.Location {
		if loc, ok := locations[frameID]; ok {
			return loc
		}
		frame := t.Frames[frameID]
		fn := &profile.Function{
			ID:        uint64(len(prof.Function) + 1),
			Name:      frame.Name,
			Filename:  t.Resource(frame),
			StartLine: int64(frame.Line),
		}
		prof.Function = append(prof.Function, fn)

		loc := &profile.Location{
			ID:   uint64(len(prof.Location) + 1),
			Line: []profile.Line{{Function: fn, Line: int64(frame.Line)}},
		}
		locations[frameID] = loc
		prof.Location = append(prof.Location, loc)
		return loc
	}

	for i, sample := range t.Samples {
		if sample.StackID == nil {
			continue
		}
		chain, err := t.FrameChain(sample.StackID)
		if err != nil {
			return nil, err
		}
		weight := avg
		if i < len(intervals) {
			weight = intervals[i]
		}

		stack := make([]*profile.Location, 0, len(chain))
		for _, frameID := range chain {
			if frameID < 0 || frameID >= len(t.Frames) {
				return nil, fmt.Errorf("frame %d out of range (%d frames)", frameID, len(t.Frames))
			}
			stack = append(stack, location(frameID))
		}
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: stack,
			Value:    []int64{1, int64(weight * nanosPerMilli)},
		})
	}

	return prof, nil
}

// WriteProfile writes the traces as one gzipped pprof profile. Multiple
// traces are merged.
func WriteProfile(w io.Writer, traces []*Trace) error {
	profiles := make([]*profile.Profile, 0, len(traces))
	for _, t := range traces {
		prof, err := ToProfile(t)
		if err != nil {
			return fmt.Errorf("failed to convert trace: %w", err)
		}
		profiles = append(profiles, prof)
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no traces to write")
	}

	merged, err := profile.Merge(profiles)
	if err != nil {
		return fmt.Errorf("failed to merge profiles: %w", err)
	}
	if err := merged.Write(w); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
