package trace

import (
	"sort"

	"github.com/perfgo/uiprof/stats"
)

// FrameTiming aggregates the executions of one function across traces.
type FrameTiming struct {
	Name     string `json:"name"`
	Resource string `json:"resource,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	// Number of reconstructed executions
	Count int `json:"count"`
	// Sum of execution durations over all traces (ms)
	Total float64 `json:"total"`
	// Interquartile mean of the per-trace totals (ms)
	IQM float64 `json:"iqm"`
	// Totals per trace, zero for traces the frame does not appear in
	PerTrace []float64 `json:"perTrace"`
}

type frameIdentity struct {
	name     string
	resource string
	line     int
	column   int
}

// Aggregate reduces traces into one row per function. Frames from
// different traces are matched by name and source location, since frame
// ids are local to a trace. Rows are ordered by descending total.
func Aggregate(traces []*Trace) ([]FrameTiming, error) {
	rows := make(map[frameIdentity]*FrameTiming)
	var order []frameIdentity

	for i, t := range traces {
		it := IterateFrames(t)
		for fe := range it.All() {
			frame := t.Frames[fe.FrameID]
			key := frameIdentity{name: frame.Name, resource: t.Resource(frame), line: frame.Line, column: frame.Column}
			row, ok := rows[key]
			if !ok {
				row = &FrameTiming{
					Name:     key.name,
					Resource: key.resource,
					Line:     key.line,
					Column:   key.column,
					PerTrace: make([]float64, len(traces)),
				}
				rows[key] = row
				order = append(order, key)
			}
			row.Count++
			row.Total += fe.Duration
			row.PerTrace[i] += fe.Duration
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
	}

	result := make([]FrameTiming, 0, len(order))
	for _, key := range order {
		row := rows[key]
		row.IQM = stats.InterQuartileMean(append([]float64(nil), row.PerTrace...))
		result = append(result, *row)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Total > result[j].Total
	})
	return result, nil
}
