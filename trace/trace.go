package trace

// trace.go contains the sampling profiler trace model. The JSON shape
// follows the JS Self-Profiling API so traces captured in a browser can be
// loaded next to the ones produced by the Go sampler.

import "fmt"

// Trace is the output of one profiler session.
type Trace struct {
	Frames    []Frame  `json:"frames"`
	Resources []string `json:"resources"`
	Samples   []Sample `json:"samples"`
	Stacks    []Stack  `json:"stacks"`
}

// Frame is a function seen in at least one sampled stack.
type Frame struct {
	Name string `json:"name"`
	// Index into Trace.Resources, nil when the source is unknown
	ResourceID *int `json:"resourceId,omitempty"`
	Line       int  `json:"line,omitempty"`
	Column     int  `json:"column,omitempty"`
}

// Stack is one node of the stack tree. A stack without a parent is a root.
type Stack struct {
	ParentID *int `json:"parentId,omitempty"`
	FrameID  int  `json:"frameId"`
}

// Sample is a timestamped (milliseconds) snapshot of the active stack.
// A sample without a stack means the sampled thread was idle.
type Sample struct {
	Timestamp float64 `json:"timestamp"`
	StackID   *int    `json:"stackId,omitempty"`
}

// Resource returns the resource name of a frame, or "".
func (t *Trace) Resource(frame Frame) string {
	if frame.ResourceID == nil || *frame.ResourceID < 0 || *frame.ResourceID >= len(t.Resources) {
		return ""
	}
	return t.Resources[*frame.ResourceID]
}

// FrameChain returns the frame ids of a stack from the leaf to the root.
func (t *Trace) FrameChain(stackID *int) ([]int, error) {
	var chain []int
	for id := stackID; id != nil; id = t.Stacks[*id].ParentID {
		if *id < 0 || *id >= len(t.Stacks) {
			return nil, fmt.Errorf("stack %d out of range (%d stacks)", *id, len(t.Stacks))
		}
		if len(chain) > len(t.Stacks) {
			return nil, fmt.Errorf("stack %d has a cyclic parent chain", *stackID)
		}
		frameID := t.Stacks[*id].FrameID
		if frameID < 0 || frameID >= len(t.Frames) {
			return nil, fmt.Errorf("stack %d references frame %d out of range (%d frames)", *id, frameID, len(t.Frames))
		}
		chain = append(chain, frameID)
	}
	return chain, nil
}

// SampleIntervals returns the deltas between consecutive sample timestamps.
func SampleIntervals(t *Trace) []float64 {
	if len(t.Samples) < 2 {
		return nil
	}
	intervals := make([]float64, 0, len(t.Samples)-1)
	for i := 1; i < len(t.Samples); i++ {
		intervals = append(intervals, t.Samples[i].Timestamp-t.Samples[i-1].Timestamp)
	}
	return intervals
}

// Builder appends to the trace tables, interning resources, frames and
// stacks so equal entries share one index.
type Builder struct {
	trace     *Trace
	resources map[string]int
	frames    map[frameKey]int
	stacks    map[stackKey]int
}

type frameKey struct {
	name     string
	resource int
	line     int
	column   int
}

type stackKey struct {
	parent int
	frame  int
}

// NewBuilder creates an empty trace builder.
func NewBuilder() *Builder {
	return &Builder{
		trace: &Trace{
			Frames:    []Frame{},
			Resources: []string{},
			Samples:   []Sample{},
			Stacks:    []Stack{},
		},
		resources: make(map[string]int),
		frames:    make(map[frameKey]int),
		stacks:    make(map[stackKey]int),
	}
}

// Resource returns the index of a resource, adding it when new.
func (b *Builder) Resource(name string) int {
	if id, ok := b.resources[name]; ok {
		return id
	}
	id := len(b.trace.Resources)
	b.trace.Resources = append(b.trace.Resources, name)
	b.resources[name] = id
	return id
}

// Frame returns the index of a frame, adding it when new. An empty
// resource leaves the frame without a resource reference.
func (b *Builder) Frame(name, resource string, line, column int) int {
	key := frameKey{name: name, resource: -1, line: line, column: column}
	var resourceID *int
	if resource != "" {
		id := b.Resource(resource)
		key.resource = id
		resourceID = &id
	}
	if id, ok := b.frames[key]; ok {
		return id
	}
	id := len(b.trace.Frames)
	b.trace.Frames = append(b.trace.Frames, Frame{Name: name, ResourceID: resourceID, Line: line, Column: column})
	b.frames[key] = id
	return id
}

// Stack returns the index of the stack made of frame on top of parent.
func (b *Builder) Stack(parent *int, frame int) int {
	key := stackKey{parent: -1, frame: frame}
	if parent != nil {
		key.parent = *parent
	}
	if id, ok := b.stacks[key]; ok {
		return id
	}
	id := len(b.trace.Stacks)
	var parentID *int
	if parent != nil {
		p := *parent
		parentID = &p
	}
	b.trace.Stacks = append(b.trace.Stacks, Stack{ParentID: parentID, FrameID: frame})
	b.stacks[key] = id
	return id
}

// StackOf interns a whole stack given as frame ids from root to leaf and
// returns the leaf stack index, or nil for an empty stack.
func (b *Builder) StackOf(framesRootFirst []int) *int {
	var top *int
	for _, frame := range framesRootFirst {
		id := b.Stack(top, frame)
		top = &id
	}
	return top
}

// Sample appends a sample.
func (b *Builder) Sample(timestamp float64, stackID *int) {
	b.trace.Samples = append(b.trace.Samples, Sample{Timestamp: timestamp, StackID: stackID})
}

// Trace returns the built trace. The builder must not be used afterwards.
func (b *Builder) Trace() *Trace {
	return b.trace
}
