package server

import (
	"sync"

	"github.com/Cyclone1070/codeshell/internal/tool/shell"
)

// DefaultMaxRuns is how many runs an OutputBuffer keeps before evicting
// finished ones.
const DefaultMaxRuns = 64

// DefaultMaxEvents is how many events an OutputBuffer keeps per run. Older
// events are dropped first.
const DefaultMaxEvents = 10000

type runOutput struct {
	events []shell.CommandOutput
	base   int // offset of events[0]; everything before it was dropped
	done   bool
}

// OutputBuffer collects command output per run so clients can poll it.
// It implements shell.EventSink.
type OutputBuffer struct {
	mu        sync.Mutex
	runs      map[string]*runOutput
	order     []string
	maxRuns   int
	maxEvents int
}

// NewOutputBuffer creates a buffer holding at most maxRuns runs
// (DefaultMaxRuns when maxRuns <= 0) and at most maxEvents events per run
// (DefaultMaxEvents when maxEvents <= 0). Runs still in progress are never
// evicted. Offsets keep counting across dropped events.
func NewOutputBuffer(maxRuns, maxEvents int) *OutputBuffer {
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &OutputBuffer{
		runs:      make(map[string]*runOutput),
		maxRuns:   maxRuns,
		maxEvents: maxEvents,
	}
}

// Emit records an event under its run id.
func (b *OutputBuffer) Emit(event shell.CommandOutput) {
	if event.RunID == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	run, ok := b.runs[event.RunID]
	if !ok {
		run = &runOutput{}
		b.runs[event.RunID] = run
		b.order = append(b.order, event.RunID)
		b.evict()
	}
	run.events = append(run.events, event)
	if over := len(run.events) - b.maxEvents; over > 0 {
		clear(run.events[:over])
		run.events = run.events[over:]
		run.base += over
	}
	if event.IsFinal {
		run.done = true
	}
}

// evict drops the oldest finished runs while over capacity. Callers hold mu.
func (b *OutputBuffer) evict() {
	for i := 0; len(b.order) > b.maxRuns && i < len(b.order); {
		id := b.order[i]
		if b.runs[id].done {
			delete(b.runs, id)
			b.order = append(b.order[:i], b.order[i+1:]...)
			continue
		}
		i++
	}
}

// Chunk is a slice of a run's output returned by Read.
type Chunk struct {
	Events  []shell.CommandOutput
	Next    int  // offset to pass to the following Read
	Dropped int  // events between offset and Events[0] that are no longer kept
	Done    bool // the final event has been recorded
}

// Read returns the events of runID starting at offset. The bool is false when
// the run is unknown.
func (b *OutputBuffer) Read(runID string, offset int) (Chunk, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	run, ok := b.runs[runID]
	if !ok {
		return Chunk{}, false
	}
	end := run.base + len(run.events)
	offset = max(offset, 0)
	offset = min(offset, end)

	var dropped int
	if offset < run.base {
		dropped = run.base - offset
		offset = run.base
	}
	events := make([]shell.CommandOutput, end-offset)
	copy(events, run.events[offset-run.base:])
	return Chunk{Events: events, Next: end, Dropped: dropped, Done: run.done}, true
}
