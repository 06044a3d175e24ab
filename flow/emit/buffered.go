package emit

import "sync"

// BufferedEmitter stores events in memory, keyed by runID, and offers
// query helpers over the captured history. It is the emitter tests and
// post-run analysis use: run a session, then inspect exactly which
// nodes fired and what they decided.
//
// Everything stays in memory, so long-lived processes should Clear
// finished runs.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events in emit order
}

// HistoryFilter selects a subset of a run's events. Empty or nil
// fields match everything; set fields combine with AND.
type HistoryFilter struct {
	NodeID  string // match events from this node
	Msg     string // match this event label, e.g. "routing_decision"
	MinStep *int   // events with Step >= MinStep
	MaxStep *int   // events with Step <= MaxStep
}

// NewBufferedEmitter creates an empty BufferedEmitter. Safe for
// concurrent use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit appends the event to the history of its run.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory returns all events for runID in emit order. The returned
// slice is a copy; mutating it does not affect the buffer. Returns an
// empty slice for unknown runs.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	if events == nil {
		return []Event{}
	}

	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// GetHistoryWithFilter returns the events for runID that match every
// set field of the filter, in emit order.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	if events == nil {
		return []Event{}
	}

	if filter.NodeID == "" && filter.Msg == "" && filter.MinStep == nil && filter.MaxStep == nil {
		result := make([]Event, len(events))
		copy(result, events)
		return result
	}

	var result []Event
	for _, event := range events {
		if !matchesFilter(event, filter) {
			continue
		}
		result = append(result, event)
	}

	if result == nil {
		return []Event{}
	}
	return result
}

func matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.NodeID != "" && event.NodeID != filter.NodeID {
		return false
	}
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinStep != nil && event.Step < *filter.MinStep {
		return false
	}
	if filter.MaxStep != nil && event.Step > *filter.MaxStep {
		return false
	}
	return true
}

// Clear drops stored events. A non-empty runID clears that run only;
// an empty runID clears everything.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, runID)
	}
}
