package emit

// Emitter receives observability events from flow execution.
//
// Implementations plug the engine into a backend: a log writer, an
// in-memory buffer for tests, an OpenTelemetry tracer. They must not
// block the run and must not panic; delivery failures are handled
// internally (dropped or logged), never surfaced to the workflow.
type Emitter interface {
	// Emit delivers one event to the backend. Called from the engine
	// loop after every lifecycle point, so it should return quickly.
	Emit(event Event)
}

// MultiEmitter fans a single event stream out to several backends,
// typically a LogEmitter for the console plus an OTelEmitter for
// traces. Emitters are invoked in order.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates a MultiEmitter over the given backends.
// Nil entries are skipped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit forwards the event to every configured backend.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
