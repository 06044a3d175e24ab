package emit

// NullEmitter discards every event. Useful when a run should produce
// no observability output at all, for example in benchmarks or quiet
// batch jobs.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}
