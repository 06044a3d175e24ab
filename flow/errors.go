package flow

// EngineError is a structured error from engine operations.
//
// Code is a stable machine-readable identifier. Codes the engine
// produces:
//
//	DUPLICATE_NODE          Add called twice with the same ID
//	NODE_NOT_FOUND          routing target or start node missing
//	NO_START_NODE           Run called before StartAt
//	MISSING_REDUCER         engine constructed without a reducer
//	MISSING_STORE           engine constructed without a store
//	MAX_STEPS_EXCEEDED      run exceeded the configured step limit
//	NODE_TIMEOUT            node exceeded its execution timeout
//	NO_ROUTE                no explicit route and no matching edge
//	STATE_COPY_FAILED       state could not be deep-copied
//	STORE_ERROR             persisting a step failed
//	RUN_NOT_FOUND           checkpoint requested for an unknown run
//	CHECKPOINT_NOT_FOUND    resume requested from an unknown checkpoint
//	CHECKPOINT_SAVE_FAILED  persisting a checkpoint failed
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
