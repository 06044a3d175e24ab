package flow

import (
	"context"
	"fmt"
	"time"
)

// runNodeWithTimeout wraps node execution with deadline enforcement.
//
// With a zero timeout the node runs directly against the parent
// context. Otherwise the node runs under a derived deadline context;
// exceeding it yields an EngineError with code NODE_TIMEOUT.
//
// The node's own result is returned alongside the timeout error so
// callers can still inspect partial output when diagnosing.
func runNodeWithTimeout[S any](
	ctx context.Context,
	node Node[S],
	nodeID string,
	state S,
	timeout time.Duration,
) (NodeResult[S], error) {
	if timeout == 0 {
		return node.Run(ctx, state), nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := node.Run(timeoutCtx, state)

	if timeoutCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return result, &EngineError{
			Message: fmt.Sprintf("node %s exceeded timeout of %v", nodeID, timeout),
			Code:    "NODE_TIMEOUT",
		}
	}

	return result, nil
}
