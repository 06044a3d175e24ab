package workflow

import "strings"

// Decisions returned by DecideNext.
const (
	// DecisionEnd terminates the session; the current draft is final.
	DecisionEnd = "end"

	// DecisionRevise sends the draft back for another revision pass.
	DecisionRevise = "revise"
)

// RevisionCeiling is the highest revision number that still permits
// another pass. Once RevisionNumber exceeds it the session ends no
// matter what the critique says.
const RevisionCeiling = 3

// ApprovalMarker is the token the critic emits to accept a draft.
// Matched case-insensitively anywhere in the critique.
const ApprovalMarker = "APPROVED"

// DecideNext determines whether the session ends or revises after a
// critic evaluation.
//
// Rules, in order:
//  1. RevisionNumber above RevisionCeiling ends the session,
//     regardless of the critique text.
//  2. A critique containing ApprovalMarker (any case) ends the
//     session. An empty critique never matches.
//  3. Otherwise the draft goes back for revision.
//
// DecideNext is a pure function of the state.
func DecideNext(state SessionState) string {
	if state.RevisionNumber > RevisionCeiling {
		return DecisionEnd
	}
	if strings.Contains(strings.ToUpper(state.Critique), ApprovalMarker) {
		return DecisionEnd
	}
	return DecisionRevise
}
