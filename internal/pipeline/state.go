// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// State is a pipeline run state. A run moves
// start → resolving → resolved → fetching → fetched → rendering → done,
// or ends in aborted (resolution failed) or render_failed.
type State string

const (
	StateStart        State = "start"
	StateResolving    State = "resolving"
	StateResolved     State = "resolved"
	StateFetching     State = "fetching"
	StateFetched      State = "fetched"
	StateRendering    State = "rendering"
	StateDone         State = "done"
	StateAborted      State = "aborted"
	StateRenderFailed State = "render_failed"
)

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted || s == StateRenderFailed
}

// Failed reports whether s is a terminal failure state.
func (s State) Failed() bool {
	return s == StateAborted || s == StateRenderFailed
}

var transitions = map[State][]State{
	StateStart:     {StateResolving},
	StateResolving: {StateResolved, StateAborted},
	StateResolved:  {StateFetching},
	StateFetching:  {StateFetched},
	StateFetched:   {StateRendering},
	StateRendering: {StateDone, StateRenderFailed},
}

// CanTransition reports whether a run in state from may move to state to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
