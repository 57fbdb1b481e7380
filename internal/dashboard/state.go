package dashboard

import "fmt"

// State is the session's position in the upload, analyze and review cycle.
type State string

const (
	StateIdle        State = "idle"
	StateFileLoaded  State = "file-loaded"
	StateAnalyzing   State = "analyzing"
	StateResultShown State = "result-shown"
	StateErrorShown  State = "error-shown"
)

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateIdle:        {StateFileLoaded},
	StateFileLoaded:  {StateFileLoaded, StateAnalyzing, StateIdle},
	StateAnalyzing:   {StateResultShown, StateErrorShown},
	StateResultShown: {StateAnalyzing, StateFileLoaded, StateIdle},
	StateErrorShown:  {StateAnalyzing, StateFileLoaded, StateIdle},
}

// TransitionError is returned when an operation is not allowed in the current state.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
