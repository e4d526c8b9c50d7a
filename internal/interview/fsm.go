package interview

import "fmt"

// State is the orchestrator lifecycle phase. AwaitingAnswer and Recording
// alternate freely; both belong to the answering super-state.
type State string

// Event is a transition trigger.
type Event string

const (
	StateLoading        State = "loading"
	StateAuthorizing    State = "authorizing"
	StateAwaitingAnswer State = "awaiting_answer"
	StateRecording      State = "recording"
	StateAdvancing      State = "advancing"
	StateSaving         State = "saving"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

const (
	EventSessionLoaded Event = "session_loaded"
	EventAuthorized    Event = "authorized"
	EventRecordStart   Event = "record_start"
	EventRecordStop    Event = "record_stop"
	EventAdvance       Event = "advance"
	EventPersist       Event = "persist"
	EventPersisted     Event = "persisted"
	EventPersistFailed Event = "persist_failed"
	EventComplete      Event = "complete"
	EventFail          Event = "fail"
)

// Transition applies one event to a state. EventFail is terminal from
// anywhere; Completed and Failed accept nothing further.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateFailed, nil
	}

	switch current {
	case StateLoading:
		switch event {
		case EventSessionLoaded:
			return StateAuthorizing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAuthorizing:
		switch event {
		case EventAuthorized:
			return StateAwaitingAnswer, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingAnswer:
		switch event {
		case EventRecordStart:
			return StateRecording, nil
		case EventAdvance:
			return StateAdvancing, nil
		case EventComplete:
			return StateCompleted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventRecordStop:
			return StateAwaitingAnswer, nil
		case EventAdvance:
			return StateAdvancing, nil
		case EventComplete:
			return StateCompleted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAdvancing:
		switch event {
		case EventPersist:
			return StateSaving, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSaving:
		switch event {
		case EventPersisted:
			return StateAwaitingAnswer, nil
		case EventPersistFailed:
			return StateAwaitingAnswer, nil
		case EventComplete:
			return StateCompleted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCompleted, StateFailed:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
