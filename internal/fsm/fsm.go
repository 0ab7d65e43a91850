package fsm

import "fmt"

type State string

type Event string

const (
	StatePresenting State = "presenting"
	StateRecording  State = "recording"
	StateSubmitting State = "submitting"
	StateAwaiting   State = "awaiting"
	StateScored     State = "scored"
	StateError      State = "error"
)

const (
	EventRecord    Event = "record"
	EventStop      Event = "stop"
	EventDiscard   Event = "discard"
	EventSubmitted Event = "submitted"
	EventScored    Event = "scored"
	EventNoResult  Event = "no_result"
	EventFail      Event = "fail"
	EventReset     Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StatePresenting:
		switch event {
		case EventRecord:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateSubmitting, nil
		case EventDiscard:
			return StatePresenting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSubmitting:
		switch event {
		case EventSubmitted:
			return StateAwaiting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaiting:
		switch event {
		case EventScored:
			return StateScored, nil
		case EventNoResult:
			return StatePresenting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateScored:
		return current, invalidTransition(current, event)
	case StateError:
		switch event {
		case EventReset:
			return StatePresenting, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
