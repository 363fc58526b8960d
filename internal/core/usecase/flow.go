package usecase

import (
	"fmt"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

var flowTransitions = map[domain.FlowState][]domain.FlowState{
	domain.StateIdle:             {domain.StateFileReceived},
	domain.StateFileReceived:     {domain.StateValidationFailed, domain.StateValidated},
	domain.StateValidated:        {domain.StatePredictionFailed, domain.StatePredicted},
	domain.StatePredicted:        {domain.StateReported},
	domain.StateValidationFailed: {domain.StateFileReceived},
	domain.StatePredictionFailed: {domain.StateFileReceived},
	domain.StateReported:         {domain.StateFileReceived},
}

// Flow tracks one submission through the screening states.
// A terminal state only moves on when a new file is received.
type Flow struct {
	state domain.FlowState
}

func NewFlow() *Flow {
	return &Flow{state: domain.StateIdle}
}

func (f *Flow) State() domain.FlowState {
	return f.state
}

func (f *Flow) Advance(next domain.FlowState) error {
	for _, allowed := range flowTransitions[f.state] {
		if allowed == next {
			f.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal screening transition %s -> %s", f.state, next)
}
