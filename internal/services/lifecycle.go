package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DIP-EASY/internal/models"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

const (
	eventCreate   = "create"
	eventValidate = "validate"
	eventFinalize = "finalize"
	eventFail     = "fail"

	// eventConvertFailed is recorded without a transition when validate
	// cannot produce a PDF.
	eventConvertFailed = "convert_failed"
)

// lifecycle drives one generation through pending -> success | error and
// collects the transitions it performed.
type lifecycle struct {
	gen     *models.Generation
	machine *fsm.FSM
	pending []models.GenerationEvent
	detail  string
	onEnter func(event, to string)
}

func newLifecycle(gen *models.Generation, onEnter func(event, to string)) *lifecycle {
	l := &lifecycle{gen: gen, onEnter: onEnter}
	pending := string(models.StatusPending)
	success := string(models.StatusSuccess)
	l.machine = fsm.NewFSM(
		string(gen.Status),
		fsm.Events{
			{Name: eventValidate, Src: []string{pending}, Dst: success},
			{Name: eventFinalize, Src: []string{pending, success}, Dst: success},
			{Name: eventFail, Src: []string{pending}, Dst: string(models.StatusError)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				l.gen.Status = models.GenerationStatus(e.Dst)
				l.pending = append(l.pending, newEvent(l.gen.ID, e.Event, e.Src, e.Dst, l.detail))
				if l.onEnter != nil {
					l.onEnter(e.Event, e.Dst)
				}
			},
		},
	)
	return l
}

func (l *lifecycle) can(event string) bool {
	return l.machine.Can(event)
}

// fire applies event. Re-entering the current state is not an error.
func (l *lifecycle) fire(ctx context.Context, event, detail string) error {
	l.detail = detail
	err := l.machine.Event(ctx, event)
	if err == nil {
		return nil
	}
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return nil
	}
	return fmt.Errorf("%w: cannot %s a %s generation", ErrInvalidTransition, event, l.gen.Status)
}

func newEvent(generationID, event, from, to, detail string) models.GenerationEvent {
	return models.GenerationEvent{
		ID:           uuid.New().String(),
		GenerationID: generationID,
		Event:        event,
		FromState:    from,
		ToState:      to,
		Detail:       detail,
		CreatedAt:    time.Now(),
	}
}
