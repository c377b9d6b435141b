package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rkco/fuel-ledger/internal/models"
)

// Order payment events
const (
	EventApplyPartial = "apply_partial"
	EventSettle       = "settle"
	EventReopen       = "reopen"
	EventReset        = "reset"
)

// OrderFSM wraps an order with its payment status state machine
type OrderFSM struct {
	order *models.Order
	fsm   *fsm.FSM
}

// NewOrderFSM creates a new order state machine. Rows carrying an unknown
// status start from unpaid.
func NewOrderFSM(order *models.Order) *OrderFSM {
	initial := order.PaymentStatus
	if !models.IsValidPaymentStatus(initial) {
		initial = models.PaymentStatusUnpaid
	}

	ofsm := &OrderFSM{order: order}
	ofsm.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			// unpaid/partial → partial
			{Name: EventApplyPartial, Src: []string{models.PaymentStatusUnpaid, models.PaymentStatusPartial}, Dst: models.PaymentStatusPartial},

			// unpaid/partial → paid
			{Name: EventSettle, Src: []string{models.PaymentStatusUnpaid, models.PaymentStatusPartial}, Dst: models.PaymentStatusPaid},

			// paid → partial (manual correction downwards)
			{Name: EventReopen, Src: []string{models.PaymentStatusPaid}, Dst: models.PaymentStatusPartial},

			// partial/paid → unpaid
			{Name: EventReset, Src: []string{models.PaymentStatusPartial, models.PaymentStatusPaid}, Dst: models.PaymentStatusUnpaid},
		},
		fsm.Callbacks{},
	)

	return ofsm
}

// eventFor picks the event that moves the machine from its current state to target
func (o *OrderFSM) eventFor(target string) (string, error) {
	switch target {
	case models.PaymentStatusPaid:
		return EventSettle, nil
	case models.PaymentStatusUnpaid:
		return EventReset, nil
	case models.PaymentStatusPartial:
		if o.fsm.Current() == models.PaymentStatusPaid {
			return EventReopen, nil
		}
		return EventApplyPartial, nil
	}
	return "", fmt.Errorf("unknown payment status: %s", target)
}

// TransitionTo moves the order to the status derived from the new paid
// amount. Staying in the same state is a no-op.
func (o *OrderFSM) TransitionTo(ctx context.Context, target string) error {
	if o.fsm.Current() == target {
		o.order.PaymentStatus = target
		return nil
	}

	event, err := o.eventFor(target)
	if err != nil {
		return err
	}

	if err := o.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to %s order %d: %w", event, o.order.ID, err)
	}

	o.order.PaymentStatus = o.fsm.Current()
	return nil
}

// Current returns the current state
func (o *OrderFSM) Current() string {
	return o.fsm.Current()
}

// Can checks if a transition is possible
func (o *OrderFSM) Can(event string) bool {
	return o.fsm.Can(event)
}
