package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/grupoterrena/terrena-api/internal/models"
)

// SaleFSM wraps a sale with its state machine
type SaleFSM struct {
	sale *models.Sale
	fsm  *fsm.FSM
}

// NewSaleFSM creates a new sale state machine
func NewSaleFSM(sale *models.Sale) *SaleFSM {
	sfsm := &SaleFSM{
		sale: sale,
	}

	sfsm.fsm = fsm.NewFSM(
		sale.Status,
		fsm.Events{
			// pending → awaiting_payment
			{Name: "await_payment", Src: []string{models.SaleStatusPending}, Dst: models.SaleStatusAwaitingPayment},

			// awaiting_payment → installments_ongoing (advance confirmed, schedule exists)
			{Name: "start_installments", Src: []string{models.SaleStatusAwaitingPayment}, Dst: models.SaleStatusInstallmentsOngoing},

			// awaiting_payment/installments_ongoing → completed
			{Name: "complete", Src: []string{models.SaleStatusAwaitingPayment, models.SaleStatusInstallmentsOngoing}, Dst: models.SaleStatusCompleted},

			// any non-terminal state → cancelled
			{Name: "cancel", Src: []string{models.SaleStatusPending, models.SaleStatusAwaitingPayment, models.SaleStatusInstallmentsOngoing}, Dst: models.SaleStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return sfsm
}

// AwaitPayment transitions the sale to awaiting_payment
func (s *SaleFSM) AwaitPayment(ctx context.Context) error {
	if !s.sale.MayAwaitPayment() {
		return fmt.Errorf("sale cannot await payment in current state: %s", s.sale.Status)
	}

	if err := s.fsm.Event(ctx, "await_payment"); err != nil {
		return fmt.Errorf("failed to open sale for payment: %w", err)
	}

	s.sale.Status = s.fsm.Current()
	return nil
}

// StartInstallments transitions the sale to installments_ongoing
func (s *SaleFSM) StartInstallments(ctx context.Context) error {
	if !s.sale.MayStartInstallments() {
		return fmt.Errorf("sale cannot start installments in current state: %s", s.sale.Status)
	}

	if err := s.fsm.Event(ctx, "start_installments"); err != nil {
		return fmt.Errorf("failed to start installments: %w", err)
	}

	s.sale.Status = s.fsm.Current()
	return nil
}

// Complete transitions the sale to completed
func (s *SaleFSM) Complete(ctx context.Context) error {
	if !s.sale.MayComplete() {
		return fmt.Errorf("sale cannot be completed in current state: %s", s.sale.Status)
	}

	if err := s.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete sale: %w", err)
	}

	s.sale.Status = s.fsm.Current()
	return nil
}

// Cancel transitions the sale to cancelled
func (s *SaleFSM) Cancel(ctx context.Context) error {
	if !s.sale.MayCancel() {
		return fmt.Errorf("sale cannot be cancelled in current state: %s", s.sale.Status)
	}

	if err := s.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel sale: %w", err)
	}

	s.sale.Status = s.fsm.Current()
	return nil
}

// Current returns the current state
func (s *SaleFSM) Current() string {
	return s.fsm.Current()
}

// Can checks if a transition is possible
func (s *SaleFSM) Can(event string) bool {
	return s.fsm.Can(event)
}
