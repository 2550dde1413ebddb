package transaction

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/medipal-health/appstate-service/internal/dialog"
	"github.com/medipal-health/appstate-service/internal/messaging"
	"github.com/medipal-health/appstate-service/internal/notify"
	"github.com/medipal-health/appstate-service/internal/pagination"
	"github.com/medipal-health/appstate-service/internal/payment"
	"github.com/medipal-health/appstate-service/internal/telemetry"
)

// API is the backend surface the transaction slice depends on.
type API interface {
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]Transaction, pagination.Meta, error)
	Submit(ctx context.Context, req Request) (*Transaction, error)
	Balance(ctx context.Context, userID string) (float64, error)
}

// PaymentStarter opens a gateway checkout for a top-up.
type PaymentStarter interface {
	Start(ctx context.Context, accountID string, amount float64) (*payment.Session, error)
}

// Confirmer presents a blocking-style confirmation to the user.
type Confirmer interface {
	Show(text string, opts dialog.Options) <-chan dialog.Outcome
}

// Service mediates top-up, withdrawal and transfer requests and keeps the
// displayed balance consistent with the last known server state. A
// just-submitted transaction does not appear locally until the next fetch:
// the server stays the source of truth.
type Service struct {
	slice     *Slice
	api       API
	payments  PaymentStarter
	confirm   Confirmer
	publisher messaging.PublisherInterface
	toaster   notify.Toaster
	metrics   *telemetry.Metrics
}

func NewService(slice *Slice, api API, payments PaymentStarter, confirm Confirmer, publisher messaging.PublisherInterface, toaster notify.Toaster, metrics *telemetry.Metrics) *Service {
	if toaster == nil {
		toaster = notify.LogToaster{}
	}
	return &Service{
		slice:     slice,
		api:       api,
		payments:  payments,
		confirm:   confirm,
		publisher: publisher,
		toaster:   toaster,
		metrics:   metrics,
	}
}

// Slice exposes the underlying slice for selectors.
func (s *Service) Slice() *Slice { return s.slice }

// HandleTransaction validates and submits one transaction request. Invalid
// requests are rejected before any network call. The local list is not
// touched; callers re-fetch to observe the result.
func (s *Service) HandleTransaction(ctx context.Context, req Request) error {
	if err := validateRequest(req); err != nil {
		s.toaster.Toast(notify.Toast{Message: err.Error(), Severity: notify.SeverityError})
		return err
	}

	created, err := s.api.Submit(ctx, req)
	if err != nil {
		s.toaster.Toast(notify.Toast{
			Message:  "Transaction failed, please try again",
			Severity: notify.SeverityError,
		})
		return fmt.Errorf("failed to submit transaction: %w", err)
	}

	if req.Message != "" {
		s.toaster.Toast(notify.Toast{Message: req.Message, Severity: notify.SeveritySuccess})
	}

	s.record(ctx, string(req.Type))
	s.publish(ctx, messaging.TransactionCompletedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventTransactionCompleted),
		Data: messaging.TransactionCompletedData{
			Type:     string(created.Type),
			Amount:   created.Amount,
			Sender:   created.Sender,
			Receiver: created.Receiver,
		},
	})

	return nil
}

// Fetch replaces the local list with the user's transactions, newest first.
func (s *Service) Fetch(ctx context.Context, userID string) error {
	s.slice.BeginFetch()
	items, _, err := s.api.ListByUser(ctx, userID, pagination.Default())
	if err != nil {
		s.slice.FetchFailed(err.Error())
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	s.slice.FetchSucceeded(items)
	s.record(ctx, "fetch")
	return nil
}

// RefreshBalance pulls the server-side balance into state.
func (s *Service) RefreshBalance(ctx context.Context, userID string) error {
	balance, err := s.api.Balance(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}
	s.slice.SetBalance(balance)
	return nil
}

// RefreshAccount reloads balance and transaction list together. This is the
// completion handler the payment flow runs after a successful top-up.
func (s *Service) RefreshAccount(ctx context.Context, accountID string) error {
	if err := s.RefreshBalance(ctx, accountID); err != nil {
		return err
	}
	return s.Fetch(ctx, accountID)
}

// TopUp starts a gateway checkout session for the account. The caller opens
// the session's redirect URL; resolution arrives via the payment flow.
func (s *Service) TopUp(ctx context.Context, accountID string, amount float64) (*payment.Session, error) {
	if !positiveFinite(amount) {
		return nil, ErrInvalidAmount
	}
	session, err := s.payments.Start(ctx, accountID, amount)
	if err != nil {
		s.toaster.Toast(notify.Toast{
			Message:  "Could not start top-up, please try again",
			Severity: notify.SeverityError,
		})
		return nil, err
	}
	s.record(ctx, "topup_started")
	return session, nil
}

// Withdraw asks for confirmation and submits a withdrawal against the
// user's own account. Returns false without error when the user declines.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount float64) (bool, error) {
	if !positiveFinite(amount) {
		return false, ErrInvalidAmount
	}

	if s.confirm != nil {
		outcome := <-s.confirm.Show(
			fmt.Sprintf("Withdraw %.2f from your wallet?", amount),
			dialog.Options{OkayLabel: "Withdraw", Severe: true, Dismissable: true},
		)
		if !outcome.Confirmed {
			log.Printf("Withdrawal of %.2f declined", amount)
			return false, nil
		}
	}

	err := s.HandleTransaction(ctx, Request{
		Amount:      amount,
		Sender:      accountID,
		Receiver:    accountID,
		Type:        TypeWithdraw,
		Message:     "Withdrawal submitted",
		Description: "wallet withdrawal",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// validateRequest enforces the transaction invariants locally so invalid
// requests never reach the network.
func validateRequest(req Request) error {
	if !positiveFinite(req.Amount) {
		return ErrInvalidAmount
	}
	if !ValidType(req.Type) {
		return ErrInvalidType
	}
	if req.Sender == "" || req.Receiver == "" {
		return ErrMissingParticipants
	}
	if req.Type == TypeLoad && req.Sender != req.Receiver {
		return ErrLoadParticipants
	}
	return nil
}

func positiveFinite(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

func (s *Service) record(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordTransactionOperation(ctx, operation)
	}
}

func (s *Service) publish(ctx context.Context, event messaging.TransactionCompletedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, messaging.EventTransactionCompleted, event); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", messaging.EventTransactionCompleted, err)
	}
}
