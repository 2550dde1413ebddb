package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/medipal-health/appstate-service/internal/messaging"
	"github.com/medipal-health/appstate-service/internal/telemetry"
)

var (
	ErrNoSession      = errors.New("no payment session in progress")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrMissingAccount = errors.New("account id is required")
)

// OutcomeAbandoned marks a session displaced by a newer one before the
// gateway answered.
const OutcomeAbandoned Outcome = "abandoned"

// InitAPI is the backend endpoint that opens a gateway checkout.
type InitAPI interface {
	InitPayment(ctx context.Context, accountID string, amount float64) (redirectURL, reference string, err error)
}

// AccountRefresher is the completion handler invoked when a payment
// succeeds: it reloads the account so the balance reflects the top-up.
type AccountRefresher interface {
	RefreshAccount(ctx context.Context, accountID string) error
}

// Result is the final resolution of a payment session.
type Result struct {
	Outcome Outcome
	URL     string
}

// Session is one in-flight top-up: the gateway redirect the UI must open
// and a channel that receives the result exactly once.
type Session struct {
	ID          string
	AccountID   string
	Amount      float64
	Reference   string
	RedirectURL string
	done        chan Result
}

// Done receives the session's resolution.
func (s *Session) Done() <-chan Result { return s.done }

// Flow orchestrates payment redirects: it opens checkout sessions against
// the backend and resolves them from navigation events. One session is
// active per flow; starting another abandons the previous one.
type Flow struct {
	classifier Classifier
	api        InitAPI
	accounts   AccountRefresher
	publisher  messaging.PublisherInterface
	metrics    *telemetry.Metrics

	mu     sync.Mutex
	active *Session
}

func NewFlow(classifier Classifier, api InitAPI, accounts AccountRefresher, publisher messaging.PublisherInterface, metrics *telemetry.Metrics) *Flow {
	return &Flow{
		classifier: classifier,
		api:        api,
		accounts:   accounts,
		publisher:  publisher,
		metrics:    metrics,
	}
}

// BindAccounts attaches the completion handler after construction. The
// wallet service and the flow reference each other, so one side binds late.
func (f *Flow) BindAccounts(accounts AccountRefresher) {
	f.mu.Lock()
	f.accounts = accounts
	f.mu.Unlock()
}

// Start opens a checkout session for the account and returns the session
// holding the gateway redirect URL.
func (f *Flow) Start(ctx context.Context, accountID string, amount float64) (*Session, error) {
	if accountID == "" {
		return nil, ErrMissingAccount
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	redirectURL, reference, err := f.api.InitPayment(ctx, accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	session := &Session{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Amount:      amount,
		Reference:   reference,
		RedirectURL: redirectURL,
		done:        make(chan Result, 1),
	}

	f.mu.Lock()
	if f.active != nil {
		f.active.done <- Result{Outcome: OutcomeAbandoned}
		log.Printf("Abandoning payment session %s, replaced by %s", f.active.ID, session.ID)
	}
	f.active = session
	f.mu.Unlock()

	log.Printf("Started payment session %s for account %s (amount %.2f)", session.ID, accountID, amount)

	return session, nil
}

// Active returns the in-flight session, if any.
func (f *Flow) Active() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// HandleNavigation feeds one navigated URL into the flow. A pending URL
// leaves the session untouched; success and failure resolve it. Both
// success exits (success fragment or return domain) run the same completion
// handler before the waiter is released.
func (f *Flow) HandleNavigation(ctx context.Context, rawURL string) (Outcome, error) {
	outcome := f.classifier.Classify(rawURL)
	if outcome == OutcomePending {
		return OutcomePending, nil
	}

	f.mu.Lock()
	session := f.active
	f.active = nil
	f.mu.Unlock()

	if session == nil {
		return outcome, ErrNoSession
	}

	if f.metrics != nil {
		f.metrics.RecordPaymentOutcome(ctx, string(outcome))
	}

	var refreshErr error
	if outcome == OutcomeSuccess {
		if f.accounts != nil {
			if refreshErr = f.accounts.RefreshAccount(ctx, session.AccountID); refreshErr != nil {
				log.Printf("Warning: account refresh after payment failed: %v", refreshErr)
			}
		}
		f.publish(ctx, messaging.EventPaymentSucceeded, session)
	} else {
		f.publish(ctx, messaging.EventPaymentFailed, session)
	}

	session.done <- Result{Outcome: outcome, URL: rawURL}

	log.Printf("Payment session %s resolved: %s", session.ID, outcome)

	return outcome, refreshErr
}

func (f *Flow) publish(ctx context.Context, routingKey string, session *Session) {
	if f.publisher == nil {
		return
	}
	event := messaging.PaymentOutcomeEvent{
		BaseEvent: messaging.NewBaseEvent(routingKey),
		Data: messaging.PaymentOutcomeData{
			SessionID: session.ID,
			AccountID: session.AccountID,
			Amount:    session.Amount,
			Reference: session.Reference,
		},
	}
	if err := f.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
