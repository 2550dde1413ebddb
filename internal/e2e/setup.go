//go:build integration

package e2e

import (
	"testing"
	"time"

	"github.com/medipal-health/appstate-service/internal/api"
	"github.com/medipal-health/appstate-service/internal/config"
	"github.com/medipal-health/appstate-service/internal/dialog"
	"github.com/medipal-health/appstate-service/internal/notify"
	"github.com/medipal-health/appstate-service/internal/payment"
	"github.com/medipal-health/appstate-service/internal/prescription"
	"github.com/medipal-health/appstate-service/internal/session"
	"github.com/medipal-health/appstate-service/internal/store"
	"github.com/medipal-health/appstate-service/internal/testutil"
	"github.com/medipal-health/appstate-service/internal/transaction"
)

// TestEnv is a fully wired state layer backed by the fake backend.
type TestEnv struct {
	Backend       *testutil.FakeBackend
	Store         *store.Store
	Session       *session.Session
	Prescriptions *prescription.Service
	Transactions  *transaction.Service
	Dialogs       *dialog.Controller
	Flow          *payment.Flow
	Toasts        *notify.Recorder
	Publisher     *testutil.MockPublisher
	SnapshotPath  string
}

// SetupTestEnv wires the full state layer the way the runner does, with the
// fake backend in place of the real API and an in-memory event recorder in
// place of RabbitMQ.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	backend := testutil.NewFakeBackend()
	t.Cleanup(backend.Close)

	publisher := testutil.NewMockPublisher()
	toasts := notify.NewRecorder()

	cfg := config.Config{
		API:  config.APIConfig{BaseURL: backend.URL(), Timeout: 5 * time.Second},
		Auth: config.AuthConfig{TokenURL: backend.TokenURL(), ClientID: "test", ClientSecret: "test"},
		Payment: config.PaymentConfig{
			GatewayHost:     "checkout.paystack.com",
			SuccessFragment: "trxref=",
			FailureFragment: "payment-failed",
		},
	}

	st := store.New()
	prescriptionSlice, err := prescription.NewSlice(st)
	if err != nil {
		t.Fatalf("Failed to register prescription slice: %v", err)
	}
	transactionSlice, err := transaction.NewSlice(st)
	if err != nil {
		t.Fatalf("Failed to register transaction slice: %v", err)
	}

	sess := session.New(cfg.Auth)
	client := api.NewClient(cfg.API, sess, nil)

	dialogs := dialog.NewController(nil, nil)
	flow := payment.NewFlow(payment.NewClassifier(cfg.Payment), client, nil, publisher, nil)

	prescriptionSvc := prescription.NewService(prescriptionSlice, client, publisher, toasts, nil)
	transactionSvc := transaction.NewService(transactionSlice, client, flow, dialogs, publisher, toasts, nil)
	flow.BindAccounts(transactionSvc)

	return &TestEnv{
		Backend:       backend,
		Store:         st,
		Session:       sess,
		Prescriptions: prescriptionSvc,
		Transactions:  transactionSvc,
		Dialogs:       dialogs,
		Flow:          flow,
		Toasts:        toasts,
		Publisher:     publisher,
		SnapshotPath:  t.TempDir() + "/appstate.json",
	}
}
