package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medipal-health/appstate-service/internal/config"
	"github.com/medipal-health/appstate-service/internal/pagination"
	"github.com/medipal-health/appstate-service/internal/prescription"
	"github.com/medipal-health/appstate-service/internal/testutil"
	"github.com/medipal-health/appstate-service/internal/transaction"
)

// staticTokens is a fixed-token TokenSource
type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second}, staticTokens{token: "test-token"}, nil)
}

// TestCreatePrescription tests a full create round trip against the fake backend
func TestCreatePrescription(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	client := newTestClient(backend.URL())

	draft := prescription.Draft{
		AppointmentID: "appt-1",
		DoctorID:      "doc-1",
		PatientID:     "pat-1",
		Medications: []prescription.Medication{
			{Name: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Duration: "7 days"},
		},
		Instructions: "Take with food",
	}

	created, err := client.Create(context.Background(), draft)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created.PrescriptionID == "" {
		t.Error("Expected server-assigned prescription id")
	}
	if created.Status != prescription.StatusPending {
		t.Errorf("Expected status 'pending', got '%s'", created.Status)
	}
	if backend.PrescriptionCount() != 1 {
		t.Errorf("Expected backend to hold 1 prescription, got %d", backend.PrescriptionCount())
	}
}

// TestListByAppointment tests scoped listing
func TestListByAppointment(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	backend.SeedPrescription(prescription.Prescription{
		PrescriptionID: "rx-1", AppointmentID: "appt-1", Status: prescription.StatusActive,
	})
	backend.SeedPrescription(prescription.Prescription{
		PrescriptionID: "rx-2", AppointmentID: "appt-other", Status: prescription.StatusActive,
	})

	client := newTestClient(backend.URL())

	items, err := client.ListByAppointment(context.Background(), "appt-1")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 || items[0].PrescriptionID != "rx-1" {
		t.Errorf("Expected only rx-1, got %+v", items)
	}
}

// TestDecoding_RejectsUnknownStatus tests that enum validation fires at the client boundary
func TestDecoding_RejectsUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"prescriptions":[{"prescription_id":"rx-1","status":"archived"}],"total":1}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.ListAll(context.Background())

	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Expected ErrInvalidResponse, got: %v", err)
	}
}

// TestStatusMapping tests HTTP status to sentinel error mapping
func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrRequest},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		client := newTestClient(srv.URL)
		_, err := client.ListAll(context.Background())

		if !errors.Is(err, tc.want) {
			t.Errorf("Expected %v for status %d, got: %v", tc.want, tc.status, err)
		}
		srv.Close()
	}
}

// TestBearerToken tests that the token source's token is attached
func TestBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"prescriptions":[],"total":0}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	if _, err := client.ListAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Expected bearer token header, got '%s'", gotAuth)
	}
}

// TestTokenSourceError tests that a token failure aborts before the network call
func TestTokenSourceError(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(config.APIConfig{BaseURL: srv.URL}, staticTokens{err: errors.New("no session")}, nil)

	if _, err := client.ListAll(context.Background()); err == nil {
		t.Error("Expected error from token source")
	}
	if called {
		t.Error("Expected no request without a token")
	}
}

// TestListTransactions_PaginationQuery tests that page and limit are sent
func TestListTransactions_PaginationQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"transactions":[],"pagination":{"current_page":2,"per_page":10,"total_pages":1,"total_records":0}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, meta, err := client.ListByUser(context.Background(), "user-1", pagination.Params{Page: 2, Limit: 10})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotQuery != "limit=10&page=2" {
		t.Errorf("Expected pagination query, got '%s'", gotQuery)
	}
	if meta.CurrentPage != 2 {
		t.Errorf("Expected meta page 2, got %d", meta.CurrentPage)
	}
}

// TestSubmitTransaction tests submission against the fake backend
func TestSubmitTransaction(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	client := newTestClient(backend.URL())

	created, err := client.Submit(context.Background(), transaction.Request{
		Amount:   50,
		Sender:   "user-1",
		Receiver: "doc-1",
		Type:     transaction.TypeTransfer,
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created.TransactionID == "" {
		t.Error("Expected server-assigned transaction id")
	}
	if created.Amount != 50 {
		t.Errorf("Expected amount 50, got %.2f", created.Amount)
	}
}

// TestBalance tests the account endpoint
func TestBalance(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	backend.SetBalance("user-1", 275.25)

	client := newTestClient(backend.URL())

	balance, err := client.Balance(context.Background(), "user-1")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if balance != 275.25 {
		t.Errorf("Expected balance 275.25, got %.2f", balance)
	}
}

// TestInitPayment tests checkout initialization
func TestInitPayment(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	client := newTestClient(backend.URL())

	redirectURL, reference, err := client.InitPayment(context.Background(), "user-1", 100)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if redirectURL == "" || reference == "" {
		t.Errorf("Expected redirect URL and reference, got '%s' / '%s'", redirectURL, reference)
	}
}

// TestInitPayment_BackendFailure tests scripted failure injection
func TestInitPayment_BackendFailure(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	backend.FailOnce("init_payment")

	client := newTestClient(backend.URL())

	if _, _, err := client.InitPayment(context.Background(), "user-1", 100); !errors.Is(err, ErrRequest) {
		t.Errorf("Expected ErrRequest, got: %v", err)
	}
}
