package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"

	"github.com/medipal-health/appstate-service/internal/pagination"
	"github.com/medipal-health/appstate-service/internal/prescription"
	"github.com/medipal-health/appstate-service/internal/transaction"
)

// FakeBackend is an in-memory stand-in for the MediPal backend API. It
// serves the same JSON contract over httptest and supports scripted
// failures, so slice and service tests never touch the network.
type FakeBackend struct {
	mu sync.RWMutex

	srv *httptest.Server

	Subject       string // sub claim minted into issued tokens
	prescriptions []prescription.Prescription
	transactions  map[string][]transaction.Transaction
	balances      map[string]float64
	nextRxID      int
	nextTxID      int
	gatewayURL    string

	failNext map[string]bool
}

// NewFakeBackend starts the fake backend. Callers must Close it.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		Subject:      "user-1",
		transactions: make(map[string][]transaction.Transaction),
		balances:     make(map[string]float64),
		failNext:     make(map[string]bool),
		gatewayURL:   "https://checkout.paystack.com",
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/token", b.handleToken).Methods("POST")
	r.HandleFunc("/appointments/{id}/prescriptions", b.handleListByAppointment).Methods("GET")
	r.HandleFunc("/patients/{id}/prescriptions", b.handleListByPatient).Methods("GET")
	r.HandleFunc("/prescriptions", b.handleListAll).Methods("GET")
	r.HandleFunc("/prescriptions", b.handleCreatePrescription).Methods("POST")
	r.HandleFunc("/prescriptions/{id}/status", b.handleUpdateStatus).Methods("PUT")
	r.HandleFunc("/users/{id}/transactions", b.handleListTransactions).Methods("GET")
	r.HandleFunc("/transactions", b.handleCreateTransaction).Methods("POST")
	r.HandleFunc("/users/{id}/account", b.handleAccount).Methods("GET")
	r.HandleFunc("/payments/initialize", b.handleInitPayment).Methods("POST")

	b.srv = httptest.NewServer(r)
	return b
}

// URL is the backend base URL.
func (b *FakeBackend) URL() string { return b.srv.URL }

// TokenURL is the token endpoint.
func (b *FakeBackend) TokenURL() string { return b.srv.URL + "/auth/token" }

// Close shuts the server down.
func (b *FakeBackend) Close() { b.srv.Close() }

// FailOnce makes the named operation fail with a 500 on its next call.
// Operations: token, list_prescriptions, create_prescription,
// update_status, list_transactions, create_transaction, account,
// init_payment.
func (b *FakeBackend) FailOnce(operation string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[operation] = true
}

func (b *FakeBackend) shouldFail(operation string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext[operation] {
		b.failNext[operation] = false
		return true
	}
	return false
}

// SeedPrescription adds a prescription to the backend's store.
func (b *FakeBackend) SeedPrescription(p prescription.Prescription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prescriptions = append(b.prescriptions, p)
}

// SeedTransaction adds a transaction under a user's history.
func (b *FakeBackend) SeedTransaction(userID string, tx transaction.Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transactions[userID] = append(b.transactions[userID], tx)
}

// SetBalance sets a user's account balance.
func (b *FakeBackend) SetBalance(userID string, balance float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[userID] = balance
}

// PrescriptionCount reports how many prescriptions the backend holds.
func (b *FakeBackend) PrescriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.prescriptions)
}

func (b *FakeBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("token") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": b.Subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("fake-backend-secret"))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": raw,
		"expires_in":   300,
	})
}

func (b *FakeBackend) handleListByAppointment(w http.ResponseWriter, r *http.Request) {
	b.listPrescriptions(w, func(p prescription.Prescription) bool {
		return p.AppointmentID == mux.Vars(r)["id"]
	})
}

func (b *FakeBackend) handleListByPatient(w http.ResponseWriter, r *http.Request) {
	b.listPrescriptions(w, func(p prescription.Prescription) bool {
		return p.PatientID == mux.Vars(r)["id"]
	})
}

func (b *FakeBackend) handleListAll(w http.ResponseWriter, r *http.Request) {
	b.listPrescriptions(w, func(prescription.Prescription) bool { return true })
}

func (b *FakeBackend) listPrescriptions(w http.ResponseWriter, match func(prescription.Prescription) bool) {
	if b.shouldFail("list_prescriptions") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	b.mu.RLock()
	items := make([]prescription.Prescription, 0)
	for _, p := range b.prescriptions {
		if match(p) {
			items = append(items, p)
		}
	}
	b.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"prescriptions": items,
		"total":         len(items),
	})
}

func (b *FakeBackend) handleCreatePrescription(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("create_prescription") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req struct {
		AppointmentID string                    `json:"appointment_id"`
		DoctorID      string                    `json:"doctor_id"`
		PatientID     string                    `json:"patient_id"`
		Medications   []prescription.Medication `json:"medications"`
		Instructions  string                    `json:"instructions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.nextRxID++
	created := prescription.Prescription{
		PrescriptionID: fmt.Sprintf("rx-%04d", b.nextRxID),
		AppointmentID:  req.AppointmentID,
		DoctorID:       req.DoctorID,
		PatientID:      req.PatientID,
		Medications:    req.Medications,
		Instructions:   req.Instructions,
		Status:         prescription.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	b.prescriptions = append(b.prescriptions, created)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"message":      "Prescription created successfully",
		"prescription": created,
	})
}

func (b *FakeBackend) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("update_status") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req struct {
		Status prescription.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.prescriptions {
		if b.prescriptions[i].PrescriptionID == id {
			b.prescriptions[i].Status = req.Status
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (b *FakeBackend) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("list_transactions") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	userID := mux.Vars(r)["id"]

	b.mu.RLock()
	items := append([]transaction.Transaction(nil), b.transactions[userID]...)
	b.mu.RUnlock()

	params := pagination.Default()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": items,
		"pagination":   params.CalculateMeta(len(items)),
	})
}

func (b *FakeBackend) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("create_transaction") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req transaction.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.nextTxID++
	created := transaction.Transaction{
		TransactionID: fmt.Sprintf("tx-%04d", b.nextTxID),
		Type:          req.Type,
		Amount:        req.Amount,
		Description:   req.Description,
		Date:          time.Now().UTC(),
		Sender:        req.Sender,
		Receiver:      req.Receiver,
		Participants:  []string{req.Sender, req.Receiver},
	}
	b.transactions[req.Sender] = append(b.transactions[req.Sender], created)
	if req.Receiver != req.Sender {
		b.transactions[req.Receiver] = append(b.transactions[req.Receiver], created)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     "Transaction accepted",
		"transaction": created,
	})
}

func (b *FakeBackend) handleAccount(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("account") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	userID := mux.Vars(r)["id"]

	b.mu.RLock()
	balance := b.balances[userID]
	b.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"balance": balance,
	})
}

func (b *FakeBackend) handleInitPayment(w http.ResponseWriter, r *http.Request) {
	if b.shouldFail("init_payment") {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req struct {
		AccountID string  `json:"account_id"`
		Amount    float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	reference := fmt.Sprintf("ref-%s-%d", req.AccountID, time.Now().UnixNano())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"authorization_url": b.gatewayURL + "/checkout/" + reference,
		"reference":         reference,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
