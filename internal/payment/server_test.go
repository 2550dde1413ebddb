package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCallback_ResolvesActiveSession tests that a gateway redirect hit resolves the flow
func TestCallback_ResolvesActiveSession(t *testing.T) {
	refresher := &mockRefresher{}
	flow := NewFlow(Classifier{
		GatewayHost:     "checkout.paystack.com",
		SuccessFragment: "trxref=",
		FailureFragment: "payment-failed",
	}, &mockInitAPI{}, refresher, nil, nil)
	server := NewServer("127.0.0.1:0", flow)

	session, _ := flow.Start(context.Background(), "user-1", 100)

	req := httptest.NewRequest("GET", "http://127.0.0.1:8765/payment/callback?trxref=ref-1", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	result := <-session.Done()
	if result.Outcome != OutcomeSuccess {
		t.Errorf("Expected success, got '%s'", result.Outcome)
	}
	if len(refresher.refreshed) != 1 {
		t.Errorf("Expected account refresh, got %v", refresher.refreshed)
	}
}

// TestCallback_NoActiveSession tests the 409 when nothing is in flight
func TestCallback_NoActiveSession(t *testing.T) {
	flow := newTestFlow(&mockInitAPI{}, nil, nil)
	server := NewServer("127.0.0.1:0", flow)

	req := httptest.NewRequest("GET", "http://127.0.0.1:8765/payment/callback?trxref=ref-1", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

// TestSessionEndpoint tests polling the in-flight session
func TestSessionEndpoint(t *testing.T) {
	flow := newTestFlow(&mockInitAPI{}, nil, nil)
	server := NewServer("127.0.0.1:0", flow)

	req := httptest.NewRequest("GET", "http://127.0.0.1:8765/payment/session", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "{\"active\":false}\n" {
		t.Errorf("Expected inactive session body, got %s", body)
	}

	flow.Start(context.Background(), "user-1", 100)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "http://127.0.0.1:8765/payment/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
}

// TestHealthEndpoint tests the health check
func TestHealthEndpoint(t *testing.T) {
	server := NewServer("127.0.0.1:0", newTestFlow(&mockInitAPI{}, nil, nil))

	req := httptest.NewRequest("GET", "http://127.0.0.1:8765/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"status":"ok","service":"appstate-service"}` {
		t.Errorf("Unexpected health body: %s", body)
	}
}
