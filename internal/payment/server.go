package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Server is the loopback listener the gateway redirects back to. It stands
// in for the app's embedded browser navigation watcher: every hit on the
// callback route is fed into the flow as a navigation event.
type Server struct {
	flow *Flow
	srv  *http.Server
}

func NewServer(addr string, flow *Flow) *Server {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("appstate-service"))
	r.Use(corsMiddleware)

	s := &Server{flow: flow}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"appstate-service"}`))
	}).Methods("GET")

	r.HandleFunc("/payment/callback", s.handleCallback).Methods("GET")
	r.HandleFunc("/payment/session", s.handleSession).Methods("GET")

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// handleCallback receives the browser redirect from the payment gateway and
// resolves the active session from the full URL it arrived on.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	navigated := "http://" + r.Host + r.URL.String()

	outcome, err := s.flow.HandleNavigation(r.Context(), navigated)
	if err != nil && errors.Is(err, ErrNoSession) {
		http.Error(w, "no payment in progress", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch outcome {
	case OutcomeSuccess:
		w.Write([]byte("<html><body><p>Payment received. You can return to the app.</p></body></html>"))
	case OutcomeFailure:
		w.Write([]byte("<html><body><p>Payment was not completed. You can return to the app and try again.</p></body></html>"))
	default:
		w.Write([]byte("<html><body><p>You can return to the app.</p></body></html>"))
	}
}

// handleSession lets the UI poll whether a top-up is still in flight.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session := s.flow.Active()
	if session == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{"active": false})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"active":     true,
		"session_id": session.ID,
		"account_id": session.AccountID,
		"amount":     session.Amount,
	})
}

// Start runs the listener until Shutdown.
func (s *Server) Start() error {
	log.Printf("Payment callback listener on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// corsMiddleware allows the app shell (a webview on another origin) to poll
// the session endpoint.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "http://localhost:3000"
		}

		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin || allowed == "*" {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
