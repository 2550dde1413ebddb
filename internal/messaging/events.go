package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event routing keys as constants
const (
	// Prescription events
	EventPrescriptionCreated       = "prescription.created"
	EventPrescriptionStatusChanged = "prescription.status_changed"

	// Transaction events
	EventTransactionCompleted = "transaction.completed"

	// Payment events
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// PrescriptionCreatedEvent is published after a draft is accepted by the
// backend.
type PrescriptionCreatedEvent struct {
	BaseEvent
	Data PrescriptionCreatedData `json:"data"`
}

type PrescriptionCreatedData struct {
	PrescriptionID string    `json:"prescription_id"`
	AppointmentID  string    `json:"appointment_id"`
	DoctorID       string    `json:"doctor_id"`
	PatientID      string    `json:"patient_id"`
	Medications    int       `json:"medications"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// PrescriptionStatusChangedEvent is published after a status transition.
type PrescriptionStatusChangedEvent struct {
	BaseEvent
	Data PrescriptionStatusChangedData `json:"data"`
}

type PrescriptionStatusChangedData struct {
	PrescriptionID string `json:"prescription_id"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
}

// TransactionCompletedEvent is published after the backend accepts a
// transaction request.
type TransactionCompletedEvent struct {
	BaseEvent
	Data TransactionCompletedData `json:"data"`
}

type TransactionCompletedData struct {
	Type     string  `json:"type"` // load, withdraw, transfer
	Amount   float64 `json:"amount"`
	Sender   string  `json:"sender"`
	Receiver string  `json:"receiver"`
}

// PaymentOutcomeEvent is published when a payment redirect resolves.
type PaymentOutcomeEvent struct {
	BaseEvent
	Data PaymentOutcomeData `json:"data"`
}

type PaymentOutcomeData struct {
	SessionID string  `json:"session_id"`
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference,omitempty"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		ServiceName: "appstate-service",
	}
}
