package prescription

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a prescription, assigned by the backend.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// UnmarshalJSON rejects statuses outside the closed set so malformed backend
// payloads fail at the decoding edge instead of leaking into state.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !ValidStatus(Status(raw)) {
		return fmt.Errorf("%w: unknown prescription status %q", ErrDecode, raw)
	}
	*s = Status(raw)
	return nil
}

// Medication is one line item within a prescription.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Field names a single editable medication field.
type Field string

const (
	FieldName      Field = "name"
	FieldDosage    Field = "dosage"
	FieldFrequency Field = "frequency"
	FieldDuration  Field = "duration"
)

// Prescription as returned by the backend. PrescriptionID is assigned by the
// server on creation and is unique within the local collection.
type Prescription struct {
	PrescriptionID string       `json:"prescription_id"`
	AppointmentID  string       `json:"appointment_id"`
	DoctorID       string       `json:"doctor_id"`
	PatientID      string       `json:"patient_id"`
	Medications    []Medication `json:"medications"`
	Instructions   string       `json:"instructions"`
	Status         Status       `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
}

// FormStatus is the submission lifecycle of the draft form.
type FormStatus string

const (
	FormIdle       FormStatus = "idle"
	FormSubmitting FormStatus = "submitting"
	FormSucceeded  FormStatus = "succeeded"
	FormFailed     FormStatus = "failed"
)

// Draft is the single in-progress prescription form. At most one draft
// exists per slice.
type Draft struct {
	AppointmentID string       `json:"appointment_id"`
	DoctorID      string       `json:"doctor_id"`
	PatientID     string       `json:"patient_id"`
	Medications   []Medication `json:"medications"`
	Instructions  string       `json:"instructions"`
	FormStatus    FormStatus   `json:"form_status"`
}
