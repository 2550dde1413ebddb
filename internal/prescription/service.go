package prescription

import (
	"context"
	"fmt"
	"log"

	"github.com/medipal-health/appstate-service/internal/messaging"
	"github.com/medipal-health/appstate-service/internal/notify"
	"github.com/medipal-health/appstate-service/internal/telemetry"
)

// API is the backend surface the prescription slice depends on.
type API interface {
	ListByAppointment(ctx context.Context, appointmentID string) ([]Prescription, error)
	ListByPatient(ctx context.Context, patientID string) ([]Prescription, error)
	ListAll(ctx context.Context) ([]Prescription, error)
	Create(ctx context.Context, draft Draft) (*Prescription, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// Service is the single entry point screens consume: it wraps the slice's
// reducers with the asynchronous thunks that talk to the backend.
type Service struct {
	slice     *Slice
	api       API
	publisher messaging.PublisherInterface
	toaster   notify.Toaster
	metrics   *telemetry.Metrics
}

func NewService(slice *Slice, api API, publisher messaging.PublisherInterface, toaster notify.Toaster, metrics *telemetry.Metrics) *Service {
	if toaster == nil {
		toaster = notify.LogToaster{}
	}
	return &Service{
		slice:     slice,
		api:       api,
		publisher: publisher,
		toaster:   toaster,
		metrics:   metrics,
	}
}

// Slice exposes the underlying slice for direct form edits and selectors.
func (s *Service) Slice() *Slice { return s.slice }

// FetchByAppointment loads the prescriptions attached to one appointment and
// merges them into the collection.
func (s *Service) FetchByAppointment(ctx context.Context, appointmentID string) error {
	return s.fetch(ctx, false, func() ([]Prescription, error) {
		return s.api.ListByAppointment(ctx, appointmentID)
	})
}

// FetchByPatient loads one patient's prescriptions and merges them in.
func (s *Service) FetchByPatient(ctx context.Context, patientID string) error {
	return s.fetch(ctx, false, func() ([]Prescription, error) {
		return s.api.ListByPatient(ctx, patientID)
	})
}

// FetchAll replaces the collection with the full server-side list.
func (s *Service) FetchAll(ctx context.Context) error {
	return s.fetch(ctx, true, func() ([]Prescription, error) {
		return s.api.ListAll(ctx)
	})
}

// fetch runs one list call with the shared lifecycle: loading flag up,
// success replaces/merges, failure records the error and keeps stale data.
func (s *Service) fetch(ctx context.Context, replace bool, call func() ([]Prescription, error)) error {
	s.slice.BeginFetch()
	items, err := call()
	if err != nil {
		s.slice.FetchFailed(err.Error())
		return fmt.Errorf("failed to fetch prescriptions: %w", err)
	}
	s.slice.FetchSucceeded(items, replace)
	s.record(ctx, "fetch")
	return nil
}

// Create submits the current draft. An incomplete draft is blocked locally
// and never reaches the network. On success the server-assigned prescription
// joins the collection and the draft resets; on failure the draft is kept
// for correction.
func (s *Service) Create(ctx context.Context) (*Prescription, error) {
	if !ValidDraft(s.slice.State().Draft) {
		s.toaster.Toast(notify.Toast{
			Message:  "Please fill in all medication fields and instructions",
			Severity: notify.SeverityError,
		})
		return nil, ErrInvalidDraft
	}

	draft, err := s.slice.BeginSubmit()
	if err != nil {
		return nil, err
	}

	created, err := s.api.Create(ctx, draft)
	if err != nil {
		s.slice.SubmitFailed()
		s.toaster.Toast(notify.Toast{
			Message:  "Could not save prescription, please try again",
			Severity: notify.SeverityError,
		})
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	s.slice.SubmitSucceeded(*created)
	s.record(ctx, "create")
	s.publish(ctx, messaging.EventPrescriptionCreated, messaging.PrescriptionCreatedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventPrescriptionCreated),
		Data: messaging.PrescriptionCreatedData{
			PrescriptionID: created.PrescriptionID,
			AppointmentID:  created.AppointmentID,
			DoctorID:       created.DoctorID,
			PatientID:      created.PatientID,
			Medications:    len(created.Medications),
			Status:         string(created.Status),
			CreatedAt:      created.CreatedAt,
		},
	})

	return created, nil
}

// UpdateStatus transitions a known prescription to a new status. An id that
// is not in the local collection is rejected before any network call.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrDecode, status)
	}

	current, ok := s.slice.Get(id)
	if !ok {
		s.toaster.Toast(notify.Toast{
			Message:  "Prescription no longer exists",
			Severity: notify.SeverityError,
		})
		return ErrNotFound
	}

	if err := s.api.UpdateStatus(ctx, id, status); err != nil {
		s.toaster.Toast(notify.Toast{
			Message:  "Could not update prescription, please try again",
			Severity: notify.SeverityError,
		})
		return fmt.Errorf("failed to update prescription status: %w", err)
	}

	if err := s.slice.UpdateStatus(id, status); err != nil {
		// Collection changed between the check and the apply; surface it.
		return err
	}

	s.record(ctx, "update_status")
	s.publish(ctx, messaging.EventPrescriptionStatusChanged, messaging.PrescriptionStatusChangedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventPrescriptionStatusChanged),
		Data: messaging.PrescriptionStatusChangedData{
			PrescriptionID: id,
			OldStatus:      string(current.Status),
			NewStatus:      string(status),
		},
	})

	return nil
}

func (s *Service) record(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordPrescriptionOperation(ctx, operation)
	}
}

func (s *Service) publish(ctx context.Context, routingKey string, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
