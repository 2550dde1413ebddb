package api

import (
	"context"
	"fmt"

	"github.com/medipal-health/appstate-service/internal/prescription"
)

type prescriptionListResponse struct {
	Success       bool                        `json:"success"`
	Prescriptions []prescription.Prescription `json:"prescriptions"`
	Total         int                         `json:"total"`
}

type prescriptionResponse struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message"`
	Prescription *prescription.Prescription `json:"prescription"`
}

type createPrescriptionRequest struct {
	AppointmentID string                    `json:"appointment_id"`
	DoctorID      string                    `json:"doctor_id"`
	PatientID     string                    `json:"patient_id"`
	Medications   []prescription.Medication `json:"medications"`
	Instructions  string                    `json:"instructions"`
}

type updateStatusRequest struct {
	Status prescription.Status `json:"status"`
}

// ListByAppointment fetches the prescriptions attached to an appointment.
func (c *Client) ListByAppointment(ctx context.Context, appointmentID string) ([]prescription.Prescription, error) {
	var resp prescriptionListResponse
	path := fmt.Sprintf("/appointments/%s/prescriptions", appointmentID)
	if err := c.do(ctx, "GET", path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Prescriptions, nil
}

// ListByPatient fetches one patient's prescriptions.
func (c *Client) ListByPatient(ctx context.Context, patientID string) ([]prescription.Prescription, error) {
	var resp prescriptionListResponse
	path := fmt.Sprintf("/patients/%s/prescriptions", patientID)
	if err := c.do(ctx, "GET", path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Prescriptions, nil
}

// ListAll fetches every prescription visible to the signed-in user.
func (c *Client) ListAll(ctx context.Context) ([]prescription.Prescription, error) {
	var resp prescriptionListResponse
	if err := c.do(ctx, "GET", "/prescriptions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Prescriptions, nil
}

// Create submits a draft and returns the prescription with its
// server-assigned id.
func (c *Client) Create(ctx context.Context, draft prescription.Draft) (*prescription.Prescription, error) {
	req := createPrescriptionRequest{
		AppointmentID: draft.AppointmentID,
		DoctorID:      draft.DoctorID,
		PatientID:     draft.PatientID,
		Medications:   draft.Medications,
		Instructions:  draft.Instructions,
	}

	var resp prescriptionResponse
	if err := c.do(ctx, "POST", "/prescriptions", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Prescription == nil || resp.Prescription.PrescriptionID == "" {
		return nil, ErrInvalidResponse
	}
	return resp.Prescription, nil
}

// UpdateStatus transitions a prescription's status on the server.
func (c *Client) UpdateStatus(ctx context.Context, id string, status prescription.Status) error {
	path := fmt.Sprintf("/prescriptions/%s/status", id)
	return c.do(ctx, "PUT", path, nil, updateStatusRequest{Status: status}, nil)
}

// Ensure Client implements the prescription API contract
var _ prescription.API = (*Client)(nil)
