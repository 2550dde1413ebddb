package prescription

import (
	"encoding/json"
	"sync"

	"github.com/medipal-health/appstate-service/internal/store"
)

// State is the prescription partition of the application state: the known
// prescriptions keyed by id, the single active draft, and the request
// lifecycle flags.
type State struct {
	Prescriptions []Prescription `json:"prescriptions"`
	Draft         Draft          `json:"draft"`
	Loading       bool           `json:"loading"`
	Error         string         `json:"error"`
}

// Slice owns the prescription state. Every mutation is a single atomic
// reducer application under the slice lock, so concurrent dispatches
// serialize and apply in dispatch order.
type Slice struct {
	mu     sync.Mutex
	state  State
	notify func()
}

// NewSlice creates the prescription slice and registers it with the store.
// A nil store is allowed for isolated tests.
func NewSlice(st *store.Store) (*Slice, error) {
	s := &Slice{}
	if st != nil {
		if err := st.Register(s); err != nil {
			return nil, err
		}
		s.notify = func() { st.NotifyChanged(s.StateKey()) }
	}
	return s, nil
}

func (s *Slice) changed() {
	if s.notify != nil {
		s.notify()
	}
}

// State returns a deep copy so callers can never alias slice internals.
func (s *Slice) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// InitForm starts a fresh draft for the given appointment with one empty
// medication entry. Any previous draft is discarded.
func (s *Slice) InitForm(appointmentID, doctorID, patientID string) {
	s.mu.Lock()
	s.state.Draft = Draft{
		AppointmentID: appointmentID,
		DoctorID:      doctorID,
		PatientID:     patientID,
		Medications:   []Medication{{}},
		FormStatus:    FormIdle,
	}
	s.mu.Unlock()
	s.changed()
}

// ResetForm discards the draft entirely.
func (s *Slice) ResetForm() {
	s.mu.Lock()
	s.state.Draft = Draft{FormStatus: FormIdle}
	s.mu.Unlock()
	s.changed()
}

// AddMedication appends one empty medication entry to the draft.
func (s *Slice) AddMedication() {
	s.mu.Lock()
	s.state.Draft.Medications = append(copyMedications(s.state.Draft.Medications), Medication{})
	s.state.Draft.FormStatus = FormIdle
	s.mu.Unlock()
	s.changed()
}

// RemoveMedication removes the medication at index. An out-of-range index is
// an explicit error, never a silent no-op.
func (s *Slice) RemoveMedication(index int) error {
	s.mu.Lock()
	meds := s.state.Draft.Medications
	if index < 0 || index >= len(meds) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	next := make([]Medication, 0, len(meds)-1)
	next = append(next, meds[:index]...)
	next = append(next, meds[index+1:]...)
	s.state.Draft.Medications = next
	s.state.Draft.FormStatus = FormIdle
	s.mu.Unlock()
	s.changed()
	return nil
}

// UpdateMedication sets a single field of a single medication. All other
// medications and fields are untouched.
func (s *Slice) UpdateMedication(index int, field Field, value string) error {
	s.mu.Lock()
	meds := s.state.Draft.Medications
	if index < 0 || index >= len(meds) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	next := copyMedications(meds)
	switch field {
	case FieldName:
		next[index].Name = value
	case FieldDosage:
		next[index].Dosage = value
	case FieldFrequency:
		next[index].Frequency = value
	case FieldDuration:
		next[index].Duration = value
	default:
		s.mu.Unlock()
		return ErrUnknownField
	}
	s.state.Draft.Medications = next
	s.state.Draft.FormStatus = FormIdle
	s.mu.Unlock()
	s.changed()
	return nil
}

// UpdateInstructions replaces the draft's free-text instructions.
func (s *Slice) UpdateInstructions(value string) {
	s.mu.Lock()
	s.state.Draft.Instructions = value
	s.state.Draft.FormStatus = FormIdle
	s.mu.Unlock()
	s.changed()
}

// BeginFetch marks a fetch in flight.
func (s *Slice) BeginFetch() {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()
	s.changed()
}

// FetchSucceeded applies fetched prescriptions. With replace the whole
// collection is swapped out; otherwise results merge in keyed by id.
func (s *Slice) FetchSucceeded(items []Prescription, replace bool) {
	s.mu.Lock()
	if replace {
		s.state.Prescriptions = copyPrescriptions(items)
	} else {
		for _, p := range items {
			s.upsertLocked(p)
		}
	}
	s.state.Loading = false
	s.state.Error = ""
	s.mu.Unlock()
	s.changed()
}

// FetchFailed records the error and keeps the existing collection: stale
// data stays available.
func (s *Slice) FetchFailed(msg string) {
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = msg
	s.mu.Unlock()
	s.changed()
}

// BeginSubmit transitions the form to submitting and returns a copy of the
// draft. Only an idle form may enter submission: succeeded and failed
// require an intervening edit or reset first.
func (s *Slice) BeginSubmit() (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Draft.FormStatus == FormSubmitting {
		return Draft{}, ErrSubmitInFlight
	}
	if s.state.Draft.FormStatus != FormIdle {
		return Draft{}, ErrSubmitInFlight
	}
	s.state.Draft.FormStatus = FormSubmitting
	return copyDraft(s.state.Draft), nil
}

// SubmitSucceeded appends the server-assigned prescription exactly once and
// resets the draft, leaving the form in the succeeded state.
func (s *Slice) SubmitSucceeded(created Prescription) {
	s.mu.Lock()
	s.upsertLocked(created)
	s.state.Draft = Draft{FormStatus: FormSucceeded}
	s.mu.Unlock()
	s.changed()
}

// SubmitFailed preserves the draft for correction and marks the form failed.
func (s *Slice) SubmitFailed() {
	s.mu.Lock()
	s.state.Draft.FormStatus = FormFailed
	s.mu.Unlock()
	s.changed()
}

// Get returns a copy of the prescription with the given id.
func (s *Slice) Get(id string) (Prescription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Prescriptions {
		if s.state.Prescriptions[i].PrescriptionID == id {
			return copyPrescription(s.state.Prescriptions[i]), true
		}
	}
	return Prescription{}, false
}

// UpdateStatus changes the named prescription's status in place. An unknown
// id is an error and mutates nothing.
func (s *Slice) UpdateStatus(id string, status Status) error {
	s.mu.Lock()
	for i := range s.state.Prescriptions {
		if s.state.Prescriptions[i].PrescriptionID == id {
			s.state.Prescriptions[i].Status = status
			s.mu.Unlock()
			s.changed()
			return nil
		}
	}
	s.mu.Unlock()
	return ErrNotFound
}

// upsertLocked keeps the collection keyed by id: no two entries ever share
// a prescription id. Caller must hold the lock.
func (s *Slice) upsertLocked(p Prescription) {
	for i := range s.state.Prescriptions {
		if s.state.Prescriptions[i].PrescriptionID == p.PrescriptionID {
			s.state.Prescriptions[i] = copyPrescription(p)
			return
		}
	}
	s.state.Prescriptions = append(s.state.Prescriptions, copyPrescription(p))
}

// StateKey implements store.Snapshotter.
func (s *Slice) StateKey() string { return "prescriptions" }

// Snapshot implements store.Snapshotter.
func (s *Slice) Snapshot() (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.state)
}

// Restore implements store.Snapshotter. Transient flags never survive a
// relaunch: loading clears, errors clear, and an in-flight submission whose
// outcome was lost goes back to idle.
func (s *Slice) Restore(data json.RawMessage) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	st.Loading = false
	st.Error = ""
	if st.Draft.FormStatus == FormSubmitting || st.Draft.FormStatus == "" {
		st.Draft.FormStatus = FormIdle
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func copyMedications(meds []Medication) []Medication {
	out := make([]Medication, len(meds))
	copy(out, meds)
	return out
}

func copyDraft(d Draft) Draft {
	d.Medications = copyMedications(d.Medications)
	return d
}

func copyPrescription(p Prescription) Prescription {
	p.Medications = copyMedications(p.Medications)
	return p
}

func copyPrescriptions(items []Prescription) []Prescription {
	out := make([]Prescription, len(items))
	for i, p := range items {
		out[i] = copyPrescription(p)
	}
	return out
}

func copyState(st State) State {
	st.Prescriptions = copyPrescriptions(st.Prescriptions)
	st.Draft = copyDraft(st.Draft)
	return st
}

// Ensure Slice implements the snapshot contract
var _ store.Snapshotter = (*Slice)(nil)
