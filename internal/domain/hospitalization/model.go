package hospitalization

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/date"
)

// OccupancyEntry maps to beds_used: an occupied bed and who occupies it.
type OccupancyEntry struct {
	ID        uuid.UUID `db:"id"`
	BedID     uuid.UUID `db:"bed_id"`
	PatientID uuid.UUID `db:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id"`
}

// Record maps to hospitalizations: one stay of a patient. A nil
// DischargeDate means the stay is still open.
type Record struct {
	ID            uuid.UUID  `db:"id"`
	PatientID     uuid.UUID  `db:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id"`
	EntryDate     time.Time  `db:"entry_date"`
	DischargeDate *time.Time `db:"discharge_date"`
}

func (r *Record) IsOpen() bool {
	return r.DischargeDate == nil
}

// RecordView is a stay as listed to callers, keyed by document numbers.
type RecordView struct {
	ID              uuid.UUID  `json:"id"`
	PatientDocument string     `json:"patient_document"`
	DoctorDocument  string     `json:"doctor_document"`
	EntryDate       date.Date  `json:"entry_date"`
	DischargeDate   *date.Date `json:"discharge_date"`
}

// OccupancyView is one current occupant.
type OccupancyView struct {
	Room            string    `json:"room"`
	PatientDocument string    `json:"patient_document"`
	DoctorDocument  string    `json:"doctor_document"`
	EntryDate       date.Date `json:"entry_date"`
}

// Admission identifies the rows written by a successful Admit.
type Admission struct {
	EntryID   uuid.UUID `json:"entry_id"`
	RecordID  uuid.UUID `json:"record_id"`
	EntryDate date.Date `json:"entry_date"`
}

// AdmitRequest is the input of Manager.Admit. A zero EntryDate means today.
type AdmitRequest struct {
	PatientDocument string    `json:"patient_document" validate:"required,document"`
	DoctorDocument  string    `json:"doctor_document" validate:"required,document"`
	Room            string    `json:"room" validate:"required"`
	EntryDate       date.Date `json:"entry_date"`
}

// DischargeRequest is the input of Manager.Discharge. A zero DischargeDate
// means today.
type DischargeRequest struct {
	PatientDocument string    `json:"patient_document" param:"patient_document" validate:"required,document"`
	DischargeDate   date.Date `json:"discharge_date"`
}
