package consultation

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/date"
)

// Consultation maps to medical_consults.
type Consultation struct {
	ID        uuid.UUID `db:"id"`
	PatientID uuid.UUID `db:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id"`
	Area      string    `db:"area"`
	Day       time.Time `db:"day"`
}

// View is a consultation keyed by document numbers.
type View struct {
	ID              uuid.UUID `json:"id"`
	PatientDocument string    `json:"patient_document"`
	DoctorDocument  string    `json:"doctor_document"`
	Area            string    `json:"area"`
	Day             date.Date `json:"day"`
}

// RecordRequest is the input of Service.Record. A zero Day means today.
type RecordRequest struct {
	PatientDocument string    `json:"patient_document" validate:"required,document"`
	DoctorDocument  string    `json:"doctor_document" validate:"required,document"`
	Area            string    `json:"area" validate:"required"`
	Day             date.Date `json:"day"`
}
