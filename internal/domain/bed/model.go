package bed

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/date"
)

// Bed is a physical bed identified by its room label.
type Bed struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Room      string    `db:"room" json:"room"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BedView is a bed together with its current occupant, if any.
type BedView struct {
	Room            string     `json:"room"`
	Occupied        bool       `json:"occupied"`
	PatientDocument *string    `json:"patient_document,omitempty"`
	DoctorDocument  *string    `json:"doctor_document,omitempty"`
	Since           *date.Date `json:"since,omitempty"`
}

// Counts summarises bed usage.
type Counts struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
}

func (c Counts) Free() int {
	return c.Total - c.Occupied
}
