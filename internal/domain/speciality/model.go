package speciality

import "github.com/google/uuid"

type Speciality struct {
	ID          uuid.UUID `db:"id" json:"-"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
}

// DoctorRef is a doctor listed under a speciality.
type DoctorRef struct {
	NumDocument string  `json:"num_document"`
	Name        *string `json:"name,omitempty"`
	Surname     *string `json:"surname,omitempty"`
	IsActive    bool    `json:"is_active"`
}

type CreateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// AssignRequest links a doctor to a speciality. When Description is set and
// the speciality does not exist yet, it is created.
type AssignRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}
