package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/date"
)

// Role is the capacity in which a person acts.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// UserInfo maps to the users_info table: the person, shared by all roles.
type UserInfo struct {
	NumDocument  string     `db:"num_document" json:"num_document"`
	TypeDocument *string    `db:"type_document" json:"type_document,omitempty"`
	Name         *string    `db:"name" json:"name,omitempty"`
	Surname      *string    `db:"surname" json:"surname,omitempty"`
	Sex          *string    `db:"sex" json:"sex,omitempty"`
	Birthday     *date.Date `db:"birthday" json:"birthday,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Identity maps to the user_roles table: one (document, role) pair.
type Identity struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	NumDocument   string     `db:"num_document" json:"num_document"`
	Role          Role       `db:"role" json:"role"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	InactiveSince *date.Date `db:"inactive_since" json:"inactive_since,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// User is a person together with every role they hold.
type User struct {
	UserInfo
	Roles []*Identity `json:"roles"`
}

// Member is one row of a role listing.
type Member struct {
	UserInfo
	Role     Role `json:"role"`
	IsActive bool `json:"is_active"`
}

// Responsible maps to patient_info: the person answering for a patient.
type Responsible struct {
	PatientID    uuid.UUID `db:"patient_id" json:"-"`
	NumDocument  *string   `db:"num_doc_responsible" json:"num_document,omitempty"`
	TypeDocument *string   `db:"type_doc_responsible" json:"type_document,omitempty"`
	Name         *string   `db:"name_responsible" json:"name,omitempty"`
	Surname      *string   `db:"surname_responsible" json:"surname,omitempty"`
	Phone        *string   `db:"phone_responsible" json:"phone,omitempty"`
	Relationship *string   `db:"relationship_responsible" json:"relationship,omitempty"`
}

// UserUpdate is a partial update of UserInfo: nil fields are left untouched.
type UserUpdate struct {
	TypeDocument *string    `json:"type_document,omitempty"`
	Name         *string    `json:"name,omitempty"`
	Surname      *string    `json:"surname,omitempty"`
	Sex          *string    `json:"sex,omitempty" validate:"omitempty,oneof=M F O"`
	Birthday     *date.Date `json:"birthday,omitempty"`
	Address      *string    `json:"address,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
}

// IsEmpty reports whether the update carries no field at all.
func (u UserUpdate) IsEmpty() bool {
	return u.TypeDocument == nil && u.Name == nil && u.Surname == nil && u.Sex == nil &&
		u.Birthday == nil && u.Address == nil && u.Phone == nil && u.Email == nil
}

// Apply merges the non-nil fields of u into info and reports whether any
// stored value changed.
func (u UserUpdate) Apply(info *UserInfo) bool {
	changed := false
	mergeStr(&info.TypeDocument, u.TypeDocument, &changed)
	mergeStr(&info.Name, u.Name, &changed)
	mergeStr(&info.Surname, u.Surname, &changed)
	mergeStr(&info.Sex, u.Sex, &changed)
	mergeStr(&info.Address, u.Address, &changed)
	mergeStr(&info.Phone, u.Phone, &changed)
	mergeStr(&info.Email, u.Email, &changed)
	if u.Birthday != nil && (info.Birthday == nil || !info.Birthday.Equal(u.Birthday.Time)) {
		b := *u.Birthday
		info.Birthday = &b
		changed = true
	}
	return changed
}

func mergeStr(dst **string, src *string, changed *bool) {
	if src == nil {
		return
	}
	if *dst != nil && **dst == *src {
		return
	}
	v := *src
	*dst = &v
	*changed = true
}
