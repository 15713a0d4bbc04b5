package hospitalization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hms/hms/pkg/date"
)

// Kind classifies why an admission or discharge was refused.
type Kind int

const (
	KindPatientNotFound Kind = iota + 1
	KindDoctorNotFound
	KindSameIdentityConflict
	KindBedNotFound
	KindBedAlreadyOccupied
	KindPatientAlreadyHospitalized
	KindPatientNotHospitalized
	KindInvalidDischargeDate
	KindInvalidEntryDate
)

var kindNames = map[Kind]string{
	KindPatientNotFound:            "PatientNotFound",
	KindDoctorNotFound:             "DoctorNotFound",
	KindSameIdentityConflict:       "SameIdentityConflict",
	KindBedNotFound:                "BedNotFound",
	KindBedAlreadyOccupied:         "BedAlreadyOccupied",
	KindPatientAlreadyHospitalized: "PatientAlreadyHospitalized",
	KindPatientNotHospitalized:     "PatientNotHospitalized",
	KindInvalidDischargeDate:       "InvalidDischargeDate",
	KindInvalidEntryDate:           "InvalidEntryDate",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a refused admission or discharge. Two Errors match under
// errors.Is when their kinds are equal, so the Err* values below can be used
// as sentinels.
type Error struct {
	Kind    Kind
	Patient string
	Doctor  string
	Room    string
	// Date is the offending entry or discharge date; Bound is the limit it
	// crossed.
	Date  time.Time
	Bound time.Time
}

var (
	ErrPatientNotFound            = &Error{Kind: KindPatientNotFound}
	ErrDoctorNotFound             = &Error{Kind: KindDoctorNotFound}
	ErrSameIdentityConflict       = &Error{Kind: KindSameIdentityConflict}
	ErrBedNotFound                = &Error{Kind: KindBedNotFound}
	ErrBedAlreadyOccupied         = &Error{Kind: KindBedAlreadyOccupied}
	ErrPatientAlreadyHospitalized = &Error{Kind: KindPatientAlreadyHospitalized}
	ErrPatientNotHospitalized     = &Error{Kind: KindPatientNotHospitalized}
	ErrInvalidDischargeDate       = &Error{Kind: KindInvalidDischargeDate}
	ErrInvalidEntryDate           = &Error{Kind: KindInvalidEntryDate}
)

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindPatientNotFound:
		fmt.Fprintf(&b, "no active patient with document %q", e.Patient)
	case KindDoctorNotFound:
		fmt.Fprintf(&b, "no active doctor with document %q", e.Doctor)
	case KindSameIdentityConflict:
		fmt.Fprintf(&b, "patient and doctor share document %q", e.Patient)
	case KindBedNotFound:
		fmt.Fprintf(&b, "no bed in room %q", e.Room)
	case KindBedAlreadyOccupied:
		fmt.Fprintf(&b, "bed in room %q is already occupied", e.Room)
	case KindPatientAlreadyHospitalized:
		fmt.Fprintf(&b, "patient %q is already hospitalized", e.Patient)
	case KindPatientNotHospitalized:
		fmt.Fprintf(&b, "patient %q has no open hospitalization", e.Patient)
	case KindInvalidDischargeDate:
		fmt.Fprintf(&b, "discharge date %s must be between the entry date and today",
			date.New(e.Date))
		if !e.Bound.IsZero() {
			fmt.Fprintf(&b, " (limit %s)", date.New(e.Bound))
		}
	case KindInvalidEntryDate:
		fmt.Fprintf(&b, "entry date %s is after today", date.New(e.Date))
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
