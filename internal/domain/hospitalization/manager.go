package hospitalization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/bed"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/date"
)

// IdentityResolver looks up (document, role) identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, numDocument string, role identity.Role, activeOnly bool) (*identity.Identity, error)
	// ResolveLocked resolves an active identity and share-locks it for the
	// rest of the transaction.
	ResolveLocked(ctx context.Context, numDocument string, role identity.Role) (*identity.Identity, error)
}

// BedResolver looks up a bed by room label.
type BedResolver interface {
	ResolveRoom(ctx context.Context, room string) (*bed.Bed, error)
}

// Observer is told the outcome of every admission and discharge: "ok", the
// refusing Kind, or "error".
type Observer interface {
	ObserveAdmission(outcome string)
	ObserveDischarge(outcome string)
}

// Manager admits and discharges patients. It is the only writer of the
// ledger and the history; each operation runs in one transaction.
type Manager struct {
	identities IdentityResolver
	beds       BedResolver
	ledger     Ledger
	history    History
	tx         db.TxRunner
	logger     zerolog.Logger
	observer   Observer
	now        func() time.Time
}

func NewManager(identities IdentityResolver, beds BedResolver, ledger Ledger, history History, tx db.TxRunner, logger zerolog.Logger) *Manager {
	return &Manager{
		identities: identities,
		beds:       beds,
		ledger:     ledger,
		history:    history,
		tx:         tx,
		logger:     logger.With().Str("component", "hospitalization").Logger(),
		now:        time.Now,
	}
}

// SetClock overrides the source of "today".
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) SetObserver(o Observer) {
	m.observer = o
}

func (m *Manager) today() time.Time {
	return date.Of(m.now())
}

// Admit places a patient in the bed of req.Room under the care of the given
// doctor and opens a hospitalization record. Checks run in a fixed order and
// the first failing one is reported: patient, doctor, same identity, bed,
// bed free, patient not already in a bed, entry date not in the future.
func (m *Manager) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	today := m.today()
	entryDate := req.EntryDate.OrToday(m.now)

	var adm *Admission
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		patient, err := m.resolveActive(ctx, req.PatientDocument, identity.RolePatient)
		if err != nil {
			return err
		}
		doctor, err := m.resolveActive(ctx, req.DoctorDocument, identity.RoleDoctor)
		if err != nil {
			return err
		}
		if req.PatientDocument == req.DoctorDocument {
			return &Error{Kind: KindSameIdentityConflict, Patient: req.PatientDocument, Doctor: req.DoctorDocument}
		}

		b, err := m.beds.ResolveRoom(ctx, req.Room)
		if errors.Is(err, bed.ErrBedNotFound) {
			return &Error{Kind: KindBedNotFound, Room: req.Room}
		}
		if err != nil {
			return fmt.Errorf("resolve bed: %w", err)
		}

		free, err := m.ledger.IsBedFree(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("check bed: %w", err)
		}
		if !free {
			return &Error{Kind: KindBedAlreadyOccupied, Room: req.Room}
		}
		busy, err := m.ledger.IsPatientOccupying(ctx, patient.ID)
		if err != nil {
			return fmt.Errorf("check patient: %w", err)
		}
		if busy {
			return &Error{Kind: KindPatientAlreadyHospitalized, Patient: req.PatientDocument}
		}
		if entryDate.After(today) {
			return &Error{Kind: KindInvalidEntryDate, Patient: req.PatientDocument, Date: entryDate, Bound: today}
		}

		entryID, err := m.ledger.Occupy(ctx, b.ID, patient.ID, doctor.ID)
		if err != nil {
			return m.reclassify(err, req)
		}
		recordID, err := m.history.OpenStay(ctx, patient.ID, doctor.ID, entryDate)
		if err != nil {
			return m.reclassify(err, req)
		}
		adm = &Admission{EntryID: entryID, RecordID: recordID, EntryDate: date.New(entryDate)}
		return nil
	})

	m.observeAdmission(err)
	if err != nil {
		m.logRefusal(err, "admission").
			Str("patient", req.PatientDocument).
			Str("doctor", req.DoctorDocument).
			Str("room", req.Room).
			Msg("admission refused")
		return nil, err
	}

	m.logger.Info().
		Str("patient", req.PatientDocument).
		Str("doctor", req.DoctorDocument).
		Str("room", req.Room).
		Str("entry_date", adm.EntryDate.String()).
		Msg("patient admitted")
	return adm, nil
}

// Discharged describes a closed stay.
type Discharged struct {
	RecordID      uuid.UUID `json:"record_id"`
	EntryDate     date.Date `json:"entry_date"`
	DischargeDate date.Date `json:"discharge_date"`
}

// Discharge closes the patient's open stay and frees their bed. The patient
// may be inactive; what matters is that an open stay exists. The discharge
// date must fall between the entry date and today, both inclusive.
func (m *Manager) Discharge(ctx context.Context, req DischargeRequest) (*Discharged, error) {
	today := m.today()
	dischargeDate := req.DischargeDate.OrToday(m.now)
	notHospitalized := &Error{Kind: KindPatientNotHospitalized, Patient: req.PatientDocument}

	var out *Discharged
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		patient, err := m.identities.Resolve(ctx, req.PatientDocument, identity.RolePatient, false)
		if errors.Is(err, identity.ErrNotFound) {
			return notHospitalized
		}
		if err != nil {
			return fmt.Errorf("resolve patient: %w", err)
		}

		rec, err := m.history.FindOpenStay(ctx, patient.ID)
		if err != nil {
			return fmt.Errorf("find open stay: %w", err)
		}
		if rec == nil {
			return notHospitalized
		}

		entryDate := date.Of(rec.EntryDate)
		if dischargeDate.Before(entryDate) {
			return &Error{Kind: KindInvalidDischargeDate, Patient: req.PatientDocument, Date: dischargeDate, Bound: entryDate}
		}
		if dischargeDate.After(today) {
			return &Error{Kind: KindInvalidDischargeDate, Patient: req.PatientDocument, Date: dischargeDate, Bound: today}
		}

		if err := m.history.CloseStay(ctx, rec.ID, dischargeDate); err != nil {
			if errors.Is(err, ErrStayClosed) {
				return notHospitalized
			}
			return err
		}
		if err := m.ledger.Vacate(ctx, patient.ID); err != nil {
			if !errors.Is(err, ErrEntryNotFound) {
				return err
			}
			m.logger.Warn().Str("patient", req.PatientDocument).Msg("open stay had no bed entry")
		}

		out = &Discharged{RecordID: rec.ID, EntryDate: date.New(entryDate), DischargeDate: date.New(dischargeDate)}
		return nil
	})

	m.observeDischarge(err)
	if err != nil {
		m.logRefusal(err, "discharge").
			Str("patient", req.PatientDocument).
			Msg("discharge refused")
		return nil, err
	}

	m.logger.Info().
		Str("patient", req.PatientDocument).
		Str("discharge_date", out.DischargeDate.String()).
		Msg("patient discharged")
	return out, nil
}

// Current lists who occupies which bed right now.
func (m *Manager) Current(ctx context.Context) ([]*OccupancyView, error) {
	return m.ledger.Current(ctx)
}

func (m *Manager) List(ctx context.Context, limit, offset int) ([]*RecordView, int, error) {
	return m.history.List(ctx, limit, offset)
}

func (m *Manager) ListByPatient(ctx context.Context, patientDocument string) ([]*RecordView, error) {
	return m.history.ListByPatient(ctx, patientDocument)
}

func (m *Manager) resolveActive(ctx context.Context, doc string, role identity.Role) (*identity.Identity, error) {
	ident, err := m.identities.ResolveLocked(ctx, doc, role)
	if err == nil {
		return ident, nil
	}
	if errors.Is(err, identity.ErrNotFound) {
		if role == identity.RoleDoctor {
			return nil, &Error{Kind: KindDoctorNotFound, Doctor: doc}
		}
		return nil, &Error{Kind: KindPatientNotFound, Patient: doc}
	}
	return nil, fmt.Errorf("resolve %s: %w", role, err)
}

// reclassify turns a unique-constraint race lost between the checks and the
// insert into the domain error the checks would have reported.
func (m *Manager) reclassify(err error, req AdmitRequest) error {
	var uv *db.UniqueViolation
	if !errors.As(err, &uv) {
		return err
	}
	var out *Error
	switch uv.Constraint {
	case ConstraintBedTaken:
		out = &Error{Kind: KindBedAlreadyOccupied, Room: req.Room}
	case ConstraintPatientInBed, ConstraintOpenStayExists:
		out = &Error{Kind: KindPatientAlreadyHospitalized, Patient: req.PatientDocument}
	default:
		return fmt.Errorf("admission: %w", err)
	}
	m.logger.Warn().
		Str("constraint", uv.Constraint).
		Str("kind", out.Kind.String()).
		Msg("concurrent admission lost the race")
	return out
}

func (m *Manager) logRefusal(err error, op string) *zerolog.Event {
	if KindOf(err) != 0 {
		return m.logger.Debug().Str("op", op).Str("kind", KindOf(err).String())
	}
	return m.logger.Error().Str("op", op).Err(err)
}

func (m *Manager) observeAdmission(err error) {
	if m.observer != nil {
		m.observer.ObserveAdmission(outcome(err))
	}
}

func (m *Manager) observeDischarge(err error) {
	if m.observer != nil {
		m.observer.ObserveDischarge(outcome(err))
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}
