package hospitalization

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/bed"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/date"
)

// memStore implements Ledger and History over maps. memTx snapshots it so a
// failed transaction leaves no trace, like the database would.
type memStore struct {
	entries map[uuid.UUID]OccupancyEntry
	records map[uuid.UUID]Record
	seq     map[uuid.UUID]int
	next    int

	docs  map[uuid.UUID]string
	rooms map[uuid.UUID]string
}

func newMemStore() *memStore {
	return &memStore{
		entries: make(map[uuid.UUID]OccupancyEntry),
		records: make(map[uuid.UUID]Record),
		seq:     make(map[uuid.UUID]int),
		docs:    make(map[uuid.UUID]string),
		rooms:   make(map[uuid.UUID]string),
	}
}

type snapshot struct {
	entries map[uuid.UUID]OccupancyEntry
	records map[uuid.UUID]Record
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		entries: make(map[uuid.UUID]OccupancyEntry, len(s.entries)),
		records: make(map[uuid.UUID]Record, len(s.records)),
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	for k, v := range s.records {
		snap.records[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.entries = snap.entries
	s.records = snap.records
}

func (s *memStore) IsBedFree(_ context.Context, bedID uuid.UUID) (bool, error) {
	for _, e := range s.entries {
		if e.BedID == bedID {
			return false, nil
		}
	}
	return true, nil
}

func (s *memStore) IsPatientOccupying(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, e := range s.entries {
		if e.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Occupy(_ context.Context, bedID, patientID, doctorID uuid.UUID) (uuid.UUID, error) {
	for _, e := range s.entries {
		if e.BedID == bedID {
			return uuid.Nil, &db.UniqueViolation{Constraint: ConstraintBedTaken}
		}
		if e.PatientID == patientID {
			return uuid.Nil, &db.UniqueViolation{Constraint: ConstraintPatientInBed}
		}
	}
	id := uuid.New()
	s.entries[id] = OccupancyEntry{ID: id, BedID: bedID, PatientID: patientID, DoctorID: doctorID}
	return id, nil
}

func (s *memStore) Vacate(_ context.Context, patientID uuid.UUID) error {
	for id, e := range s.entries {
		if e.PatientID == patientID {
			delete(s.entries, id)
			return nil
		}
	}
	return ErrEntryNotFound
}

func (s *memStore) Current(_ context.Context) ([]*OccupancyView, error) {
	var out []*OccupancyView
	for _, e := range s.entries {
		v := &OccupancyView{Room: s.rooms[e.BedID], PatientDocument: s.docs[e.PatientID], DoctorDocument: s.docs[e.DoctorID]}
		for _, r := range s.records {
			if r.PatientID == e.PatientID && r.IsOpen() {
				v.EntryDate = date.New(r.EntryDate)
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out, nil
}

func (s *memStore) OpenStay(_ context.Context, patientID, doctorID uuid.UUID, entryDate time.Time) (uuid.UUID, error) {
	for _, r := range s.records {
		if r.PatientID == patientID && r.IsOpen() {
			return uuid.Nil, &db.UniqueViolation{Constraint: ConstraintOpenStayExists}
		}
	}
	id := uuid.New()
	s.records[id] = Record{ID: id, PatientID: patientID, DoctorID: doctorID, EntryDate: date.Of(entryDate)}
	s.next++
	s.seq[id] = s.next
	return id, nil
}

func (s *memStore) FindOpenStay(_ context.Context, patientID uuid.UUID) (*Record, error) {
	for _, r := range s.records {
		if r.PatientID == patientID && r.IsOpen() {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *memStore) CloseStay(_ context.Context, recordID uuid.UUID, dischargeDate time.Time) error {
	r, ok := s.records[recordID]
	if !ok || !r.IsOpen() {
		return ErrStayClosed
	}
	d := date.Of(dischargeDate)
	r.DischargeDate = &d
	s.records[recordID] = r
	return nil
}

func (s *memStore) views(keep func(Record) bool) []*RecordView {
	var recs []Record
	for _, r := range s.records {
		if keep(r) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].EntryDate.Equal(recs[j].EntryDate) {
			return recs[i].EntryDate.After(recs[j].EntryDate)
		}
		return s.seq[recs[i].ID] > s.seq[recs[j].ID]
	})
	out := make([]*RecordView, 0, len(recs))
	for _, r := range recs {
		out = append(out, &RecordView{
			ID:              r.ID,
			PatientDocument: s.docs[r.PatientID],
			DoctorDocument:  s.docs[r.DoctorID],
			EntryDate:       date.New(r.EntryDate),
			DischargeDate:   date.Ptr(r.DischargeDate),
		})
	}
	return out
}

func (s *memStore) List(_ context.Context, limit, offset int) ([]*RecordView, int, error) {
	all := s.views(func(Record) bool { return true })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memStore) ListByPatient(_ context.Context, doc string) ([]*RecordView, error) {
	return s.views(func(r Record) bool { return s.docs[r.PatientID] == doc }), nil
}

type memTx struct {
	store *memStore
}

func (t memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// -- Identity and bed directories --

type identityKey struct {
	doc  string
	role identity.Role
}

type memIdentities struct {
	store  *memStore
	byKey  map[identityKey]*identity.Identity
	locked []identityKey
}

func (m *memIdentities) add(doc string, role identity.Role, active bool) *identity.Identity {
	ident := &identity.Identity{ID: uuid.New(), NumDocument: doc, Role: role, IsActive: active}
	m.byKey[identityKey{doc, role}] = ident
	m.store.docs[ident.ID] = doc
	return ident
}

func (m *memIdentities) Resolve(_ context.Context, doc string, role identity.Role, activeOnly bool) (*identity.Identity, error) {
	ident, ok := m.byKey[identityKey{doc, role}]
	if !ok || (activeOnly && !ident.IsActive) {
		return nil, identity.ErrNotFound
	}
	return ident, nil
}

func (m *memIdentities) ResolveLocked(ctx context.Context, doc string, role identity.Role) (*identity.Identity, error) {
	m.locked = append(m.locked, identityKey{doc, role})
	return m.Resolve(ctx, doc, role, true)
}

type memBeds struct {
	store  *memStore
	byRoom map[string]*bed.Bed
}

func (m *memBeds) add(room string) *bed.Bed {
	b := &bed.Bed{ID: uuid.New(), Room: room}
	m.byRoom[room] = b
	m.store.rooms[b.ID] = room
	return b
}

func (m *memBeds) ResolveRoom(_ context.Context, room string) (*bed.Bed, error) {
	b, ok := m.byRoom[room]
	if !ok {
		return nil, bed.ErrBedNotFound
	}
	return b, nil
}

// racingLedger reports every bed and patient as free, as a concurrent
// transaction that has not committed yet would see them.
type racingLedger struct {
	*memStore
}

func (racingLedger) IsBedFree(context.Context, uuid.UUID) (bool, error) { return true, nil }

func (racingLedger) IsPatientOccupying(context.Context, uuid.UUID) (bool, error) { return false, nil }

// failingHistory fails OpenStay with a plain store error.
type failingHistory struct {
	*memStore
}

var errStoreDown = errors.New("connection reset")

func (failingHistory) OpenStay(context.Context, uuid.UUID, uuid.UUID, time.Time) (uuid.UUID, error) {
	return uuid.Nil, errStoreDown
}

type countingObserver struct {
	admissions map[string]int
	discharges map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{admissions: map[string]int{}, discharges: map[string]int{}}
}

func (o *countingObserver) ObserveAdmission(outcome string) { o.admissions[outcome]++ }
func (o *countingObserver) ObserveDischarge(outcome string) { o.discharges[outcome]++ }
