package database

import (
	"bytes"
	"context"
	"encoding/gob"
	"iter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dreamware/medrec/internal/bst"
	"github.com/dreamware/medrec/internal/graph"
	"github.com/dreamware/medrec/internal/heap"
	"github.com/dreamware/medrec/internal/list"
	"github.com/dreamware/medrec/internal/stack"
	"github.com/dreamware/medrec/internal/storage"
)

const snapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot written by an
// incompatible release
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// snapshot is the gob wire form of a Database. Every sequence is stored in
// an order that rebuilds the same structure:
//   - trees in pre-order, so reinserting reproduces the shape
//   - lists and adjacency in iteration order
//   - waiting lists in heap level order
//   - medications top of stack first
type snapshot struct {
	Version       int
	Users         []User
	Clinics       []clinicRecord
	Doctors       []doctorsListRecord
	Prescriptions []prescriptionRecord
	Drugs         []Drug
	DrugGroups    []drugGroupRecord
	Ambulances    []Ambulance
	Locations     []locationRecord
}

type clinicRecord struct {
	Name    string
	Doctors []string
}

type doctorsListRecord struct {
	Doctor   string
	Capacity int
	Patients []Patient
}

type prescriptionRecord struct {
	PatientName string
	Medications []string
}

type drugGroupRecord struct {
	Name  string
	Drugs []uint32
}

type locationRecord struct {
	ID        string
	Kind      graph.LocationKind
	Neighbors []string
	Objects   []string
}

// MarshalBinary encodes the whole database as a versioned gob snapshot
func (db *Database) MarshalBinary() ([]byte, error) {
	snap := snapshot{
		Version:    snapshotVersion,
		Users:      collect(db.users.PreOrder()),
		Drugs:      collect(db.drugs.PreOrder()),
		Ambulances: db.ambulances.Slice(),
	}
	for c := range db.clinics.All() {
		snap.Clinics = append(snap.Clinics, clinicRecord{Name: c.Name, Doctors: c.Doctors.Slice()})
	}
	for dl := range db.doctors.All() {
		snap.Doctors = append(snap.Doctors, doctorsListRecord{
			Doctor:   dl.Doctor,
			Capacity: dl.Patients.Cap(),
			Patients: collect(dl.Patients.Values()),
		})
	}
	for p := range db.prescriptions.All() {
		snap.Prescriptions = append(snap.Prescriptions, prescriptionRecord{
			PatientName: p.PatientName,
			Medications: collect(p.Medications.All()),
		})
	}
	for g := range db.drugGroups.All() {
		snap.DrugGroups = append(snap.DrugGroups, drugGroupRecord{Name: g.Name, Drugs: g.Drugs.Slice()})
	}
	db.cityMap.Nodes(func(id string, n *graph.Node) {
		rec := locationRecord{ID: id, Kind: n.Kind, Neighbors: db.cityMap.Neighbors(id)}
		for o := range n.Objects.All() {
			rec.Objects = append(rec.Objects, o.Name)
		}
		snap.Locations = append(snap.Locations, rec)
	})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return buf.Bytes(), nil
}

// Decode rebuilds a database from a MarshalBinary snapshot. The result
// commits to store with opts.
func Decode(data []byte, store storage.Store, opts Options) (*Database, error) {
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	if snap.Version != snapshotVersion {
		return nil, errors.Wrapf(ErrSnapshotVersion, "got %d, want %d", snap.Version, snapshotVersion)
	}

	db := New(store, opts)
	db.users = restoreTree(compareUsers, snap.Users)
	db.drugs = restoreTree(compareDrugs, snap.Drugs)
	db.ambulances = list.Of(snap.Ambulances...)

	clinics := make([]Clinic, 0, len(snap.Clinics))
	for _, c := range snap.Clinics {
		clinics = append(clinics, NewClinic(c.Name, c.Doctors...))
	}
	db.clinics = list.Of(clinics...)

	doctors := make([]DoctorsList, 0, len(snap.Doctors))
	for _, rec := range snap.Doctors {
		dl := DoctorsList{Doctor: rec.Doctor, Patients: heap.NewQueue(comparePatients, rec.Capacity)}
		for _, p := range rec.Patients {
			if err := dl.Patients.Push(p); err != nil {
				return nil, errors.Wrapf(err, "restore waiting list %q", rec.Doctor)
			}
		}
		doctors = append(doctors, dl)
	}
	db.doctors = list.Of(doctors...)

	prescriptions := make([]Prescription, 0, len(snap.Prescriptions))
	for _, rec := range snap.Prescriptions {
		meds := stack.New[string]()
		for i := len(rec.Medications) - 1; i >= 0; i-- {
			meds.Push(rec.Medications[i])
		}
		prescriptions = append(prescriptions, Prescription{PatientName: rec.PatientName, Medications: meds})
	}
	db.prescriptions = list.Of(prescriptions...)

	groups := make([]DrugGroup, 0, len(snap.DrugGroups))
	for _, g := range snap.DrugGroups {
		groups = append(groups, NewDrugGroup(g.Name, g.Drugs...))
	}
	db.drugGroups = list.Of(groups...)

	if err := restoreMap(db.cityMap, snap.Locations); err != nil {
		return nil, err
	}
	return db, nil
}

func restoreMap(g *graph.Graph, locations []locationRecord) error {
	for _, loc := range locations {
		if err := g.AddNode(loc.ID, loc.Kind); err != nil {
			return errors.Wrap(err, "restore location")
		}
	}
	// adjacency and objects are pushed to the front, so replay them backwards
	for _, loc := range locations {
		for i := len(loc.Neighbors) - 1; i >= 0; i-- {
			if err := g.AddEdge(loc.ID, loc.Neighbors[i]); err != nil {
				return errors.Wrap(err, "restore road")
			}
		}
		for i := len(loc.Objects) - 1; i >= 0; i-- {
			if err := g.AddObjectToNode(loc.ID, graph.Object{Name: loc.Objects[i]}); err != nil {
				return errors.Wrap(err, "restore ambulance position")
			}
		}
	}
	return nil
}

func restoreTree[T any](cmp func(a, b T) int, preOrder []T) *bst.Tree[T] {
	t := bst.New(cmp)
	for _, v := range preOrder {
		t.Insert(v)
	}
	return t
}

func collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for v := range seq {
		out = append(out, v)
	}
	return out
}

// Commit writes a snapshot of the whole database to its store
func (db *Database) Commit(ctx context.Context) error {
	if db.store == nil {
		return ErrNoStore
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := db.MarshalBinary()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.store.Put(db.opts.SnapshotKey, data); err != nil {
		return errors.Wrapf(err, "write snapshot %q", db.opts.SnapshotKey)
	}
	incr(&db.ops.Commits)
	log.WithFields(log.Fields{"key": db.opts.SnapshotKey, "bytes": len(data)}).Info("snapshot committed")
	return nil
}

// Load reads the snapshot under opts.SnapshotKey from store. It fails with
// storage.ErrKeyNotFound when nothing has been committed yet.
func Load(ctx context.Context, store storage.Store, opts Options) (*Database, error) {
	opts = opts.normalized()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := store.Get(opts.SnapshotKey)
	if err != nil {
		return nil, errors.Wrapf(err, "read snapshot %q", opts.SnapshotKey)
	}
	db, err := Decode(data, store, opts)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"key":   opts.SnapshotKey,
		"bytes": len(data),
		"users": db.users.Len(),
		"drugs": db.drugs.Len(),
	}).Info("snapshot loaded")
	return db, nil
}

// Open loads the committed snapshot, or starts an empty database when the
// store has none.
func Open(ctx context.Context, store storage.Store, opts Options) (*Database, error) {
	db, err := Load(ctx, store, opts)
	if errors.Is(err, storage.ErrKeyNotFound) {
		log.WithField("key", opts.normalized().SnapshotKey).Info("no snapshot, starting empty")
		return New(store, opts), nil
	}
	return db, err
}
