package database

import (
	"iter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dreamware/medrec/internal/bst"
	"github.com/dreamware/medrec/internal/graph"
	"github.com/dreamware/medrec/internal/hashmap"
	"github.com/dreamware/medrec/internal/heap"
	"github.com/dreamware/medrec/internal/list"
	"github.com/dreamware/medrec/internal/stack"
	"github.com/dreamware/medrec/internal/storage"
)

var (
	// ErrAlreadyExists is returned when a unique name or id is already taken
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned when a referenced record is missing
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for a record missing a required field
	ErrInvalid = errors.New("invalid record")
	// ErrInvalidCredentials is returned by Login for an unknown user or a
	// wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInsufficientStock is returned when withdrawing more than is stocked
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrLocationInUse is returned when removing a location an ambulance
	// is parked at or based at
	ErrLocationInUse = errors.New("location in use by an ambulance")
	// ErrNoAmbulance is returned by Dispatch when no ambulance can reach
	// the patient
	ErrNoAmbulance = errors.New("no ambulance can reach the patient")
	// ErrNoStore is returned by Commit on a database opened without a store
	ErrNoStore = errors.New("database has no store")
)

// Options size the structures a Database creates
type Options struct {
	// SnapshotKey is the store key Commit writes to
	SnapshotKey string
	// Buckets is the fixed bucket count of the map's hash tables
	Buckets int
	// QueueCapacity bounds every doctor's waiting list; 0 is unbounded
	QueueCapacity int
}

// DefaultOptions returns the options used by the command line tool when no
// configuration is given.
func DefaultOptions() Options {
	return Options{
		SnapshotKey:   "database",
		Buckets:       hashmap.DefaultBuckets,
		QueueCapacity: heap.DefaultCapacity,
	}
}

func (o Options) normalized() Options {
	if o.SnapshotKey == "" {
		o.SnapshotKey = "database"
	}
	if o.Buckets < 1 {
		o.Buckets = hashmap.DefaultBuckets
	}
	return o
}

// Database owns every record structure of the application and persists them
// as one snapshot. It is not safe for concurrent use.
type Database struct {
	users         *bst.Tree[User]
	clinics       *list.List[Clinic]
	doctors       *list.List[DoctorsList]
	prescriptions *list.List[Prescription]
	drugs         *bst.Tree[Drug]
	drugGroups    *list.List[DrugGroup]
	ambulances    *list.List[Ambulance]
	cityMap       *graph.Graph

	store storage.Store
	opts  Options
	ops   OperationStats
}

// New creates an empty database that commits to store. store may be nil for
// a purely in-memory database, in which case Commit fails with ErrNoStore.
func New(store storage.Store, opts Options) *Database {
	opts = opts.normalized()
	return &Database{
		users:         bst.New(compareUsers),
		clinics:       list.New[Clinic](),
		doctors:       list.New[DoctorsList](),
		prescriptions: list.New[Prescription](),
		drugs:         bst.New(compareDrugs),
		drugGroups:    list.New[DrugGroup](),
		ambulances:    list.New[Ambulance](),
		cityMap:       graph.NewSized(opts.Buckets),
		store:         store,
		opts:          opts,
	}
}

// Options returns the options the database was created with
func (db *Database) Options() Options {
	return db.opts
}

// Users

// InsertUser adds u, failing with ErrAlreadyExists when the username is taken.
func (db *Database) InsertUser(u User) error {
	if _, ok := db.users.GetByUniqAttr(u.Username); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "user %q", u.Username))
	}
	db.users.Insert(u)
	db.wrote()
	return nil
}

// GetUser looks a user up by username in O(height)
func (db *Database) GetUser(username string) (*User, bool) {
	db.read()
	return db.users.GetByUniqAttr(username)
}

// Users yields every user in username order
func (db *Database) Users() iter.Seq[User] {
	return db.users.All()
}

// Register creates a user and, for roles that see patients, an empty
// waiting list under the same name.
func (db *Database) Register(username, password, fullName, ssn string, age uint32, role Role) (User, error) {
	if role.SeesPatients() {
		if _, ok := db.doctors.GetByUniqAttr(username); ok {
			return User{}, db.reject(errors.Wrapf(ErrAlreadyExists, "waiting list %q", username))
		}
	}
	u := NewUser(username, password, fullName, ssn, age, role)
	if err := db.InsertUser(u); err != nil {
		return User{}, err
	}
	if role.SeesPatients() {
		db.doctors.PushFront(NewDoctorsList(username, db.opts.QueueCapacity))
	}
	log.WithFields(log.Fields{"user": username, "role": role}).Info("user registered")
	return u, nil
}

// Login returns the user when password matches
func (db *Database) Login(username, password string) (User, error) {
	u, ok := db.GetUser(username)
	if !ok || !u.VerifyPassword(password) {
		return User{}, db.reject(errors.Wrapf(ErrInvalidCredentials, "user %q", username))
	}
	return *u, nil
}

// Clinics

// InsertClinic adds c, failing with ErrAlreadyExists on a duplicate name.
// Every doctor it lists must have a waiting list and appear once. Nothing is
// stored when c is rejected.
func (db *Database) InsertClinic(c Clinic) error {
	if _, ok := db.clinics.GetByUniqAttr(c.Name); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "clinic %q", c.Name))
	}
	if c.Doctors == nil {
		c.Doctors = list.New[string]()
	}
	seen := make(map[string]bool, c.Doctors.Len())
	for doctor := range c.Doctors.All() {
		if _, ok := db.doctors.GetByUniqAttr(doctor); !ok {
			return db.reject(errors.Wrapf(ErrNotFound, "doctor %q", doctor))
		}
		if seen[doctor] {
			return db.reject(errors.Wrapf(ErrAlreadyExists, "doctor %q at clinic %q", doctor, c.Name))
		}
		seen[doctor] = true
	}
	db.clinics.PushFront(c)
	db.wrote()
	return nil
}

// GetClinic returns the clinic called name for in-place updates
func (db *Database) GetClinic(name string) (*Clinic, bool) {
	db.read()
	return db.clinics.GetByUniqAttr(name)
}

// Clinics yields every clinic, most recently added first
func (db *Database) Clinics() iter.Seq[Clinic] {
	return db.clinics.All()
}

// AddDoctorToClinic staffs clinic with doctor, who must have a waiting list.
func (db *Database) AddDoctorToClinic(clinic, doctor string) error {
	c, ok := db.clinics.GetByUniqAttr(clinic)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "clinic %q", clinic))
	}
	if _, ok := db.doctors.GetByUniqAttr(doctor); !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "doctor %q", doctor))
	}
	if list.Contains(c.Doctors, doctor) {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "doctor %q at clinic %q", doctor, clinic))
	}
	c.Doctors.PushFront(doctor)
	db.wrote()
	return nil
}

// Appointments

// InsertDoctorsList adds a waiting list, one per doctor.
func (db *Database) InsertDoctorsList(dl DoctorsList) error {
	if _, ok := db.doctors.GetByUniqAttr(dl.Doctor); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "waiting list %q", dl.Doctor))
	}
	if dl.Patients == nil {
		dl.Patients = heap.NewQueue(comparePatients, db.opts.QueueCapacity)
	}
	db.doctors.PushFront(dl)
	db.wrote()
	return nil
}

// GetDoctorsList returns doctor's waiting list
func (db *Database) GetDoctorsList(doctor string) (*DoctorsList, bool) {
	db.read()
	return db.doctors.GetByUniqAttr(doctor)
}

// DoctorsLists yields every waiting list
func (db *Database) DoctorsLists() iter.Seq[DoctorsList] {
	return db.doctors.All()
}

// MakeAppointment queues patient with doctor at clinic. Lower priority
// values are seen first. A patient can wait only once per doctor.
func (db *Database) MakeAppointment(clinic, doctor, patient string, priority uint32) error {
	c, ok := db.clinics.GetByUniqAttr(clinic)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "clinic %q", clinic))
	}
	if !list.Contains(c.Doctors, doctor) {
		return db.reject(errors.Wrapf(ErrNotFound, "doctor %q at clinic %q", doctor, clinic))
	}
	dl, ok := db.doctors.GetByUniqAttr(doctor)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "waiting list %q", doctor))
	}
	if _, ok := dl.Patients.GetByUniqAttr(patient); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "%q waiting for %q", patient, doctor))
	}
	if err := dl.Patients.Push(Patient{Name: patient, Priority: priority}); err != nil {
		return db.reject(errors.Wrapf(err, "waiting list %q", doctor))
	}
	db.wrote()
	return nil
}

// CancelAppointment takes patient off doctor's waiting list
func (db *Database) CancelAppointment(doctor, patient string) error {
	dl, ok := db.doctors.GetByUniqAttr(doctor)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "waiting list %q", doctor))
	}
	if !dl.Patients.RemoveByUniqAttr(patient) {
		return db.reject(errors.Wrapf(ErrNotFound, "%q waiting for %q", patient, doctor))
	}
	db.wrote()
	return nil
}

// AppointmentsOf returns the doctors patient is waiting for
func (db *Database) AppointmentsOf(patient string) []string {
	db.read()
	var doctors []string
	for dl := range db.doctors.All() {
		if _, ok := dl.Patients.GetByUniqAttr(patient); ok {
			doctors = append(doctors, dl.Doctor)
		}
	}
	return doctors
}

// NextPatient removes and returns the most urgent patient waiting for doctor
func (db *Database) NextPatient(doctor string) (Patient, error) {
	dl, ok := db.doctors.GetByUniqAttr(doctor)
	if !ok {
		return Patient{}, db.reject(errors.Wrapf(ErrNotFound, "waiting list %q", doctor))
	}
	p, ok := dl.Patients.Pop()
	if !ok {
		return Patient{}, errors.Wrapf(ErrNotFound, "no patients waiting for %q", doctor)
	}
	db.wrote()
	return p, nil
}

// Prescriptions

// InsertPrescription stores p. A patient holds at most one open
// prescription; dispense or remove it before writing another.
func (db *Database) InsertPrescription(p Prescription) error {
	if _, ok := db.prescriptions.GetByUniqAttr(p.PatientName); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "prescription for %q", p.PatientName))
	}
	if p.Medications == nil {
		p.Medications = stack.New[string]()
	}
	db.prescriptions.PushFront(p)
	db.wrote()
	return nil
}

// GetPrescription returns patient's open prescription
func (db *Database) GetPrescription(patient string) (*Prescription, bool) {
	db.read()
	return db.prescriptions.GetByUniqAttr(patient)
}

// Prescriptions yields every open prescription
func (db *Database) Prescriptions() iter.Seq[Prescription] {
	return db.prescriptions.All()
}

// RemovePrescription drops patient's prescription and reports whether one
// existed.
func (db *Database) RemovePrescription(patient string) bool {
	if !db.prescriptions.RemoveByUniqAttr(patient) {
		return false
	}
	db.wrote()
	return true
}

// DispenseMedications pops every medication off patient's prescription, in
// dispensing order, and removes the emptied prescription.
func (db *Database) DispenseMedications(patient string) ([]string, error) {
	p, ok := db.prescriptions.GetByUniqAttr(patient)
	if !ok {
		return nil, db.reject(errors.Wrapf(ErrNotFound, "prescription for %q", patient))
	}
	var dispensed []string
	for {
		m, ok := p.Medications.Pop()
		if !ok {
			break
		}
		dispensed = append(dispensed, m)
	}
	db.prescriptions.RemoveByUniqAttr(patient)
	db.wrote()
	log.WithFields(log.Fields{"patient": patient, "count": len(dispensed)}).Info("medications dispensed")
	return dispensed, nil
}

func (db *Database) read() {
	incr(&db.ops.Reads)
}

func (db *Database) wrote() {
	incr(&db.ops.Writes)
}

// reject counts and logs a refused operation and returns err unchanged
func (db *Database) reject(err error) error {
	incr(&db.ops.Rejected)
	log.WithError(err).Debug("operation rejected")
	return err
}
