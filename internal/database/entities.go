package database

import (
	"cmp"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/dreamware/medrec/internal/heap"
	"github.com/dreamware/medrec/internal/list"
	"github.com/dreamware/medrec/internal/stack"
)

// Role is the kind of account a user holds
type Role int

const (
	RolePatient Role = iota
	RoleDoctor
	RolePharmacist
	RoleTriageSupervisor
	RoleEmergencyDoctor
	RoleAdmin
)

var roleNames = []string{"patient", "doctor", "pharmacist", "triage-supervisor", "emergency-doctor", "admin"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// ParseRole maps a role name, case-insensitively, to a Role
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(s)
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return 0, errors.Errorf("unknown role %q", s)
}

// SeesPatients reports whether the role gets its own waiting list
func (r Role) SeesPatients() bool {
	return r == RoleDoctor || r == RoleEmergencyDoctor
}

// User is an account, ordered and keyed by Username
type User struct {
	Username     string
	PasswordHash string
	FullName     string
	SSN          string
	Age          uint32
	Role         Role
}

// NewUser builds a user, storing only the SHA-256 hex digest of password
func NewUser(username, password, fullName, ssn string, age uint32, role Role) User {
	return User{
		Username:     username,
		PasswordHash: hashPassword(password),
		FullName:     fullName,
		SSN:          ssn,
		Age:          age,
		Role:         role,
	}
}

func (u User) UniqueAttr() string { return u.Username }

// VerifyPassword reports whether password hashes to the stored digest
func (u User) VerifyPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(hashPassword(password))) == 1
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func compareUsers(a, b User) int {
	return cmp.Compare(a.Username, b.Username)
}

// Clinic groups the doctors patients can book with
type Clinic struct {
	Name    string
	Doctors *list.List[string]
}

// NewClinic creates a clinic staffed by doctors
func NewClinic(name string, doctors ...string) Clinic {
	return Clinic{Name: name, Doctors: list.Of(doctors...)}
}

func (c Clinic) UniqueAttr() string { return c.Name }

// DefaultPriority is the priority of a self-booked appointment. Lower values
// are seen first, so this is the least urgent.
const DefaultPriority = 5

// Patient is an entry in a doctor's waiting list
type Patient struct {
	Name     string
	Priority uint32
}

func (p Patient) UniqueAttr() string { return p.Name }

func comparePatients(a, b Patient) int {
	return cmp.Compare(a.Priority, b.Priority)
}

// DoctorsList is a doctor's waiting list, lowest priority value first
type DoctorsList struct {
	Doctor   string
	Patients *heap.PriorityQueue[Patient]
}

// NewDoctorsList creates an empty waiting list bounded by capacity.
// A capacity of zero or less is unbounded.
func NewDoctorsList(doctor string, capacity int) DoctorsList {
	return DoctorsList{Doctor: doctor, Patients: heap.NewQueue(comparePatients, capacity)}
}

func (d DoctorsList) UniqueAttr() string { return d.Doctor }

// Prescription holds medications in the order they are handed out: the last
// one prescribed is dispensed first.
type Prescription struct {
	PatientName string
	Medications *stack.Stack[string]
}

// NewPrescription pushes medications in order, so the last is on top
func NewPrescription(patient string, medications ...string) Prescription {
	s := stack.New[string]()
	for _, m := range medications {
		s.Push(m)
	}
	return Prescription{PatientName: patient, Medications: s}
}

func (p Prescription) UniqueAttr() string { return p.PatientName }

// Drug is a stocked medication, ordered by ID
type Drug struct {
	ID       uint32
	Name     string
	Price    float64
	Quantity uint32
}

func compareDrugs(a, b Drug) int {
	return cmp.Compare(a.ID, b.ID)
}

// DrugGroup is a named set of drug IDs
type DrugGroup struct {
	Name  string
	Drugs *list.List[uint32]
}

// NewDrugGroup creates a group holding ids
func NewDrugGroup(name string, ids ...uint32) DrugGroup {
	return DrugGroup{Name: name, Drugs: list.Of(ids...)}
}

func (g DrugGroup) UniqueAttr() string { return g.Name }

// Ambulance is based at Hospital and currently parked at Location, both
// node ids on the city map.
type Ambulance struct {
	Name     string
	Hospital string
	Location string
}

func (a Ambulance) UniqueAttr() string { return a.Name }
