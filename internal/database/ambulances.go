package database

import (
	"iter"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dreamware/medrec/internal/graph"
)

// OtherHospitalPenalty scales the route length of an ambulance based at a
// hospital other than the one the patient is taken to.
const OtherHospitalPenalty = 1.2

// Dispatch describes an ambulance sent to a patient
type Dispatch struct {
	Ambulance string
	// From is where the ambulance was parked
	From string
	// Route is the path from From to the patient, both included
	Route []string
	// Cost is the route's node count, scaled by OtherHospitalPenalty when
	// the ambulance belongs to another hospital
	Cost     float64
	Hospital string
}

// Map returns the city map for read access. Mutate it through the Database
// so ambulance records stay in step.
func (db *Database) Map() *graph.Graph {
	return db.cityMap
}

// AddLocation adds a node to the city map
func (db *Database) AddLocation(id string, kind graph.LocationKind) error {
	if err := db.cityMap.AddNode(id, kind); err != nil {
		return db.reject(err)
	}
	db.wrote()
	return nil
}

// AddRoad adds a one-way road; call it twice for a two-way street.
func (db *Database) AddRoad(from, to string) error {
	if err := db.cityMap.AddEdge(from, to); err != nil {
		return db.reject(err)
	}
	db.wrote()
	return nil
}

// RemoveLocation deletes a node and every road touching it. A location an
// ambulance is parked at or based at cannot be removed.
func (db *Database) RemoveLocation(id string) error {
	for a := range db.ambulances.All() {
		if a.Location == id || a.Hospital == id {
			return db.reject(errors.Wrapf(ErrLocationInUse, "%q by %q", id, a.Name))
		}
	}
	if err := db.cityMap.RemoveNode(id); err != nil {
		return db.reject(err)
	}
	db.wrote()
	return nil
}

// InsertAmbulance bases a at a hospital and parks it at its location.
func (db *Database) InsertAmbulance(a Ambulance) error {
	if _, ok := db.ambulances.GetByUniqAttr(a.Name); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "ambulance %q", a.Name))
	}
	h, ok := db.cityMap.Node(a.Hospital)
	if !ok || h.Kind != graph.Hospital {
		return db.reject(errors.Wrapf(ErrNotFound, "hospital %q", a.Hospital))
	}
	if err := db.cityMap.AddObjectToNode(a.Location, graph.Object{Name: a.Name}); err != nil {
		return db.reject(err)
	}
	db.ambulances.PushFront(a)
	db.wrote()
	return nil
}

// GetAmbulance returns the ambulance called name
func (db *Database) GetAmbulance(name string) (*Ambulance, bool) {
	db.read()
	return db.ambulances.GetByUniqAttr(name)
}

// Ambulances yields every ambulance
func (db *Database) Ambulances() iter.Seq[Ambulance] {
	return db.ambulances.All()
}

// RemoveAmbulance takes the ambulance off the map and out of service
func (db *Database) RemoveAmbulance(name string) error {
	a, ok := db.ambulances.GetByUniqAttr(name)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "ambulance %q", name))
	}
	if err := db.cityMap.RemoveObjectFromNode(a.Location, name); err != nil {
		return db.reject(err)
	}
	db.ambulances.RemoveByUniqAttr(name)
	db.wrote()
	return nil
}

// MoveAmbulance parks the ambulance at location to
func (db *Database) MoveAmbulance(name, to string) error {
	a, ok := db.ambulances.GetByUniqAttr(name)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "ambulance %q", name))
	}
	if err := db.cityMap.MoveObject(a.Location, to, name); err != nil {
		return db.reject(errors.Wrapf(err, "move %q to %q", name, to))
	}
	a.Location = to
	db.wrote()
	return nil
}

// Dispatch sends the cheapest ambulance to patientAt and on to hospital.
//
// Each ambulance is costed by the node count of its shortest route to the
// patient, multiplied by OtherHospitalPenalty when it is based elsewhere.
// Ties go to the first ambulance in iteration order. The chosen ambulance
// ends up parked at hospital.
func (db *Database) Dispatch(patientAt, hospital string) (Dispatch, error) {
	if !db.cityMap.HasNode(patientAt) {
		return Dispatch{}, db.reject(errors.Wrapf(graph.ErrNodeNotFound, "patient location %q", patientAt))
	}
	if h, ok := db.cityMap.Node(hospital); !ok || h.Kind != graph.Hospital {
		return Dispatch{}, db.reject(errors.Wrapf(ErrNotFound, "hospital %q", hospital))
	}

	var (
		chosen *Ambulance
		route  []string
		best   = math.Inf(1)
	)
	for a := range db.ambulances.Pointers() {
		path, ok := db.cityMap.ShortestPath(a.Location, patientAt)
		if !ok {
			continue
		}
		cost := float64(len(path))
		if a.Hospital != hospital {
			cost *= OtherHospitalPenalty
		}
		if cost < best {
			chosen, route, best = a, path, cost
		}
	}
	if chosen == nil {
		return Dispatch{}, db.reject(errors.Wrapf(ErrNoAmbulance, "at %q", patientAt))
	}

	d := Dispatch{Ambulance: chosen.Name, From: chosen.Location, Route: route, Cost: best, Hospital: hospital}
	if err := db.cityMap.MoveObject(chosen.Location, patientAt, chosen.Name); err != nil {
		return Dispatch{}, errors.Wrap(err, "dispatch to patient")
	}
	if err := db.cityMap.MoveObject(patientAt, hospital, chosen.Name); err != nil {
		return Dispatch{}, errors.Wrap(err, "dispatch to hospital")
	}
	chosen.Location = hospital
	db.wrote()

	log.WithFields(log.Fields{
		"ambulance": d.Ambulance,
		"from":      d.From,
		"via":       patientAt,
		"to":        hospital,
		"cost":      d.Cost,
	}).Info("ambulance dispatched")
	return d, nil
}
