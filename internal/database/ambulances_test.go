package database

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/medrec/internal/graph"
)

// buildCity lays out two hospitals three hops from a home:
//
//	general - x - elm - y - mercy      island (unconnected)
//
// Every road is two-way.
func buildCity(t *testing.T) *Database {
	t.Helper()
	db := newTestDB(t)
	locations := []struct {
		id   string
		kind graph.LocationKind
	}{
		{"general", graph.Hospital},
		{"mercy", graph.Hospital},
		{"elm", graph.Home},
		{"x", graph.Other},
		{"y", graph.Other},
		{"island", graph.Home},
	}
	for _, l := range locations {
		require.NoError(t, db.AddLocation(l.id, l.kind))
	}
	for _, road := range [][2]string{{"general", "x"}, {"x", "elm"}, {"elm", "y"}, {"y", "mercy"}} {
		require.NoError(t, db.AddRoad(road[0], road[1]))
		require.NoError(t, db.AddRoad(road[1], road[0]))
	}
	return db
}

func parkedAt(t *testing.T, db *Database, location string) []string {
	t.Helper()
	n, ok := db.Map().Node(location)
	require.True(t, ok)
	var names []string
	for o := range n.Objects.All() {
		names = append(names, o.Name)
	}
	return names
}

// TestAmbulanceRegistry covers insert, move and removal
func TestAmbulanceRegistry(t *testing.T) {
	db := buildCity(t)

	require.NoError(t, db.InsertAmbulance(Ambulance{Name: "amb-1", Hospital: "general", Location: "general"}))
	assert.Equal(t, []string{"amb-1"}, parkedAt(t, db, "general"))

	t.Run("insert rejections", func(t *testing.T) {
		err := db.InsertAmbulance(Ambulance{Name: "amb-1", Hospital: "mercy", Location: "mercy"})
		assert.True(t, errors.Is(err, ErrAlreadyExists))

		err = db.InsertAmbulance(Ambulance{Name: "amb-2", Hospital: "elm", Location: "elm"})
		assert.True(t, errors.Is(err, ErrNotFound), "elm is not a hospital")

		err = db.InsertAmbulance(Ambulance{Name: "amb-2", Hospital: "mercy", Location: "atlantis"})
		assert.True(t, errors.Is(err, graph.ErrNodeNotFound))

		_, ok := db.GetAmbulance("amb-2")
		assert.False(t, ok)
	})

	t.Run("move", func(t *testing.T) {
		require.NoError(t, db.MoveAmbulance("amb-1", "x"))
		a, ok := db.GetAmbulance("amb-1")
		require.True(t, ok)
		assert.Equal(t, "x", a.Location)
		assert.Empty(t, parkedAt(t, db, "general"))
		assert.Equal(t, []string{"amb-1"}, parkedAt(t, db, "x"))

		assert.True(t, errors.Is(db.MoveAmbulance("amb-1", "atlantis"), graph.ErrNodeNotFound))
		assert.True(t, errors.Is(db.MoveAmbulance("amb-9", "x"), ErrNotFound))
		a, _ = db.GetAmbulance("amb-1")
		assert.Equal(t, "x", a.Location, "failed move leaves the record alone")
	})

	t.Run("locations in use", func(t *testing.T) {
		assert.True(t, errors.Is(db.RemoveLocation("x"), ErrLocationInUse), "parked")
		assert.True(t, errors.Is(db.RemoveLocation("general"), ErrLocationInUse), "home base")
		assert.True(t, errors.Is(db.RemoveLocation("atlantis"), graph.ErrNodeNotFound))
		require.NoError(t, db.RemoveLocation("island"))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, db.RemoveAmbulance("amb-1"))
		assert.Empty(t, parkedAt(t, db, "x"))
		assert.True(t, errors.Is(db.RemoveAmbulance("amb-1"), ErrNotFound))
		require.NoError(t, db.RemoveLocation("x"))
	})
}

// TestDispatch checks the route cost rule and the final position
func TestDispatch(t *testing.T) {
	tests := []struct {
		name        string
		mercyAt     string
		destination string
		want        string
		wantCost    float64
	}{
		{
			name:        "same distance, own hospital wins",
			mercyAt:     "mercy",
			destination: "general",
			want:        "amb-general",
			wantCost:    3,
		},
		{
			name:        "same distance, other direction",
			mercyAt:     "mercy",
			destination: "mercy",
			want:        "amb-mercy",
			wantCost:    3,
		},
		{
			name:        "nearer ambulance beats the penalty",
			mercyAt:     "y",
			destination: "general",
			want:        "amb-mercy",
			wantCost:    2 * OtherHospitalPenalty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := buildCity(t)
			require.NoError(t, db.InsertAmbulance(Ambulance{Name: "amb-general", Hospital: "general", Location: "general"}))
			// inserted last, so considered first
			require.NoError(t, db.InsertAmbulance(Ambulance{Name: "amb-mercy", Hospital: "mercy", Location: tt.mercyAt}))

			d, err := db.Dispatch("elm", tt.destination)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Ambulance)
			assert.InDelta(t, tt.wantCost, d.Cost, 1e-9)
			assert.Equal(t, "elm", d.Route[len(d.Route)-1])
			assert.Equal(t, d.From, d.Route[0])

			a, ok := db.GetAmbulance(tt.want)
			require.True(t, ok)
			assert.Equal(t, tt.destination, a.Location)
			assert.Contains(t, parkedAt(t, db, tt.destination), tt.want)
			assert.NotContains(t, parkedAt(t, db, "elm"), tt.want)
		})
	}
}

// TestDispatchFailures covers unreachable patients and bad arguments
func TestDispatchFailures(t *testing.T) {
	db := buildCity(t)

	_, err := db.Dispatch("elm", "general")
	assert.True(t, errors.Is(err, ErrNoAmbulance), "no ambulances at all")

	require.NoError(t, db.InsertAmbulance(Ambulance{Name: "amb-1", Hospital: "general", Location: "general"}))

	_, err = db.Dispatch("island", "general")
	assert.True(t, errors.Is(err, ErrNoAmbulance))

	_, err = db.Dispatch("atlantis", "general")
	assert.True(t, errors.Is(err, graph.ErrNodeNotFound))

	_, err = db.Dispatch("elm", "x")
	assert.True(t, errors.Is(err, ErrNotFound))

	a, _ := db.GetAmbulance("amb-1")
	assert.Equal(t, "general", a.Location, "failed dispatch moves nothing")
}

// TestDispatchFromPatientLocation covers an ambulance already on scene
func TestDispatchFromPatientLocation(t *testing.T) {
	db := buildCity(t)
	require.NoError(t, db.InsertAmbulance(Ambulance{Name: "amb-1", Hospital: "general", Location: "elm"}))

	d, err := db.Dispatch("elm", "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"elm"}, d.Route)
	assert.InDelta(t, 1.0, d.Cost, 1e-9)
	assert.Equal(t, []string{"amb-1"}, parkedAt(t, db, "general"))
}
