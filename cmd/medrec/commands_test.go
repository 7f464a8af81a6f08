package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/medrec/internal/database"
	"github.com/dreamware/medrec/internal/graph"
	"github.com/dreamware/medrec/internal/storage"
)

func newTestShell(t *testing.T, autocommit bool) (*shell, *bytes.Buffer, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	var out bytes.Buffer
	db := database.New(store, database.DefaultOptions())
	return newShell(context.Background(), db, &out, autocommit), &out, store
}

// script runs lines that must all succeed and returns what they printed
func script(t *testing.T, sh *shell, out *bytes.Buffer, lines ...string) string {
	t.Helper()
	out.Reset()
	for _, line := range lines {
		quit, err := sh.exec(line)
		require.NoError(t, err, line)
		require.False(t, quit, line)
	}
	return out.String()
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"users", []string{"users"}},
		{"  book  er   carter  walk-in ", []string{"book", "er", "carter", "walk-in"}},
		{`add-drug "Vitamin D3" 9 5`, []string{"add-drug", "Vitamin D3", "9", "5"}},
		{`login "" pw`, []string{"login", "", "pw"}},
		{"a\tb", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitArgs(`prescribe "alice`)
	assert.True(t, errors.Is(err, errUnterminatedQuote))
}

func TestExec(t *testing.T) {
	sh, _, _ := newTestShell(t, false)

	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{"unknown command", "fly away", ErrUnknownCommand},
		{"missing arguments", "book er carter", ErrUsage},
		{"bad number", "add-drug Aspirin cheap 10", ErrUsage},
		{"negative price", "add-drug Aspirin -1 10", ErrUsage},
		{"bad role", `register a b janitor 30 "A B" 1`, ErrUsage},
		{"bad location kind", "add-location x castle", ErrUsage},
		{"bad log level", "set-log-level loud", ErrUsage},
		{"database refusal", "next nobody", database.ErrNotFound},
		{"unterminated quote", `drug "Aspirin`, errUnterminatedQuote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quit, err := sh.exec(tt.line)
			assert.False(t, quit)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	quit, err := sh.exec("")
	assert.NoError(t, err)
	assert.False(t, quit)

	quit, err = sh.exec("exit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestHelp(t *testing.T) {
	sh, out, _ := newTestShell(t, false)
	text := script(t, sh, out, "help")
	for _, c := range commands {
		assert.Contains(t, text, c.usage)
	}
}

func TestClinicCommands(t *testing.T) {
	sh, out, _ := newTestShell(t, true)

	text := script(t, sh, out,
		`register carter pw doctor 41 "John Carter" 111`,
		`register ross pw doctor 45 "Doug Ross" 222`,
		`add-clinic er carter`,
		`staff er ross`,
	)
	assert.Contains(t, text, "registered carter as doctor")
	assert.Contains(t, text, "ross now works at er")

	text = script(t, sh, out, "login carter pw")
	assert.Equal(t, "welcome, John Carter (doctor)\n", text)
	_, err := sh.exec("login carter nope")
	assert.True(t, errors.Is(err, database.ErrInvalidCredentials))

	text = script(t, sh, out, "users")
	assert.Contains(t, text, "USERNAME")
	assert.Contains(t, text, "Doug Ross")

	text = script(t, sh, out,
		`book er carter walk-in`,
		`book er carter trauma 1`,
		`book er ross trauma 2`,
	)
	assert.Contains(t, text, "walk-in booked with carter at er (priority 5)")

	assert.Equal(t, "trauma is waiting for ross, carter\n", script(t, sh, out, "appointments trauma"))
	assert.Equal(t, "2 waiting for carter, next: trauma (priority 1)\n", script(t, sh, out, "waiting carter"))
	assert.Equal(t, "next patient for carter: trauma (priority 1)\n", script(t, sh, out, "next carter"))

	script(t, sh, out, "cancel ross trauma")
	assert.Equal(t, "trauma has no appointments\n", script(t, sh, out, "appointments trauma"))

	text = script(t, sh, out, `prescribe walk-in ibuprofen "vitamin c"`, "prescription walk-in")
	assert.Contains(t, text, "walk-in: vitamin c, ibuprofen")
	assert.Equal(t, "dispensed vitamin c\ndispensed ibuprofen\n", script(t, sh, out, "dispense walk-in"))

	text = script(t, sh, out, "clinics")
	assert.Contains(t, text, "er")
	assert.Contains(t, text, "carter")
}

func TestPharmacyCommands(t *testing.T) {
	sh, out, _ := newTestShell(t, true)

	text := script(t, sh, out,
		`add-drug "Vitamin D3" 9 5`,
		`add-drug Aspirin 4.5 100`,
		`add-drug Amoxicillin 12 30 40`,
		`add-drug Atorvastatin 22.9 10`,
	)
	assert.Contains(t, text, "drug Vitamin D3 added with id 1")
	assert.Contains(t, text, "drug Amoxicillin added with id 40")
	assert.Contains(t, text, "drug Atorvastatin added with id 41")

	text = script(t, sh, out, "drug 2")
	assert.Contains(t, text, "Aspirin")
	text = script(t, sh, out, `drug "Vitamin D3"`)
	assert.Contains(t, text, "9.00")
	_, err := sh.exec("drug Placebo")
	assert.True(t, errors.Is(err, database.ErrNotFound))

	assert.Equal(t, "Aspirin: 110 in stock\n", script(t, sh, out, "restock Aspirin 10"))
	assert.Equal(t, "Vitamin D3: out of stock, removed\n", script(t, sh, out, `withdraw "Vitamin D3" 5`))
	_, err = sh.exec("withdraw Aspirin 1000")
	assert.True(t, errors.Is(err, database.ErrInsufficientStock))

	assert.Equal(t, "amoxicillin\naspirin\natorvastatin\n", script(t, sh, out, "suggest a"))

	text = script(t, sh, out, "price-range 4 13")
	assert.Contains(t, text, "Aspirin")
	assert.Contains(t, text, "Amoxicillin")
	assert.NotContains(t, text, "Atorvastatin")

	text = script(t, sh, out, "inventory")
	assert.Contains(t, text, "drugs: 3")
	assert.Contains(t, text, "units: 150")
	assert.Contains(t, text, "cheapest: Aspirin (4.50)")
	assert.Contains(t, text, "most expensive: Atorvastatin (22.90)")

	script(t, sh, out, "add-group antibiotics Amoxicillin", "group-add antibiotics Aspirin")
	text = script(t, sh, out, "group antibiotics")
	assert.Contains(t, text, "Amoxicillin")
	assert.Contains(t, text, "Aspirin")

	script(t, sh, out, "remove-drug 40", "remove-group antibiotics")
	_, err = sh.exec("remove-drug 40")
	assert.True(t, errors.Is(err, database.ErrNotFound))
	_, err = sh.exec("group antibiotics")
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestAmbulanceCommands(t *testing.T) {
	sh, out, _ := newTestShell(t, true)

	script(t, sh, out,
		"add-location general hospital",
		"add-location elm home",
		"add-location x other",
		"add-road general x two-way",
		"add-road x elm two-way",
		"add-ambulance amb-1 general",
	)

	assert.Equal(t, "general -> x -> elm\n", script(t, sh, out, "route general elm"))
	assert.Equal(t, "amb-1 dispatched: general -> x -> elm, then on to general (cost 3.0)\n",
		script(t, sh, out, "dispatch elm general"))

	script(t, sh, out, "move-ambulance amb-1 x")
	text := script(t, sh, out, "ambulances")
	assert.Contains(t, text, "amb-1")
	assert.Contains(t, text, "x")

	_, err := sh.exec("remove-location x")
	assert.True(t, errors.Is(err, database.ErrLocationInUse))
	script(t, sh, out, "remove-ambulance amb-1", "remove-location x")
	assert.Equal(t, "no route from general to elm\n", script(t, sh, out, "route general elm"))
}

// TestRejectedCommandsChangeNothing checks that a command refused part way
// through its arguments leaves no partial record behind to be committed.
func TestRejectedCommandsChangeNothing(t *testing.T) {
	sh, out, store := newTestShell(t, true)
	script(t, sh, out,
		`register carter pw doctor 41 "John Carter" 111`,
		`add-drug Aspirin 4.5 100`,
		"add-location general hospital",
	)

	tests := []struct {
		name    string
		line    string
		wantErr error
		retry   string
	}{
		{"clinic with unknown doctor", "add-clinic cardio carter ghost", database.ErrNotFound, "add-clinic cardio carter"},
		{"clinic listing a doctor twice", "add-clinic icu carter carter", database.ErrAlreadyExists, "add-clinic icu carter"},
		{"group with unknown drug", "add-group painkillers Aspirin Placebo", database.ErrNotFound, "add-group painkillers Aspirin"},
		{"group listing a drug twice", "add-group blood Aspirin Aspirin", database.ErrAlreadyExists, "add-group blood Aspirin"},
		{"two-way road to unknown location", "add-road general elm two-way", graph.ErrNodeNotFound, "add-location elm home"},
		{"two-way road from unknown location", "add-road oak general two-way", graph.ErrNodeNotFound, "add-road general elm two-way"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sh.db.Stats().Ops.Commits
			_, err := sh.exec(tt.line)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, sh.db.Stats().Ops.Commits)

			script(t, sh, out, tt.retry)
		})
	}

	assert.Equal(t, []string{"elm"}, sh.db.Map().Neighbors("general"))
	assert.Equal(t, []string{"general"}, sh.db.Map().Neighbors("elm"))
	assert.Equal(t, 2, sh.db.Map().EdgeCount())

	reloaded, err := database.Load(context.Background(), store, database.DefaultOptions())
	require.NoError(t, err)
	c, ok := reloaded.GetClinic("cardio")
	require.True(t, ok)
	assert.Equal(t, []string{"carter"}, c.Doctors.Slice())
	drugs, err := reloaded.GroupDrugs("painkillers")
	require.NoError(t, err)
	require.Len(t, drugs, 1)
	assert.Equal(t, "Aspirin", drugs[0].Name)
}

func TestAutocommit(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		sh, out, store := newTestShell(t, true)

		script(t, sh, out, "users", "inventory")
		_, err := store.Get("database")
		assert.True(t, errors.Is(err, storage.ErrKeyNotFound), "reads do not commit")

		script(t, sh, out, "add-clinic er")
		_, err = store.Get("database")
		require.NoError(t, err)

		_, err = sh.exec("add-clinic er")
		require.Error(t, err)
		assert.EqualValues(t, 1, sh.db.Stats().Ops.Commits, "refused changes do not commit")
	})

	t.Run("disabled", func(t *testing.T) {
		sh, out, store := newTestShell(t, false)
		script(t, sh, out, "add-clinic er")
		keys, err := store.List()
		require.NoError(t, err)
		assert.Empty(t, keys)

		assert.Equal(t, "committed\n", script(t, sh, out, "commit"))
		keys, err = store.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"database"}, keys)
	})

	t.Run("no store", func(t *testing.T) {
		var out bytes.Buffer
		sh := newShell(context.Background(), database.New(nil, database.DefaultOptions()), &out, true)
		_, err := sh.exec("add-clinic er")
		assert.NoError(t, err, "in-memory databases skip autocommit")
		_, err = sh.exec("commit")
		assert.True(t, errors.Is(err, database.ErrNoStore))
	})
}

func TestStatsAndLogLevel(t *testing.T) {
	sh, out, _ := newTestShell(t, true)
	script(t, sh, out, "add-location general hospital", "add-clinic er")

	text := script(t, sh, out, "stats")
	assert.Contains(t, text, "locations")
	assert.Contains(t, text, "commits 2")
	assert.Contains(t, text, "storage: 1 keys")

	defer log.SetLevel(log.GetLevel())
	assert.Equal(t, "log level debug\n", script(t, sh, out, "set-log-level debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}
