package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dreamware/medrec/internal/database"
	"github.com/dreamware/medrec/internal/graph"
)

var (
	// ErrUnknownCommand is returned for a line whose first word is not a command
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when a command gets too few or malformed arguments
	ErrUsage = errors.New("usage")

	errUnterminatedQuote = errors.New("unterminated quote")
)

type command struct {
	name    string
	usage   string
	minArgs int
	// mutates marks commands followed by an autocommit
	mutates bool
	run     func(s *shell, args []string) error
}

// commands is filled in init because help refers back to it
var (
	commands []command
	byName   map[string]*command
)

func init() {
	commands = []command{
		{name: "help", usage: "help", run: (*shell).help},
		{name: "register", usage: "register <username> <password> <role> <age> <full-name> <ssn>", minArgs: 6, mutates: true, run: (*shell).register},
		{name: "login", usage: "login <username> <password>", minArgs: 2, run: (*shell).login},
		{name: "users", usage: "users", run: (*shell).users},

		{name: "add-clinic", usage: "add-clinic <name> [doctor...]", minArgs: 1, mutates: true, run: (*shell).addClinic},
		{name: "staff", usage: "staff <clinic> <doctor>", minArgs: 2, mutates: true, run: (*shell).staff},
		{name: "clinics", usage: "clinics", run: (*shell).clinics},

		{name: "book", usage: "book <clinic> <doctor> <patient> [priority]", minArgs: 3, mutates: true, run: (*shell).book},
		{name: "cancel", usage: "cancel <doctor> <patient>", minArgs: 2, mutates: true, run: (*shell).cancel},
		{name: "next", usage: "next <doctor>", minArgs: 1, mutates: true, run: (*shell).next},
		{name: "waiting", usage: "waiting <doctor>", minArgs: 1, run: (*shell).waiting},
		{name: "appointments", usage: "appointments <patient>", minArgs: 1, run: (*shell).appointments},

		{name: "prescribe", usage: "prescribe <patient> <medication>...", minArgs: 2, mutates: true, run: (*shell).prescribe},
		{name: "prescription", usage: "prescription <patient>", minArgs: 1, run: (*shell).prescription},
		{name: "dispense", usage: "dispense <patient>", minArgs: 1, mutates: true, run: (*shell).dispense},

		{name: "add-drug", usage: "add-drug <name> <price> <quantity> [id]", minArgs: 3, mutates: true, run: (*shell).addDrug},
		{name: "drug", usage: "drug <name|id>", minArgs: 1, run: (*shell).drug},
		{name: "drugs", usage: "drugs", run: (*shell).drugs},
		{name: "restock", usage: "restock <name> <quantity>", minArgs: 2, mutates: true, run: (*shell).restock},
		{name: "withdraw", usage: "withdraw <name> <quantity>", minArgs: 2, mutates: true, run: (*shell).withdraw},
		{name: "remove-drug", usage: "remove-drug <id>", minArgs: 1, mutates: true, run: (*shell).removeDrug},
		{name: "price-range", usage: "price-range <min> <max>", minArgs: 2, run: (*shell).priceRange},
		{name: "suggest", usage: "suggest <prefix>", minArgs: 1, run: (*shell).suggest},
		{name: "inventory", usage: "inventory", run: (*shell).inventory},

		{name: "add-group", usage: "add-group <name> [drug...]", minArgs: 1, mutates: true, run: (*shell).addGroup},
		{name: "group-add", usage: "group-add <group> <drug>", minArgs: 2, mutates: true, run: (*shell).groupAdd},
		{name: "group", usage: "group <name>", minArgs: 1, run: (*shell).group},
		{name: "remove-group", usage: "remove-group <name>", minArgs: 1, mutates: true, run: (*shell).removeGroup},

		{name: "add-location", usage: "add-location <id> <hospital|home|other>", minArgs: 2, mutates: true, run: (*shell).addLocation},
		{name: "add-road", usage: "add-road <from> <to> [two-way]", minArgs: 2, mutates: true, run: (*shell).addRoad},
		{name: "remove-location", usage: "remove-location <id>", minArgs: 1, mutates: true, run: (*shell).removeLocation},
		{name: "route", usage: "route <from> <to>", minArgs: 2, run: (*shell).route},
		{name: "add-ambulance", usage: "add-ambulance <name> <hospital> [location]", minArgs: 2, mutates: true, run: (*shell).addAmbulance},
		{name: "move-ambulance", usage: "move-ambulance <name> <location>", minArgs: 2, mutates: true, run: (*shell).moveAmbulance},
		{name: "remove-ambulance", usage: "remove-ambulance <name>", minArgs: 1, mutates: true, run: (*shell).removeAmbulance},
		{name: "ambulances", usage: "ambulances", run: (*shell).ambulances},
		{name: "dispatch", usage: "dispatch <patient-location> <hospital>", minArgs: 2, mutates: true, run: (*shell).dispatch},

		{name: "commit", usage: "commit", run: (*shell).commit},
		{name: "stats", usage: "stats", run: (*shell).stats},
		{name: "set-log-level", usage: "set-log-level <level>", minArgs: 1, run: (*shell).setLogLevel},
		{name: "exit", usage: "exit"},
	}
	byName = make(map[string]*command, len(commands))
	for i := range commands {
		byName[commands[i].name] = &commands[i]
	}
}

// shell executes command lines against one database
type shell struct {
	ctx        context.Context
	db         *database.Database
	out        io.Writer
	autocommit bool
}

func newShell(ctx context.Context, db *database.Database, out io.Writer, autocommit bool) *shell {
	return &shell{ctx: ctx, db: db, out: out, autocommit: autocommit}
}

// exec runs one line. quit is true after "exit".
func (s *shell) exec(line string) (quit bool, err error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd, ok := byName[args[0]]
	if !ok {
		return false, errors.Wrap(ErrUnknownCommand, strconv.Quote(args[0]))
	}
	if cmd.name == "exit" {
		return true, nil
	}
	if len(args)-1 < cmd.minArgs {
		return false, errors.Wrap(ErrUsage, cmd.usage)
	}
	if err := cmd.run(s, args[1:]); err != nil {
		return false, err
	}
	if cmd.mutates && s.autocommit {
		if err := s.db.Commit(s.ctx); err != nil && !errors.Is(err, database.ErrNoStore) {
			return false, errors.Wrap(err, "autocommit")
		}
	}
	return false, nil
}

// splitArgs splits on whitespace; double quotes group words into one argument
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errUnterminatedQuote
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}

func (s *shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *shell) table(header string, rows func(w io.Writer)) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	w.Flush()
}

func parseUint32(arg, what string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrUsage, "%s must be a non-negative integer, got %q", what, arg)
	}
	return uint32(v), nil
}

func parsePrice(arg, what string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || v < 0 {
		return 0, errors.Wrapf(ErrUsage, "%s must be a non-negative number, got %q", what, arg)
	}
	return v, nil
}

func (s *shell) help([]string) error {
	io.WriteString(s.out, "Available commands:\n")
	for _, c := range commands {
		s.printf("\t%s\n", c.usage)
	}
	return nil
}

// users

func (s *shell) register(args []string) error {
	role, err := database.ParseRole(args[2])
	if err != nil {
		return errors.Wrap(ErrUsage, err.Error())
	}
	age, err := parseUint32(args[3], "age")
	if err != nil {
		return err
	}
	u, err := s.db.Register(args[0], args[1], args[4], args[5], age, role)
	if err != nil {
		return err
	}
	s.printf("registered %s as %s\n", u.Username, u.Role)
	return nil
}

func (s *shell) login(args []string) error {
	u, err := s.db.Login(args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("welcome, %s (%s)\n", u.FullName, u.Role)
	return nil
}

func (s *shell) users([]string) error {
	s.table("USERNAME\tROLE\tNAME\tAGE", func(w io.Writer) {
		for u := range s.db.Users() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", u.Username, u.Role, u.FullName, u.Age)
		}
	})
	return nil
}

// clinics and appointments

func (s *shell) addClinic(args []string) error {
	if err := s.db.InsertClinic(database.NewClinic(args[0], args[1:]...)); err != nil {
		return err
	}
	s.printf("clinic %s added\n", args[0])
	return nil
}

func (s *shell) staff(args []string) error {
	if err := s.db.AddDoctorToClinic(args[0], args[1]); err != nil {
		return err
	}
	s.printf("%s now works at %s\n", args[1], args[0])
	return nil
}

func (s *shell) clinics([]string) error {
	s.table("CLINIC\tDOCTORS", func(w io.Writer) {
		for c := range s.db.Clinics() {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, strings.Join(c.Doctors.Slice(), ", "))
		}
	})
	return nil
}

func (s *shell) book(args []string) error {
	priority := uint32(database.DefaultPriority)
	if len(args) > 3 {
		p, err := parseUint32(args[3], "priority")
		if err != nil {
			return err
		}
		priority = p
	}
	if err := s.db.MakeAppointment(args[0], args[1], args[2], priority); err != nil {
		return err
	}
	s.printf("%s booked with %s at %s (priority %d)\n", args[2], args[1], args[0], priority)
	return nil
}

func (s *shell) cancel(args []string) error {
	if err := s.db.CancelAppointment(args[0], args[1]); err != nil {
		return err
	}
	s.printf("appointment of %s with %s cancelled\n", args[1], args[0])
	return nil
}

func (s *shell) next(args []string) error {
	p, err := s.db.NextPatient(args[0])
	if err != nil {
		return err
	}
	s.printf("next patient for %s: %s (priority %d)\n", args[0], p.Name, p.Priority)
	return nil
}

func (s *shell) waiting(args []string) error {
	dl, ok := s.db.GetDoctorsList(args[0])
	if !ok {
		return errors.Wrapf(database.ErrNotFound, "doctor %q", args[0])
	}
	p, ok := dl.Patients.Peek()
	if !ok {
		s.printf("nobody is waiting for %s\n", args[0])
		return nil
	}
	s.printf("%d waiting for %s, next: %s (priority %d)\n", dl.Patients.Len(), args[0], p.Name, p.Priority)
	return nil
}

func (s *shell) appointments(args []string) error {
	doctors := s.db.AppointmentsOf(args[0])
	if len(doctors) == 0 {
		s.printf("%s has no appointments\n", args[0])
		return nil
	}
	s.printf("%s is waiting for %s\n", args[0], strings.Join(doctors, ", "))
	return nil
}

// prescriptions

func (s *shell) prescribe(args []string) error {
	if err := s.db.InsertPrescription(database.NewPrescription(args[0], args[1:]...)); err != nil {
		return err
	}
	s.printf("prescription for %s: %d medications\n", args[0], len(args)-1)
	return nil
}

func (s *shell) prescription(args []string) error {
	p, ok := s.db.GetPrescription(args[0])
	if !ok {
		return errors.Wrapf(database.ErrNotFound, "prescription for %q", args[0])
	}
	var meds []string
	for m := range p.Medications.All() {
		meds = append(meds, m)
	}
	s.printf("%s: %s\n", args[0], strings.Join(meds, ", "))
	return nil
}

func (s *shell) dispense(args []string) error {
	meds, err := s.db.DispenseMedications(args[0])
	if err != nil {
		return err
	}
	for _, m := range meds {
		s.printf("dispensed %s\n", m)
	}
	return nil
}

// drugs

func (s *shell) addDrug(args []string) error {
	price, err := parsePrice(args[1], "price")
	if err != nil {
		return err
	}
	quantity, err := parseUint32(args[2], "quantity")
	if err != nil {
		return err
	}
	id := s.db.NextDrugID()
	if len(args) > 3 {
		if id, err = parseUint32(args[3], "id"); err != nil {
			return err
		}
	}
	if err := s.db.InsertDrug(database.Drug{ID: id, Name: args[0], Price: price, Quantity: quantity}); err != nil {
		return err
	}
	s.printf("drug %s added with id %d\n", args[0], id)
	return nil
}

// lookupDrug accepts either a numeric id or an exact name
func (s *shell) lookupDrug(arg string) (*database.Drug, error) {
	if id, err := strconv.ParseUint(arg, 10, 32); err == nil {
		if d, ok := s.db.GetDrugByID(uint32(id)); ok {
			return d, nil
		}
	}
	if d, ok := s.db.GetDrugByName(arg); ok {
		return d, nil
	}
	return nil, errors.Wrapf(database.ErrNotFound, "drug %q", arg)
}

func (s *shell) drug(args []string) error {
	d, err := s.lookupDrug(args[0])
	if err != nil {
		return err
	}
	s.printDrugs([]database.Drug{*d})
	return nil
}

func (s *shell) printDrugs(drugs []database.Drug) {
	s.table("ID\tNAME\tPRICE\tQUANTITY", func(w io.Writer) {
		for _, d := range drugs {
			fmt.Fprintf(w, "%d\t%s\t%.2f\t%d\n", d.ID, d.Name, d.Price, d.Quantity)
		}
	})
}

func (s *shell) drugs([]string) error {
	var all []database.Drug
	for d := range s.db.Drugs() {
		all = append(all, d)
	}
	s.printDrugs(all)
	return nil
}

func (s *shell) restock(args []string) error {
	quantity, err := parseUint32(args[1], "quantity")
	if err != nil {
		return err
	}
	left, err := s.db.RestockDrug(args[0], quantity)
	if err != nil {
		return err
	}
	s.printf("%s: %d in stock\n", args[0], left)
	return nil
}

func (s *shell) withdraw(args []string) error {
	quantity, err := parseUint32(args[1], "quantity")
	if err != nil {
		return err
	}
	left, err := s.db.WithdrawDrug(args[0], quantity)
	if err != nil {
		return err
	}
	if left == 0 {
		s.printf("%s: out of stock, removed\n", args[0])
		return nil
	}
	s.printf("%s: %d in stock\n", args[0], left)
	return nil
}

func (s *shell) removeDrug(args []string) error {
	id, err := parseUint32(args[0], "id")
	if err != nil {
		return err
	}
	if !s.db.RemoveDrug(id) {
		return errors.Wrapf(database.ErrNotFound, "drug %d", id)
	}
	s.printf("drug %d removed\n", id)
	return nil
}

func (s *shell) priceRange(args []string) error {
	lo, err := parsePrice(args[0], "min")
	if err != nil {
		return err
	}
	hi, err := parsePrice(args[1], "max")
	if err != nil {
		return err
	}
	s.printDrugs(s.db.DrugsInPriceRange(lo, hi))
	return nil
}

func (s *shell) suggest(args []string) error {
	for _, name := range s.db.SuggestDrugs(args[0]) {
		s.printf("%s\n", name)
	}
	return nil
}

func (s *shell) inventory([]string) error {
	inv, ok := s.db.Inventory()
	if !ok {
		s.printf("no drugs in stock\n")
		return nil
	}
	search := s.db.SearchStats()
	s.printf("drugs: %d (tree height %d)\n", inv.Count, search.Height)
	s.printf("units: %d\n", inv.TotalQuantity)
	s.printf("cheapest: %s (%.2f)\n", inv.Cheapest.Name, inv.Cheapest.Price)
	s.printf("most expensive: %s (%.2f)\n", inv.MostExpensive.Name, inv.MostExpensive.Price)
	return nil
}

func (s *shell) addGroup(args []string) error {
	ids := make([]uint32, 0, len(args)-1)
	for _, name := range args[1:] {
		d, ok := s.db.GetDrugByName(name)
		if !ok {
			return errors.Wrapf(database.ErrNotFound, "drug %q", name)
		}
		ids = append(ids, d.ID)
	}
	if err := s.db.InsertDrugGroup(database.NewDrugGroup(args[0], ids...)); err != nil {
		return err
	}
	s.printf("group %s added\n", args[0])
	return nil
}

func (s *shell) groupAdd(args []string) error {
	if err := s.db.AddDrugToGroup(args[0], args[1]); err != nil {
		return err
	}
	s.printf("%s added to %s\n", args[1], args[0])
	return nil
}

func (s *shell) group(args []string) error {
	drugs, err := s.db.GroupDrugs(args[0])
	if err != nil {
		return err
	}
	s.printDrugs(drugs)
	return nil
}

func (s *shell) removeGroup(args []string) error {
	if !s.db.RemoveDrugGroup(args[0]) {
		return errors.Wrapf(database.ErrNotFound, "group %q", args[0])
	}
	s.printf("group %s removed\n", args[0])
	return nil
}

// map and ambulances

func (s *shell) addLocation(args []string) error {
	kind, err := graph.ParseLocationKind(args[1])
	if err != nil {
		return errors.Wrap(ErrUsage, err.Error())
	}
	if err := s.db.AddLocation(args[0], kind); err != nil {
		return err
	}
	s.printf("%s %s added\n", kind, args[0])
	return nil
}

// addRoad checks both ends first so a two-way road is added whole or not at all
func (s *shell) addRoad(args []string) error {
	for _, id := range args[:2] {
		if !s.db.Map().HasNode(id) {
			return errors.Wrap(graph.ErrNodeNotFound, id)
		}
	}
	if err := s.db.AddRoad(args[0], args[1]); err != nil {
		return err
	}
	if len(args) > 2 && args[2] == "two-way" {
		if err := s.db.AddRoad(args[1], args[0]); err != nil {
			return err
		}
		s.printf("road %s <-> %s added\n", args[0], args[1])
		return nil
	}
	s.printf("road %s -> %s added\n", args[0], args[1])
	return nil
}

func (s *shell) removeLocation(args []string) error {
	if err := s.db.RemoveLocation(args[0]); err != nil {
		return err
	}
	s.printf("%s removed\n", args[0])
	return nil
}

func (s *shell) route(args []string) error {
	path, ok := s.db.Map().ShortestPath(args[0], args[1])
	if !ok {
		s.printf("no route from %s to %s\n", args[0], args[1])
		return nil
	}
	s.printf("%s\n", strings.Join(path, " -> "))
	return nil
}

func (s *shell) addAmbulance(args []string) error {
	a := database.Ambulance{Name: args[0], Hospital: args[1], Location: args[1]}
	if len(args) > 2 {
		a.Location = args[2]
	}
	if err := s.db.InsertAmbulance(a); err != nil {
		return err
	}
	s.printf("ambulance %s based at %s, parked at %s\n", a.Name, a.Hospital, a.Location)
	return nil
}

func (s *shell) moveAmbulance(args []string) error {
	if err := s.db.MoveAmbulance(args[0], args[1]); err != nil {
		return err
	}
	s.printf("ambulance %s parked at %s\n", args[0], args[1])
	return nil
}

func (s *shell) removeAmbulance(args []string) error {
	if err := s.db.RemoveAmbulance(args[0]); err != nil {
		return err
	}
	s.printf("ambulance %s removed\n", args[0])
	return nil
}

func (s *shell) ambulances([]string) error {
	s.table("AMBULANCE\tHOSPITAL\tLOCATION", func(w io.Writer) {
		for a := range s.db.Ambulances() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.Hospital, a.Location)
		}
	})
	return nil
}

func (s *shell) dispatch(args []string) error {
	d, err := s.db.Dispatch(args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("%s dispatched: %s, then on to %s (cost %.1f)\n",
		d.Ambulance, strings.Join(d.Route, " -> "), d.Hospital, d.Cost)
	return nil
}

// maintenance

func (s *shell) commit([]string) error {
	if err := s.db.Commit(s.ctx); err != nil {
		return err
	}
	s.printf("committed\n")
	return nil
}

func (s *shell) stats([]string) error {
	st := s.db.Stats()
	s.table("RECORD\tCOUNT", func(w io.Writer) {
		r := st.Records
		for _, row := range []struct {
			name  string
			count int
		}{
			{"users", r.Users},
			{"clinics", r.Clinics},
			{"waiting lists", r.DoctorsLists},
			{"prescriptions", r.Prescriptions},
			{"drugs", r.Drugs},
			{"drug groups", r.DrugGroups},
			{"ambulances", r.Ambulances},
			{"locations", r.Locations},
			{"roads", r.Roads},
		} {
			fmt.Fprintf(w, "%s\t%d\n", row.name, row.count)
		}
	})
	s.printf("reads %d, writes %d, rejected %d, commits %d\n", st.Ops.Reads, st.Ops.Writes, st.Ops.Rejected, st.Ops.Commits)
	s.printf("storage: %d keys, %d bytes\n", st.Storage.Keys, st.Storage.Bytes)
	return nil
}

func (s *shell) setLogLevel(args []string) error {
	level, err := log.ParseLevel(args[0])
	if err != nil {
		return errors.Wrap(ErrUsage, err.Error())
	}
	log.SetLevel(level)
	s.printf("log level %s\n", level)
	return nil
}
