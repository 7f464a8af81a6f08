// Command medrec is an interactive shell over the medrec record store.
//
// It loads the configuration, opens the configured storage backend, restores
// the last committed snapshot (or starts empty) and reads commands with
// line editing, history and tab completion. Every command that changes a
// record commits a new snapshot unless -autocommit=false is given, in which
// case one snapshot is written on exit.
//
// Configuration:
//   - -config or MEDREC_CONFIG: optional YAML file, see internal/config
//   - MEDREC_STORAGE_BACKEND, MEDREC_STORAGE_PATH, MEDREC_LOG_LEVEL override it
//
// Example session:
//
//	MEDREC_STORAGE_BACKEND=bolt MEDREC_STORAGE_PATH=medrec.db ./medrec
//	» register house vicodin doctor 52 "Gregory House" 000-00-0000
//	» add-clinic diagnostics house
//	» book diagnostics house "John Doe" 2
//	» next house
//	next patient for house: John Doe (priority 2)
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dreamware/medrec/internal/config"
	"github.com/dreamware/medrec/internal/database"
	"github.com/dreamware/medrec/internal/storage"
)

// logFatal is a variable so tests can intercept fatal errors
var logFatal = log.Fatalf

type flags struct {
	config     string
	history    string
	autocommit bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("medrec", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", os.Getenv("MEDREC_CONFIG"), "YAML configuration file")
	fs.StringVar(&f.history, "history", filepath.Join(os.TempDir(), "medrec-readline.tmp"), "readline history file")
	fs.BoolVar(&f.autocommit, "autocommit", true, "commit a snapshot after every change")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		logFatal("medrec: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		logFatal("medrec: %v", err)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if err := cfg.Log.Apply(log.StandardLogger()); err != nil {
		return err
	}

	db, store, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31m»\033[0m ",
		HistoryFile:     f.history,
		AutoComplete:    newCompleter(db),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "start line editor")
	}
	defer l.Close()
	log.SetOutput(l.Stderr())

	sh := newShell(ctx, db, l.Stdout(), f.autocommit)
	for ctx.Err() == nil {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				break
			}
			continue
		}
		if err != nil {
			break
		}
		quit, err := sh.exec(line)
		if err != nil {
			log.Error(err)
		}
		if quit {
			break
		}
	}

	if !f.autocommit {
		return db.Commit(context.WithoutCancel(ctx))
	}
	return nil
}

// openDatabase opens the configured store and restores its snapshot. The
// caller closes the store.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.Database, storage.Store, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, store, options(cfg))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return db, store, nil
}

func options(cfg *config.Config) database.Options {
	return database.Options{
		SnapshotKey:   cfg.Snapshot.Key,
		Buckets:       cfg.Index.Buckets,
		QueueCapacity: cfg.Index.QueueCapacity,
	}
}

// newCompleter completes command names, log levels and current drug names
func newCompleter(db *database.Database) *readline.PrefixCompleter {
	drugNames := func(string) []string {
		var names []string
		for d := range db.Drugs() {
			names = append(names, d.Name)
		}
		return names
	}
	levels := make([]readline.PrefixCompleterInterface, 0, len(log.AllLevels))
	for _, level := range log.AllLevels {
		levels = append(levels, readline.PcItem(level.String()))
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		switch c.name {
		case "drug", "restock", "withdraw":
			items = append(items, readline.PcItem(c.name, readline.PcItemDynamic(drugNames)))
		case "set-log-level":
			items = append(items, readline.PcItem(c.name, levels...))
		default:
			items = append(items, readline.PcItem(c.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
