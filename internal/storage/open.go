package storage

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// Backends lists the names Open understands
func Backends() []string {
	return []string{BackendMemory, BackendFile, BackendBolt}
}

// Open creates the named backend. path is a directory for the file backend
// and a database file for bolt; the memory backend ignores it.
func Open(backend, path string) (Store, error) {
	var (
		store Store
		err   error
	)
	switch backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendFile:
		store, err = NewFileStore(path)
	case BackendBolt:
		store, err = NewBoltStore(path)
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", backend)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"backend": backend,
		"path":    path,
	}).Info("storage opened")
	return &logged{Store: store, backend: backend}, nil
}

// logged reports Close on the backend chosen by Open
type logged struct {
	Store
	backend string
}

func (l *logged) Close() error {
	err := l.Store.Close()
	entry := log.WithField("backend", l.backend)
	if err != nil {
		entry.WithError(err).Warn("storage close failed")
		return err
	}
	entry.Debug("storage closed")
	return nil
}
