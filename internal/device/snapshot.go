package device

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store keys for the persisted snapshots, one JSON document each.
const (
	SnapshotKeyUser         = "user-store"
	SnapshotKeyTheme        = "theme-store"
	SnapshotKeySubscription = "subscription-store"
)

const SnapshotVersion = 1

var ErrNoSnapshot = errors.New("no persisted snapshot")

type snapshotDocument struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

type snapshotWrite struct {
	key  string
	data []byte // nil means delete
}

// SnapshotStore is the device-local key/value store backing persisted
// store projections. Reads are synchronous for cold-start restore;
// writes are fire-and-forget and serialized through a single writer
// goroutine, so concurrent writers to the same key never interleave.
type SnapshotStore struct {
	dir    string
	writes chan snapshotWrite
	done   chan struct{}
	logger logger
}

type logger interface {
	Debugf(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

func NewSnapshotStore(dir string, lg logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "error creating snapshot directory: %s", dir)
	}
	s := &SnapshotStore{
		dir:    dir,
		writes: make(chan snapshotWrite, 64),
		done:   make(chan struct{}),
		logger: lg,
	}
	go s.writeLoop()
	return s, nil
}

// Put enqueues a snapshot write for key. It never blocks the caller:
// if the queue is full the write is dropped, since a newer state will
// follow on the next mutation anyway.
func (s *SnapshotStore) Put(key string, state any) {
	raw, err := json.Marshal(state)
	if err != nil {
		s.logger.Errorf("SnapshotStore: error marshalling state for key: %s, err: %v", key, err)
		return
	}
	doc, err := json.Marshal(snapshotDocument{Version: SnapshotVersion, State: raw})
	if err != nil {
		s.logger.Errorf("SnapshotStore: error marshalling document for key: %s, err: %v", key, err)
		return
	}
	select {
	case s.writes <- snapshotWrite{key: key, data: doc}:
	default:
		s.logger.Warnf("SnapshotStore: write queue full, dropping snapshot for key: %s", key)
	}
}

// Delete enqueues removal of the snapshot for key.
func (s *SnapshotStore) Delete(key string) {
	select {
	case s.writes <- snapshotWrite{key: key}:
	default:
		s.logger.Warnf("SnapshotStore: write queue full, dropping delete for key: %s", key)
	}
}

// Get reads the snapshot for key into out. A missing file returns
// ErrNoSnapshot. A version mismatch is tolerated: absent fields decode
// to zero values and a warning is logged, matching the no-migration
// restore behavior.
func (s *SnapshotStore) Get(key string, out any) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoSnapshot
		}
		return errors.Wrapf(err, "error reading snapshot for key: %s", key)
	}
	var doc snapshotDocument
	if err = json.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "error unmarshalling snapshot document for key: %s", key)
	}
	if doc.Version != SnapshotVersion {
		s.logger.Warnf("SnapshotStore: snapshot version mismatch for key: %s, have: %d, want: %d",
			key, doc.Version, SnapshotVersion)
	}
	if err = json.Unmarshal(doc.State, out); err != nil {
		return errors.Wrapf(err, "error unmarshalling snapshot state for key: %s", key)
	}
	return nil
}

// Close drains pending writes and stops the writer goroutine.
func (s *SnapshotStore) Close() {
	close(s.writes)
	<-s.done
}

func (s *SnapshotStore) writeLoop() {
	defer close(s.done)
	for w := range s.writes {
		if w.data == nil {
			if err := os.Remove(s.path(w.key)); err != nil && !os.IsNotExist(err) {
				s.logger.Errorf("SnapshotStore: error removing snapshot for key: %s, err: %v", w.key, err)
			}
			continue
		}
		if err := s.writeFile(w.key, w.data); err != nil {
			s.logger.Errorf("SnapshotStore: error writing snapshot for key: %s, err: %v", w.key, err)
		}
	}
}

func (s *SnapshotStore) writeFile(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "error creating temp file")
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "error writing temp file")
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "error closing temp file")
	}
	if err = os.Rename(tmp.Name(), s.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "error renaming temp file")
	}
	return nil
}

func (s *SnapshotStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
