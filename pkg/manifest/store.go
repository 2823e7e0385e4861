package manifest

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/consts"
	"gopkg.in/yaml.v3"
)

// ErrUnreadable is returned alongside an empty state when a manifest exists
// but cannot be read or decoded.
var ErrUnreadable = errors.New("manifest unreadable")

type (
	// Store loads and saves the persisted MigrationState.
	//
	// Load must always return a usable state. When the manifest is missing it
	// returns an empty state and no error; when it is unreadable it returns an
	// empty state together with an error wrapping ErrUnreadable so callers can
	// report it before carrying on.
	Store interface {
		Load() (*MigrationState, error)
		Save(*MigrationState) error
	}

	// FileStore is a Store backed by a single YAML file.
	FileStore struct {
		path     string
		baseline int
	}
)

// NewFileStore creates a FileStore for the manifest at path. Empty states
// start at the baseline version.
func NewFileStore(path string, baseline int) *FileStore {
	return &FileStore{path: path, baseline: baseline}
}

// Path returns the manifest location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the manifest.
func (s *FileStore) Load() (*MigrationState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(s.baseline), nil
		}
		return Empty(s.baseline), errors.Wrapf(ErrUnreadable, "%s: %v", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(s.baseline), nil
	}

	var state MigrationState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return Empty(s.baseline), errors.Wrapf(ErrUnreadable, "%s: %v", s.path, err)
	}

	return &state, nil
}

// Save overwrites the manifest with state. The file is replaced atomically so
// an interrupted write never leaves a truncated manifest behind.
func (s *FileStore) Save(state *MigrationState) error {
	if state == nil {
		return errors.New("cannot save a nil manifest")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create manifest directory: %s", dir)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(state); err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "failed to close yaml encoder")
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.yaml")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary manifest")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write temporary manifest")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary manifest")
	}
	if err := os.Chmod(tmp.Name(), consts.ModeFile); err != nil {
		return errors.Wrap(err, "failed to set manifest permissions")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "failed to replace manifest: %s", s.path)
	}

	return nil
}
