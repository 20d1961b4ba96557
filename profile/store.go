package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"
)

// ErrCorruptState marks a profile file that exists but cannot be
// decoded. Callers are expected to fail loudly instead of silently
// starting over with an empty profile.
var ErrCorruptState = errors.New("corrupt profile state")

type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the on-disk format from the file extension,
// defaulting to JSON.
func FormatForPath(path string) Format {
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		return FormatYAML
	}

	return FormatJSON
}

func (format Format) decode(src io.Reader, dst any) error {
	switch format {
	case FormatJSON:
		return json.NewDecoder(src).Decode(dst)

	case FormatYAML:
		return yaml.NewDecoder(src).Decode(dst)

	default:
		return errors.New("unsupported profile format")
	}
}

func (format Format) encode(dst io.Writer, src any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(dst)
		enc.SetIndent("", "  ")
		return enc.Encode(src)

	case FormatYAML:
		return yaml.NewEncoder(dst).Encode(src)

	default:
		return errors.New("unsupported profile format")
	}
}

// Patch carries a partial profile update. Nil fields are left
// untouched by Save; set fields overwrite what is stored.
type Patch struct {
	Holders        *Holders
	SelectedHolder *string
	TicketID       *string
	ExpiryDate     *string
	APIKey         *string
}

func (patch Patch) apply(state *State) {
	if patch.Holders != nil {
		state.Holders = *patch.Holders
	}
	if patch.SelectedHolder != nil {
		state.SelectedHolder = *patch.SelectedHolder
	}
	if patch.TicketID != nil {
		state.TicketID = *patch.TicketID
	}
	if patch.ExpiryDate != nil {
		state.ExpiryDate = *patch.ExpiryDate
	}
	if patch.APIKey != nil {
		state.APIKey = *patch.APIKey
	}
}

// Store is the persistence boundary for profile state. Workflows take
// a Store rather than reaching for the file system directly, so tests
// run against MemStore.
type Store interface {
	Load() (State, error)
	Save(patch Patch) error
	SaveCredential(key string) error
}

// FileStore keeps the profile in a single JSON or YAML file, chosen
// by extension.
type FileStore struct {
	path   string
	format Format

	lock sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		format: FormatForPath(path),
	}
}

func (store *FileStore) Load() (State, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	return store.load()
}

func (store *FileStore) load() (State, error) {
	state := State{Holders: Holders{}}

	src, err := os.OpenFile(store.path, os.O_RDONLY, 0600)
	switch {
	case err != nil && os.IsNotExist(err):
		return state, nil

	case err != nil:
		return state, fmt.Errorf("open profile file: %w", err)
	}
	defer src.Close()

	if err = store.format.decode(src, &state); err != nil {
		return State{Holders: Holders{}}, fmt.Errorf("%w: decode %s: %v", ErrCorruptState, store.path, err)
	}

	state.normalize()
	return state, nil
}

// Save merges the patch over the stored state and rewrites the file
// atomically. A corrupt existing file fails the save rather than
// being clobbered.
func (store *FileStore) Save(patch Patch) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	state, err := store.load()
	if err != nil {
		return fmt.Errorf("load profile before save: %w", err)
	}

	patch.apply(&state)

	if err = os.MkdirAll(filepath.Dir(store.path), 0700); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(store.path), ".profile-*")
	if err != nil {
		return fmt.Errorf("create temporary profile file: %w", err)
	}

	if err = store.format.encode(tmp, state); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode profile: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("flush profile: %w", err)
	}

	if err = os.Rename(tmp.Name(), store.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace profile file: %w", err)
	}

	return nil
}

// SaveCredential caches the upstream API key so it does not have to
// be typed again. Empty keys are ignored.
func (store *FileStore) SaveCredential(key string) error {
	if len(key) == 0 {
		return nil
	}

	return store.Save(Patch{APIKey: &key})
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	lock  sync.Mutex
	state State

	// LoadErr, when set, is returned by Load to simulate corrupt or
	// unreadable storage.
	LoadErr error
}

func NewMemStore(state State) *MemStore {
	if state.Holders == nil {
		state.Holders = Holders{}
	}

	return &MemStore{state: state}
}

func (store *MemStore) Load() (State, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	if store.LoadErr != nil {
		return State{Holders: Holders{}}, store.LoadErr
	}

	state := store.state
	state.Holders = make(Holders, len(store.state.Holders))
	for id, holder := range store.state.Holders {
		state.Holders[id] = holder
	}

	return state, nil
}

func (store *MemStore) Save(patch Patch) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	patch.apply(&store.state)
	return nil
}

func (store *MemStore) SaveCredential(key string) error {
	if len(key) == 0 {
		return nil
	}

	return store.Save(Patch{APIKey: &key})
}
