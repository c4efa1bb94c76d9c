package infra

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

const (
	stateKeyFile = "state.key"
	stateKeyLen  = 32
)

// StateKeyFile keeps the state database key as hex in the data directory.
// The monitor and the CLI both open the store, so creation happens under a
// lock file next to the key.
type StateKeyFile struct {
	path string
	lock *flock.Flock
}

// NewStateKeyFile returns the key file for dataDir.
func NewStateKeyFile(dataDir string) *StateKeyFile {
	path := filepath.Join(dataDir, stateKeyFile)
	return &StateKeyFile{path: path, lock: flock.New(path + ".lock")}
}

// LoadKey reads the key. Before first use the error wraps fs.ErrNotExist.
func (k *StateKeyFile) LoadKey() ([]byte, error) {
	raw, err := os.ReadFile(k.path)
	if err != nil {
		return nil, fmt.Errorf("read state key: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("state key %s is corrupt: %w", k.path, err)
	}
	if len(key) != stateKeyLen {
		return nil, fmt.Errorf("state key %s has %d bytes, want %d", k.path, len(key), stateKeyLen)
	}
	return key, nil
}

// LoadOrCreateKey returns the key, writing a random one on first use.
func (k *StateKeyFile) LoadOrCreateKey() ([]byte, error) {
	key, err := k.LoadKey()
	if !errors.Is(err, fs.ErrNotExist) {
		return key, err
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := k.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock state key: %w", err)
	}
	defer k.lock.Unlock()

	// Another process may have won the race.
	key, err = k.LoadKey()
	if !errors.Is(err, fs.ErrNotExist) {
		return key, err
	}

	key = make([]byte, stateKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate state key: %w", err)
	}
	if err := k.write(key); err != nil {
		return nil, fmt.Errorf("write state key: %w", err)
	}
	return key, nil
}

// write replaces the key file in one rename so readers never see it half written.
func (k *StateKeyFile) write(key []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(k.path), stateKeyFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), k.path)
}

// OpenStateStore opens the state database in dataDir, creating its key on
// first use.
func OpenStateStore(dataDir string) (*EncryptedStateStore, error) {
	key, err := NewStateKeyFile(dataDir).LoadOrCreateKey()
	if err != nil {
		return nil, err
	}
	return NewEncryptedStateStore(dataDir, key)
}

var _ domain.KeyProvider = (*StateKeyFile)(nil)
