package secretstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/lexaledger/lexa/internal/constants"
	"github.com/lexaledger/lexa/internal/logger"
)

// Declare conformity to Backend interface
var _ Backend = (*snapshotBackend)(nil)

type snapshotBackend struct {
	deriver KeyDeriver
}

func (b *snapshotBackend) Name() string {
	return "argon2-snapshot"
}

func (b *snapshotBackend) Load(path string, password []byte) (*Snapshot, error) {
	key, err := b.deriver.DeriveKey(password)
	if err != nil {
		return nil, fmt.Errorf("secretstore: deriving key: %w", err)
	}
	fingerprint := b.deriver.Fingerprint()

	s := &Snapshot{
		path:        path,
		key:         key,
		fingerprint: fingerprint,
		clients:     make(map[string]map[string][]byte),
	}

	sealed, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("snapshot does not exist yet", "path", path)
		return s, nil
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("secretstore: reading snapshot: %w", err)
	}

	bd, err := open(sealed, key, fingerprint)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.clients = bd.Clients

	logger.Debug("snapshot loaded", "path", path, "clients", len(s.clients))
	return s, nil
}

// Snapshot is an unlocked vault. Changes stay in memory until Save.
// A Snapshot is not safe for concurrent use.
type Snapshot struct {
	path        string
	key         []byte
	fingerprint [32]byte
	clients     map[string]map[string][]byte
}

// Path returns the file the snapshot is persisted to.
func (s *Snapshot) Path() string {
	return s.path
}

// LoadClient returns the named client.
func (s *Snapshot) LoadClient(name string) (*Client, error) {
	if s.key == nil {
		return nil, ErrClosed
	}
	records, ok := s.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, name)
	}
	return &Client{name: name, records: records}, nil
}

// CreateClient adds an empty client.
func (s *Snapshot) CreateClient(name string) (*Client, error) {
	if s.key == nil {
		return nil, ErrClosed
	}
	if name == "" {
		return nil, errors.New("secretstore: empty client name")
	}
	if _, ok := s.clients[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrClientExists, name)
	}
	records := make(map[string][]byte)
	s.clients[name] = records
	return &Client{name: name, records: records}, nil
}

// LoadOrCreateClient returns the named client, creating it if absent.
func (s *Snapshot) LoadOrCreateClient(name string) (*Client, error) {
	c, err := s.LoadClient(name)
	if errors.Is(err, ErrClientNotFound) {
		return s.CreateClient(name)
	}
	return c, err
}

// Save seals the snapshot and atomically replaces the file on disk.
func (s *Snapshot) Save() error {
	if s.key == nil {
		return ErrClosed
	}

	sealed, err := seal(&body{Clients: s.clients}, s.key, s.fingerprint)
	if err != nil {
		return fmt.Errorf("secretstore: %w", err)
	}

	if err := writeFileAtomic(s.path, sealed); err != nil {
		return fmt.Errorf("secretstore: saving snapshot: %w", err)
	}
	logger.Debug("snapshot saved", "path", s.path, "bytes", len(sealed))
	return nil
}

// Close wipes the key. Further use of the snapshot fails with ErrClosed.
func (s *Snapshot) Close() {
	for i := range s.key {
		s.key[i] = 0
	}
	s.key = nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(constants.SecretFileMode); err != nil {
		cleanup()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Client is a named group of records inside a snapshot.
type Client struct {
	name    string
	records map[string][]byte
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.name
}

// Insert stores value under key, replacing any previous value.
func (c *Client) Insert(key string, value []byte) error {
	if key == "" {
		return errors.New("secretstore: empty record key")
	}
	c.records[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the value stored under key.
func (c *Client) Get(key string) ([]byte, error) {
	v, ok := c.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

// Remove deletes key. Removing a missing key is not an error.
func (c *Client) Remove(key string) {
	delete(c.records, key)
}

// Keys returns the record keys in sorted order.
func (c *Client) Keys() []string {
	keys := make([]string, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
