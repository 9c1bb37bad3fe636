package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gilestrolab/ethosensor/internal/config"
)

// checksumKey is the key holding the record checksum in the preference
// store, alongside the four field keys.
const checksumKey = "checksum"

// KVStore persists the record as a namespaced preference store: a directory
// holding one small file per key. Writes go through a temporary file and an
// atomic rename, so a crash never leaves a half-written key behind.
//
// The store has no standalone validity marker; a record exists when the name
// key is present and non-empty.
type KVStore struct {
	dir  string
	open bool
}

// NewKVStore creates a key-value backend rooted at the namespace directory.
func NewKVStore(dir string) *KVStore {
	return &KVStore{dir: dir}
}

func (k *KVStore) Name() string { return "kv" }

// Open creates the namespace directory. Idempotent.
func (k *KVStore) Open() error {
	if k.open {
		return nil
	}
	if err := os.MkdirAll(k.dir, 0700); err != nil {
		return fmt.Errorf("open preference namespace: %w", err)
	}
	k.open = true
	return nil
}

// WriteRecord stores every field of the record under its own key.
func (k *KVStore) WriteRecord(data []byte) error {
	if !k.open {
		return fmt.Errorf("preference namespace not open")
	}

	cfg, err := UnmarshalRecord(data)
	if err != nil {
		return err
	}

	for _, field := range config.Fields() {
		value, _ := cfg.Get(field)
		if err := k.writeKey(field, value); err != nil {
			return err
		}
	}
	return k.writeKey(checksumKey, strconv.FormatUint(uint64(cfg.Checksum), 10))
}

// ReadRecord rebuilds the serialized record from the stored keys. A missing
// or empty name key means no record exists.
func (k *KVStore) ReadRecord() ([]byte, error) {
	if !k.open {
		return nil, fmt.Errorf("preference namespace not open")
	}

	name, err := k.readKey(config.FieldName)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrNoRecord
	}

	cfg := config.Configuration{Name: name}
	for _, field := range []string{config.FieldLocation, config.FieldWiFiSSID, config.FieldWiFiPwd} {
		value, err := k.readKey(field)
		if err != nil {
			return nil, err
		}
		cfg.Set(field, value)
	}

	raw, err := k.readKey(checksumKey)
	if err != nil {
		return nil, err
	}
	if raw != "" {
		sum, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("stored checksum %q: %w", raw, err)
		}
		cfg.Checksum = uint16(sum)
	}

	return MarshalRecord(&cfg), nil
}

// WriteField is the native single-key write of the preference store. After
// the field key lands, the checksum key is refreshed over the resulting
// record so the store stays loadable.
func (k *KVStore) WriteField(field, value string) error {
	if !k.open {
		return fmt.Errorf("preference namespace not open")
	}

	if err := k.writeKey(field, config.Truncate(value)); err != nil {
		return err
	}

	var cfg config.Configuration
	for _, f := range config.Fields() {
		v, err := k.readKey(f)
		if err != nil {
			return err
		}
		cfg.Set(f, v)
	}
	return k.writeKey(checksumKey, strconv.FormatUint(uint64(Checksum(&cfg)), 10))
}

// Clear erases the whole namespace. The store stays open and usable.
func (k *KVStore) Clear() error {
	if !k.open {
		return fmt.Errorf("preference namespace not open")
	}
	if err := os.RemoveAll(k.dir); err != nil {
		return fmt.Errorf("clear preference namespace: %w", err)
	}
	if err := os.MkdirAll(k.dir, 0700); err != nil {
		return fmt.Errorf("recreate preference namespace: %w", err)
	}
	return nil
}

func (k *KVStore) writeKey(key, value string) error {
	path := filepath.Join(k.dir, key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0600); err != nil {
		return fmt.Errorf("write key %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: key %s: %v", ErrCommit, key, err)
	}
	return nil
}

// readKey returns the stored value, or "" when the key does not exist.
func (k *KVStore) readKey(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(k.dir, key))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read key %s: %w", key, err)
	}
	return string(data), nil
}
