package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

var (
	ErrInvalidSeed = errors.New("invalid seed")
)

// seed document: {"0xaddress": {"0xkey": "0xvalue"}}
type seed map[string]map[string]string

// LoadSeed stores every pair of a seed document
func (s *Store) LoadSeed(r io.Reader) error {
	var doc seed
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	for a, slots := range doc {
		address, err := kv.ParseAddress(a)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSeed, err)
		}
		for k, v := range slots {
			key, err := kv.ParseKey(k)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidSeed, a, err)
			}
			value, err := kv.DecodeHex(v)
			if err != nil {
				return fmt.Errorf("%w: %s %s: %w", ErrInvalidSeed, a, k, err)
			}
			s.Put(address, key, value)
		}
	}
	return nil
}

func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadSeed(f)
}

// Snapshot writes the whole store as a seed document
func (s *Store) Snapshot(w io.Writer) error {
	doc := make(seed)
	for _, address := range s.Addresses() {
		slots := make(map[string]string)
		for _, p := range s.All(address) {
			slots[p.Key.String()] = kv.EncodeHex(p.Value)
		}
		doc[address.Hex()] = slots
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// SaveFile snapshots the store into path, replacing it atomically
func (s *Store) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err = s.Snapshot(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SaveEvery snapshots into path every interval until ctx is done, and once more on exit.
// A zero interval disables saving.
func (s *Store) SaveEvery(ctx context.Context, path string, interval time.Duration) {
	if interval == 0 || path == "" {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SaveFile(path); err != nil {
				s.sugar.Errorw("memstore save", "file", path, "error", err)
			}
		case <-ctx.Done():
			if err := s.SaveFile(path); err != nil {
				s.sugar.Errorw("memstore save", "file", path, "error", err)
			}
			return
		}
	}
}
