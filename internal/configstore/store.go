package configstore

import (
	"encoding/binary"
	"sync"

	"github.com/rangeguard/parkaid-fw/internal/apperr"
	"github.com/rangeguard/parkaid-fw/internal/configstore/nvs"
)

// Store is the typed, validated, persistent configuration cache. All public
// operations take a single mutex guarding both the cache and the backing
// NVS — callers that need several related values should snapshot them into
// a local struct rather than calling the store repeatedly under load.
type Store struct {
	mu    sync.Mutex
	store nvs.NVS

	u16Cache [numU16Params]uint16
	strCache [numStringParams]string
}

// Open attaches a store to an NVS namespace, loading or defaulting every
// known parameter id.
func Open(backing nvs.NVS) (*Store, error) {
	s := &Store{store: backing}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	for id := U16ID(0); id < numU16Params; id++ {
		if err := s.loadU16(id); err != nil {
			return err
		}
	}
	for id := StringID(0); id < numStringParams; id++ {
		if err := s.loadString(id); err != nil {
			return err
		}
	}
	return nil
}

// loadU16 loads one parameter from NVS, writing and caching the table
// default on a missing or corrupt entry (spec §4.3 migration policy).
func (s *Store) loadU16(id U16ID) error {
	meta := u16Params[id]
	raw, ok, err := s.store.Get(u16Key(id))
	if err != nil {
		return apperr.Wrap(apperr.IoError, "configstore.loadU16", err)
	}
	if ok && len(raw) == 2 {
		v := binary.BigEndian.Uint16(raw)
		if v >= meta.Min && v <= meta.Max {
			s.u16Cache[id] = v
			return nil
		}
	}
	return s.persistU16(id, meta.Default)
}

func (s *Store) loadString(id StringID) error {
	meta := strParams[id]
	raw, ok, err := s.store.Get(strKey(id))
	if err != nil {
		return apperr.Wrap(apperr.IoError, "configstore.loadString", err)
	}
	if ok {
		v := string(raw)
		if len(v) >= meta.MinLen && len(v) <= meta.MaxLen {
			s.strCache[id] = v
			return nil
		}
	}
	return s.persistString(id, meta.Default)
}

// FactoryReset erases the entire namespace and rewrites every default.
func (s *Store) FactoryReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Erase(); err != nil {
		return apperr.Wrap(apperr.IoError, "configstore.FactoryReset", err)
	}
	for id := U16ID(0); id < numU16Params; id++ {
		if err := s.persistU16(id, u16Params[id].Default); err != nil {
			return err
		}
	}
	for id := StringID(0); id < numStringParams; id++ {
		if err := s.persistString(id, strParams[id].Default); err != nil {
			return err
		}
	}
	return nil
}

// GetU16 returns the cached value for id.
func (s *Store) GetU16(id U16ID) (uint16, error) {
	if id < 0 || id >= numU16Params {
		return 0, apperr.New(apperr.InvalidArg, "configstore.GetU16", "unknown id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.u16Cache[id], nil
}

// SetU16 validates against the id's table bounds, persists, then updates
// the cache. A validation failure never touches NVS or the cache.
func (s *Store) SetU16(id U16ID, v uint16) error {
	if id < 0 || id >= numU16Params {
		return apperr.New(apperr.InvalidArg, "configstore.SetU16", "unknown id")
	}
	meta := u16Params[id]
	if v < meta.Min || v > meta.Max {
		return apperr.New(apperr.InvalidArg, "configstore.SetU16", "value out of bounds")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistU16(id, v)
}

// GetString returns the cached value for id.
func (s *Store) GetString(id StringID) (string, error) {
	if id < 0 || id >= numStringParams {
		return "", apperr.New(apperr.InvalidArg, "configstore.GetString", "unknown id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strCache[id], nil
}

// SetString validates against the id's length bounds, persists, then
// updates the cache.
func (s *Store) SetString(id StringID, v string) error {
	if id < 0 || id >= numStringParams {
		return apperr.New(apperr.InvalidArg, "configstore.SetString", "unknown id")
	}
	meta := strParams[id]
	if len(v) < meta.MinLen || len(v) > meta.MaxLen {
		return apperr.New(apperr.InvalidArg, "configstore.SetString", "length out of bounds")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistString(id, v)
}

// Close releases the backing NVS.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}

// persistU16 writes to NVS first; the cache is only updated on success, per
// spec §4.3/§7 ("a write that validates but fails to persist does not
// update the cache"). Caller must hold s.mu.
func (s *Store) persistU16(id U16ID, v uint16) error {
	var raw [2]byte
	binary.BigEndian.PutUint16(raw[:], v)
	if err := s.store.Set(u16Key(id), raw[:]); err != nil {
		return apperr.Wrap(apperr.IoError, "configstore.persistU16", err)
	}
	s.u16Cache[id] = v
	return nil
}

func (s *Store) persistString(id StringID, v string) error {
	if err := s.store.Set(strKey(id), []byte(v)); err != nil {
		return apperr.Wrap(apperr.IoError, "configstore.persistString", err)
	}
	s.strCache[id] = v
	return nil
}
