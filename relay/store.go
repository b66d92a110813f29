// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import "iter"

// Store holds one alert profile per logical user, in first-contact order.
// Every operation normalizes its key first, so raw and normalized
// identifiers may be used interchangeably. A Store is owned by the relay
// event loop and is not safe for concurrent use.
type Store struct {
	identity Identity
	profiles map[Key]*Profile
	order    []Key
}

// NewStore creates an empty store.
func NewStore(identity Identity) *Store {
	return &Store{
		identity: identity,
		profiles: make(map[Key]*Profile),
	}
}

// Ensure returns the profile for the id, creating it with DefaultBounds if it
// does not exist yet. created reports whether a profile was inserted. An id
// that normalizes to the empty key yields nil.
func (s *Store) Ensure(id string) (p *Profile, created bool) {
	key := s.identity.Normalize(id)
	if key == "" {
		return nil, false
	}
	if p, ok := s.profiles[key]; ok {
		return p, false
	}

	p = &Profile{Bounds: DefaultBounds}
	s.profiles[key] = p
	s.order = append(s.order, key)
	return p, true
}

// Get returns the profile for the id without creating it.
func (s *Store) Get(id string) (*Profile, bool) {
	p, ok := s.profiles[s.identity.Normalize(id)]
	return p, ok
}

// ApplyPreferences replaces the four bounds of the id's profile with those in
// the payload. It is a no-op when the payload is not a preference update,
// i.e. when updatedAt is absent or non-zero; in that case echo holds the
// decoded updatedAt, if any. Alert timestamps are never touched.
func (s *Store) ApplyPreferences(
	id string,
	payload []byte,
) (applied bool, echo *Marker, err error) {
	bounds, echo, ok, err := decodePreferences(payload)
	if err != nil || !ok {
		return false, echo, err
	}

	p, _ := s.Ensure(id)
	if p == nil {
		return false, nil, nil
	}
	p.Bounds = bounds
	p.Configured = true
	return true, nil, nil
}

// All iterates the profiles in insertion order.
func (s *Store) All() iter.Seq2[Key, *Profile] {
	return func(yield func(Key, *Profile) bool) {
		for _, key := range s.order {
			if !yield(key, s.profiles[key]) {
				return
			}
		}
	}
}

// Len returns the number of profiles.
func (s *Store) Len() int {
	return len(s.order)
}
