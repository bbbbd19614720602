package sim

import "github.com/iancoleman/orderedmap"

// Store is the authoritative local view of all simulated bodies, ordered by
// insertion. Order is stable for display purposes only; it carries no physics
// meaning. Store is not safe for concurrent use; the engine loop is the sole
// mutator.
type Store struct {
	objects *orderedmap.OrderedMap
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{objects: orderedmap.New()}
}

// Upsert inserts the object or fully replaces an existing one with the same
// id. Replacement keeps the original insertion position, matching the
// protocol's last-write-wins semantics.
func (s *Store) Upsert(obj *Object) {
	if obj == nil || obj.ID == "" {
		return
	}
	s.objects.Set(obj.ID, obj)
}

// Get returns the object with the given id, if present.
func (s *Store) Get(id string) (*Object, bool) {
	value, ok := s.objects.Get(id)
	if !ok {
		return nil, false
	}
	return value.(*Object), true
}

// Remove deletes the object with the given id. Unknown ids are a no-op.
func (s *Store) Remove(id string) {
	s.objects.Delete(id)
}

// Clear drops every object.
func (s *Store) Clear() {
	s.objects = orderedmap.New()
}

// ForEach visits every object in insertion order.
func (s *Store) ForEach(fn func(*Object)) {
	for _, key := range s.objects.Keys() {
		if value, ok := s.objects.Get(key); ok {
			fn(value.(*Object))
		}
	}
}

// Len reports the number of stored objects.
func (s *Store) Len() int {
	return len(s.objects.Keys())
}
