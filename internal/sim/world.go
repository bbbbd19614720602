package sim

// World bundles one Store with its Config and exposes the mutations the sync
// layer and local user actions apply. Like Store it is single-goroutine by
// discipline: only the engine loop touches it.
type World struct {
	store  *Store
	config Config
}

// NewWorld returns a world with the default config, seeded with the demo
// balls.
func NewWorld() *World {
	w := &World{store: NewStore(), config: DefaultConfig()}
	w.seedDemoObjects()
	return w
}

// Store exposes the underlying object store.
func (w *World) Store() *Store {
	return w.store
}

// Config returns the current world configuration.
func (w *World) Config() Config {
	return w.config
}

// SetConfig replaces the configuration wholesale (physics_init).
func (w *World) SetConfig(cfg Config) {
	w.config = cfg
}

// SetGravity replaces only the gravity vector (update_gravity /
// gravity_changed).
func (w *World) SetGravity(gravity Vec2) {
	w.config.Gravity = gravity
}

// Add upserts a copy of the object into the store, so the caller's value
// never aliases simulation state.
func (w *World) Add(obj *Object) {
	if obj == nil {
		return
	}
	w.store.Upsert(obj.Clone())
}

// Remove deletes an object by id.
func (w *World) Remove(id string) {
	w.store.Remove(id)
}

// Reset clears every object and re-seeds the two default demo balls. The
// config is left untouched.
func (w *World) Reset() {
	w.store.Clear()
	w.seedDemoObjects()
}

// Advance integrates every object by dt seconds in insertion order.
func (w *World) Advance(dt float64) {
	w.store.ForEach(func(obj *Object) {
		Advance(obj, w.config, dt)
	})
}

func (w *World) seedDemoObjects() {
	for _, obj := range DemoObjects() {
		w.store.Upsert(obj)
	}
}
