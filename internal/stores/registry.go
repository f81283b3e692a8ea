// Package stores holds the active set of nearby grocery stores and keeps the
// geofence registrations for that set in step with it.
package stores

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/stockup/stockup/internal/models"
)

// GeofenceMonitor installs and removes circular entry triggers.
type GeofenceMonitor interface {
	Registrations() []models.GeofenceRegistration
	Install(reg models.GeofenceRegistration) error
	Remove(storeID string)
}

// snapshot is an immutable view of the registry contents.
type snapshot struct {
	list []models.StoreLocation
	byID map[string]models.StoreLocation
}

// Registry keeps the active store set. Readers never observe a partially
// applied ReplaceAll.
type Registry struct {
	// mu serializes writers; readers go through current without locking.
	mu      sync.Mutex
	current atomic.Pointer[snapshot]

	monitor      GeofenceMonitor
	radiusMeters float64
}

// Option configures a Registry.
type Option func(*Registry)

// WithMonitor attaches a geofence monitor that mirrors the active set.
func WithMonitor(m GeofenceMonitor) Option {
	return func(r *Registry) { r.monitor = m }
}

// WithRadius sets the geofence radius in meters.
func WithRadius(meters float64) Option {
	return func(r *Registry) { r.radiusMeters = meters }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{radiusMeters: models.DefaultGeofenceRadiusMeters}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(&snapshot{byID: map[string]models.StoreLocation{}})
	return r
}

// RadiusMeters returns the geofence radius applied to every store.
func (r *Registry) RadiusMeters() float64 {
	return r.radiusMeters
}

// ReplaceAll swaps the active set. All stores are validated before anything
// changes; a failure leaves the previous set and registrations intact.
func (r *Registry) ReplaceAll(stores []models.StoreLocation) error {
	next := &snapshot{
		list: make([]models.StoreLocation, 0, len(stores)),
		byID: make(map[string]models.StoreLocation, len(stores)),
	}
	for _, s := range stores {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := next.byID[s.ID]; dup {
			return &models.ValidationError{Field: "store id", Reason: fmt.Sprintf("duplicate %q", s.ID)}
		}
		next.byID[s.ID] = s
		next.list = append(next.list, s)
	}
	sort.Slice(next.list, func(i, j int) bool { return next.list[i].ID < next.list[j].ID })

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.monitor != nil {
		if err := r.reinstall(next); err != nil {
			return err
		}
	}
	r.current.Store(next)
	return nil
}

// reinstall tears down every existing registration, then installs one per
// store in next. If an install fails, the previous registrations are
// restored so the monitor keeps matching the unchanged snapshot.
func (r *Registry) reinstall(next *snapshot) error {
	previous := r.monitor.Registrations()
	for _, reg := range previous {
		r.monitor.Remove(reg.StoreID)
	}

	for _, s := range next.list {
		if err := r.monitor.Install(models.NewGeofence(s, r.radiusMeters)); err != nil {
			for _, reg := range r.monitor.Registrations() {
				r.monitor.Remove(reg.StoreID)
			}
			for _, reg := range previous {
				_ = r.monitor.Install(reg)
			}
			return fmt.Errorf("installing geofence for %s: %w", s.ID, err)
		}
	}
	return nil
}

// Current returns the active stores ordered by ID.
func (r *Registry) Current() []models.StoreLocation {
	snap := r.current.Load()
	out := make([]models.StoreLocation, len(snap.list))
	copy(out, snap.list)
	return out
}

// Lookup returns a store by ID.
func (r *Registry) Lookup(id string) (models.StoreLocation, bool) {
	s, ok := r.current.Load().byID[id]
	return s, ok
}

// Len returns the number of active stores.
func (r *Registry) Len() int {
	return len(r.current.Load().list)
}
