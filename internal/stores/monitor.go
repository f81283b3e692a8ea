package stores

import (
	"sort"
	"sync"

	"github.com/stockup/stockup/internal/models"
)

// InMemoryMonitor records geofence registrations without a platform
// location service behind it.
type InMemoryMonitor struct {
	mu   sync.Mutex
	regs map[string]models.GeofenceRegistration

	// installs counts Install calls, including replacements.
	installs int
}

// NewInMemoryMonitor creates an empty monitor.
func NewInMemoryMonitor() *InMemoryMonitor {
	return &InMemoryMonitor{regs: make(map[string]models.GeofenceRegistration)}
}

// Registrations returns the active registrations ordered by store ID.
func (m *InMemoryMonitor) Registrations() []models.GeofenceRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.GeofenceRegistration, 0, len(m.regs))
	for _, reg := range m.regs {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out
}

// Install adds or replaces a registration.
func (m *InMemoryMonitor) Install(reg models.GeofenceRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.regs[reg.StoreID] = reg
	m.installs++
	return nil
}

// Remove drops a registration if present.
func (m *InMemoryMonitor) Remove(storeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.regs, storeID)
}

// Installs returns the number of Install calls made so far.
func (m *InMemoryMonitor) Installs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installs
}
