// Package registry implements the Device Registry (C1): the mutable,
// in-memory authoritative catalogue of known devices keyed by universal id.
package registry

import (
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/smarthome-ai/diagnostic-core/internal/common/apperrors"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// Registry is a mutable map from UniversalDeviceId to UnifiedDevice. All
// mutation happens through its exported methods; readers get independent
// copies so a later update can never be observed as a torn read.
type Registry struct {
	mu      sync.RWMutex
	devices map[domain.UniversalDeviceId]domain.UnifiedDevice
	order   []domain.UniversalDeviceId // insertion order, for a stable (if unspecified) iteration order
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		devices: make(map[domain.UniversalDeviceId]domain.UnifiedDevice),
	}
}

// AddDevice inserts or replaces a device by id. It fails with a MissingId
// error if the device has no id — this is the one error the registry lets
// escape as a genuine programmer error, not a runtime condition.
func (r *Registry) AddDevice(device domain.UnifiedDevice) error {
	if device.ID == "" {
		return apperrors.MissingId("device has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[device.ID]; !exists {
		r.order = append(r.order, device.ID)
	}
	r.devices[device.ID] = device
	return nil
}

// DevicePatch describes a partial update applied by UpdateDevice. Nil
// fields are left untouched; non-nil fields replace the corresponding
// UnifiedDevice field.
type DevicePatch struct {
	Name         *string
	Label        *string
	Room         *string
	Manufacturer *string
	Model        *string
	Online       *bool
	LastSeen     *int64
	BatteryLevel *int
	Capabilities map[domain.CapabilityTag]struct{}
}

// UpdateDevice merges patch into the existing device. It fails with
// NotFound if no device with that id is registered.
func (r *Registry) UpdateDevice(id domain.UniversalDeviceId, patch DevicePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return apperrors.NotFound("device not found: " + string(id))
	}

	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.Label != nil {
		d.Label = *patch.Label
	}
	if patch.Room != nil {
		d.Room = *patch.Room
	}
	if patch.Manufacturer != nil {
		d.Manufacturer = *patch.Manufacturer
	}
	if patch.Model != nil {
		d.Model = *patch.Model
	}
	if patch.Online != nil {
		d.Online = *patch.Online
	}
	if patch.LastSeen != nil {
		d.LastSeen = patch.LastSeen
	}
	if patch.BatteryLevel != nil {
		d.BatteryLevel = patch.BatteryLevel
	}
	if patch.Capabilities != nil {
		d.Capabilities = patch.Capabilities
	}

	r.devices[id] = d
	return nil
}

// RemoveDevice removes a device by id. It is idempotent: removing an id
// that is not present is not an error.
func (r *Registry) RemoveDevice(id domain.UniversalDeviceId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// GetDevice returns the device with the given id, if any.
func (r *Registry) GetDevice(id domain.UniversalDeviceId) (domain.UnifiedDevice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	return d, ok
}

// GetAllDevices returns a snapshot of every registered device, in stable
// (insertion) order. The slice is a copy; mutating it has no effect on the
// registry.
func (r *Registry) GetAllDevices() []domain.UnifiedDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.UnifiedDevice, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// FindDevices returns every device matching predicate.
func (r *Registry) FindDevices(predicate func(domain.UnifiedDevice) bool) []domain.UnifiedDevice {
	all := r.GetAllDevices()
	out := make([]domain.UnifiedDevice, 0, len(all))
	for _, d := range all {
		if predicate(d) {
			out = append(out, d)
		}
	}
	return out
}

// ResolveDevice performs a fuzzy, last-resort lookup of a free-text query
// against device names and labels: O(n) Levenshtein distance with
// tie-break exact name > exact label > minimum distance > lexicographic id.
func (r *Registry) ResolveDevice(query string) (domain.UnifiedDevice, bool) {
	all := r.GetAllDevices()
	if len(all) == 0 {
		return domain.UnifiedDevice{}, false
	}

	q := strings.ToLower(strings.TrimSpace(query))

	type candidate struct {
		device     domain.UnifiedDevice
		exactName  bool
		exactLabel bool
		distance   int
	}

	best := candidate{distance: -1}
	for _, d := range all {
		name := strings.ToLower(d.Name)
		label := strings.ToLower(d.Label)

		exactName := name != "" && name == q
		exactLabel := label != "" && label == q

		dist := minDistance(q, name, label)

		c := candidate{device: d, exactName: exactName, exactLabel: exactLabel, distance: dist}

		if best.distance == -1 || better(c, best) {
			best = c
		}
	}

	if best.distance == -1 {
		return domain.UnifiedDevice{}, false
	}
	return best.device, true
}

func minDistance(query, name, label string) int {
	dName := levenshtein.ComputeDistance(query, name)
	if label == "" {
		return dName
	}
	dLabel := levenshtein.ComputeDistance(query, label)
	if dLabel < dName {
		return dLabel
	}
	return dName
}

// better reports whether candidate a should win over the current best b,
// applying the resolver's tie-break order: exact name > exact label >
// minimum distance > lexicographic id.
func better(a, b struct {
	device     domain.UnifiedDevice
	exactName  bool
	exactLabel bool
	distance   int
}) bool {
	if a.exactName != b.exactName {
		return a.exactName
	}
	if a.exactLabel != b.exactLabel {
		return a.exactLabel
	}
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	return a.device.ID < b.device.ID
}
