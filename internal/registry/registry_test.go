package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smarthome-ai/diagnostic-core/internal/common/apperrors"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/registry"
)

func lightDevice(id domain.UniversalDeviceId, name, label string) domain.UnifiedDevice {
	return domain.UnifiedDevice{
		ID:           id,
		Platform:     id.Platform(),
		Name:         name,
		Label:        label,
		Capabilities: domain.CapabilitySet(domain.CapabilitySwitch),
		Online:       true,
	}
}

func TestAddDevice_MissingId(t *testing.T) {
	r := registry.New()
	err := r.AddDevice(domain.UnifiedDevice{Name: "hallway light"})
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindMissingId, apperrors.KindOf(err))
}

func TestAddDevice_ThenGet(t *testing.T) {
	r := registry.New()
	id := domain.NewUniversalDeviceId("smartthings", "abc-123")
	d := lightDevice(id, "Hallway Light", "")

	assert.NoError(t, r.AddDevice(d))

	got, ok := r.GetDevice(id)
	assert.True(t, ok)
	assert.Equal(t, "Hallway Light", got.Name)
}

func TestUpdateDevice_NotFound(t *testing.T) {
	r := registry.New()
	err := r.UpdateDevice(domain.NewUniversalDeviceId("smartthings", "missing"), registry.DevicePatch{})
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdateDevice_MergesPatch(t *testing.T) {
	r := registry.New()
	id := domain.NewUniversalDeviceId("smartthings", "abc-123")
	assert.NoError(t, r.AddDevice(lightDevice(id, "Hallway Light", "")))

	online := false
	battery := 42
	assert.NoError(t, r.UpdateDevice(id, registry.DevicePatch{Online: &online, BatteryLevel: &battery}))

	got, ok := r.GetDevice(id)
	assert.True(t, ok)
	assert.False(t, got.Online)
	assert.Equal(t, 42, *got.BatteryLevel)
	assert.Equal(t, "Hallway Light", got.Name) // untouched fields survive
}

func TestRemoveDevice_Idempotent(t *testing.T) {
	r := registry.New()
	id := domain.NewUniversalDeviceId("smartthings", "abc-123")
	assert.NoError(t, r.AddDevice(lightDevice(id, "Hallway Light", "")))

	r.RemoveDevice(id)
	_, ok := r.GetDevice(id)
	assert.False(t, ok)

	r.RemoveDevice(id) // second removal must not panic or error
}

func TestGetAllDevices_StableOrder(t *testing.T) {
	r := registry.New()
	ids := []domain.UniversalDeviceId{
		domain.NewUniversalDeviceId("smartthings", "a"),
		domain.NewUniversalDeviceId("smartthings", "b"),
		domain.NewUniversalDeviceId("smartthings", "c"),
	}
	for i, id := range ids {
		assert.NoError(t, r.AddDevice(lightDevice(id, string(rune('A'+i)), "")))
	}

	all := r.GetAllDevices()
	assert.Len(t, all, 3)
	for i, d := range all {
		assert.Equal(t, ids[i], d.ID)
	}
}

func TestFindDevices_Predicate(t *testing.T) {
	r := registry.New()
	online := lightDevice(domain.NewUniversalDeviceId("smartthings", "on"), "Online Light", "")
	offline := lightDevice(domain.NewUniversalDeviceId("smartthings", "off"), "Offline Light", "")
	offline.Online = false

	assert.NoError(t, r.AddDevice(online))
	assert.NoError(t, r.AddDevice(offline))

	found := r.FindDevices(func(d domain.UnifiedDevice) bool { return !d.Online })
	assert.Len(t, found, 1)
	assert.Equal(t, offline.ID, found[0].ID)
}

func TestResolveDevice_ExactNameBeatsCloserLabel(t *testing.T) {
	r := registry.New()

	exact := lightDevice(domain.NewUniversalDeviceId("smartthings", "1"), "kitchen light", "")
	closer := lightDevice(domain.NewUniversalDeviceId("smartthings", "2"), "dining room lamp", "kitchen ligh")

	assert.NoError(t, r.AddDevice(exact))
	assert.NoError(t, r.AddDevice(closer))

	got, ok := r.ResolveDevice("kitchen light")
	assert.True(t, ok)
	assert.Equal(t, exact.ID, got.ID)
}

func TestResolveDevice_FallsBackToClosestDistance(t *testing.T) {
	r := registry.New()

	near := lightDevice(domain.NewUniversalDeviceId("smartthings", "1"), "living room lamp", "")
	far := lightDevice(domain.NewUniversalDeviceId("smartthings", "2"), "garage door opener", "")

	assert.NoError(t, r.AddDevice(near))
	assert.NoError(t, r.AddDevice(far))

	got, ok := r.ResolveDevice("living room lam")
	assert.True(t, ok)
	assert.Equal(t, near.ID, got.ID)
}

func TestResolveDevice_EmptyRegistry(t *testing.T) {
	r := registry.New()
	_, ok := r.ResolveDevice("anything")
	assert.False(t, ok)
}

func TestResolveDevice_TieBreaksLexicographicallyById(t *testing.T) {
	r := registry.New()

	a := lightDevice(domain.NewUniversalDeviceId("smartthings", "a"), "light one", "")
	b := lightDevice(domain.NewUniversalDeviceId("smartthings", "b"), "light one", "")

	assert.NoError(t, r.AddDevice(b))
	assert.NoError(t, r.AddDevice(a))

	got, ok := r.ResolveDevice("light two")
	assert.True(t, ok)
	assert.Equal(t, a.ID, got.ID)
}
