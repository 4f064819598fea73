package semanticindex_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/registry"
	"github.com/smarthome-ai/diagnostic-core/internal/semanticindex"
)

func newTestIndex(t *testing.T) *semanticindex.Index {
	t.Helper()
	idx := semanticindex.New(semanticindex.Config{
		IndexPath:      filepath.Join(t.TempDir(), "index.bleve"),
		CollectionName: "smartthings_devices",
		EmbeddingModel: "bleve-bm25",
	})
	require.NoError(t, idx.Initialize())
	return idx
}

func kitchenLight() domain.UnifiedDevice {
	return domain.UnifiedDevice{
		ID:           domain.NewUniversalDeviceId("smartthings", "kl-1"),
		Platform:     "smartthings",
		Name:         "Kitchen Light",
		Room:         "kitchen",
		Capabilities: domain.CapabilitySet(domain.CapabilitySwitch, domain.CapabilityDimmer),
		Online:       true,
		Manufacturer: "Philips",
		Model:        "Hue White",
	}
}

func TestBuildMetadataDocument_ContentGeneration(t *testing.T) {
	d := kitchenLight()
	doc := semanticindex.BuildMetadataDocument(d)

	assert.Equal(t, d.ID, doc.DeviceID)
	assert.Contains(t, doc.Content, "Kitchen Light")
	assert.Contains(t, doc.Content, "located in kitchen")
	assert.Contains(t, doc.Content, "can be turned on and off")
	assert.Contains(t, doc.Content, "supports dimming")
	assert.Contains(t, doc.Content, "Philips Hue White")
	assert.NotContains(t, doc.Content, "offline")
}

func TestBuildMetadataDocument_OfflineDeviceTagged(t *testing.T) {
	d := kitchenLight()
	d.Online = false
	doc := semanticindex.BuildMetadataDocument(d)

	assert.Contains(t, doc.Content, "offline")
	assert.Contains(t, doc.Metadata.Tags, "offline")
}

func TestIndexDeviceThenSearch(t *testing.T) {
	idx := newTestIndex(t)

	d := kitchenLight()
	require.NoError(t, idx.IndexDevice(semanticindex.BuildMetadataDocument(d)))

	reg := registry.New()
	require.NoError(t, reg.AddDevice(d))
	idx.SetDeviceRegistry(reg)

	hits, err := idx.SearchDevices("kitchen light", semanticindex.SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, d.ID, hits[0].DeviceID)
	assert.GreaterOrEqual(t, hits[0].Score, 0.0)
	assert.LessOrEqual(t, hits[0].Score, 1.0)
}

func TestSearchDevices_UnrelatedQueryReturnsNoHits(t *testing.T) {
	idx := newTestIndex(t)
	d := kitchenLight()
	require.NoError(t, idx.IndexDevice(semanticindex.BuildMetadataDocument(d)))

	reg := registry.New()
	require.NoError(t, reg.AddDevice(d))
	idx.SetDeviceRegistry(reg)

	hits, err := idx.SearchDevices("garage door opener completely unrelated", semanticindex.SearchOptions{Limit: 5, MinSimilarity: 0.9})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSyncWithRegistry_AddsAndRemoves(t *testing.T) {
	idx := newTestIndex(t)
	reg := registry.New()
	idx.SetDeviceRegistry(reg)

	d1 := kitchenLight()
	require.NoError(t, reg.AddDevice(d1))

	res := idx.SyncWithRegistry(reg)
	assert.Equal(t, 1, res.Added)
	assert.Empty(t, res.Errors)

	stats := idx.GetStats()
	assert.Equal(t, 1, stats.TotalDevices)

	reg.RemoveDevice(d1.ID)
	res = idx.SyncWithRegistry(reg)
	assert.Equal(t, 1, res.Removed)

	stats = idx.GetStats()
	assert.Equal(t, 0, stats.TotalDevices)
}

func TestSyncWithRegistry_UpdateCountsAsUpdated(t *testing.T) {
	idx := newTestIndex(t)
	reg := registry.New()
	idx.SetDeviceRegistry(reg)

	d1 := kitchenLight()
	require.NoError(t, reg.AddDevice(d1))
	res := idx.SyncWithRegistry(reg)
	assert.Equal(t, 1, res.Added)

	online := false
	require.NoError(t, reg.UpdateDevice(d1.ID, registry.DevicePatch{Online: &online}))

	res = idx.SyncWithRegistry(reg)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Added)
}

func TestSearchDevices_FallsBackWhenUninitialized(t *testing.T) {
	idx := semanticindex.New(semanticindex.Config{CollectionName: "x", EmbeddingModel: "bleve-bm25"})
	reg := registry.New()
	d := kitchenLight()
	require.NoError(t, reg.AddDevice(d))
	idx.SetDeviceRegistry(reg)

	hits, err := idx.SearchDevices("kitchen", semanticindex.SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, d.ID, hits[0].DeviceID)
}
