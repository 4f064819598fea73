// Package semanticindex implements the Semantic Device Index (C2): a
// bleve-backed searchable mirror of the device registry, kept eventually
// consistent via diff-based sync, with a keyword/registry fallback for
// when the backing store is unavailable.
package semanticindex

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/blevesearch/bleve/v2"
	"github.com/robfig/cron/v3"

	"github.com/smarthome-ai/diagnostic-core/internal/common/apperrors"
	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/registry"
)

// capabilityVerbs is the fixed lookup used to render a capability into a
// natural-language clause for semantic content generation.
var capabilityVerbs = map[domain.CapabilityTag]string{
	domain.CapabilitySwitch:            "can be turned on and off",
	domain.CapabilityDimmer:            "supports dimming",
	domain.CapabilityMotionSensor:      "detects motion",
	domain.CapabilityContactSensor:     "detects open/closed state",
	domain.CapabilityLock:              "can be locked and unlocked",
	domain.CapabilityTemperatureSensor: "measures temperature",
	domain.CapabilityBattery:           "reports battery level",
	domain.CapabilityWindowShade:       "can be opened and closed",
}

// SearchOptions configures SearchDevices.
type SearchOptions struct {
	Limit         int
	MinSimilarity float64
	Room          string
	Capability    *domain.CapabilityTag
	Platform      string
	Online        *bool
}

// SearchHit is one result from SearchDevices.
type SearchHit struct {
	DeviceID domain.UniversalDeviceId
	Score    float64 // [0,1]
	Device   domain.UnifiedDevice
}

// SyncResult reports the outcome of a diff-based sync against the registry.
type SyncResult struct {
	Added   int
	Updated int
	Removed int
	Errors  []error
}

// Stats summarises index health for observability.
type Stats struct {
	TotalDevices   int
	CollectionName string
	EmbeddingModel string
	Healthy        bool
	LastSync       *time.Time
}

// Index is the semantic device index. Zero value is not usable; build one
// with New and call Initialize before use.
type Index struct {
	log    logger.Logger
	mu     sync.Mutex // guards index, indexedIDs, syncing, lastSync
	index  bleve.Index
	reg    *registry.Registry

	collectionName string
	embeddingModel string
	indexPath      string

	indexedIDs map[domain.UniversalDeviceId]struct{}
	healthy    bool
	syncing    bool
	lastSync   *time.Time

	cronMu  sync.Mutex // guards cron, cronID and running, separate from index state
	cron    *cron.Cron
	cronID  cron.EntryID
	running bool
}

// Config controls Index construction.
type Config struct {
	IndexPath      string
	CollectionName string
	EmbeddingModel string
}

// New constructs an Index in the uninitialised state.
func New(cfg Config) *Index {
	return &Index{
		log:            logger.NewLogger("semanticindex"),
		collectionName: cfg.CollectionName,
		embeddingModel: cfg.EmbeddingModel,
		indexPath:      cfg.IndexPath,
		indexedIDs:     make(map[domain.UniversalDeviceId]struct{}),
	}
}

// SetDeviceRegistry wires the registry used as the fallback source for
// keyword search and as the source of truth for sync.
func (idx *Index) SetDeviceRegistry(reg *registry.Registry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.reg = reg
}

// Initialize connects to (or creates) the backing bleve index. It returns
// IndexUnavailable if the store cannot be opened or created.
func (idx *Index) Initialize() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var bIndex bleve.Index
	var err error

	if _, statErr := os.Stat(idx.indexPath); os.IsNotExist(statErr) {
		mapping := bleve.NewIndexMapping()
		bIndex, err = bleve.New(idx.indexPath, mapping)
	} else {
		bIndex, err = bleve.Open(idx.indexPath)
	}
	if err != nil {
		idx.healthy = false
		return apperrors.Wrap(err, apperrors.KindIndexUnavailable, "could not open semantic index at "+idx.indexPath)
	}

	idx.index = bIndex
	idx.healthy = true
	idx.log.Infof("semantic index initialised at %s (collection=%s)", idx.indexPath, idx.collectionName)
	return nil
}

// indexableDoc is the flat document shape stored in bleve, mirroring
// MetadataDocument but with metadata fields promoted so bleve can filter on
// them directly.
type indexableDoc struct {
	DeviceID     string   `json:"deviceId"`
	Content      string   `json:"content"`
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	Room         string   `json:"room"`
	Capabilities []string `json:"capabilities"`
	Platform     string   `json:"platform"`
	Online       bool     `json:"online"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Tags         []string `json:"tags"`
}

// IndexDevice upserts a single device's metadata document. Idempotent.
func (idx *Index) IndexDevice(doc domain.MetadataDocument) error {
	return idx.IndexDevices([]domain.MetadataDocument{doc})
}

// IndexDevices performs a batch upsert.
func (idx *Index) IndexDevices(docs []domain.MetadataDocument) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.index == nil {
		return apperrors.IndexUnavailable("semantic index not initialized")
	}

	batch := idx.index.NewBatch()
	for _, d := range docs {
		flat := indexableDoc{
			DeviceID:     string(d.DeviceID),
			Content:      d.Content,
			Name:         d.Metadata.Name,
			Label:        d.Metadata.Label,
			Room:         d.Metadata.Room,
			Capabilities: d.Metadata.Capabilities,
			Platform:     d.Metadata.Platform,
			Online:       d.Metadata.Online,
			Manufacturer: d.Metadata.Manufacturer,
			Model:        d.Metadata.Model,
			Tags:         d.Metadata.Tags,
		}
		if err := batch.Index(string(d.DeviceID), flat); err != nil {
			return apperrors.Wrap(err, apperrors.KindMetadataInvalid, "failed to stage device "+string(d.DeviceID))
		}
		idx.indexedIDs[d.DeviceID] = struct{}{}
	}

	if err := idx.index.Batch(batch); err != nil {
		return apperrors.Wrap(err, apperrors.KindIndexUnavailable, "failed to commit index batch")
	}
	return nil
}

func (idx *Index) deleteDevice(id domain.UniversalDeviceId) error {
	if idx.index == nil {
		return apperrors.IndexUnavailable("semantic index not initialized")
	}
	if err := idx.index.Delete(string(id)); err != nil {
		return apperrors.Wrap(err, apperrors.KindIndexUnavailable, "failed to delete device "+string(id))
	}
	delete(idx.indexedIDs, id)
	return nil
}

// SearchDevices answers a natural-language device query. On backing-store
// failure it falls back to a registry-backed keyword/fuzzy search.
func (idx *Index) SearchDevices(query string, opts SearchOptions) ([]SearchHit, error) {
	opts = withDefaults(opts)

	idx.mu.Lock()
	bIndex := idx.index
	reg := idx.reg
	idx.mu.Unlock()

	if bIndex == nil {
		return idx.fallbackSearch(query, opts, reg)
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	searchRequest.Size = opts.Limit * 4 // over-fetch, then apply structured filters + limit
	if searchRequest.Size < 40 {
		searchRequest.Size = 40
	}
	searchRequest.Fields = []string{"*"}

	result, err := bIndex.Search(searchRequest)
	if err != nil {
		idx.log.Warnf("semantic search failed, falling back to registry: %v", err)
		return idx.fallbackSearch(query, opts, reg)
	}

	maxScore := 0.0
	for _, hit := range result.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	var hits []SearchHit
	for _, hit := range result.Hits {
		normalized := 0.0
		if maxScore > 0 {
			normalized = hit.Score / maxScore
		}

		deviceID := domain.UniversalDeviceId(hit.ID)
		var device domain.UnifiedDevice
		if reg != nil {
			if d, ok := reg.GetDevice(deviceID); ok {
				device = d
			}
		}

		if !passesFilters(hit.Fields, device, opts) {
			continue
		}
		if normalized < opts.MinSimilarity {
			continue
		}

		hits = append(hits, SearchHit{DeviceID: deviceID, Score: normalized, Device: device})
	}

	sortHits(hits)
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func passesFilters(fields map[string]interface{}, device domain.UnifiedDevice, opts SearchOptions) bool {
	if opts.Room != "" {
		if room, _ := fields["room"].(string); !strings.EqualFold(room, opts.Room) {
			return false
		}
	}
	if opts.Platform != "" {
		if platform, _ := fields["platform"].(string); !strings.EqualFold(platform, opts.Platform) {
			return false
		}
	}
	if opts.Online != nil {
		if online, ok := fields["online"].(bool); !ok || online != *opts.Online {
			return false
		}
	}
	if opts.Capability != nil && !device.HasCapability(*opts.Capability) {
		return false
	}
	return true
}

func sortHits(hits []SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DeviceID < hits[j].DeviceID
	})
}

// fallbackSearch runs a case-insensitive substring/Levenshtein search over
// the current registry snapshot, used whenever the backing store is
// unavailable or rejects a query.
func (idx *Index) fallbackSearch(query string, opts SearchOptions, reg *registry.Registry) ([]SearchHit, error) {
	if reg == nil {
		return nil, apperrors.IndexUnavailable("semantic index unavailable and no registry fallback wired")
	}

	q := strings.ToLower(strings.TrimSpace(query))
	all := reg.GetAllDevices()

	var hits []SearchHit
	for _, d := range all {
		if opts.Capability != nil && !d.HasCapability(*opts.Capability) {
			continue
		}
		if opts.Room != "" && !strings.EqualFold(d.Room, opts.Room) {
			continue
		}
		if opts.Platform != "" && !strings.EqualFold(d.Platform, opts.Platform) {
			continue
		}
		if opts.Online != nil && d.Online != *opts.Online {
			continue
		}

		name := strings.ToLower(d.DisplayName())
		var score float64
		if name != "" && strings.Contains(name, q) {
			score = 0.9
		} else {
			dist := levenshtein.ComputeDistance(q, name)
			maxLen := len(q)
			if len(name) > maxLen {
				maxLen = len(name)
			}
			if maxLen == 0 {
				score = 0
			} else {
				score = 1 - float64(dist)/float64(maxLen)
			}
		}

		if score < opts.MinSimilarity {
			continue
		}
		hits = append(hits, SearchHit{DeviceID: d.ID, Score: score, Device: d})
	}

	sortHits(hits)
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func withDefaults(opts SearchOptions) SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	return opts
}

// SyncWithRegistry computes the diff between the registry's device ids and
// the currently-indexed ids, upserting additions/updates and deleting
// removals. A sync already in progress defers a concurrent request (simple
// boolean guard); the deferred call returns immediately with a zero result.
func (idx *Index) SyncWithRegistry(reg *registry.Registry) SyncResult {
	idx.mu.Lock()
	if idx.syncing {
		idx.mu.Unlock()
		idx.log.Warn("sync already in progress, skipping concurrent request")
		return SyncResult{}
	}
	idx.syncing = true
	idx.mu.Unlock()

	defer func() {
		idx.mu.Lock()
		idx.syncing = false
		now := time.Now()
		idx.lastSync = &now
		idx.mu.Unlock()
	}()

	devices := reg.GetAllDevices()
	registryIDs := make(map[domain.UniversalDeviceId]domain.UnifiedDevice, len(devices))
	for _, d := range devices {
		registryIDs[d.ID] = d
	}

	idx.mu.Lock()
	indexedIDs := make(map[domain.UniversalDeviceId]struct{}, len(idx.indexedIDs))
	for id := range idx.indexedIDs {
		indexedIDs[id] = struct{}{}
	}
	idx.mu.Unlock()

	var result SyncResult

	for id, device := range registryIDs {
		_, alreadyIndexed := indexedIDs[id]
		doc := BuildMetadataDocument(device)
		if err := idx.IndexDevice(doc); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("sync upsert %s: %w", id, err))
			continue
		}
		if alreadyIndexed {
			result.Updated++
		} else {
			result.Added++
		}
	}

	for id := range indexedIDs {
		if _, stillPresent := registryIDs[id]; stillPresent {
			continue
		}
		idx.mu.Lock()
		err := idx.deleteDevice(id)
		idx.mu.Unlock()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("sync delete %s: %w", id, err))
			continue
		}
		result.Removed++
	}

	return result
}

// StartPeriodicSync schedules a recurring sync on the given interval.
// Double-start is a warn no-op.
func (idx *Index) StartPeriodicSync(reg *registry.Registry, interval time.Duration) {
	idx.cronMu.Lock()
	defer idx.cronMu.Unlock()

	if idx.running {
		idx.log.Warn("periodic sync already running, ignoring start request")
		return
	}

	c := cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %s", interval.String())
	id, err := c.AddFunc(spec, func() {
		res := idx.SyncWithRegistry(reg)
		idx.log.Infof("periodic sync: added=%d updated=%d removed=%d errors=%d",
			res.Added, res.Updated, res.Removed, len(res.Errors))
	})
	if err != nil {
		idx.log.Errorf("failed to schedule periodic sync: %v", err)
		return
	}

	c.Start()
	idx.cron = c
	idx.cronID = id
	idx.running = true
}

// StopPeriodicSync cancels a running periodic sync, if any.
func (idx *Index) StopPeriodicSync() {
	idx.cronMu.Lock()
	defer idx.cronMu.Unlock()

	if !idx.running {
		return
	}
	idx.cron.Remove(idx.cronID)
	idx.cron.Stop()
	idx.running = false
}

// GetStats reports current index health and size.
func (idx *Index) GetStats() Stats {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return Stats{
		TotalDevices:   len(idx.indexedIDs),
		CollectionName: idx.collectionName,
		EmbeddingModel: idx.embeddingModel,
		Healthy:        idx.healthy,
		LastSync:       idx.lastSync,
	}
}

// BuildMetadataDocument generates the natural-language semantic content and
// flat metadata for a device, per the fixed content-generation rule:
// "<label-or-name>[, located in <room>][, <capability-verbs>][, <manufacturer> <model>][, offline]".
func BuildMetadataDocument(d domain.UnifiedDevice) domain.MetadataDocument {
	var parts []string
	parts = append(parts, d.DisplayName())

	if d.Room != "" {
		parts = append(parts, "located in "+d.Room)
	}

	var tags []string
	capTags := sortedCapabilities(d.Capabilities)
	for _, tag := range capTags {
		if verb, ok := capabilityVerbs[tag]; ok {
			parts = append(parts, verb)
		}
		tags = append(tags, string(tag))
		if strings.HasSuffix(string(tag), "SENSOR") {
			tags = append(tags, "sensor")
		}
	}

	if d.Manufacturer != "" || d.Model != "" {
		parts = append(parts, strings.TrimSpace(d.Manufacturer+" "+d.Model))
	}

	if !d.Online {
		parts = append(parts, "offline")
		tags = append(tags, "offline")
	}

	content := strings.Join(parts, ", ")

	capStrings := make([]string, len(capTags))
	for i, t := range capTags {
		capStrings[i] = string(t)
	}

	return domain.MetadataDocument{
		DeviceID: d.ID,
		Content:  content,
		Metadata: domain.DeviceDocMetadata{
			Name:         d.Name,
			Label:        d.Label,
			Room:         d.Room,
			Capabilities: capStrings,
			Platform:     d.Platform,
			Online:       d.Online,
			Manufacturer: d.Manufacturer,
			Model:        d.Model,
			Tags:         tags,
		},
	}
}

func sortedCapabilities(caps map[domain.CapabilityTag]struct{}) []domain.CapabilityTag {
	out := make([]domain.CapabilityTag, 0, len(caps))
	for tag := range caps {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
