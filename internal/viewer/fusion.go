package viewer

import (
	"context"
	"fmt"
	"time"

	"quadview/internal/cachemanager"
	"quadview/internal/dicom"
	"quadview/internal/log"
)

// Fusion is the blending collaborator the registry and layout mutator talk
// to. Disabling and clearing a slot's caches is part of the bundle discard
// contract: a removed viewport must leave no fusion state behind, or a
// recreated slot at the same index picks up alignments computed for a
// different series.
type Fusion interface {
	// Enable turns blending on for a slot.
	Enable(index int)
	// Disable turns blending off for a slot.
	Disable(index int)
	// Enabled reports whether a slot is blending.
	Enabled(index int) bool
	// ClearCaches drops every cached alignment and volume for a slot.
	ClearCaches(index int)
	// NotificationShown reports whether the one-time fusion hint was
	// already shown for a study.
	NotificationShown(study dicom.StudyUID) bool
	// MarkNotificationShown records the hint as shown for a study.
	MarkNotificationShown(study dicom.StudyUID)
	// Reset clears every cache and every notification flag. Called only
	// on file-set close.
	Reset()
}

type fusionKey string

func slotKey(index int, study dicom.StudyUID, series dicom.SeriesUID) fusionKey {
	return fusionKey(fmt.Sprintf("vp%d/%s/%s", index, study, series))
}

// Alignment is a cached registration between two series.
type Alignment struct {
	Fixed   dicom.SeriesUID
	Moving  dicom.SeriesUID
	OffsetX float64
	OffsetY float64
	OffsetZ float64
}

// FusionEngine caches per-slot alignments and blended volumes and tracks
// the one-time per-study notification. Caches are TTL-bounded; correctness
// never depends on a hit, eviction only costs a recompute.
type FusionEngine struct {
	enabled    map[int]bool
	ttl        time.Duration
	alignments cachemanager.CacheManager[fusionKey, Alignment]
	volumes    cachemanager.CacheManager[fusionKey, []byte]
	notified   map[dicom.StudyUID]bool
	slotKeys   map[int][]fusionKey
}

// NewFusionEngine builds an engine with in-memory caches whose entries
// expire after ttl; ttl <= 0 selects the cache manager default.
func NewFusionEngine(ttl time.Duration) *FusionEngine {
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}
	return &FusionEngine{
		enabled: make(map[int]bool),
		ttl:     ttl,
		alignments: cachemanager.NewInMemoryCacheManager[fusionKey, Alignment](
			"fusion-alignments", ttl, cachemanager.DefaultCleanupInterval),
		volumes: cachemanager.NewInMemoryCacheManager[fusionKey, []byte](
			"fusion-volumes", ttl, cachemanager.DefaultCleanupInterval),
		notified: make(map[dicom.StudyUID]bool),
		slotKeys: make(map[int][]fusionKey),
	}
}

func (e *FusionEngine) Enable(index int) {
	e.enabled[index] = true
	log.Debug(log.CatFusion, "fusion enabled", "viewport", index)
}

func (e *FusionEngine) Disable(index int) {
	delete(e.enabled, index)
	log.Debug(log.CatFusion, "fusion disabled", "viewport", index)
}

func (e *FusionEngine) Enabled(index int) bool {
	return e.enabled[index]
}

// StoreAlignment caches a registration result for a slot.
func (e *FusionEngine) StoreAlignment(index int, study dicom.StudyUID, series dicom.SeriesUID, a Alignment) {
	k := slotKey(index, study, series)
	e.alignments.Set(context.Background(), k, a, e.ttl)
	e.slotKeys[index] = append(e.slotKeys[index], k)
}

// AlignmentFor returns a cached registration, if present.
func (e *FusionEngine) AlignmentFor(index int, study dicom.StudyUID, series dicom.SeriesUID) (Alignment, bool) {
	return e.alignments.Get(context.Background(), slotKey(index, study, series))
}

func (e *FusionEngine) ClearCaches(index int) {
	ctx := context.Background()
	if keys := e.slotKeys[index]; len(keys) > 0 {
		_ = e.alignments.Delete(ctx, keys...)
		_ = e.volumes.Delete(ctx, keys...)
	}
	delete(e.slotKeys, index)
	log.Debug(log.CatCache, "fusion caches cleared", "viewport", index)
}

func (e *FusionEngine) NotificationShown(study dicom.StudyUID) bool {
	return e.notified[study]
}

func (e *FusionEngine) MarkNotificationShown(study dicom.StudyUID) {
	e.notified[study] = true
}

func (e *FusionEngine) Reset() {
	ctx := context.Background()
	_ = e.alignments.Flush(ctx)
	_ = e.volumes.Flush(ctx)
	e.enabled = make(map[int]bool)
	e.notified = make(map[dicom.StudyUID]bool)
	e.slotKeys = make(map[int][]fusionKey)
	log.Info(log.CatFusion, "fusion state reset")
}
