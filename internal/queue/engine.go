// Package queue implements the clipboard history engine: a bounded,
// most-recent-first queue of entries with pinning, duplicate and self-copy
// suppression, mirrored into a store.HistoryStore with a backup snapshot.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yiblet/clipq/internal/digest"
	"github.com/yiblet/clipq/internal/metrics"
	"github.com/yiblet/clipq/internal/store"
)

const (
	// DefaultCapacity is the maximum number of entries kept in the queue.
	DefaultCapacity = 50

	// DefaultSuppressionWindow is how long a registered internal copy
	// suppresses the matching automatic copy event.
	DefaultSuppressionWindow = 500 * time.Millisecond
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Capacity          int
	SuppressionWindow time.Duration
	Policy            DuplicatePolicy
	Notifier          Notifier
	Logger            *slog.Logger

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// ImageInput describes an image to record.
type ImageInput struct {
	Thumbnail   string // data URL, required
	OriginalURL string // optional source reference
	Kind        store.Kind
	Origin      store.Origin
}

// Engine owns the in-memory history queue. All mutations go through its
// methods; each one is applied to the queue atomically and then mirrored to
// the store in the same order.
type Engine struct {
	// opMu serializes operations end to end, persistence included.
	opMu sync.Mutex

	// mu guards the fields below. Readers only take mu, so they see a new
	// queue state while its persistence step is still running.
	mu            sync.RWMutex
	queue         []*store.HistoryEntry // most recent first
	suppressHash  string
	suppressUntil time.Time
	lastStamp     int64

	store    store.HistoryStore
	capacity int
	window   time.Duration
	policy   DuplicatePolicy
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// New creates an engine over the given history store. The queue starts
// empty; call LoadFromStore (or use the recovery sequencer) to populate it.
func New(s store.HistoryStore, opts Options) *Engine {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.SuppressionWindow <= 0 {
		opts.SuppressionWindow = DefaultSuppressionWindow
	}
	if opts.Policy == nil {
		opts.Policy = StaticPolicy(false)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Engine{
		store:    s,
		capacity: opts.Capacity,
		window:   opts.SuppressionWindow,
		policy:   opts.Policy,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
		newID:    opts.NewID,
	}
}

// RecordTextCopy records text from a detected copy event. Blank content,
// a copy that matches a registered internal copy, and (unless duplicates are
// allowed) content already in the queue are dropped without error.
func (e *Engine) RecordTextCopy(ctx context.Context, content string) error {
	return e.recordText(ctx, content, store.OriginAuto)
}

// RecordManualText records text the user added explicitly. It is never
// treated as a self-copy but still obeys the duplicate policy.
func (e *Engine) RecordManualText(ctx context.Context, content string) error {
	return e.recordText(ctx, content, store.OriginManual)
}

func (e *Engine) recordText(ctx context.Context, content string, origin store.Origin) error {
	if strings.TrimSpace(content) == "" {
		e.reject(metrics.ReasonEmpty, "")
		return nil
	}
	hash := digest.String(content)

	e.opMu.Lock()
	defer e.opMu.Unlock()

	if origin == store.OriginAuto && e.suppressed(hash) {
		e.reject(metrics.ReasonSelfCopy, hash)
		return nil
	}
	if e.isDuplicate(hash) {
		e.reject(metrics.ReasonDuplicate, hash)
		return nil
	}

	entry := &store.HistoryEntry{
		ID:      e.newID(),
		Kind:    store.KindText,
		Content: content,
		Hash:    hash,
		Origin:  origin,
	}
	return e.enqueue(ctx, entry)
}

// RecordImage records an image or animated image. The fingerprint is
// ImageHash of the input. Automatic copies matching a registered internal
// copy are dropped like text.
func (e *Engine) RecordImage(ctx context.Context, in ImageInput) error {
	if in.Thumbnail == "" {
		e.reject(metrics.ReasonEmpty, "")
		return nil
	}
	if in.Kind == "" {
		in.Kind = store.KindImage
	}
	if !in.Kind.IsImage() {
		return fmt.Errorf("%w: %q is not an image kind", ErrInvalidKind, in.Kind)
	}
	if in.Origin == "" {
		in.Origin = store.OriginManual
	}

	hash := ImageHash(in.Thumbnail, in.OriginalURL)

	e.opMu.Lock()
	defer e.opMu.Unlock()

	if in.Origin == store.OriginAuto && e.suppressed(hash) {
		e.reject(metrics.ReasonSelfCopy, hash)
		return nil
	}
	if e.isDuplicate(hash) {
		e.reject(metrics.ReasonDuplicate, hash)
		return nil
	}

	entry := &store.HistoryEntry{
		ID:          e.newID(),
		Kind:        in.Kind,
		Thumbnail:   in.Thumbnail,
		OriginalURL: in.OriginalURL,
		Hash:        hash,
		Origin:      in.Origin,
	}
	return e.enqueue(ctx, entry)
}

// ImageHash fingerprints an image: the original URL when known, otherwise
// the thumbnail data URL. Watched clipboard images carry no URL.
func ImageHash(thumbnail, originalURL string) string {
	if originalURL != "" {
		return digest.String(originalURL)
	}
	return digest.String(thumbnail)
}

// enqueue inserts entry at the head, evicting the oldest unpinned entries
// if the queue is at capacity. Callers must hold opMu.
func (e *Engine) enqueue(ctx context.Context, entry *store.HistoryEntry) error {
	e.mu.Lock()
	need := len(e.queue) - e.capacity + 1
	victims, ok := e.evictionCandidates(need)
	if !ok {
		size := len(e.queue)
		e.mu.Unlock()
		e.reject(metrics.ReasonQueueFull, entry.Hash)
		e.logger.Warn("cannot add entry: every slot is pinned", "capacity", e.capacity, "size", size)
		return ErrQueueFull
	}

	evicted := make([]*store.HistoryEntry, 0, len(victims))
	for _, id := range victims {
		idx := e.indexOf(id)
		evicted = append(evicted, e.queue[idx])
		e.queue = slices.Delete(e.queue, idx, idx+1)
	}

	entry.CreatedAt = e.stamp()
	e.queue = slices.Insert(e.queue, 0, entry)
	stored := entry.Clone()
	snapshot := store.CloneAll(e.queue)
	count := len(e.queue)
	e.mu.Unlock()

	for _, v := range evicted {
		metrics.Evictions.Inc()
		e.logger.Debug("evicted entry", "id", v.ID, "created_at", v.CreatedAt)
		e.persisted(store.OpDelete, v.ID, e.store.Delete(ctx, v.ID))
	}
	e.persisted(store.OpPut, stored.ID, e.store.Put(ctx, stored))
	e.snapshot(ctx, snapshot)

	metrics.EntriesRecorded.WithLabelValues(string(entry.Kind), string(entry.Origin)).Inc()
	e.logger.Debug("entry added", "id", entry.ID, "kind", entry.Kind, "origin", entry.Origin, "size", count)
	e.publish(count)
	return nil
}

// evictionCandidates picks the IDs of the n oldest unpinned entries, oldest
// first. Equal stamps resolve toward the tail of the queue. It reports false
// if fewer than n unpinned entries exist. Callers must hold mu.
func (e *Engine) evictionCandidates(n int) ([]string, bool) {
	if n <= 0 {
		return nil, true
	}
	taken := make(map[string]bool, n)
	ids := make([]string, 0, n)
	for len(ids) < n {
		best := -1
		for i := len(e.queue) - 1; i >= 0; i-- {
			c := e.queue[i]
			if c.Pinned || taken[c.ID] {
				continue
			}
			if best < 0 || c.CreatedAt < e.queue[best].CreatedAt {
				best = i
			}
		}
		if best < 0 {
			return nil, false
		}
		taken[e.queue[best].ID] = true
		ids = append(ids, e.queue[best].ID)
	}
	return ids, true
}

// Pin marks an entry as exempt from eviction. Unknown IDs are ignored.
func (e *Engine) Pin(ctx context.Context, id string) error {
	return e.setPinned(ctx, id, true)
}

// Unpin makes an entry evictable again. Unknown IDs are ignored.
func (e *Engine) Unpin(ctx context.Context, id string) error {
	return e.setPinned(ctx, id, false)
}

func (e *Engine) setPinned(ctx context.Context, id string, pinned bool) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	updated := e.queue[idx].Clone()
	updated.Pinned = pinned
	e.queue[idx] = updated
	stored := updated.Clone()
	snapshot := store.CloneAll(e.queue)
	e.mu.Unlock()

	e.persisted(store.OpPut, id, e.store.Put(ctx, stored))
	e.snapshot(ctx, snapshot)
	e.logger.Debug("entry pin changed", "id", id, "pinned", pinned)
	return nil
}

// Delete removes an entry. Unknown IDs are ignored.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	e.queue = slices.Delete(e.queue, idx, idx+1)
	snapshot := store.CloneAll(e.queue)
	count := len(e.queue)
	e.mu.Unlock()

	e.persisted(store.OpDelete, id, e.store.Delete(ctx, id))
	e.snapshot(ctx, snapshot)
	e.logger.Debug("entry deleted", "id", id)
	e.publish(count)
	return nil
}

// ClearAll removes every entry, pinned ones included, and leaves an empty
// backup snapshot.
func (e *Engine) ClearAll(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.queue = nil
	e.mu.Unlock()

	e.persisted(store.OpClear, "", e.store.Clear(ctx))
	e.snapshot(ctx, []*store.HistoryEntry{})
	e.logger.Info("history cleared")
	e.publish(0)
	return nil
}

// RegisterInternalCopy tells the engine that clipq itself is about to put
// content with the given hash on the clipboard. An automatic copy event with
// the same hash arriving within the suppression window is ignored. A new
// registration replaces the previous one.
func (e *Engine) RegisterInternalCopy(hash string) {
	e.mu.Lock()
	e.suppressHash = hash
	e.suppressUntil = e.now().Add(e.window)
	e.mu.Unlock()

	e.logger.Debug("internal copy registered", "hash", hash, "window", e.window)
}

// suppressed reports whether hash matches an unexpired internal copy.
func (e *Engine) suppressed(hash string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.suppressHash != "" && hash == e.suppressHash && e.now().Before(e.suppressUntil)
}

// isDuplicate reports whether hash is already queued and duplicates are off.
func (e *Engine) isDuplicate(hash string) bool {
	if e.policy.AllowDuplicates() {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, entry := range e.queue {
		if entry.Hash == hash {
			return true
		}
	}
	return false
}

// LoadFromStore replaces the queue with the store's contents, most recent
// first.
func (e *Engine) LoadFromStore(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	entries, err := e.store.GetAll(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(store.OpGetAll).Inc()
		return fmt.Errorf("failed to load history: %w", err)
	}

	e.replace(entries)
	e.logger.Info("history loaded from store", "entries", len(entries))
	return nil
}

// RestoreFromBackupIfEmpty fills an empty queue from the backup snapshot and
// reports whether it did. The restored entries are not written back to the
// primary collection; PersistQueue does that as a separate step.
func (e *Engine) RestoreFromBackupIfEmpty(ctx context.Context) (bool, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.Len() > 0 {
		return false, nil
	}

	entries, err := e.store.ReadBackup(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(store.OpReadBackup).Inc()
		return false, fmt.Errorf("failed to read backup: %w", err)
	}
	if len(entries) == 0 {
		return false, nil
	}

	seen := make(map[string]bool, len(entries))
	unique := make([]*store.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		unique = append(unique, entry)
	}
	if len(unique) == 0 {
		return false, nil
	}

	e.replace(unique)
	e.logger.Info("history restored from backup", "entries", len(unique))
	return true, nil
}

// PersistQueue writes every queued entry to the primary collection. Failures
// are logged and counted per entry like any other store write.
func (e *Engine) PersistQueue(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	for _, entry := range e.Queue() {
		e.persisted(store.OpPut, entry.ID, e.store.Put(ctx, entry))
	}
}

// replace installs entries as the queue, sorted most recent first, and
// advances the stamp past the newest one.
func (e *Engine) replace(entries []*store.HistoryEntry) {
	sortNewestFirst(entries)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = entries
	if len(entries) > 0 && entries[0].CreatedAt > e.lastStamp {
		e.lastStamp = entries[0].CreatedAt
	}
}

// Reset drops the in-memory queue and any pending self-copy suppression
// without touching the store. Stamps keep increasing across a reset.
func (e *Engine) Reset() {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.queue = nil
	e.suppressHash = ""
	e.suppressUntil = time.Time{}
	e.mu.Unlock()
}

// PublishCount pushes the current length to the notifier.
func (e *Engine) PublishCount() {
	e.publish(e.Len())
}

// Queue returns a copy of the queue, most recent first.
func (e *Engine) Queue() []*store.HistoryEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return store.CloneAll(e.queue)
}

// Get returns a copy of the entry with the given ID.
func (e *Engine) Get(id string) (*store.HistoryEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx := e.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return e.queue[idx].Clone(), true
}

// Len returns the number of queued entries.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queue)
}

// Capacity returns the configured maximum queue length.
func (e *Engine) Capacity() int {
	return e.capacity
}

// indexOf finds an entry by ID. Callers must hold mu.
func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.queue, func(entry *store.HistoryEntry) bool {
		return entry.ID == id
	})
}

// stamp returns a creation stamp strictly greater than any issued or loaded
// before. Callers must hold mu for writing.
func (e *Engine) stamp() int64 {
	ms := e.now().UnixMilli()
	if ms <= e.lastStamp {
		ms = e.lastStamp + 1
	}
	e.lastStamp = ms
	return ms
}

// snapshot refreshes the backup record with the given queue copy.
func (e *Engine) snapshot(ctx context.Context, entries []*store.HistoryEntry) {
	start := time.Now()
	err := e.store.SnapshotBackup(ctx, entries)
	metrics.BackupDuration.Observe(time.Since(start).Seconds())
	e.persisted(store.OpSnapshotBackup, "", err)
}

// persisted logs and counts a failed store write. The in-memory state is
// kept either way.
func (e *Engine) persisted(op, id string, err error) {
	if err == nil {
		return
	}
	metrics.StoreErrors.WithLabelValues(op).Inc()
	e.logger.Warn("store write failed, continuing in memory", "op", op, "id", id, "error", err)
}

func (e *Engine) reject(reason, hash string) {
	metrics.EntriesRejected.WithLabelValues(reason).Inc()
	e.logger.Debug("entry not recorded", "reason", reason, "hash", hash)
}

func (e *Engine) publish(count int) {
	metrics.QueueEntries.Set(float64(count))
	if e.notifier != nil {
		e.notifier.NotifyCount(count)
	}
}

// sortNewestFirst orders entries by descending stamp, then by ID so equal
// stamps have a stable order.
func sortNewestFirst(entries []*store.HistoryEntry) {
	slices.SortStableFunc(entries, func(a, b *store.HistoryEntry) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}
