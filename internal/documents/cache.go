package documents

import (
	"sync"
	"time"

	"pos-backoffice/pkg/logger"
)

// EventKind tells subscribers what changed for a document.
type EventKind string

const (
	EventResolved    EventKind = "resolved"
	EventGenerating  EventKind = "generating"
	EventInvalidated EventKind = "invalidated"
)

// Event is delivered to every subscriber on each cache change.
type Event struct {
	Kind       EventKind
	DocumentID string
	URL        string
}

// Entry is one cached signed URL.
type Entry struct {
	DocumentID string
	URL        string
	Generating bool
	FetchedAt  time.Time
}

// Fetcher resolves a document ID to a signed download URL.
type Fetcher interface {
	SignedURL(documentID string) (string, error)
}

// Cache holds signed document URLs with a TTL and notifies subscribers
// on every change. Reads vastly outnumber writes, hence the RWMutex.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu          sync.RWMutex
	entries     map[string]Entry
	subscribers map[int]func(Event)
	nextSubID   int
}

const warmBatchSize = 5

func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		fetcher:     fetcher,
		ttl:         ttl,
		entries:     make(map[string]Entry),
		subscribers: make(map[int]func(Event)),
	}
}

// Subscribe registers a callback for cache events and returns the
// unsubscribe function. Callbacks run synchronously on the mutating
// goroutine and must not call back into the cache.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Get returns the cached URL for a document if present and fresh.
func (c *Cache) Get(documentID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[documentID]
	if !ok {
		return Entry{}, false
	}
	if !entry.Generating && time.Since(entry.FetchedAt) > c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// IsGenerating reports whether a document is currently marked as being
// produced. The reconciliation view shows these as "generating" instead
// of "missing".
func (c *Cache) IsGenerating(documentID string) bool {
	entry, ok := c.Get(documentID)
	return ok && entry.Generating
}

// Resolve returns a signed URL for the document, fetching and caching
// it on miss.
func (c *Cache) Resolve(documentID string) (string, error) {
	if entry, ok := c.Get(documentID); ok && !entry.Generating {
		return entry.URL, nil
	}

	url, err := c.fetcher.SignedURL(documentID)
	if err != nil {
		return "", err
	}
	c.put(documentID, url)
	return url, nil
}

// Warm resolves a set of documents concurrently in fixed-size batches.
// Individual failures are logged and skipped; warming is best effort.
func (c *Cache) Warm(documentIDs []string) {
	for start := 0; start < len(documentIDs); start += warmBatchSize {
		end := start + warmBatchSize
		if end > len(documentIDs) {
			end = len(documentIDs)
		}

		var wg sync.WaitGroup
		for _, id := range documentIDs[start:end] {
			if _, ok := c.Get(id); ok {
				continue
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := c.Resolve(id); err != nil {
					logger.GetLogger().WithError(err).WithField("document_id", id).
						Warn("Failed to warm document URL cache")
				}
			}(id)
		}
		wg.Wait()
	}
}

// MarkGenerating flags a document as in-flight so readers can surface
// the pending state.
func (c *Cache) MarkGenerating(documentID string) {
	c.mu.Lock()
	c.entries[documentID] = Entry{
		DocumentID: documentID,
		Generating: true,
		FetchedAt:  time.Now(),
	}
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventGenerating, DocumentID: documentID})
}

// Invalidate drops a document from the cache, forcing a re-fetch on the
// next Resolve.
func (c *Cache) Invalidate(documentID string) {
	c.mu.Lock()
	delete(c.entries, documentID)
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventInvalidated, DocumentID: documentID})
}

// Clear empties the whole cache without notifying per-document.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len reports the number of cached entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) put(documentID, url string) {
	c.mu.Lock()
	c.entries[documentID] = Entry{
		DocumentID: documentID,
		URL:        url,
		FetchedAt:  time.Now(),
	}
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventResolved, DocumentID: documentID, URL: url})
}

// snapshotSubscribers must be called with the lock held.
func (c *Cache) snapshotSubscribers() []func(Event) {
	subs := make([]func(Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}
