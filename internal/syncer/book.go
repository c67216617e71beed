package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-financer/internal/cache"
	"ai-financer/internal/models"
	"ai-financer/internal/remote"
	"ai-financer/internal/session"

	"github.com/rs/zerolog"
)

var ErrRecordNotFound = errors.New("record not found")

// Book is the in-memory ledger of one identity. It is the source of truth;
// every mutation is mirrored to the local cache and, for authenticated
// users, queued for the remote store.
type Book struct {
	identity session.Identity
	cache    *cache.Cache
	remote   remote.Store
	queue    *Queue
	now      func() time.Time
	log      zerolog.Logger

	mu    sync.Mutex
	lists map[models.Kind][]models.Record
}

func (b *Book) Identity() session.Identity { return b.identity }

// Records returns a copy of the list of kind.
func (b *Book) Records(kind models.Kind) []models.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.CloneRecords(b.lists[kind])
}

// Find returns the record with id.
func (b *Book) Find(kind models.Kind, id int64) (models.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := indexOf(b.lists[kind], id); i >= 0 {
		return b.lists[kind][i], true
	}
	return models.Record{}, false
}

// Add appends rec under a fresh id and returns the stored record.
func (b *Book) Add(kind models.Kind, rec models.Record) models.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.lists[kind]
	rec.ID = nextID(list, b.now().UnixMilli())
	list = append(models.CloneRecords(list), rec)
	b.commit(kind, list)
	return rec
}

// Update replaces the record carrying rec.ID in place.
func (b *Book) Update(kind models.Kind, rec models.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.lists[kind]
	i := indexOf(list, rec.ID)
	if i < 0 {
		return fmt.Errorf("%s %d: %w", kind, rec.ID, ErrRecordNotFound)
	}
	list = models.CloneRecords(list)
	list[i] = rec
	b.commit(kind, list)
	return nil
}

// Remove deletes the record with id.
func (b *Book) Remove(kind models.Kind, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.lists[kind]
	i := indexOf(list, id)
	if i < 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrRecordNotFound)
	}
	out := make([]models.Record, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	b.commit(kind, out)
	return nil
}

// Replace swaps the whole list of kind.
func (b *Book) Replace(kind models.Kind, records []models.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commit(kind, models.CloneRecords(records))
}

// commit installs list and propagates it. Must hold b.mu so that cache
// writes and queued pushes follow mutation order.
func (b *Book) commit(kind models.Kind, list []models.Record) {
	if list == nil {
		list = []models.Record{}
	}
	b.lists[kind] = list

	if key, ok := b.identity.CacheKey(kind); ok {
		if err := b.cache.SaveRecords(key, list); err != nil {
			b.log.Error().Err(err).Str("kind", string(kind)).Msg("write local cache")
		}
	}

	bind := b.identity.Binding()
	if !bind.Remote || len(list) == 0 {
		return
	}
	b.push(bind.RemoteUID, kind, models.CloneRecords(list))
}

func (b *Book) push(uid string, kind models.Kind, snapshot []models.Record) {
	store := b.remote
	err := b.queue.Submit(uid, "sync "+string(kind), func(ctx context.Context) error {
		return remote.SyncCollection(ctx, store, uid, kind, snapshot)
	})
	if err != nil {
		b.log.Warn().Err(err).Str("kind", string(kind)).Msg("queue remote push")
	}
}

func indexOf(list []models.Record, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID returns candidate, or the next larger value not used in list.
func nextID(list []models.Record, candidate int64) int64 {
	taken := make(map[int64]struct{}, len(list))
	for _, r := range list {
		taken[r.ID] = struct{}{}
	}
	for {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate++
	}
}
