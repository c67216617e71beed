// Package syncer owns the in-memory ledger of the current identity. It
// reconciles the local cache with the remote store when a user is
// identified and mirrors every later change to both.
package syncer

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-financer/internal/cache"
	"ai-financer/internal/models"
	"ai-financer/internal/remote"
	"ai-financer/internal/session"

	"github.com/rs/zerolog"
)

type Syncer struct {
	cache  *cache.Cache
	remote remote.Store
	queue  *Queue
	log    zerolog.Logger

	// OpenTimeout bounds the remote fetch of a reconciliation; zero means
	// no limit.
	OpenTimeout time.Duration
	now         func() time.Time

	mu          sync.RWMutex
	current     *Book
	unsubscribe func()
}

func New(c *cache.Cache, rs remote.Store, q *Queue, log zerolog.Logger) *Syncer {
	return &Syncer{
		cache:  c,
		remote: rs,
		queue:  q,
		log:    log.With().Str("component", "syncer").Logger(),
		now:    time.Now,
	}
}

// Attach follows the session: each resolved identity gets a freshly
// reconciled book, None drops it.
func (s *Syncer) Attach(sess *session.Session) {
	unsub := sess.Subscribe(func(id session.Identity) {
		ctx := context.Background()
		if s.OpenTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.OpenTimeout)
			defer cancel()
		}
		book := s.Open(ctx, id)

		s.mu.Lock()
		s.current = book
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
}

// Current returns the book of the current identity, or nil while nobody is
// identified.
func (s *Syncer) Current() *Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Close detaches from the session and drains pending pushes.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	return s.queue.Close(ctx)
}

// Open reconciles local and remote data for id and returns its book. None
// has no book.
func (s *Syncer) Open(ctx context.Context, id session.Identity) *Book {
	if id.IsNone() {
		return nil
	}
	book := &Book{
		identity: id,
		cache:    s.cache,
		remote:   s.remote,
		queue:    s.queue,
		now:      s.now,
		log:      s.log.With().Str("identity", id.String()).Logger(),
		lists:    make(map[models.Kind][]models.Record, len(models.Kinds)),
	}

	for _, kind := range models.Kinds {
		list, backfill := s.reconcile(ctx, id, kind)
		book.lists[kind] = list

		if key, ok := id.CacheKey(kind); ok {
			if err := s.cache.SaveRecords(key, list); err != nil {
				book.log.Error().Err(err).Str("kind", string(kind)).Msg("write local cache")
			}
		}
		if backfill {
			book.log.Info().Str("kind", string(kind)).Int("count", len(list)).Msg("backfilling remote from local cache")
			book.push(id.Binding().RemoteUID, kind, models.CloneRecords(list))
		}
	}
	return book
}

// reconcile picks the starting list of kind. backfill reports that the
// local list must be pushed to an empty remote collection.
func (s *Syncer) reconcile(ctx context.Context, id session.Identity, kind models.Kind) (list []models.Record, backfill bool) {
	bind := id.Binding()
	log := s.log.With().Str("identity", id.String()).Str("kind", string(kind)).Logger()

	local := s.localCandidate(id, kind)
	if !bind.Remote {
		return local, false
	}

	remoteList, err := s.remote.List(ctx, bind.RemoteUID, kind)
	if err != nil {
		log.Warn().Err(err).Msg("remote fetch failed, using local cache")
		return local, false
	}
	if len(remoteList) > 0 {
		log.Debug().Int("count", len(remoteList)).Msg("remote wins")
		return remoteList, false
	}
	if len(local) > 0 {
		return local, true
	}
	return []models.Record{}, false
}

// localCandidate reads the scoped cache entry; when it is absent the legacy
// unscoped entries are consulted once.
func (s *Syncer) localCandidate(id session.Identity, kind models.Kind) []models.Record {
	key, ok := id.CacheKey(kind)
	if !ok {
		return []models.Record{}
	}
	if list, present := s.cache.LoadRecords(key); present {
		return list
	}
	if list, from := s.migrateLegacy(kind); len(list) > 0 {
		s.log.Info().
			Str("identity", id.String()).
			Str("from", from).
			Str("to", key).
			Int("count", len(list)).
			Msg("migrated legacy cache entry")
		return list
	}
	return []models.Record{}
}

// migrateLegacy looks for data written before keys were scoped: the first
// key (in sorted order) that mentions kind, is not scoped to an identity and
// holds a non-empty list.
func (s *Syncer) migrateLegacy(kind models.Kind) ([]models.Record, string) {
	keys, err := s.cache.Keys()
	if err != nil {
		s.log.Warn().Err(err).Msg("list cache keys for legacy migration")
		return nil, ""
	}

	name := strings.ToLower(string(kind))
	for _, key := range keys {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, name) || strings.HasPrefix(lower, name+"_") {
			continue
		}
		raw, ok, err := s.cache.Get(key)
		if err != nil || !ok {
			continue
		}
		list, err := cache.DecodeRecords(raw)
		if err != nil || len(list) == 0 {
			continue
		}
		return list, key
	}
	return nil, ""
}
