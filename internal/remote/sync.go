package remote

import (
	"context"
	"fmt"

	"ai-financer/internal/models"
)

// SyncCollection makes the user's remote collection mirror records: ids
// present remotely are updated, new ids are inserted, and remote ids missing
// from records are deleted. It stops at the first failing call.
func SyncCollection(ctx context.Context, s Store, uid string, kind models.Kind, records []models.Record) error {
	existing, err := s.List(ctx, uid, kind)
	if err != nil {
		return fmt.Errorf("sync %s: %w", kind, err)
	}

	remoteIDs := make(map[int64]struct{}, len(existing))
	for _, r := range existing {
		remoteIDs[r.ID] = struct{}{}
	}
	localIDs := make(map[int64]struct{}, len(records))
	for _, r := range records {
		localIDs[r.ID] = struct{}{}
	}

	for _, r := range records {
		if _, ok := remoteIDs[r.ID]; ok {
			err = s.Update(ctx, uid, kind, r)
		} else {
			err = s.Insert(ctx, uid, kind, r)
			remoteIDs[r.ID] = struct{}{}
		}
		if err != nil {
			return fmt.Errorf("sync %s: %w", kind, err)
		}
	}

	for _, r := range existing {
		if _, ok := localIDs[r.ID]; ok {
			continue
		}
		if err := s.Delete(ctx, uid, kind, r.ID); err != nil {
			return fmt.Errorf("sync %s: %w", kind, err)
		}
		// duplicates of the same id are removed by the first Delete
		localIDs[r.ID] = struct{}{}
	}
	return nil
}
