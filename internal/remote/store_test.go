package remote

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"ai-financer/internal/config"
	"ai-financer/internal/database"
	"ai-financer/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.InitRemote(config.RemoteConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "remote.db"),
	})
	if err != nil {
		t.Fatalf("init remote db: %v", err)
	}
	if err := database.MigrateRemote(db); err != nil {
		t.Fatalf("migrate remote db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return NewGormStore(db)
}

func rec(id int64, amount string) models.Record {
	return models.Record{
		ID:          id,
		Name:        "rec",
		Amount:      amount,
		Date:        "2025-03-01",
		Description: "d",
		Status:      models.StatusPaid,
		Category:    "Other",
	}
}

func ids(records []models.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGormStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	photo := "data:image/jpeg;base64,/9j/"
	in := rec(1700000000000, "42.50")
	in.Photo = &photo

	if err := s.Insert(ctx, "u1", models.KindExpenses, in); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.List(ctx, "u1", models.KindExpenses)
	if err != nil || len(got) != 1 {
		t.Fatalf("List = %v, %v", got, err)
	}
	out := got[0]
	if out.ID != in.ID || out.Name != in.Name || out.Amount != in.Amount || out.Date != in.Date ||
		out.Description != in.Description || out.Status != in.Status || out.Category != in.Category ||
		out.Photo == nil || *out.Photo != photo {
		t.Errorf("round trip mismatch:\n in  %+v\n out %+v", in, out)
	}
}

func TestGormStore_UpdateInsertsWhenMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Update(ctx, "u1", models.KindIncomes, rec(5, "1")); err != nil {
		t.Fatalf("Update missing: %v", err)
	}
	r := rec(5, "2")
	r.Name = "renamed"
	if err := s.Update(ctx, "u1", models.KindIncomes, r); err != nil {
		t.Fatalf("Update existing: %v", err)
	}
	got, _ := s.List(ctx, "u1", models.KindIncomes)
	if len(got) != 1 || got[0].Amount != "2" || got[0].Name != "renamed" {
		t.Errorf("List after updates = %+v", got)
	}
}

func TestGormStore_NamespacesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Insert(ctx, "u1", models.KindIncomes, rec(1, "1"))
	_ = s.Insert(ctx, "u2", models.KindIncomes, rec(2, "1"))
	_ = s.Insert(ctx, "u1", models.KindExpenses, rec(3, "1"))

	got, _ := s.List(ctx, "u1", models.KindIncomes)
	if !equalIDs(ids(got), []int64{1}) {
		t.Errorf("u1 incomes = %v", ids(got))
	}
	_ = s.Delete(ctx, "u2", models.KindIncomes, 1)
	got, _ = s.List(ctx, "u1", models.KindIncomes)
	if len(got) != 1 {
		t.Error("deleting in another namespace removed u1's record")
	}
}

func TestSyncCollection_MirrorsList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// R = {1,2,3}
	for _, id := range []int64{1, 2, 3} {
		_ = s.Insert(ctx, "u1", models.KindIncomes, rec(id, "10"))
	}
	// N = {2,3,4} with 3 edited
	edited := rec(3, "99.99")
	next := []models.Record{rec(2, "10"), edited, rec(4, "7")}

	if err := SyncCollection(ctx, s, "u1", models.KindIncomes, next); err != nil {
		t.Fatalf("SyncCollection: %v", err)
	}
	got, _ := s.List(ctx, "u1", models.KindIncomes)
	if !equalIDs(ids(got), []int64{2, 3, 4}) {
		t.Fatalf("remote ids = %v, want [2 3 4]", ids(got))
	}
	for _, r := range got {
		if r.ID == 3 && r.Amount != "99.99" {
			t.Errorf("record 3 not updated: %+v", r)
		}
	}

	// syncing the same list again is a no-op on the id set
	if err := SyncCollection(ctx, s, "u1", models.KindIncomes, next); err != nil {
		t.Fatalf("SyncCollection again: %v", err)
	}
	got, _ = s.List(ctx, "u1", models.KindIncomes)
	if len(got) != 3 {
		t.Errorf("second sync produced %d docs, want 3", len(got))
	}
}
