// Package remote is the shared per-user record store. Each user owns two
// collections ("incomes", "expenses") holding one document per record.
package remote

import (
	"context"
	"errors"
	"fmt"

	"ai-financer/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the document API the sync layer needs. Documents are addressed
// by the record id they carry, never by their own document id.
type Store interface {
	List(ctx context.Context, uid string, kind models.Kind) ([]models.Record, error)
	Insert(ctx context.Context, uid string, kind models.Kind, rec models.Record) error
	// Update replaces the document carrying rec.ID, inserting it when none
	// exists.
	Update(ctx context.Context, uid string, kind models.Kind, rec models.Record) error
	Delete(ctx context.Context, uid string, kind models.Kind, id int64) error
}

// GormStore keeps documents in the record_documents table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) scope(ctx context.Context, uid string, kind models.Kind) *gorm.DB {
	return s.DB.WithContext(ctx).
		Model(&models.RecordDocument{}).
		Where("user_uid = ? AND collection = ?", uid, string(kind))
}

// List returns the user's records of one kind, newest date first.
func (s *GormStore) List(ctx context.Context, uid string, kind models.Kind) ([]models.Record, error) {
	var docs []models.RecordDocument
	if err := s.scope(ctx, uid, kind).
		Order("date DESC, record_id DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]models.Record, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ToRecord())
	}
	return out, nil
}

func (s *GormStore) Insert(ctx context.Context, uid string, kind models.Kind, rec models.Record) error {
	doc := models.RecordDocument{
		DocID:      uuid.NewString(),
		UserUID:    uid,
		Collection: string(kind),
	}
	doc.Fill(rec)
	if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return fmt.Errorf("insert %s %d: %w", kind, rec.ID, err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, uid string, kind models.Kind, rec models.Record) error {
	var doc models.RecordDocument
	err := s.scope(ctx, uid, kind).
		Where("record_id = ?", rec.ID).
		Order("created_at ASC").
		Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.Insert(ctx, uid, kind, rec)
	}
	if err != nil {
		return fmt.Errorf("find %s %d: %w", kind, rec.ID, err)
	}

	doc.Fill(rec)
	if err := s.DB.WithContext(ctx).Save(&doc).Error; err != nil {
		return fmt.Errorf("update %s %d: %w", kind, rec.ID, err)
	}
	return nil
}

// Delete removes every document carrying id.
func (s *GormStore) Delete(ctx context.Context, uid string, kind models.Kind, id int64) error {
	err := s.DB.WithContext(ctx).
		Where("user_uid = ? AND collection = ? AND record_id = ?", uid, string(kind), id).
		Delete(&models.RecordDocument{}).Error
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}
