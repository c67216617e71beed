// Package cache is the on-device key/value store. Record lists are stored as
// JSON under keys such as "incomes_<id>"; session flags live next to them.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"ai-financer/internal/models"
	"ai-financer/internal/util"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache persists string values in the local database. When an encryption
// key is configured values are stored AES encrypted.
type Cache struct {
	db         *gorm.DB
	encryptKey string
	log        zerolog.Logger
}

func New(db *gorm.DB, encryptKey string, log zerolog.Logger) *Cache {
	return &Cache{
		db:         db,
		encryptKey: encryptKey,
		log:        log.With().Str("component", "cache").Logger(),
	}
}

// Get returns the value stored under key and whether the key exists.
func (c *Cache) Get(key string) (string, bool, error) {
	var e models.CacheEntry
	err := c.db.Where("cache_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return util.DecryptString(c.encryptKey, e.Value), true, nil
}

// Set overwrites key with value.
func (c *Cache) Set(key, value string) error {
	enc, err := util.EncryptString(c.encryptKey, value)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	e := models.CacheEntry{Key: key, Value: enc}
	err = c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys; missing keys are ignored.
func (c *Cache) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.db.Where("cache_key IN ?", keys).Delete(&models.CacheEntry{}).Error; err != nil {
		return fmt.Errorf("delete %v: %w", keys, err)
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (c *Cache) Keys() ([]string, error) {
	var keys []string
	if err := c.db.Model(&models.CacheEntry{}).Pluck("cache_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// LoadRecords reads a record list. present is false when the key does not
// exist (or could not be read). A value that does not decode as a list is
// treated as an empty list.
func (c *Cache) LoadRecords(key string) (records []models.Record, present bool) {
	raw, ok, err := c.Get(key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("read cache entry")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	records, err = DecodeRecords(raw)
	if err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("malformed cache entry, using empty list")
		return []models.Record{}, true
	}
	return records, true
}

// SaveRecords overwrites key with the JSON encoding of records.
func (c *Cache) SaveRecords(key string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(key, string(b))
}

// DecodeRecords parses a serialized record list. JSON null decodes to an
// empty list.
func DecodeRecords(raw string) ([]models.Record, error) {
	var records []models.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}
