package models

import "time"

// CacheEntry is one key of the on-device cache. Value holds the serialized
// payload (JSON, optionally AES encrypted and base64 encoded).
type CacheEntry struct {
	Key       string `gorm:"column:cache_key;primaryKey;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
