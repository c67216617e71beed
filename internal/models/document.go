package models

import "time"

// RecordDocument is one remote document. Documents live under a per-user
// namespace (UserUID) and a collection ("incomes" or "expenses"); they are
// matched back to records by RecordID, never by DocID.
type RecordDocument struct {
	DocID       string  `gorm:"primaryKey;size:36"`
	UserUID     string  `gorm:"size:64;not null;index:idx_doc_owner,priority:1"`
	Collection  string  `gorm:"size:16;not null;index:idx_doc_owner,priority:2"`
	RecordID    int64   `gorm:"not null;index:idx_doc_owner,priority:3"`
	Name        string  `gorm:"size:255"`
	Amount      string  `gorm:"size:64"`
	Date        string  `gorm:"size:32;index"`
	Description string  `gorm:"type:text"`
	Status      string  `gorm:"size:8"`
	Category    string  `gorm:"size:64"`
	Photo       *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToRecord drops the server-side fields.
func (d *RecordDocument) ToRecord() Record {
	return Record{
		ID:          d.RecordID,
		Name:        d.Name,
		Amount:      d.Amount,
		Date:        d.Date,
		Description: d.Description,
		Status:      Status(d.Status),
		Category:    d.Category,
		Photo:       d.Photo,
	}
}

// Fill copies the record fields onto the document, leaving ownership and
// timestamps untouched.
func (d *RecordDocument) Fill(r Record) {
	d.RecordID = r.ID
	d.Name = r.Name
	d.Amount = r.Amount
	d.Date = r.Date
	d.Description = r.Description
	d.Status = string(r.Status)
	d.Category = r.Category
	d.Photo = r.Photo
}
