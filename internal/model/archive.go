package model

import "time"

// ArchiveRecord is an immutable snapshot taken when a task is archived.
// OriginalTask holds the complete pre-archive task document; the record is
// never mutated after insertion.
type ArchiveRecord struct {
	ID           string `gorm:"primaryKey"`
	TaskID       string `gorm:"index"`
	Department   string `gorm:"index"`
	Title        string
	Description  string
	Status       Status    // status at archive time, before the flip
	ArchivedBy   string
	ArchivedAt   time.Time `gorm:"index"`
	OriginalTask Task      `gorm:"serializer:json"`
}
