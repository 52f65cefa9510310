package storage

import (
	"time"

	"gorm.io/datatypes"
)

// SermonRow is one archived transcript.
type SermonRow struct {
	Date      string `gorm:"primaryKey;size:10"`
	Text      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for SermonRow
func (SermonRow) TableName() string {
	return "sermons"
}

// IndexRow is the parsed form of one archived transcript.
type IndexRow struct {
	Date      string         `gorm:"primaryKey;size:10"`
	Title     string         `gorm:"not null;default:''"`
	Sections  datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

// TableName specifies the table name for IndexRow
func (IndexRow) TableName() string {
	return "sermon_index"
}

// DraftRow is the pending draft of one submitter.
type DraftRow struct {
	SubmitterID int64  `gorm:"primaryKey;autoIncrement:false"`
	Text        string `gorm:"not null"`
	UpdatedAt   time.Time
}

// TableName specifies the table name for DraftRow
func (DraftRow) TableName() string {
	return "drafts"
}
