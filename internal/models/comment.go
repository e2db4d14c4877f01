package models

import (
	"time"
)

// Comment is one entry in a document's comment thread.
type Comment struct {
	ID         string    `gorm:"primaryKey;type:char(26)"`
	Table      string    `gorm:"column:table_name;size:255;not null;index:idx_comment_document,priority:1"`
	DocumentID string    `gorm:"type:char(36);not null;index:idx_comment_document,priority:2"`
	Author     string    `gorm:"size:255;not null"`
	Body       string    `gorm:"type:text;not null"`
	Mentions   JSON      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

// TableName overrides the table name for Comment
func (Comment) TableName() string {
	return "admin_comments"
}
