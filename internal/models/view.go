package models

import (
	"time"
)

// SavedView is a per-owner filter/sort/column configuration for one table.
// DefaultKey is "<table>\x00<owner>" on the default view and NULL elsewhere;
// its unique index keeps a single default per (table, owner).
type SavedView struct {
	ID          string    `gorm:"primaryKey;type:char(36)"`
	Table       string    `gorm:"column:table_name;size:255;not null;uniqueIndex:uniq_view_label,priority:1;index:idx_view_owner,priority:1"`
	Owner       string    `gorm:"size:255;not null;uniqueIndex:uniq_view_label,priority:2;index:idx_view_owner,priority:2"`
	Label       string    `gorm:"size:255;not null;uniqueIndex:uniq_view_label,priority:3"`
	IsDefault   bool      `gorm:"not null;default:false"`
	DefaultKey  *string   `gorm:"size:512;uniqueIndex:uniq_view_default"`
	FilterState JSON      `gorm:"not null"`
	SortState   JSON      `gorm:"not null"`
	ColumnOrder JSON      `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the table name for SavedView
func (SavedView) TableName() string {
	return "admin_views"
}

// DefaultViewKey builds the DefaultKey value for (table, owner).
func DefaultViewKey(table, owner string) *string {
	key := table + "\x00" + owner
	return &key
}
