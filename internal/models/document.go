package models

import (
	"time"
)

// Document is one row of any registered table. Field values live in a JSON
// column; the registry decides their shape.
type Document struct {
	ID        string    `gorm:"primaryKey;type:char(36)"`
	Table     string    `gorm:"column:table_name;size:255;not null;index:idx_documents_table_created,priority:1"`
	Fields    JSON      `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_documents_table_created,priority:2"`
	UpdatedAt time.Time
}

// DocumentIndex is the secondary index over reference and indexed fields.
// Rows are rewritten in the same transaction as their document.
type DocumentIndex struct {
	IndexID    uint64 `gorm:"primaryKey;autoIncrement"`
	Table      string `gorm:"column:table_name;size:255;not null;index:idx_document_index_lookup,priority:1"`
	Field      string `gorm:"size:255;not null;index:idx_document_index_lookup,priority:2"`
	Value      string `gorm:"size:255;not null;index:idx_document_index_lookup,priority:3"`
	DocumentID string `gorm:"type:char(36);not null;index"`
}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}

// TableName overrides the table name for DocumentIndex
func (DocumentIndex) TableName() string {
	return "document_index"
}
