package store

import (
	"context"
	"time"
)

// Document is one row of a registered table. Fields holds the user data
// only; ID and the timestamps are maintained by the store.
type Document struct {
	ID        string
	Table     string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageArgs requests one page of a table listing. An empty Cursor starts
// from the newest document.
type PageArgs struct {
	Cursor   string
	PageSize int
}

type Page struct {
	Rows       []Document
	NextCursor string
	IsDone     bool
}

// DocumentStore is the persistence contract the resolution engine and the
// admin services are written against. Missing documents are reported as a
// types.NotFound error, transport and driver failures as types.Upstream.
type DocumentStore interface {
	Get(ctx context.Context, table, id string) (*Document, error)
	// GetMany fetches every id in one round trip. Ids with no document are
	// absent from the result.
	GetMany(ctx context.Context, table string, ids []string) (map[string]*Document, error)
	List(ctx context.Context, table string, args PageArgs) (*Page, error)
	Create(ctx context.Context, table string, fields map[string]any) (*Document, error)
	// Patch sets and removes fields in one write.
	Patch(ctx context.Context, table, id string, set map[string]any, unset []string) (*Document, error)
	Delete(ctx context.Context, table, id string) error
	// FindByField returns the documents whose indexed field equals value,
	// oldest first.
	FindByField(ctx context.Context, table, field, value string) ([]Document, error)
}

// BatchFinder is implemented by stores that can match many values of an
// indexed field in a single query.
type BatchFinder interface {
	FindByFieldIn(ctx context.Context, table, field string, values []string) ([]Document, error)
}
