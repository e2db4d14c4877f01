// Package storetest provides an in-memory GormStore and a call-counting
// decorator for tests of packages built on store.DocumentStore.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/localnerve/jam-build-admindb/internal/database"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database closed with the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CountStatements counts every statement GORM runs on db from now on.
func CountStatements(t testing.TB, db *gorm.DB) *atomic.Int64 {
	t.Helper()
	n := new(atomic.Int64)
	inc := func(*gorm.DB) { n.Add(1) }
	cb := db.Callback()
	require.NoError(t, cb.Create().Before("gorm:create").Register("storetest:count_create", inc))
	require.NoError(t, cb.Query().Before("gorm:query").Register("storetest:count_query", inc))
	require.NoError(t, cb.Update().Before("gorm:update").Register("storetest:count_update", inc))
	require.NoError(t, cb.Delete().Before("gorm:delete").Register("storetest:count_delete", inc))
	require.NoError(t, cb.Row().Before("gorm:row").Register("storetest:count_row", inc))
	require.NoError(t, cb.Raw().Before("gorm:raw").Register("storetest:count_raw", inc))
	return n
}

// NewMemory returns a GormStore over a fresh in-memory database.
func NewMemory(t testing.TB, reg *schema.Registry) *store.GormStore {
	return store.NewGormStore(NewDB(t), reg)
}

// ExampleRegistry builds the example schema with the given admins.
func ExampleRegistry(t testing.TB, admins ...string) *schema.Registry {
	t.Helper()
	reg, err := schema.Build(schema.Example(), schema.ExampleOptions(admins))
	require.NoError(t, err)
	return reg
}

// Counting wraps a store and records how many calls each operation received.
type Counting struct {
	store.DocumentStore

	mu    sync.Mutex
	calls map[string]int
}

func NewCounting(inner store.DocumentStore) *Counting {
	return &Counting{DocumentStore: inner, calls: map[string]int{}}
}

func (c *Counting) inc(op string) {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()
}

// Calls returns the count for op.
func (c *Counting) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Total returns the number of calls across every operation.
func (c *Counting) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *Counting) Reset() {
	c.mu.Lock()
	c.calls = map[string]int{}
	c.mu.Unlock()
}

func (c *Counting) Get(ctx context.Context, table, id string) (*store.Document, error) {
	c.inc("Get")
	return c.DocumentStore.Get(ctx, table, id)
}

func (c *Counting) GetMany(ctx context.Context, table string, ids []string) (map[string]*store.Document, error) {
	c.inc("GetMany")
	return c.DocumentStore.GetMany(ctx, table, ids)
}

func (c *Counting) List(ctx context.Context, table string, args store.PageArgs) (*store.Page, error) {
	c.inc("List")
	return c.DocumentStore.List(ctx, table, args)
}

func (c *Counting) Create(ctx context.Context, table string, fields map[string]any) (*store.Document, error) {
	c.inc("Create")
	return c.DocumentStore.Create(ctx, table, fields)
}

func (c *Counting) Patch(ctx context.Context, table, id string, set map[string]any, unset []string) (*store.Document, error) {
	c.inc("Patch")
	return c.DocumentStore.Patch(ctx, table, id, set, unset)
}

func (c *Counting) Delete(ctx context.Context, table, id string) error {
	c.inc("Delete")
	return c.DocumentStore.Delete(ctx, table, id)
}

func (c *Counting) FindByField(ctx context.Context, table, field, value string) ([]store.Document, error) {
	c.inc("FindByField")
	return c.DocumentStore.FindByField(ctx, table, field, value)
}

// Batch adds FindByFieldIn on top of Counting when the inner store has it.
type Batch struct {
	*Counting
	finder store.BatchFinder
}

// NewBatch requires inner to implement store.BatchFinder.
func NewBatch(inner store.DocumentStore) *Batch {
	return &Batch{Counting: NewCounting(inner), finder: inner.(store.BatchFinder)}
}

func (b *Batch) FindByFieldIn(ctx context.Context, table, field string, values []string) ([]store.Document, error) {
	b.inc("FindByFieldIn")
	return b.finder.FindByFieldIn(ctx, table, field, values)
}
