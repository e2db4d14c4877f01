package services

import (
	"context"
	"sync"
	"testing"

	"github.com/localnerve/jam-build-admindb/internal/notify"
	"github.com/localnerve/jam-build-admindb/internal/resolve"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/store/storetest"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	adminEmail = "admin@example.com"
	opsEmail   = "ops@example.com"
	guestEmail = "guest@example.com"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Mention
}

func (n *recordingNotifier) Notify(mentions ...notify.Mention) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, mentions...)
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.got))
	for i, m := range n.got {
		out[i] = m.Recipient
	}
	return out
}

type env struct {
	reg      *schema.Registry
	db       *gorm.DB
	base     *store.GormStore
	counting *storetest.Batch
	admin    *AdminService
	views    *ViewService
	comments *CommentService
	notifier *recordingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		reg:      storetest.ExampleRegistry(t, adminEmail, opsEmail),
		db:       storetest.NewDB(t),
		notifier: &recordingNotifier{},
	}
	e.base = store.NewGormStore(e.db, e.reg)
	e.counting = storetest.NewBatch(e.base)
	engine := resolve.New(e.reg, e.counting, resolve.Config{Concurrency: 2})
	e.admin = NewAdminService(e.reg, e.counting, engine)
	e.views = NewViewService(e.reg, e.db)
	e.comments = NewCommentService(e.reg, e.db, e.counting, e.notifier)
	return e
}

// seed writes directly to the base store so call counts stay untouched.
func (e *env) seed(t *testing.T, table string, fields map[string]any) *store.Document {
	t.Helper()
	doc, err := e.base.Create(context.Background(), table, fields)
	require.NoError(t, err)
	return doc
}

func (e *env) seedPeople(t *testing.T) {
	e.seed(t, "contacts", map[string]any{"firstName": "Ada", "lastName": "Admin", "email": adminEmail})
	e.seed(t, "contacts", map[string]any{"firstName": "Olly", "lastName": "Ops", "email": opsEmail})
}
