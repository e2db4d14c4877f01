package services

import (
	"strings"

	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/types"
)

// Reserved record keys. They are never part of Document.Fields.
const (
	IDKey           = "_id"
	CreationTimeKey = schema.CreationTimeField
)

// Record is the wire form of a document: its fields plus _id and
// _creationTime in milliseconds.
type Record map[string]any

func toRecord(doc *store.Document) Record {
	r := make(Record, len(doc.Fields)+2)
	for k, v := range doc.Fields {
		r[k] = v
	}
	r[IDKey] = doc.ID
	r[CreationTimeKey] = doc.CreatedAt.UnixMilli()
	return r
}

// RecordPage is one page of a table listing.
type RecordPage struct {
	Rows       []Record `json:"rows"`
	NextCursor string   `json:"nextCursor,omitempty"`
	IsDone     bool     `json:"isDone"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// guard runs the identity and role checks shared by every admin operation.
type guard struct {
	reg *schema.Registry
}

func (g guard) admin(caller string) (string, error) {
	caller = normalizeEmail(caller)
	if caller == "" {
		return "", types.Unauthorized("admin.unauthenticated", "sign in required")
	}
	if !g.reg.IsAdmin(caller) {
		return "", types.Forbidden("admin.forbidden", "%s is not an admin", caller)
	}
	return caller, nil
}

// table resolves a table reachable through the generic admin surface.
// System tables answer as unknown.
func (g guard) table(name string) (*schema.TableConfig, error) {
	cfg, ok := g.reg.Table(name)
	if !ok || cfg.System {
		return nil, types.NotFound("admin.table", "unknown table %q", name)
	}
	return cfg, nil
}

func (g guard) adminTable(caller, table string) (string, *schema.TableConfig, error) {
	caller, err := g.admin(caller)
	if err != nil {
		return "", nil, err
	}
	cfg, err := g.table(table)
	if err != nil {
		return "", nil, err
	}
	return caller, cfg, nil
}
