package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/localnerve/jam-build-admindb/internal/resolve"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/types"
)

// AdminService is the generic record surface over every registered table.
type AdminService struct {
	guard
	store  store.DocumentStore
	engine *resolve.Engine
	people *people
}

func NewAdminService(reg *schema.Registry, st store.DocumentStore, engine *resolve.Engine) *AdminService {
	return &AdminService{
		guard:  guard{reg: reg},
		store:  st,
		engine: engine,
		people: &people{reg: reg, store: st},
	}
}

// FieldInfo describes one field for clients rendering forms and grids.
type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Indexed  bool   `json:"indexed"`
	AutoNow  bool   `json:"autoNow,omitempty"`
}

type TableInfo struct {
	*schema.TableConfig
	Fields []FieldInfo `json:"fields"`
}

// ProgramTables groups navigable tables under their program.
type ProgramTables struct {
	Program schema.Program `json:"program"`
	Tables  []TableInfo    `json:"tables"`
}

func (s *AdminService) ListTables(ctx context.Context, caller string) ([]ProgramTables, error) {
	if _, err := s.admin(caller); err != nil {
		return nil, err
	}

	byProgram := map[string][]TableInfo{}
	for _, cfg := range s.reg.NavigableTables() {
		byProgram[cfg.Program] = append(byProgram[cfg.Program], tableInfo(cfg))
	}
	out := []ProgramTables{}
	for _, p := range s.reg.Programs() {
		if tables := byProgram[p.ID]; len(tables) > 0 {
			out = append(out, ProgramTables{Program: p, Tables: tables})
		}
	}
	return out, nil
}

func tableInfo(cfg *schema.TableConfig) TableInfo {
	fields := make([]FieldInfo, len(cfg.Fields))
	for i, f := range cfg.Fields {
		fields[i] = FieldInfo{Name: f.Name, Type: f.Type.Tag(), Optional: f.Optional, Indexed: f.Indexed, AutoNow: f.AutoNow}
	}
	return TableInfo{TableConfig: cfg, Fields: fields}
}

func (s *AdminService) ListTable(ctx context.Context, caller, table string, args store.PageArgs) (*RecordPage, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return nil, err
	}
	page, err := s.store.List(ctx, table, args)
	if err != nil {
		return nil, err
	}
	out := &RecordPage{Rows: make([]Record, len(page.Rows)), NextCursor: page.NextCursor, IsDone: page.IsDone}
	for i := range page.Rows {
		out.Rows[i] = toRecord(&page.Rows[i])
	}
	return out, nil
}

func (s *AdminService) GetDocument(ctx context.Context, caller, table, id string) (Record, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

func (s *AdminService) CreateDocument(ctx context.Context, caller, table string, fields map[string]any) (Record, error) {
	_, cfg, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}
	clean, err := checkCreate(cfg, fields)
	if err != nil {
		return nil, err
	}
	stampAutoNow(cfg, clean, false)

	doc, err := s.store.Create(ctx, table, clean)
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

// PatchDocument changes only the given keys. A nil value clears the field.
func (s *AdminService) PatchDocument(ctx context.Context, caller, table, id string, patch map[string]any) (Record, error) {
	_, cfg, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, types.Validation("admin.patch", "patch has no fields")
	}

	set := map[string]any{}
	var unset []string
	for _, name := range sortedKeys(patch) {
		f, err := knownField(cfg, name)
		if err != nil {
			return nil, err
		}
		v := patch[name]
		if v == nil {
			if !f.Optional {
				return nil, types.Validation("admin.patch", "%s.%s is required and cannot be cleared", table, name)
			}
			unset = append(unset, name)
			continue
		}
		if err := f.Type.Check(v); err != nil {
			return nil, types.Validation("admin.field", "%s.%s: %v", table, name, err)
		}
		set[name] = v
	}

	doc, err := s.store.Patch(ctx, table, id, set, unset)
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

// DeleteDocument removes the document. Rows referencing it are left alone
// and resolve to the missing label afterwards.
func (s *AdminService) DeleteDocument(ctx context.Context, caller, table, id string) error {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return err
	}
	return s.store.Delete(ctx, table, id)
}

func (s *AdminService) DuplicateDocument(ctx context.Context, caller, table, id string) (Record, error) {
	_, cfg, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}
	src, err := s.store.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(src.Fields))
	for k, v := range src.Fields {
		fields[k] = v
	}
	stampAutoNow(cfg, fields, true)

	doc, err := s.store.Create(ctx, table, fields)
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

func (s *AdminService) ResolveRefs(ctx context.Context, caller, table, field string, ids []string) (map[string]string, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return nil, err
	}
	return s.engine.ResolveRefs(ctx, table, field, ids)
}

// ResolveLookups runs every configured lookup of table over rows.
func (s *AdminService) ResolveLookups(ctx context.Context, caller, table string, rows []Record) ([]resolve.LookupResult, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return nil, err
	}
	docs, err := recordsToDocuments(table, rows)
	if err != nil {
		return nil, err
	}
	return s.engine.ResolveAllLookups(ctx, table, docs)
}

// ResolveLookupValues runs a single lookup of table over rows.
func (s *AdminService) ResolveLookupValues(ctx context.Context, caller, table string, lookup schema.Lookup, rows []Record) (map[string]any, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return nil, err
	}
	docs, err := recordsToDocuments(table, rows)
	if err != nil {
		return nil, err
	}
	return s.engine.ResolveLookupValues(ctx, table, lookup, docs)
}

// ResolveLinkedRecords lists the records linked to id through the linked
// record key configured on table.
func (s *AdminService) ResolveLinkedRecords(ctx context.Context, caller, table, key, id string) ([]resolve.LinkSummary, error) {
	link, err := s.linkedRecord(caller, table, key)
	if err != nil {
		return nil, err
	}
	return s.engine.ResolveLinkedRecords(ctx, link, id)
}

func (s *AdminService) BatchResolveLinkedRecords(ctx context.Context, caller, table, key string, ids []string) (map[string][]resolve.LinkSummary, error) {
	link, err := s.linkedRecord(caller, table, key)
	if err != nil {
		return nil, err
	}
	return s.engine.BatchResolveLinkedRecords(ctx, link, ids)
}

func (s *AdminService) linkedRecord(caller, table, key string) (schema.LinkedRecord, error) {
	_, cfg, err := s.adminTable(caller, table)
	if err != nil {
		return schema.LinkedRecord{}, err
	}
	for _, lr := range cfg.LinkedRecords {
		if lr.Key == key {
			return lr, nil
		}
	}
	return schema.LinkedRecord{}, types.NotFound("admin.linkedRecord", "%s has no linked records %q", table, key)
}

func (s *AdminService) ResolveStorageUrls(ctx context.Context, caller string, refs []string) (map[string]string, error) {
	if _, err := s.admin(caller); err != nil {
		return nil, err
	}
	return s.engine.ResolveStorageUrls(ctx, refs)
}

// AdminUser is an admin identity with its display name from the people
// table, if one is found.
type AdminUser struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ListAdminUsers returns every admin identity. A non-empty query keeps the
// users whose name or email fuzzily matches it.
func (s *AdminService) ListAdminUsers(ctx context.Context, caller, query string) ([]AdminUser, error) {
	if _, err := s.admin(caller); err != nil {
		return nil, err
	}
	emails := s.reg.AdminEmails()
	names, err := s.people.names(ctx, emails)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	out := make([]AdminUser, 0, len(emails))
	for _, email := range emails {
		u := AdminUser{Email: email, Name: names[email]}
		if query != "" && !fuzzy.MatchNormalizedFold(query, u.Name) && !fuzzy.MatchNormalizedFold(query, u.Email) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func knownField(cfg *schema.TableConfig, name string) (schema.Field, error) {
	if strings.HasPrefix(name, "_") {
		return schema.Field{}, types.Validation("admin.field", "%s is maintained by the store", name)
	}
	f, ok := cfg.Field(name)
	if !ok {
		return schema.Field{}, types.Validation("admin.field", "%s has no field %q", cfg.Name, name)
	}
	return f, nil
}

// checkCreate validates a full document. Nil values are dropped.
func checkCreate(cfg *schema.TableConfig, fields map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(fields))
	for _, name := range sortedKeys(fields) {
		f, err := knownField(cfg, name)
		if err != nil {
			return nil, err
		}
		v := fields[name]
		if v == nil {
			continue
		}
		if err := f.Type.Check(v); err != nil {
			return nil, types.Validation("admin.field", "%s.%s: %v", cfg.Name, name, err)
		}
		clean[name] = v
	}
	for _, f := range cfg.Fields {
		if _, ok := clean[f.Name]; ok || f.Optional || f.AutoNow {
			continue
		}
		return nil, types.Validation("admin.field", "%s.%s is required", cfg.Name, f.Name)
	}
	return clean, nil
}

// stampAutoNow fills AutoNow fields with the current time. refresh
// overwrites values already present.
func stampAutoNow(cfg *schema.TableConfig, fields map[string]any, refresh bool) {
	now := time.Now().UnixMilli()
	for _, f := range cfg.Fields {
		if !f.AutoNow {
			continue
		}
		if _, ok := fields[f.Name]; ok && !refresh {
			continue
		}
		fields[f.Name] = now
	}
}

func recordsToDocuments(table string, rows []Record) ([]store.Document, error) {
	docs := make([]store.Document, 0, len(rows))
	for i, r := range rows {
		id, _ := r[IDKey].(string)
		if id == "" {
			return nil, types.Validation("admin.rows", "row %d has no %s", i, IDKey)
		}
		fields := make(map[string]any, len(r))
		for k, v := range r {
			if !strings.HasPrefix(k, "_") {
				fields[k] = v
			}
		}
		docs = append(docs, store.Document{ID: id, Table: table, Fields: fields})
	}
	return docs, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
