// gorm_store.go
//
// A schema-driven admin back-office data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-admindb.
// jam-build-admindb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-admindb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-admindb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package store

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/localnerve/jam-build-admindb/internal/models"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500

	maxIndexValue = 255
)

// GormStore keeps every registered table in the documents table. Indexed and
// reference fields are mirrored into document_index in the same transaction
// as the document write.
type GormStore struct {
	db  *gorm.DB
	reg *schema.Registry
}

func NewGormStore(db *gorm.DB, reg *schema.Registry) *GormStore {
	return &GormStore{db: db, reg: reg}
}

// query tags every statement so slow-query logs name the store operation.
func (s *GormStore) query(ctx context.Context, op string) *gorm.DB {
	return s.db.WithContext(ctx).Clauses(hints.Comment("select", "store."+op))
}

func (s *GormStore) Get(ctx context.Context, table, id string) (*Document, error) {
	var row models.Document
	err := s.query(ctx, "get").
		Where("table_name = ? AND id = ?", table, id).
		First(&row).Error
	if err != nil {
		return nil, WrapError(err, "get %s/%s", table, id)
	}
	return toDocument(row)
}

func (s *GormStore) GetMany(ctx context.Context, table string, ids []string) (map[string]*Document, error) {
	out := make(map[string]*Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Document
	err := s.query(ctx, "getMany").
		Where("table_name = ? AND id IN ?", table, ids).
		Find(&rows).Error
	if err != nil {
		return nil, WrapError(err, "get %d %s", len(ids), table)
	}
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, nil
}

// List pages through a table newest first. Ties on creation time are broken
// by id so the order is stable across pages.
func (s *GormStore) List(ctx context.Context, table string, args PageArgs) (*Page, error) {
	size := args.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	after, err := decodeCursor(args.Cursor)
	if err != nil {
		return nil, err
	}

	q := s.query(ctx, "list").Where("table_name = ?", table)
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.createdAt, after.createdAt, after.id)
	}

	var rows []models.Document
	if err := q.Order("created_at DESC").Order("id DESC").Limit(size + 1).Find(&rows).Error; err != nil {
		return nil, WrapError(err, "list %s", table)
	}

	page := &Page{IsDone: len(rows) <= size}
	if !page.IsDone {
		rows = rows[:size]
	}
	page.Rows = make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return nil, err
		}
		page.Rows = append(page.Rows, *doc)
	}
	if !page.IsDone {
		page.NextCursor = encodeCursor(page.Rows[len(page.Rows)-1])
	}
	return page, nil
}

func (s *GormStore) Create(ctx context.Context, table string, fields map[string]any) (*Document, error) {
	cfg, err := s.table(table)
	if err != nil {
		return nil, err
	}
	data, err := models.NewJSON(fields)
	if err != nil {
		return nil, types.Validation("store.encode", "cannot encode %s document: %v", table, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	row := models.Document{
		ID:        uuid.NewString(),
		Table:     table,
		Fields:    data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return writeIndex(tx, cfg, row.ID, fields)
	})
	if err != nil {
		return nil, WrapError(err, "create %s", table)
	}
	return toDocument(row)
}

func (s *GormStore) Patch(ctx context.Context, table, id string, set map[string]any, unset []string) (*Document, error) {
	cfg, err := s.table(table)
	if err != nil {
		return nil, err
	}

	var out *Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("table_name = ? AND id = ?", table, id).
			First(&row).Error; err != nil {
			return err
		}

		fields := map[string]any{}
		if err := row.Fields.Decode(&fields); err != nil {
			return err
		}
		for k, v := range set {
			fields[k] = v
		}
		for _, k := range unset {
			delete(fields, k)
		}

		data, err := models.NewJSON(fields)
		if err != nil {
			return err
		}
		row.Fields = data
		row.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
		if err := tx.Model(&row).Select("fields", "updated_at").Updates(&row).Error; err != nil {
			return err
		}

		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentIndex{}).Error; err != nil {
			return err
		}
		if err := writeIndex(tx, cfg, id, fields); err != nil {
			return err
		}

		out = &Document{ID: row.ID, Table: row.Table, Fields: fields, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "patch %s/%s", table, id)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, table, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("table_name = ? AND id = ?", table, id).Delete(&models.Document{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("document_id = ?", id).Delete(&models.DocumentIndex{}).Error
	})
	if err != nil {
		return WrapError(err, "delete %s/%s", table, id)
	}
	return nil
}

func (s *GormStore) FindByField(ctx context.Context, table, field, value string) ([]Document, error) {
	return s.FindByFieldIn(ctx, table, field, []string{value})
}

// FindByFieldIn matches any of values through document_index in one query.
func (s *GormStore) FindByFieldIn(ctx context.Context, table, field string, values []string) ([]Document, error) {
	cfg, err := s.table(table)
	if err != nil {
		return nil, err
	}
	f, ok := cfg.Field(field)
	if !ok || !f.Indexed {
		return nil, types.Validation("store.unindexed", "%s.%s is not an indexed field", table, field)
	}
	if len(values) == 0 {
		return []Document{}, nil
	}

	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = indexValue(f, v)
	}

	var rows []models.Document
	err = s.query(ctx, "findByField").
		Joins("JOIN document_index ON document_index.document_id = documents.id").
		Where("document_index.table_name = ? AND document_index.field = ? AND document_index.value IN ?", table, field, keys).
		Where("documents.table_name = ?", table).
		Order("documents.created_at ASC").Order("documents.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, WrapError(err, "find %s by %s", table, field)
	}

	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (s *GormStore) table(name string) (*schema.TableConfig, error) {
	cfg, ok := s.reg.Table(name)
	if !ok {
		return nil, types.NotFound("store.table", "unknown table %q", name)
	}
	return cfg, nil
}

func writeIndex(tx *gorm.DB, cfg *schema.TableConfig, id string, fields map[string]any) error {
	var entries []models.DocumentIndex
	for _, name := range cfg.IndexedFields() {
		v := schema.DisplayString(fields[name])
		if v == "" {
			continue
		}
		f, _ := cfg.Field(name)
		entries = append(entries, models.DocumentIndex{
			Table:      cfg.Name,
			Field:      name,
			Value:      indexValue(f, v),
			DocumentID: id,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

// indexValue is the document_index key for v. Email text is case-folded
// and long values are cut on a rune boundary.
func indexValue(f schema.Field, v string) string {
	v = strings.TrimSpace(v)
	if t, ok := f.Type.(schema.Text); ok && t.Format == schema.TextEmail {
		v = strings.ToLower(v)
	}
	if len(v) > maxIndexValue {
		n := maxIndexValue
		for n > 0 && !utf8.RuneStart(v[n]) {
			n--
		}
		v = v[:n]
	}
	return v
}

func toDocument(row models.Document) (*Document, error) {
	fields := map[string]any{}
	if err := row.Fields.Decode(&fields); err != nil {
		return nil, types.Upstream("store.decode", err, "corrupt document %s/%s", row.Table, row.ID)
	}
	return &Document{
		ID:        row.ID,
		Table:     row.Table,
		Fields:    fields,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

// WrapError maps GORM and driver failures onto the error taxonomy.
func WrapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NotFound("store.notFound", format+": not found", args...)
	}
	if IsDuplicateKey(err) {
		e := types.Conflict("store.duplicate", format+": duplicate key", args...)
		e.Err = err
		return e
	}
	return types.Upstream("store.unavailable", err, format+": %v", append(args, err)...)
}

// IsDuplicateKey reports a unique constraint violation on any supported
// driver.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
