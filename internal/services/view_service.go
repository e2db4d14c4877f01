// view_service.go
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

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/jam-build-admindb/internal/models"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"gorm.io/gorm"
)

const (
	DefaultViewLabel = "Default view"
	maxLabelLength   = 120
	maxLabelAttempts = 20
)

const (
	ConjunctionAnd = "and"
	ConjunctionOr  = "or"
)

// FilterCondition is one grid filter. Operator and Value are interpreted by
// the client; Field must name a column of the view's table.
type FilterCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// FilterState combines conditions with a single conjunction. An empty
// conjunction is stored as "and".
type FilterState struct {
	Conjunction string            `json:"conjunction"`
	Conditions  []FilterCondition `json:"conditions"`
}

// ViewConfig is the saved grid state.
type ViewConfig struct {
	Filter      FilterState   `json:"filterState"`
	Sort        []schema.Sort `json:"sort"`
	ColumnOrder []string      `json:"columnOrder"`
}

type View struct {
	ID        string     `json:"id"`
	Table     string     `json:"table"`
	Owner     string     `json:"owner"`
	Label     string     `json:"label"`
	IsDefault bool       `json:"isDefault"`
	Config    ViewConfig `json:"config"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
}

// ViewService manages saved views. Label uniqueness and the single default
// per table and owner are enforced by unique indexes on admin_views.
type ViewService struct {
	guard
	db *gorm.DB
}

func NewViewService(reg *schema.Registry, db *gorm.DB) *ViewService {
	return &ViewService{guard: guard{reg: reg}, db: db}
}

// ListViews returns the caller's views of table, default first then by label.
func (s *ViewService) ListViews(ctx context.Context, caller, table string) ([]View, error) {
	caller, _, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}
	var rows []models.SavedView
	err = s.db.WithContext(ctx).
		Where("table_name = ? AND owner = ?", table, caller).
		Order("is_default DESC").Order("label ASC").
		Find(&rows).Error
	if err != nil {
		return nil, store.WrapError(err, "list views of %s", table)
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		v, err := toView(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *ViewService) SaveView(ctx context.Context, caller, table, label string, cfg ViewConfig) (*View, error) {
	caller, tcfg, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}
	label, err = checkLabel(label)
	if err != nil {
		return nil, err
	}
	if err := checkViewConfig(tcfg, cfg); err != nil {
		return nil, err
	}

	row, err := newViewRow(table, caller, label, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, s.labelError(err, table, label)
	}
	v, err := toView(row)
	return &v, err
}

// GetView reads any view. Only the admin check applies.
func (s *ViewService) GetView(ctx context.Context, caller, id string) (*View, error) {
	if _, err := s.admin(caller); err != nil {
		return nil, err
	}
	row, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	v, err := toView(*row)
	return &v, err
}

func (s *ViewService) UpdateViewConfig(ctx context.Context, caller, id string, cfg ViewConfig) (*View, error) {
	return s.mutateOwned(ctx, caller, id, func(tx *gorm.DB, row *models.SavedView) error {
		tcfg, ok := s.reg.Table(row.Table)
		if !ok {
			return types.NotFound("views.table", "unknown table %q", row.Table)
		}
		if err := checkViewConfig(tcfg, cfg); err != nil {
			return err
		}
		if err := setViewConfig(row, cfg); err != nil {
			return err
		}
		return tx.Model(row).Select("filter_state", "sort_state", "column_order", "updated_at").Updates(row).Error
	})
}

func (s *ViewService) RenameView(ctx context.Context, caller, id, label string) (*View, error) {
	if _, err := s.admin(caller); err != nil {
		return nil, err
	}
	label, err := checkLabel(label)
	if err != nil {
		return nil, err
	}
	return s.mutateOwned(ctx, caller, id, func(tx *gorm.DB, row *models.SavedView) error {
		row.Label = label
		if err := tx.Model(row).Select("label", "updated_at").Updates(row).Error; err != nil {
			return s.labelError(err, row.Table, label)
		}
		return nil
	})
}

// ReassignView hands the view to another admin. The new owner must not
// already have a view with the same label, and the view stops being a
// default.
func (s *ViewService) ReassignView(ctx context.Context, caller, id, newOwner string) (*View, error) {
	newOwner = normalizeEmail(newOwner)
	return s.mutateOwned(ctx, caller, id, func(tx *gorm.DB, row *models.SavedView) error {
		if !s.reg.IsAdmin(newOwner) {
			return types.Validation("views.owner", "%q is not an admin", newOwner)
		}
		if newOwner == row.Owner {
			return nil
		}
		var n int64
		if err := tx.Model(&models.SavedView{}).
			Where("table_name = ? AND owner = ? AND label = ?", row.Table, newOwner, row.Label).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return types.Conflict("views.label", "%s already has a view labeled %q", newOwner, row.Label)
		}
		row.Owner = newOwner
		row.IsDefault = false
		row.DefaultKey = nil
		if err := tx.Model(row).Select("owner", "is_default", "default_key", "updated_at").Updates(row).Error; err != nil {
			return s.labelError(err, row.Table, row.Label)
		}
		return nil
	})
}

func (s *ViewService) DeleteView(ctx context.Context, caller, id string) error {
	_, err := s.mutateOwned(ctx, caller, id, func(tx *gorm.DB, row *models.SavedView) error {
		return tx.Delete(row).Error
	})
	return err
}

// DuplicateView copies any view into a new non-default view owned by the
// caller, labeled "<label> (copy)" and numbered when that is taken.
func (s *ViewService) DuplicateView(ctx context.Context, caller, id string) (*View, error) {
	caller, err := s.admin(caller)
	if err != nil {
		return nil, err
	}
	src, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	cfg, err := viewConfig(*src)
	if err != nil {
		return nil, err
	}

	base := src.Label + " (copy)"
	row, err := s.createUnique(ctx, src.Table, caller, base, cfg, false)
	if err != nil {
		return nil, err
	}
	v, err := toView(*row)
	return &v, err
}

// GetOrCreateDefaultView returns the caller's default view of table,
// creating it from the table defaults on first use. Concurrent first calls
// converge on whichever insert won the default_key index.
func (s *ViewService) GetOrCreateDefaultView(ctx context.Context, caller, table string) (*View, error) {
	caller, tcfg, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}

	row, err := s.findDefault(ctx, table, caller)
	if err != nil {
		return nil, err
	}
	if row == nil {
		cfg := ViewConfig{
			Filter:      FilterState{Conjunction: ConjunctionAnd, Conditions: []FilterCondition{}},
			ColumnOrder: tcfg.DefaultFieldOrder,
		}
		if tcfg.DefaultSort != nil {
			cfg.Sort = []schema.Sort{*tcfg.DefaultSort}
		}
		if row, err = s.createUnique(ctx, table, caller, DefaultViewLabel, cfg, true); err != nil {
			return nil, err
		}
	}
	v, err := toView(*row)
	return &v, err
}

func (s *ViewService) findDefault(ctx context.Context, table, owner string) (*models.SavedView, error) {
	var row models.SavedView
	err := s.db.WithContext(ctx).Where("default_key = ?", *models.DefaultViewKey(table, owner)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, store.WrapError(err, "default view of %s", table)
	}
	return &row, nil
}

// createUnique inserts a view under base or the first free numbered variant.
// For a default view, losing the default_key race returns the winner.
func (s *ViewService) createUnique(ctx context.Context, table, owner, base string, cfg ViewConfig, isDefault bool) (*models.SavedView, error) {
	for attempt := 1; attempt <= maxLabelAttempts; attempt++ {
		label := base
		if attempt > 1 {
			label = fmt.Sprintf("%s %d", base, attempt)
		}
		if len(label) > maxLabelLength {
			return nil, types.Validation("views.label", "label too long")
		}

		row, err := newViewRow(table, owner, label, cfg)
		if err != nil {
			return nil, err
		}
		if isDefault {
			row.IsDefault = true
			row.DefaultKey = models.DefaultViewKey(table, owner)
		}

		err = s.db.WithContext(ctx).Create(&row).Error
		if err == nil {
			return &row, nil
		}
		if !store.IsDuplicateKey(err) {
			return nil, store.WrapError(err, "create view of %s", table)
		}
		if isDefault {
			winner, ferr := s.findDefault(ctx, table, owner)
			if ferr != nil {
				return nil, ferr
			}
			if winner != nil {
				return winner, nil
			}
		}
	}
	return nil, types.Conflict("views.label", "no free label for %q", base)
}

func (s *ViewService) load(db *gorm.DB, id string) (*models.SavedView, error) {
	var row models.SavedView
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, store.WrapError(err, "view %s", id)
	}
	return &row, nil
}

// mutateOwned runs fn in a transaction on a view owned by the caller.
func (s *ViewService) mutateOwned(ctx context.Context, caller, id string, fn func(tx *gorm.DB, row *models.SavedView) error) (*View, error) {
	caller, err := s.admin(caller)
	if err != nil {
		return nil, err
	}

	var out View
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if row.Owner != caller {
			return types.Forbidden("views.owner", "view %s belongs to another admin", id)
		}
		row.UpdatedAt = time.Now().UTC()
		if err := fn(tx, row); err != nil {
			return err
		}
		out, err = toView(*row)
		return err
	})
	if err != nil {
		return nil, store.WrapError(err, "update view %s", id)
	}
	return &out, nil
}

func (s *ViewService) labelError(err error, table, label string) error {
	if store.IsDuplicateKey(err) {
		return types.Conflict("views.label", "a view of %s is already labeled %q", table, label)
	}
	return store.WrapError(err, "save view of %s", table)
}

func checkLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", types.Validation("views.label", "label is required")
	}
	if len(label) > maxLabelLength {
		return "", types.Validation("views.label", "label is longer than %d characters", maxLabelLength)
	}
	return label, nil
}

func checkViewConfig(cfg *schema.TableConfig, vc ViewConfig) error {
	switch vc.Filter.Conjunction {
	case "", ConjunctionAnd, ConjunctionOr:
	default:
		return types.Validation("views.config", "conjunction %q must be \"and\" or \"or\"", vc.Filter.Conjunction)
	}
	for i, cond := range vc.Filter.Conditions {
		if _, ok := cfg.Field(cond.Field); !ok && cond.Field != schema.CreationTimeField {
			return types.Validation("views.config", "%s has no filter field %q", cfg.Name, cond.Field)
		}
		if strings.TrimSpace(cond.Operator) == "" {
			return types.Validation("views.config", "condition %d has no operator", i)
		}
	}
	for _, name := range vc.ColumnOrder {
		if _, ok := cfg.Field(name); !ok {
			return types.Validation("views.config", "%s has no column %q", cfg.Name, name)
		}
	}
	for _, srt := range vc.Sort {
		if _, ok := cfg.Field(srt.Field); !ok && srt.Field != schema.CreationTimeField {
			return types.Validation("views.config", "%s has no sort field %q", cfg.Name, srt.Field)
		}
		if srt.Direction != schema.SortAsc && srt.Direction != schema.SortDesc {
			return types.Validation("views.config", "sort direction %q must be asc or desc", srt.Direction)
		}
	}
	return nil
}

func newViewRow(table, owner, label string, cfg ViewConfig) (models.SavedView, error) {
	row := models.SavedView{ID: uuid.NewString(), Table: table, Owner: owner, Label: label}
	return row, setViewConfig(&row, cfg)
}

func setViewConfig(row *models.SavedView, cfg ViewConfig) error {
	if cfg.Filter.Conjunction == "" {
		cfg.Filter.Conjunction = ConjunctionAnd
	}
	if cfg.Filter.Conditions == nil {
		cfg.Filter.Conditions = []FilterCondition{}
	}
	if cfg.Sort == nil {
		cfg.Sort = []schema.Sort{}
	}
	if cfg.ColumnOrder == nil {
		cfg.ColumnOrder = []string{}
	}
	var err error
	if row.FilterState, err = models.NewJSON(cfg.Filter); err != nil {
		return types.Validation("views.config", "filterState: %v", err)
	}
	if row.SortState, err = models.NewJSON(cfg.Sort); err != nil {
		return types.Validation("views.config", "sort: %v", err)
	}
	if row.ColumnOrder, err = models.NewJSON(cfg.ColumnOrder); err != nil {
		return types.Validation("views.config", "columnOrder: %v", err)
	}
	return nil
}

func viewConfig(row models.SavedView) (ViewConfig, error) {
	cfg := ViewConfig{
		Filter:      FilterState{Conjunction: ConjunctionAnd, Conditions: []FilterCondition{}},
		Sort:        []schema.Sort{},
		ColumnOrder: []string{},
	}
	if err := row.FilterState.Decode(&cfg.Filter); err != nil {
		return cfg, types.Upstream("views.decode", err, "corrupt view %s", row.ID)
	}
	if err := row.SortState.Decode(&cfg.Sort); err != nil {
		return cfg, types.Upstream("views.decode", err, "corrupt view %s", row.ID)
	}
	if err := row.ColumnOrder.Decode(&cfg.ColumnOrder); err != nil {
		return cfg, types.Upstream("views.decode", err, "corrupt view %s", row.ID)
	}
	return cfg, nil
}

func toView(row models.SavedView) (View, error) {
	cfg, err := viewConfig(row)
	if err != nil {
		return View{}, err
	}
	return View{
		ID:        row.ID,
		Table:     row.Table,
		Owner:     row.Owner,
		Label:     row.Label,
		IsDefault: row.IsDefault,
		Config:    cfg,
		CreatedAt: row.CreatedAt.UnixMilli(),
		UpdatedAt: row.UpdatedAt.UnixMilli(),
	}, nil
}
