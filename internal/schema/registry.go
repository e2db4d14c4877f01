// registry.go
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

package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/localnerve/jam-build-admindb/internal/types"
)

// CreationTimeField sorts by the store's creation timestamp.
const CreationTimeField = "_creationTime"

// TableConfig is the resolved, validated form of a Descriptor. Values handed
// out by a Registry are shared and must not be modified.
type TableConfig struct {
	Name              string         `json:"name"`
	Fields            []Field        `json:"-"`
	PrimaryField      []string       `json:"primaryField"`
	Icon              string         `json:"icon,omitempty"`
	Category          string         `json:"category,omitempty"`
	Description       string         `json:"description,omitempty"`
	DefaultSort       *Sort          `json:"defaultSort,omitempty"`
	Review            ReviewConfig   `json:"reviewConfig"`
	Lookups           []Lookup       `json:"lookups"`
	LinkedRecords     []LinkedRecord `json:"linkedRecords"`
	DefaultFieldOrder []string       `json:"defaultFieldOrder"`
	System            bool           `json:"system"`
	Program           string         `json:"program"`

	fieldIndex map[string]int
}

// Field returns the named field.
func (t *TableConfig) Field(name string) (Field, bool) {
	i, ok := t.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[i], true
}

// ReferenceTarget returns the table referenced by field, if it is a reference.
func (t *TableConfig) ReferenceTarget(field string) (string, bool) {
	f, ok := t.Field(field)
	if !ok {
		return "", false
	}
	return ReferenceTarget(f.Type)
}

// IndexedFields lists the fields maintained in the store's secondary index.
func (t *TableConfig) IndexedFields() []string {
	var out []string
	for _, f := range t.Fields {
		if f.Indexed {
			out = append(out, f.Name)
		}
	}
	return out
}

// Registry is the immutable table metadata built once at startup.
type Registry struct {
	tables      []*TableConfig
	byName      map[string]*TableConfig
	programs    []Program
	shared      string
	admins      map[string]struct{}
	adminList   []string
	peopleTable string
}

// Table returns the config for name.
func (r *Registry) Table(name string) (*TableConfig, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Tables returns every table in declaration order, system tables last.
func (r *Registry) Tables() []*TableConfig {
	out := make([]*TableConfig, len(r.tables))
	copy(out, r.tables)
	return out
}

// NavigableTables excludes the system tables.
func (r *Registry) NavigableTables() []*TableConfig {
	out := make([]*TableConfig, 0, len(r.tables))
	for _, t := range r.tables {
		if !t.System {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) Programs() []Program {
	out := make([]Program, len(r.programs))
	copy(out, r.programs)
	return out
}

// ProgramFor returns the program id assigned to a table name. Names that are
// not registered are assigned with the same prefix rule.
func (r *Registry) ProgramFor(name string) string {
	if t, ok := r.byName[name]; ok {
		return t.Program
	}
	return assignProgram(name, r.programs, r.shared)
}

// IsAdmin reports whether email belongs to the admin identity set.
func (r *Registry) IsAdmin(email string) bool {
	_, ok := r.admins[normalizeEmail(email)]
	return ok
}

// AdminEmails returns the admin identities, sorted.
func (r *Registry) AdminEmails() []string {
	out := make([]string, len(r.adminList))
	copy(out, r.adminList)
	return out
}

func (r *Registry) PeopleTable() string {
	return r.peopleTable
}

// assignProgram picks the longest matching prefix. Equal lengths keep the
// first declared program.
func assignProgram(name string, programs []Program, shared string) string {
	best := -1
	for i, p := range programs {
		if !strings.HasPrefix(name, p.Prefix) {
			continue
		}
		if best == -1 || len(p.Prefix) > len(programs[best].Prefix) {
			best = i
		}
	}
	if best == -1 {
		return shared
	}
	return programs[best].ID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Build validates descriptors and produces a Registry. Any dangling reference
// fails the whole build; the returned error lists every problem found.
func Build(descriptors []Descriptor, opts Options) (*Registry, error) {
	all := make([]Descriptor, 0, len(descriptors)+3)
	all = append(all, descriptors...)
	all = append(all, systemDescriptors()...)

	programs := opts.Programs
	shared := opts.SharedProgram
	if len(programs) == 0 {
		programs = []Program{{ID: "main", Label: "Main", Prefix: ""}}
		if shared == "" {
			shared = "main"
		}
	}

	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	programIDs := make(map[string]struct{}, len(programs))
	for _, p := range programs {
		if p.ID == "" {
			fail("program with prefix %q has no id", p.Prefix)
			continue
		}
		if _, dup := programIDs[p.ID]; dup {
			fail("duplicate program id %q", p.ID)
		}
		programIDs[p.ID] = struct{}{}
	}
	if _, ok := programIDs[shared]; !ok {
		fail("shared program %q is not a declared program", shared)
	}

	reg := &Registry{
		byName:      make(map[string]*TableConfig, len(all)),
		programs:    append([]Program(nil), programs...),
		shared:      shared,
		admins:      make(map[string]struct{}, len(opts.AdminEmails)),
		peopleTable: opts.PeopleTable,
	}

	// First pass: resolve each table on its own.
	for _, d := range all {
		if d.Name == "" {
			fail("table with empty name")
			continue
		}
		if _, dup := reg.byName[d.Name]; dup {
			fail("duplicate table %q", d.Name)
			continue
		}
		cfg := &TableConfig{
			Name:              d.Name,
			Fields:            make([]Field, 0, len(d.Fields)),
			PrimaryField:      append([]string(nil), d.PrimaryField...),
			Icon:              d.Icon,
			Category:          d.Category,
			Description:       d.Description,
			DefaultSort:       d.DefaultSort,
			Review:            d.Review,
			Lookups:           append([]Lookup(nil), d.Lookups...),
			LinkedRecords:     append([]LinkedRecord(nil), d.LinkedRecords...),
			DefaultFieldOrder: append([]string(nil), d.DefaultFieldOrder...),
			System:            d.System,
			Program:           assignProgram(d.Name, programs, shared),
			fieldIndex:        make(map[string]int, len(d.Fields)),
		}
		for _, f := range d.Fields {
			if f.Name == "" {
				fail("%s: field with empty name", d.Name)
				continue
			}
			if f.Type == nil {
				fail("%s.%s: missing type", d.Name, f.Name)
				continue
			}
			if _, dup := cfg.fieldIndex[f.Name]; dup {
				fail("%s: duplicate field %q", d.Name, f.Name)
				continue
			}
			if _, isRef := ReferenceTarget(f.Type); isRef {
				f.Indexed = true
			}
			if f.AutoNow {
				if _, ok := f.Type.(Timestamp); !ok {
					fail("%s.%s: autoNow requires a timestamp field", d.Name, f.Name)
				}
			}
			cfg.fieldIndex[f.Name] = len(cfg.Fields)
			cfg.Fields = append(cfg.Fields, f)
		}
		for i := range cfg.Lookups {
			if cfg.Lookups[i].Label == "" {
				cfg.Lookups[i].Label = cfg.Lookups[i].TargetField
			}
		}
		reg.byName[d.Name] = cfg
		reg.tables = append(reg.tables, cfg)
	}

	// Second pass: cross-table references.
	for _, cfg := range reg.tables {
		errs = append(errs, validateTable(reg, cfg)...)
	}

	for _, email := range opts.AdminEmails {
		e := normalizeEmail(email)
		if e == "" {
			continue
		}
		if _, dup := reg.admins[e]; dup {
			continue
		}
		reg.admins[e] = struct{}{}
		reg.adminList = append(reg.adminList, e)
	}
	sort.Strings(reg.adminList)

	if opts.PeopleTable != "" {
		people, ok := reg.byName[opts.PeopleTable]
		if !ok {
			fail("people table %q is not registered", opts.PeopleTable)
		} else if f, ok := people.Field("email"); !ok || !f.Indexed {
			fail("people table %q needs an indexed email field", opts.PeopleTable)
		}
	}

	if len(errs) > 0 {
		return nil, schemaError(errs)
	}
	return reg, nil
}

func validateTable(reg *Registry, cfg *TableConfig) []error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s: %s", cfg.Name, fmt.Sprintf(format, args...)))
	}
	has := func(name string) bool {
		_, ok := cfg.fieldIndex[name]
		return ok
	}

	for _, f := range cfg.Fields {
		if target, ok := ReferenceTarget(f.Type); ok {
			if _, exists := reg.byName[target]; !exists {
				fail("field %q references unknown table %q", f.Name, target)
			}
		}
	}

	if len(cfg.PrimaryField) == 0 {
		fail("no primary field")
	}
	for _, name := range cfg.PrimaryField {
		if !has(name) {
			fail("primary field %q does not exist", name)
		}
	}
	if s := cfg.DefaultSort; s != nil {
		if s.Field != CreationTimeField && !has(s.Field) {
			fail("default sort field %q does not exist", s.Field)
		}
		if s.Direction != SortAsc && s.Direction != SortDesc {
			fail("default sort direction %q must be asc or desc", s.Direction)
		}
	}
	for _, name := range cfg.DefaultFieldOrder {
		if !has(name) {
			fail("default field order names unknown field %q", name)
		}
	}
	if r := cfg.Review; r.SubtitleField != "" && !has(r.SubtitleField) {
		fail("review subtitle field %q does not exist", r.SubtitleField)
	}
	if r := cfg.Review; r.BadgeField != "" && !has(r.BadgeField) {
		fail("review badge field %q does not exist", r.BadgeField)
	}

	for i, l := range cfg.Lookups {
		target, ok := cfg.ReferenceTarget(l.SourceField)
		if !ok {
			fail("lookup %d: source field %q is not a reference field", i, l.SourceField)
			continue
		}
		tcfg, ok := reg.byName[target]
		if !ok {
			continue // reported with the field
		}
		if _, ok := tcfg.Field(l.TargetField); !ok {
			fail("lookup %d: %s has no field %q", i, target, l.TargetField)
		}
	}

	keys := make(map[string]struct{}, len(cfg.LinkedRecords))
	for _, lr := range cfg.LinkedRecords {
		if lr.Key == "" {
			fail("linked record to %q has no key", lr.TargetTable)
		} else if _, dup := keys[lr.Key]; dup {
			fail("duplicate linked record key %q", lr.Key)
		}
		keys[lr.Key] = struct{}{}
		if err := CheckLinkedRecord(reg, cfg.Name, lr); err != nil {
			fail("linked record %q: %v", lr.Key, err)
		}
	}
	return errs
}

// CheckLinkedRecord verifies that lr describes a reverse reference from
// lr.TargetTable back to owner. An empty owner skips the back-reference
// table check.
func CheckLinkedRecord(reg *Registry, owner string, lr LinkedRecord) error {
	target, ok := reg.byName[lr.TargetTable]
	if !ok {
		return fmt.Errorf("unknown target table %q", lr.TargetTable)
	}
	f, ok := target.Field(lr.ReverseField)
	if !ok {
		return fmt.Errorf("%s has no field %q", lr.TargetTable, lr.ReverseField)
	}
	points, isRef := ReferenceTarget(f.Type)
	if !isRef || !f.Indexed {
		return fmt.Errorf("%s.%s is not an indexed reference", lr.TargetTable, lr.ReverseField)
	}
	if owner != "" && points != owner {
		return fmt.Errorf("%s.%s references %s, not %s", lr.TargetTable, lr.ReverseField, points, owner)
	}
	if lr.DisplayField != "" {
		if _, ok := target.Field(lr.DisplayField); !ok {
			return fmt.Errorf("%s has no display field %q", lr.TargetTable, lr.DisplayField)
		}
	}
	return nil
}

func schemaError(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	ce := types.Validation("schema.validation", "invalid schema: %s", strings.Join(msgs, "; "))
	ce.Err = errors.Join(errs...)
	return ce
}
