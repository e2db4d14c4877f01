// engine.go
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

package resolve

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/localnerve/jam-build-admindb/internal/metrics"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/storage"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"golang.org/x/sync/errgroup"
)

// MissingLabel stands in for a reference whose document no longer exists.
const MissingLabel = "(missing)"

// Config wires the engine's optional collaborators.
type Config struct {
	Storage     storage.Provider
	Concurrency int
	Metrics     *metrics.Metrics
}

// Engine resolves references, lookups, storage urls and reverse links in
// batches. It never writes.
type Engine struct {
	reg         *schema.Registry
	store       store.DocumentStore
	storage     storage.Provider
	concurrency int
	metrics     *metrics.Metrics
}

func New(reg *schema.Registry, st store.DocumentStore, cfg Config) *Engine {
	n := cfg.Concurrency
	if n < 1 {
		n = 1
	}
	return &Engine{
		reg:         reg,
		store:       st,
		storage:     cfg.Storage,
		concurrency: n,
		metrics:     cfg.Metrics,
	}
}

// LinkSummary is one reverse-linked document.
type LinkSummary struct {
	ID           string `json:"id"`
	DisplayValue string `json:"displayValue"`
}

// LookupResult carries one lookup's values keyed by row id.
type LookupResult struct {
	Lookup schema.Lookup  `json:"lookup"`
	Values map[string]any `json:"values"`
}

// ResolveRefs maps each referenced id of table.field to the display label of
// the target document.
func (e *Engine) ResolveRefs(ctx context.Context, table, field string, ids []string) (map[string]string, error) {
	e.metrics.Request("refs")

	cfg, err := e.table(table)
	if err != nil {
		return nil, err
	}
	targetName, ok := cfg.ReferenceTarget(field)
	if !ok {
		return nil, types.Validation("resolve.field", "%s.%s is not a reference field", table, field)
	}
	target, err := e.table(targetName)
	if err != nil {
		return nil, err
	}

	distinct := dedupe(ids)
	docs, err := e.getMany(ctx, targetName, distinct)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(distinct))
	for _, id := range distinct {
		if doc, ok := docs[id]; ok {
			out[id] = schema.Label(target, doc.Fields)
		} else {
			out[id] = MissingLabel
		}
	}
	return out, nil
}

// ResolveLookupValues returns lookup.TargetField of the document each row
// references through lookup.SourceField. Rows without a reference are left
// out.
func (e *Engine) ResolveLookupValues(ctx context.Context, table string, lookup schema.Lookup, rows []store.Document) (map[string]any, error) {
	e.metrics.Request("lookup")

	targetName, err := e.checkLookup(table, lookup)
	if err != nil {
		return nil, err
	}
	docs, err := e.getMany(ctx, targetName, sourceIDs(rows, lookup.SourceField))
	if err != nil {
		return nil, err
	}
	return lookupValues(lookup, rows, docs), nil
}

// ResolveAllLookups resolves every lookup configured on table with a single
// fetch per distinct target table. Target tables are fetched concurrently;
// results follow the configured lookup order.
func (e *Engine) ResolveAllLookups(ctx context.Context, table string, rows []store.Document) ([]LookupResult, error) {
	e.metrics.Request("lookups")

	cfg, err := e.table(table)
	if err != nil {
		return nil, err
	}

	targets := make([]string, len(cfg.Lookups))
	idsByTarget := map[string][]string{}
	var order []string
	for i, l := range cfg.Lookups {
		t, err := e.checkLookup(table, l)
		if err != nil {
			return nil, err
		}
		targets[i] = t
		if _, seen := idsByTarget[t]; !seen {
			order = append(order, t)
		}
		idsByTarget[t] = append(idsByTarget[t], sourceIDs(rows, l.SourceField)...)
	}

	fetched := make([]map[string]*store.Document, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, t := range order {
		i, t := i, t
		g.Go(func() error {
			docs, err := e.getMany(gctx, t, dedupe(idsByTarget[t]))
			if err != nil {
				return err
			}
			fetched[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byTarget := make(map[string]map[string]*store.Document, len(order))
	for i, t := range order {
		byTarget[t] = fetched[i]
	}
	out := make([]LookupResult, len(cfg.Lookups))
	for i, l := range cfg.Lookups {
		out[i] = LookupResult{Lookup: l, Values: lookupValues(l, rows, byTarget[targets[i]])}
	}
	return out, nil
}

// ResolveStorageUrls asks the storage provider for each distinct reference.
// References the provider does not know are omitted.
func (e *Engine) ResolveStorageUrls(ctx context.Context, refs []string) (map[string]string, error) {
	e.metrics.Request("storage")

	if e.storage == nil {
		return nil, types.Upstream("resolve.storage", nil, "file storage is not configured")
	}

	distinct := dedupe(refs)
	out := make(map[string]string, len(distinct))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, ref := range distinct {
		ref := ref
		g.Go(func() error {
			u, err := e.storage.URL(gctx, ref)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			out[ref] = u
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if types.AsCustomError(err) == nil {
			return nil, types.Upstream("resolve.storage", err, "storage provider failed: %v", err)
		}
		return nil, err
	}
	return out, nil
}

// ResolveLinkedRecords lists the documents of link.TargetTable pointing back
// at id.
func (e *Engine) ResolveLinkedRecords(ctx context.Context, link schema.LinkedRecord, id string) ([]LinkSummary, error) {
	all, err := e.BatchResolveLinkedRecords(ctx, link, []string{id})
	if err != nil {
		return nil, err
	}
	return all[id], nil
}

// BatchResolveLinkedRecords resolves link for many owning ids. Every id is
// present in the result, with an empty slice when nothing links to it.
func (e *Engine) BatchResolveLinkedRecords(ctx context.Context, link schema.LinkedRecord, ids []string) (map[string][]LinkSummary, error) {
	e.metrics.Request("linked")

	if err := schema.CheckLinkedRecord(e.reg, "", link); err != nil {
		return nil, types.Validation("resolve.linkedRecord", "invalid linked record %q: %v", link.Key, err)
	}
	target, err := e.table(link.TargetTable)
	if err != nil {
		return nil, err
	}

	distinct := dedupe(ids)
	var docs []store.Document
	if finder, ok := e.store.(store.BatchFinder); ok {
		if len(distinct) > 0 {
			e.metrics.Fetch(link.TargetTable, "findByFieldIn")
			docs, err = finder.FindByFieldIn(ctx, link.TargetTable, link.ReverseField, distinct)
			if err != nil {
				return nil, err
			}
		}
	} else {
		docs, err = e.findEach(ctx, link, distinct)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string][]LinkSummary, len(distinct))
	for _, id := range distinct {
		out[id] = []LinkSummary{}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	for _, doc := range docs {
		owner := schema.DisplayString(doc.Fields[link.ReverseField])
		if _, wanted := out[owner]; !wanted {
			continue
		}
		out[owner] = append(out[owner], LinkSummary{ID: doc.ID, DisplayValue: displayValue(target, link, doc)})
	}
	return out, nil
}

// findEach issues one reverse query per id for stores without BatchFinder.
func (e *Engine) findEach(ctx context.Context, link schema.LinkedRecord, ids []string) ([]store.Document, error) {
	found := make([][]store.Document, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			e.metrics.Fetch(link.TargetTable, "findByField")
			docs, err := e.store.FindByField(gctx, link.TargetTable, link.ReverseField, id)
			if err != nil {
				return err
			}
			found[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []store.Document
	for _, docs := range found {
		all = append(all, docs...)
	}
	return all, nil
}

func (e *Engine) getMany(ctx context.Context, table string, ids []string) (map[string]*store.Document, error) {
	if len(ids) == 0 {
		return map[string]*store.Document{}, nil
	}
	e.metrics.Fetch(table, "getMany")
	return e.store.GetMany(ctx, table, ids)
}

func (e *Engine) table(name string) (*schema.TableConfig, error) {
	cfg, ok := e.reg.Table(name)
	if !ok {
		return nil, types.NotFound("resolve.table", "unknown table %q", name)
	}
	return cfg, nil
}

// checkLookup validates lookup against table and returns its target table.
func (e *Engine) checkLookup(table string, lookup schema.Lookup) (string, error) {
	cfg, err := e.table(table)
	if err != nil {
		return "", err
	}
	targetName, ok := cfg.ReferenceTarget(lookup.SourceField)
	if !ok {
		return "", types.Validation("resolve.lookup", "%s.%s is not a reference field", table, lookup.SourceField)
	}
	target, err := e.table(targetName)
	if err != nil {
		return "", err
	}
	if _, ok := target.Field(lookup.TargetField); !ok {
		return "", types.Validation("resolve.lookup", "%s has no field %q", targetName, lookup.TargetField)
	}
	return targetName, nil
}

func lookupValues(lookup schema.Lookup, rows []store.Document, docs map[string]*store.Document) map[string]any {
	out := make(map[string]any, len(rows))
	for _, row := range rows {
		ref := schema.DisplayString(row.Fields[lookup.SourceField])
		if ref == "" {
			continue
		}
		if doc, ok := docs[ref]; ok {
			out[row.ID] = doc.Fields[lookup.TargetField]
		} else {
			out[row.ID] = MissingLabel
		}
	}
	return out
}

func displayValue(target *schema.TableConfig, link schema.LinkedRecord, doc store.Document) string {
	if link.DisplayField != "" {
		if s := schema.DisplayString(doc.Fields[link.DisplayField]); s != "" {
			return s
		}
	}
	return schema.Label(target, doc.Fields)
}

func sourceIDs(rows []store.Document, field string) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if ref := schema.DisplayString(row.Fields[field]); ref != "" {
			ids = append(ids, ref)
		}
	}
	return ids
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
