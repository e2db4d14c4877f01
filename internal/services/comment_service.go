// comment_service.go
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
	"strings"
	"time"

	"github.com/localnerve/jam-build-admindb/internal/models"
	"github.com/localnerve/jam-build-admindb/internal/notify"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

const (
	maxCommentLength = 10000
	excerptLength    = 140
)

type Comment struct {
	ID         string   `json:"id"`
	Table      string   `json:"table"`
	DocumentID string   `json:"documentId"`
	Author     string   `json:"author"`
	AuthorName string   `json:"authorName,omitempty"`
	Body       string   `json:"body"`
	Mentions   []string `json:"mentions"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
	Edited     bool     `json:"edited"`
}

// CommentService keeps per-record comment threads in admin_comments.
type CommentService struct {
	guard
	db       *gorm.DB
	store    store.DocumentStore
	people   *people
	notifier notify.Notifier
}

func NewCommentService(reg *schema.Registry, db *gorm.DB, st store.DocumentStore, notifier notify.Notifier) *CommentService {
	return &CommentService{
		guard:    guard{reg: reg},
		db:       db,
		store:    st,
		people:   &people{reg: reg, store: st},
		notifier: notifier,
	}
}

// ListComments returns a record's thread oldest first.
func (s *CommentService) ListComments(ctx context.Context, caller, table, documentID string) ([]Comment, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return nil, err
	}
	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Where("table_name = ? AND document_id = ?", table, documentID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, store.WrapError(err, "comments on %s/%s", table, documentID)
	}

	authors := make([]string, 0, len(rows))
	seen := map[string]struct{}{}
	for _, row := range rows {
		if _, dup := seen[row.Author]; !dup {
			seen[row.Author] = struct{}{}
			authors = append(authors, row.Author)
		}
	}
	names, err := s.people.names(ctx, authors)
	if err != nil {
		return nil, err
	}

	out := make([]Comment, 0, len(rows))
	for _, row := range rows {
		c, err := toComment(row)
		if err != nil {
			return nil, err
		}
		c.AuthorName = names[c.Author]
		out = append(out, c)
	}
	return out, nil
}

func (s *CommentService) AddComment(ctx context.Context, caller, table, documentID, body string) (*Comment, error) {
	caller, _, err := s.adminTable(caller, table)
	if err != nil {
		return nil, err
	}
	body, err = checkBody(body)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Get(ctx, table, documentID); err != nil {
		return nil, err
	}
	mentions, err := s.mentions(ctx, body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	row := models.Comment{
		ID:         ulid.Make().String(),
		Table:      table,
		DocumentID: documentID,
		Author:     caller,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if row.Mentions, err = models.NewJSON(mentions); err != nil {
		return nil, types.Validation("comments.mentions", "%v", err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, store.WrapError(err, "add comment on %s/%s", table, documentID)
	}

	s.notify(row, newMentions(nil, mentions, caller))
	return s.withAuthor(ctx, row)
}

// UpdateComment replaces the body. Only the author may edit; mentions added
// by the edit are notified.
func (s *CommentService) UpdateComment(ctx context.Context, caller, id, body string) (*Comment, error) {
	caller, err := s.admin(caller)
	if err != nil {
		return nil, err
	}
	body, err = checkBody(body)
	if err != nil {
		return nil, err
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Author != caller {
		return nil, types.Forbidden("comments.author", "only the author can edit comment %s", id)
	}

	var before []string
	if err := row.Mentions.Decode(&before); err != nil {
		return nil, types.Upstream("comments.decode", err, "corrupt comment %s", id)
	}
	mentions, err := s.mentions(ctx, body)
	if err != nil {
		return nil, err
	}

	row.Body = body
	row.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if row.Mentions, err = models.NewJSON(mentions); err != nil {
		return nil, types.Validation("comments.mentions", "%v", err)
	}
	if err := s.db.WithContext(ctx).Model(row).Select("body", "mentions", "updated_at").Updates(row).Error; err != nil {
		return nil, store.WrapError(err, "update comment %s", id)
	}

	s.notify(*row, newMentions(before, mentions, caller))
	return s.withAuthor(ctx, *row)
}

// DeleteComment removes a comment for good. Every caller past the admin
// check may delete, so authors are covered too.
func (s *CommentService) DeleteComment(ctx context.Context, caller, id string) error {
	if _, err := s.admin(caller); err != nil {
		return err
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return store.WrapError(err, "delete comment %s", id)
	}
	return nil
}

func (s *CommentService) GetCommentCount(ctx context.Context, caller, table, documentID string) (int64, error) {
	if _, _, err := s.adminTable(caller, table); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("table_name = ? AND document_id = ?", table, documentID).
		Count(&n).Error
	if err != nil {
		return 0, store.WrapError(err, "count comments on %s/%s", table, documentID)
	}
	return n, nil
}

func (s *CommentService) load(ctx context.Context, id string) (*models.Comment, error) {
	var row models.Comment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, store.WrapError(err, "comment %s", id)
	}
	return &row, nil
}

// mentions resolves the body's tokens. Display names are only looked up when
// a name token is present.
func (s *CommentService) mentions(ctx context.Context, body string) ([]string, error) {
	tokens := scanMentions(body)
	if len(tokens) == 0 {
		return []string{}, nil
	}
	names := map[string]string{}
	if hasNameToken(tokens) {
		var err error
		if names, err = s.people.names(ctx, s.reg.AdminEmails()); err != nil {
			return nil, err
		}
	}
	out := resolveMentions(tokens, s.reg.IsAdmin, names)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *CommentService) notify(row models.Comment, recipients []string) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	mentions := make([]notify.Mention, len(recipients))
	for i, r := range recipients {
		mentions[i] = notify.Mention{
			Recipient:  r,
			Author:     row.Author,
			Table:      row.Table,
			DocumentID: row.DocumentID,
			CommentID:  row.ID,
			Excerpt:    excerpt(row.Body),
			At:         row.UpdatedAt,
		}
	}
	s.notifier.Notify(mentions...)
}

func (s *CommentService) withAuthor(ctx context.Context, row models.Comment) (*Comment, error) {
	c, err := toComment(row)
	if err != nil {
		return nil, err
	}
	names, err := s.people.names(ctx, []string{c.Author})
	if err != nil {
		return nil, err
	}
	c.AuthorName = names[c.Author]
	return &c, nil
}

// newMentions returns the entries of after missing from before, without
// the author.
func newMentions(before, after []string, author string) []string {
	had := make(map[string]struct{}, len(before))
	for _, m := range before {
		had[m] = struct{}{}
	}
	var out []string
	for _, m := range after {
		if _, ok := had[m]; ok || m == author {
			continue
		}
		out = append(out, m)
	}
	return out
}

func checkBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", types.Validation("comments.body", "comment body is required")
	}
	if len(body) > maxCommentLength {
		return "", types.Validation("comments.body", "comment is longer than %d characters", maxCommentLength)
	}
	return body, nil
}

func excerpt(body string) string {
	r := []rune(body)
	if len(r) <= excerptLength {
		return body
	}
	return string(r[:excerptLength]) + "…"
}

func toComment(row models.Comment) (Comment, error) {
	mentions := []string{}
	if err := row.Mentions.Decode(&mentions); err != nil {
		return Comment{}, types.Upstream("comments.decode", err, "corrupt comment %s", row.ID)
	}
	return Comment{
		ID:         row.ID,
		Table:      row.Table,
		DocumentID: row.DocumentID,
		Author:     row.Author,
		Body:       row.Body,
		Mentions:   mentions,
		CreatedAt:  row.CreatedAt.UnixMilli(),
		UpdatedAt:  row.UpdatedAt.UnixMilli(),
		Edited:     row.UpdatedAt.After(row.CreatedAt),
	}, nil
}
