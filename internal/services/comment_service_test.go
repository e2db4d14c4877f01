package services

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanMentions(t *testing.T) {
	tokens := scanMentions("hi @ada@example.com, see @[ Olly   Ops ] and mail bob@example.com or x@y@z.com")
	require.Len(t, tokens, 2)
	assert.Equal(t, "ada@example.com", tokens[0].email)
	assert.Equal(t, "Olly Ops", tokens[1].name)

	assert.Empty(t, scanMentions("no mentions here @ all"))
	assert.Len(t, scanMentions("@Ada@Example.com"), 1)
}

func TestResolveMentions(t *testing.T) {
	isAdmin := func(e string) bool { return e == adminEmail || e == opsEmail }
	names := map[string]string{opsEmail: "Olly Ops"}
	got := resolveMentions([]mentionToken{
		{email: adminEmail},
		{name: "olly ops"},
		{email: guestEmail},
		{name: "Nobody"},
		{email: adminEmail},
	}, isAdmin, names)
	assert.Equal(t, []string{adminEmail, opsEmail}, got)

	twins := map[string]string{adminEmail: "Sam Lee", opsEmail: "sam lee"}
	assert.Empty(t, resolveMentions([]mentionToken{{name: "Sam Lee"}}, isAdmin, twins))
}

func TestAddCommentRequiresDocument(t *testing.T) {
	e := newEnv(t)
	_, err := e.comments.AddComment(context.Background(), adminEmail, "projects", "missing", "hello")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = e.comments.AddComment(context.Background(), adminEmail, "projects", "missing", "   ")
	assert.True(t, errors.Is(err, types.ErrValidation))

	e.counting.Reset()
	_, err = e.comments.AddComment(context.Background(), guestEmail, "projects", "missing", "hello")
	assert.True(t, errors.Is(err, types.ErrForbidden))
	assert.Zero(t, e.counting.Total())
}

func TestCommentThread(t *testing.T) {
	e := newEnv(t)
	e.seedPeople(t)
	ctx := context.Background()
	p := e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active"})

	body := "ping @[ada admin] and @ops@example.com, cc @stranger@example.com"
	first, err := e.comments.AddComment(ctx, opsEmail, "projects", p.ID, body)
	require.NoError(t, err)
	assert.Equal(t, body, first.Body)
	assert.Equal(t, []string{adminEmail, opsEmail}, first.Mentions)
	assert.Equal(t, "Olly Ops", first.AuthorName)
	assert.Equal(t, []string{adminEmail}, e.notifier.recipients())

	second, err := e.comments.AddComment(ctx, adminEmail, "projects", p.ID, "no mentions")
	require.NoError(t, err)
	assert.Empty(t, second.Mentions)

	thread, err := e.comments.ListComments(ctx, adminEmail, "projects", p.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, "Ada Admin", thread[1].AuthorName)

	n, err := e.comments.GetCommentCount(ctx, adminEmail, "projects", p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCommentPeopleMatchMixedCaseEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "contacts", map[string]any{"firstName": "Ada", "lastName": "Admin", "email": "ADMIN@example.com"})
	e.seed(t, "contacts", map[string]any{"firstName": "Olly", "lastName": "Ops", "email": "Ops@Example.com"})
	p := e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active"})

	c, err := e.comments.AddComment(ctx, opsEmail, "projects", p.ID, "over to @[Ada Admin]")
	require.NoError(t, err)
	assert.Equal(t, "Olly Ops", c.AuthorName)
	assert.Equal(t, []string{adminEmail}, c.Mentions)
	assert.Equal(t, []string{adminEmail}, e.notifier.recipients())

	thread, err := e.comments.ListComments(ctx, adminEmail, "projects", p.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "Olly Ops", thread[0].AuthorName)
}

func TestUpdateCommentNotifiesOnlyNewMentions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active"})

	c, err := e.comments.AddComment(ctx, adminEmail, "projects", p.ID, "thoughts @ops@example.com?")
	require.NoError(t, err)
	assert.Equal(t, []string{opsEmail}, e.notifier.recipients())

	_, err = e.comments.UpdateComment(ctx, opsEmail, c.ID, "hijack")
	assert.True(t, errors.Is(err, types.ErrForbidden))

	updated, err := e.comments.UpdateComment(ctx, adminEmail, c.ID, "thoughts @ops@example.com? also @admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{opsEmail, adminEmail}, updated.Mentions)
	// ops was already mentioned and the author is never notified
	assert.Equal(t, []string{opsEmail}, e.notifier.recipients())
}

func TestDeleteComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active"})
	c, err := e.comments.AddComment(ctx, adminEmail, "projects", p.ID, "temporary")
	require.NoError(t, err)

	assert.True(t, errors.Is(e.comments.DeleteComment(ctx, guestEmail, c.ID), types.ErrForbidden))
	// any admin may delete, not only the author
	require.NoError(t, e.comments.DeleteComment(ctx, opsEmail, c.ID))
	assert.True(t, errors.Is(e.comments.DeleteComment(ctx, adminEmail, c.ID), types.ErrNotFound))

	n, err := e.comments.GetCommentCount(ctx, adminEmail, "projects", p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
