package services

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/jam-build-admindb/internal/resolve"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAccessChecksBeforeStore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	valid := map[string]any{"firstName": "A", "lastName": "B", "email": "a@example.com"}

	cases := []struct {
		name   string
		caller string
		table  string
		fields map[string]any
		want   error
	}{
		{"no caller", "", "contacts", valid, types.ErrUnauthorized},
		{"not admin", guestEmail, "contacts", valid, types.ErrForbidden},
		{"unknown table", adminEmail, "invoices", valid, types.ErrNotFound},
		{"system table", adminEmail, "admin_views", valid, types.ErrNotFound},
		{"unknown field", adminEmail, "contacts", map[string]any{"firstName": "A", "lastName": "B", "email": "a@example.com", "age": 3.0}, types.ErrValidation},
		{"bad type", adminEmail, "contacts", map[string]any{"firstName": 1.0, "lastName": "B", "email": "a@example.com"}, types.ErrValidation},
		{"missing required", adminEmail, "contacts", map[string]any{"firstName": "A"}, types.ErrValidation},
		{"reserved key", adminEmail, "contacts", map[string]any{"_id": "x", "firstName": "A", "lastName": "B", "email": "a@example.com"}, types.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e.counting.Reset()
			_, err := e.admin.CreateDocument(ctx, tc.caller, tc.table, tc.fields)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Zero(t, e.counting.Total())
		})
	}

	e.counting.Reset()
	_, err := e.admin.ListTable(ctx, guestEmail, "contacts", store.PageArgs{})
	assert.True(t, errors.Is(err, types.ErrForbidden))
	_, err = e.admin.ResolveRefs(ctx, "", "projects", "leadId", []string{"x"})
	assert.True(t, errors.Is(err, types.ErrUnauthorized))
	assert.Zero(t, e.counting.Total())
}

func TestCreateFillsAutoNow(t *testing.T) {
	e := newEnv(t)
	rec, err := e.admin.CreateDocument(context.Background(), adminEmail, "projects",
		map[string]any{"title": "Apollo", "status": "active", "budget": nil})
	require.NoError(t, err)
	assert.NotEmpty(t, rec[IDKey])
	assert.NotNil(t, rec["createdAt"])
	assert.NotContains(t, rec, "budget")
	assert.Equal(t, 1, e.counting.Calls("Create"))
}

func TestPatchSemantics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.seed(t, "contacts", map[string]any{"firstName": "Ada", "lastName": "L", "email": "ada@example.com", "phone": "555"})

	rec, err := e.admin.PatchDocument(ctx, adminEmail, "contacts", doc.ID, map[string]any{"phone": nil, "organization": "ACME"})
	require.NoError(t, err)
	assert.NotContains(t, rec, "phone")
	assert.Equal(t, "ACME", rec["organization"])
	assert.Equal(t, "Ada", rec["firstName"])

	e.counting.Reset()
	_, err = e.admin.PatchDocument(ctx, adminEmail, "contacts", doc.ID, map[string]any{"email": nil})
	assert.True(t, errors.Is(err, types.ErrValidation))
	_, err = e.admin.PatchDocument(ctx, adminEmail, "contacts", doc.ID, map[string]any{"email": "not-an-email"})
	assert.True(t, errors.Is(err, types.ErrValidation))
	_, err = e.admin.PatchDocument(ctx, adminEmail, "contacts", doc.ID, map[string]any{})
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Zero(t, e.counting.Total())

	_, err = e.admin.PatchDocument(ctx, adminEmail, "contacts", "missing", map[string]any{"organization": "X"})
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDuplicateRefreshesAutoNow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	src := e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active", "createdAt": 1.0})

	rec, err := e.admin.DuplicateDocument(ctx, adminEmail, "projects", src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, rec[IDKey])
	assert.Equal(t, "Apollo", rec["title"])
	assert.Greater(t, rec["createdAt"], 1.0)
}

func TestDeleteLeavesDanglingReferences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	lead := e.seed(t, "contacts", map[string]any{"firstName": "Ada", "lastName": "L", "email": "ada@example.com"})
	e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active", "leadId": lead.ID})

	require.NoError(t, e.admin.DeleteDocument(ctx, adminEmail, "contacts", lead.ID))
	labels, err := e.admin.ResolveRefs(ctx, adminEmail, "projects", "leadId", []string{lead.ID})
	require.NoError(t, err)
	assert.Equal(t, resolve.MissingLabel, labels[lead.ID])

	_, err = e.admin.GetDocument(ctx, adminEmail, "contacts", lead.ID)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestListTableAndLookups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	lead := e.seed(t, "contacts", map[string]any{"firstName": "Ada", "lastName": "L", "email": "ada@example.com"})
	e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active", "leadId": lead.ID})
	e.seed(t, "projects", map[string]any{"title": "Gemini", "status": "active"})

	page, err := e.admin.ListTable(ctx, adminEmail, "projects", store.PageArgs{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	assert.True(t, page.IsDone)

	e.counting.Reset()
	results, err := e.admin.ResolveLookups(ctx, adminEmail, "projects", page.Rows)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Values, 1)
	assert.Equal(t, 1, e.counting.Calls("GetMany"))

	_, err = e.admin.ResolveLookups(ctx, adminEmail, "projects", []Record{{"title": "no id"}})
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestLinkedRecordsByKey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active"})
	e.seed(t, "tasks", map[string]any{"title": "Design", "projectId": p.ID, "status": "todo", "priority": "low"})

	links, err := e.admin.ResolveLinkedRecords(ctx, adminEmail, "projects", "tasks", p.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Design", links[0].DisplayValue)

	batch, err := e.admin.BatchResolveLinkedRecords(ctx, adminEmail, "projects", "tasks", []string{p.ID, "other"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Empty(t, batch["other"])

	_, err = e.admin.ResolveLinkedRecords(ctx, adminEmail, "projects", "invoices", p.ID)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestListTablesGroupsByProgram(t *testing.T) {
	e := newEnv(t)
	groups, err := e.admin.ListTables(context.Background(), adminEmail)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "main", groups[0].Program.ID)

	var names []string
	for _, tbl := range groups[0].Tables {
		names = append(names, tbl.Name)
		assert.NotEmpty(t, tbl.Fields)
	}
	assert.Equal(t, []string{"contacts", "projects", "tasks"}, names)
}

func TestListAdminUsers(t *testing.T) {
	e := newEnv(t)
	e.seedPeople(t)
	ctx := context.Background()

	users, err := e.admin.ListAdminUsers(ctx, adminEmail, "")
	require.NoError(t, err)
	assert.Equal(t, []AdminUser{
		{Email: adminEmail, Name: "Ada Admin"},
		{Email: opsEmail, Name: "Olly Ops"},
	}, users)

	users, err = e.admin.ListAdminUsers(ctx, adminEmail, "olly")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, opsEmail, users[0].Email)

	_, err = e.admin.ListAdminUsers(ctx, guestEmail, "")
	assert.True(t, errors.Is(err, types.ErrForbidden))
}

func TestListAdminUsersMatchesMixedCaseContact(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "contacts", map[string]any{"firstName": "Olly", "lastName": "Ops", "email": "Ops@Example.com"})

	users, err := e.admin.ListAdminUsers(ctx, adminEmail, "olly")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, AdminUser{Email: opsEmail, Name: "Olly Ops"}, users[0])
}
