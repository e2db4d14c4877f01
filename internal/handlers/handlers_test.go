package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/middleware"
	"github.com/localnerve/jam-build-admindb/internal/notify"
	"github.com/localnerve/jam-build-admindb/internal/resolve"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"github.com/localnerve/jam-build-admindb/internal/storage"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/store/storetest"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminSession = "admin-session"
	opsSession   = "ops-session"
	guestSession = "guest-session"
)

type fakeIdentity map[string]string

func (f fakeIdentity) Identify(_ context.Context, session string) (string, error) {
	if email, ok := f[session]; ok {
		return email, nil
	}
	return "", types.Unauthorized("auth.session", "session is not valid")
}

type discard struct{}

func (discard) Notify(...notify.Mention) {}

type harness struct {
	app  *fiber.App
	base *store.GormStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := storetest.ExampleRegistry(t, "admin@example.com", "ops@example.com")
	db := storetest.NewDB(t)
	base := store.NewGormStore(db, reg)

	signer, err := storage.NewSigner("https://files.example.com", "test-signing-key", time.Minute)
	require.NoError(t, err)
	engine := resolve.New(reg, base, resolve.Config{Storage: signer, Concurrency: 2})
	admin := services.NewAdminService(reg, base, engine)

	authz := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(authz.Close)

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	api := app.Group("/api")
	api.Use(middleware.Identity(fakeIdentity{
		adminSession: "admin@example.com",
		opsSession:   "ops@example.com",
		guestSession: "guest@example.com",
	}))
	Register(api, Handlers{
		Tables:   &TableHandler{Admin: admin},
		Resolve:  &ResolveHandler{Admin: admin},
		Views:    &ViewHandler{Views: services.NewViewService(reg, db)},
		Comments: &CommentHandler{Comments: services.NewCommentService(reg, db, base, discard{})},
		Health: &HealthHandler{
			Cfg:    &config.Config{DBType: "sqlite", AuthzURL: authz.URL},
			DB:     db,
			Tables: len(reg.NavigableTables()),
			Log:    zap.NewNop(),
		},
	})
	app.Use(NotFound)

	return &harness{app: app, base: base}
}

func (h *harness) do(t *testing.T, session, method, target string, body any) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Cookie", middleware.SessionCookie+"="+session)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func (h *harness) seed(t *testing.T, table string, fields map[string]any) string {
	t.Helper()
	doc, err := h.base.Create(context.Background(), table, fields)
	require.NoError(t, err)
	return doc.ID
}

func TestAccessControl(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "", "GET", "/api/admin/tables", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, decode[map[string]any](t, body)["ok"].(bool))

	status, _ = h.do(t, guestSession, "GET", "/api/admin/tables", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = h.do(t, "expired", "GET", "/api/admin/tables", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = h.do(t, adminSession, "GET", "/api/admin/tables", nil)
	require.Equal(t, fiber.StatusOK, status)
	groups := decode[[]services.ProgramTables](t, body)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Tables, 3)
}

func TestRowLifecycle(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, adminSession, "POST", "/api/admin/tables/projects/rows", map[string]any{
		"title": "Apollo", "status": "active", "description": "moon",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	created := decode[map[string]any](t, body)
	id := created["_id"].(string)
	assert.NotEmpty(t, id)
	assert.NotNil(t, created["createdAt"])

	status, body = h.do(t, adminSession, "POST", "/api/admin/tables/projects/rows", map[string]any{"title": "No status"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status, string(body))

	status, body = h.do(t, adminSession, "PATCH", "/api/admin/tables/projects/rows/"+id, map[string]any{
		"status": "on_hold", "description": nil,
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	patched := decode[map[string]any](t, body)
	assert.Equal(t, "on_hold", patched["status"])
	assert.NotContains(t, patched, "description")

	status, body = h.do(t, adminSession, "POST", "/api/admin/tables/projects/rows/"+id+"/duplicate", nil)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	dup := decode[map[string]any](t, body)
	assert.NotEqual(t, id, dup["_id"])
	assert.Equal(t, "Apollo", dup["title"])

	status, body = h.do(t, adminSession, "GET", "/api/admin/tables/projects/rows?pageSize=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	page := decode[services.RecordPage](t, body)
	require.Len(t, page.Rows, 1)
	assert.False(t, page.IsDone)
	seen := []any{page.Rows[0]["_id"]}

	status, body = h.do(t, adminSession, "GET", "/api/admin/tables/projects/rows?pageSize=1&cursor="+url.QueryEscape(page.NextCursor), nil)
	require.Equal(t, fiber.StatusOK, status)
	page = decode[services.RecordPage](t, body)
	require.Len(t, page.Rows, 1)
	assert.True(t, page.IsDone)
	seen = append(seen, page.Rows[0]["_id"])
	assert.ElementsMatch(t, []any{id, dup["_id"]}, seen)

	status, body = h.do(t, adminSession, "DELETE", "/api/admin/tables/projects/rows/"+id, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, id, decode[map[string]any](t, body)["id"])

	status, _ = h.do(t, adminSession, "GET", "/api/admin/tables/projects/rows/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = h.do(t, adminSession, "POST", "/api/admin/tables/projects/rows", "not an object")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestResolveRoutes(t *testing.T) {
	h := newHarness(t)
	ada := h.seed(t, "contacts", map[string]any{"firstName": "Ada", "lastName": "Admin", "email": "admin@example.com"})
	p := h.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active", "leadId": ada})
	h.seed(t, "tasks", map[string]any{"title": "Design", "projectId": p, "status": "todo", "priority": "low"})
	h.seed(t, "tasks", map[string]any{"title": "Build", "projectId": p, "status": "todo", "priority": "high"})

	status, body := h.do(t, adminSession, "GET", "/api/admin/tables/projects/resolve/refs?field=leadId&ids="+ada+",gone", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	labels := decode[map[string]string](t, body)
	assert.Equal(t, "Ada Admin", labels[ada])
	assert.Equal(t, resolve.MissingLabel, labels["gone"])

	status, _ = h.do(t, adminSession, "GET", "/api/admin/tables/projects/resolve/refs?ids="+ada, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	rows := []map[string]any{{"_id": p, "leadId": ada}}
	status, body = h.do(t, adminSession, "POST", "/api/admin/tables/projects/resolve/lookups", map[string]any{"rows": rows})
	require.Equal(t, fiber.StatusOK, status, string(body))
	results := decode[[]map[string]any](t, body)
	assert.Len(t, results, 2)

	status, body = h.do(t, adminSession, "POST", "/api/admin/tables/projects/resolve/lookups", map[string]any{
		"rows":   rows,
		"lookup": map[string]any{"sourceField": "leadId", "targetField": "email", "label": "Lead Email"},
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, "admin@example.com", decode[map[string]any](t, body)[p])

	status, body = h.do(t, adminSession, "POST", "/api/admin/resolve/linked", map[string]any{
		"table": "projects", "key": "tasks", "ids": p,
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	single := decode[map[string][]resolve.LinkSummary](t, body)
	assert.Len(t, single[p], 2)

	status, body = h.do(t, adminSession, "POST", "/api/admin/resolve/linked", map[string]any{
		"table": "projects", "key": "tasks", "ids": []string{p, "empty"},
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	batch := decode[map[string][]resolve.LinkSummary](t, body)
	assert.Len(t, batch[p], 2)
	assert.Contains(t, batch, "empty")
	assert.Empty(t, batch["empty"])

	status, body = h.do(t, adminSession, "POST", "/api/admin/resolve/storage", map[string]any{
		"refs": []string{"files/plan.pdf", "../escape"},
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	urls := decode[map[string]string](t, body)
	require.Len(t, urls, 1)
	assert.Contains(t, urls["files/plan.pdf"], "https://files.example.com/")
}

func TestViewRoutes(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, adminSession, "GET", "/api/admin/tables/projects/views/default", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	def := decode[services.View](t, body)
	assert.True(t, def.IsDefault)
	assert.Equal(t, services.DefaultViewLabel, def.Label)

	status, body = h.do(t, adminSession, "GET", "/api/admin/tables/projects/views/default", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, def.ID, decode[services.View](t, body).ID)

	status, body = h.do(t, adminSession, "POST", "/api/admin/tables/projects/views", map[string]any{
		"label":  "Active",
		"config": map[string]any{"sort": []map[string]any{{"field": "title", "direction": "asc"}}},
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	active := decode[services.View](t, body)

	status, _ = h.do(t, adminSession, "POST", "/api/admin/tables/projects/views", map[string]any{"label": "Active"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = h.do(t, adminSession, "POST", "/api/admin/tables/projects/views", map[string]any{
		"label":  "Odd",
		"config": map[string]any{"filterState": map[string]any{"conjunction": "xor", "conditions": []any{}}},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	status, _ = h.do(t, adminSession, "POST", "/api/admin/tables/projects/views", map[string]any{
		"label":  "Odd",
		"config": map[string]any{"filterState": map[string]any{"conjunction": "and", "conditions": "not-a-list"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = h.do(t, adminSession, "PUT", "/api/admin/views/"+active.ID+"/label", map[string]any{"label": services.DefaultViewLabel})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = h.do(t, adminSession, "PUT", "/api/admin/views/"+active.ID+"/label", map[string]any{"label": "Running"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Running", decode[services.View](t, body).Label)

	status, body = h.do(t, adminSession, "POST", "/api/admin/views/"+active.ID+"/duplicate", nil)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Running (copy)", decode[services.View](t, body).Label)

	status, body = h.do(t, adminSession, "PUT", "/api/admin/views/"+active.ID+"/owner", map[string]any{"owner": "ops@example.com"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, "ops@example.com", decode[services.View](t, body).Owner)

	status, body = h.do(t, opsSession, "GET", "/api/admin/views/"+active.ID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, decode[services.View](t, body).IsDefault)

	status, body = h.do(t, adminSession, "GET", "/api/admin/tables/projects/views", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]services.View](t, body), 2)

	status, _ = h.do(t, adminSession, "DELETE", "/api/admin/views/"+def.ID, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCommentRoutes(t *testing.T) {
	h := newHarness(t)
	p := h.seed(t, "projects", map[string]any{"title": "Apollo", "status": "active"})
	thread := "/api/admin/tables/projects/rows/" + p + "/comments"

	status, body := h.do(t, adminSession, "POST", thread, map[string]any{"body": "ping @ops@example.com"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	first := decode[services.Comment](t, body)
	assert.Equal(t, []string{"ops@example.com"}, first.Mentions)

	status, _ = h.do(t, adminSession, "POST", "/api/admin/tables/projects/rows/missing/comments", map[string]any{"body": "hello"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = h.do(t, opsSession, "POST", thread, map[string]any{"body": "on it"})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = h.do(t, adminSession, "GET", thread, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := decode[[]services.Comment](t, body)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	status, body = h.do(t, adminSession, "GET", thread+"/count", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, decode[map[string]int64](t, body)["count"])

	status, _ = h.do(t, opsSession, "PUT", "/api/admin/comments/"+first.ID, map[string]any{"body": "hijack"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = h.do(t, adminSession, "PUT", "/api/admin/comments/"+first.ID, map[string]any{"body": "edited"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "edited", decode[services.Comment](t, body).Body)

	status, _ = h.do(t, adminSession, "DELETE", "/api/admin/comments/"+first.ID, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestListAdminUsersRoute(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "contacts", map[string]any{"firstName": "Olly", "lastName": "Ops", "email": "ops@example.com"})

	status, body := h.do(t, adminSession, "GET", "/api/admin/users?q=olly", nil)
	require.Equal(t, fiber.StatusOK, status)
	users := decode[[]services.AdminUser](t, body)
	require.Len(t, users, 1)
	assert.Equal(t, "ops@example.com", users[0].Email)
	assert.Equal(t, "Olly Ops", users[0].Name)
}

func TestHealthAndNotFound(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "", "GET", "/api/health", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	result := decode[services.HealthCheckResult](t, body)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, 3, result.Tables)

	status, body = h.do(t, adminSession, "GET", "/api/nowhere", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "notFound", decode[map[string]any](t, body)["type"])
}
