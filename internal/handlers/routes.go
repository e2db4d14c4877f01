package handlers

import "github.com/gofiber/fiber/v2"

// Handlers groups everything mounted under /api.
type Handlers struct {
	Tables   *TableHandler
	Resolve  *ResolveHandler
	Views    *ViewHandler
	Comments *CommentHandler
	Health   *HealthHandler
}

// Register mounts the routes on api, normally the /api group.
func Register(api fiber.Router, h Handlers) {
	if h.Health != nil {
		api.Get("/health", h.Health.Health)
	}

	admin := api.Group("/admin")

	admin.Get("/tables", h.Tables.ListTables)
	admin.Get("/users", h.Tables.ListAdminUsers)

	rows := admin.Group("/tables/:table/rows")
	rows.Get("/", h.Tables.ListRows)
	rows.Post("/", h.Tables.CreateRow)
	rows.Get("/:id", h.Tables.GetRow)
	rows.Patch("/:id", h.Tables.PatchRow)
	rows.Delete("/:id", h.Tables.DeleteRow)
	rows.Post("/:id/duplicate", h.Tables.DuplicateRow)

	rows.Get("/:id/comments", h.Comments.ListComments)
	rows.Get("/:id/comments/count", h.Comments.CountComments)
	rows.Post("/:id/comments", h.Comments.AddComment)
	admin.Put("/comments/:id", h.Comments.UpdateComment)
	admin.Delete("/comments/:id", h.Comments.DeleteComment)

	admin.Get("/tables/:table/resolve/refs", h.Resolve.ResolveRefs)
	admin.Post("/tables/:table/resolve/lookups", h.Resolve.ResolveLookups)
	admin.Post("/resolve/linked", h.Resolve.ResolveLinked)
	admin.Post("/resolve/storage", h.Resolve.ResolveStorage)

	admin.Get("/tables/:table/views", h.Views.ListViews)
	admin.Get("/tables/:table/views/default", h.Views.DefaultView)
	admin.Post("/tables/:table/views", h.Views.SaveView)
	admin.Get("/views/:id", h.Views.GetView)
	admin.Put("/views/:id/config", h.Views.UpdateView)
	admin.Put("/views/:id/label", h.Views.RenameView)
	admin.Put("/views/:id/owner", h.Views.ReassignView)
	admin.Post("/views/:id/duplicate", h.Views.DuplicateView)
	admin.Delete("/views/:id", h.Views.DeleteView)
}
