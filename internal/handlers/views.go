package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/middleware"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"github.com/localnerve/jam-build-admindb/internal/utils"
)

type ViewHandler struct {
	Views *services.ViewService
}

type ViewInput struct {
	Label  string              `json:"label"`
	Config services.ViewConfig `json:"config"`
}

type RenameInput struct {
	Label string `json:"label"`
}

type ReassignInput struct {
	Owner string `json:"owner"`
}

// ListViews handles GET /api/admin/tables/:table/views
// @Summary List saved views
// @Tags Views
// @Produce json
// @Param table path string true "Table name"
// @Success 200 {array} services.View
// @Router /admin/tables/{table}/views [get]
func (h *ViewHandler) ListViews(c *fiber.Ctx) error {
	views, err := h.Views.ListViews(c.UserContext(), middleware.Caller(c), c.Params("table"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, views, fiber.StatusOK)
}

// DefaultView handles GET /api/admin/tables/:table/views/default
// @Summary Get or create the default view
// @Tags Views
// @Produce json
// @Param table path string true "Table name"
// @Success 200 {object} services.View
// @Router /admin/tables/{table}/views/default [get]
func (h *ViewHandler) DefaultView(c *fiber.Ctx) error {
	view, err := h.Views.GetOrCreateDefaultView(c.UserContext(), middleware.Caller(c), c.Params("table"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// SaveView handles POST /api/admin/tables/:table/views
// @Summary Save a view
// @Tags Views
// @Accept json
// @Produce json
// @Param table path string true "Table name"
// @Param body body ViewInput true "Label and grid state"
// @Success 201 {object} services.View
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/views [post]
func (h *ViewHandler) SaveView(c *fiber.Ctx) error {
	var body ViewInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	view, err := h.Views.SaveView(c.UserContext(), middleware.Caller(c), c.Params("table"), body.Label, body.Config)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusCreated)
}

// GetView handles GET /api/admin/views/:id
// @Summary Get a view
// @Tags Views
// @Produce json
// @Param id path string true "View id"
// @Success 200 {object} services.View
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/views/{id} [get]
func (h *ViewHandler) GetView(c *fiber.Ctx) error {
	view, err := h.Views.GetView(c.UserContext(), middleware.Caller(c), c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// UpdateView handles PUT /api/admin/views/:id/config
// @Summary Replace a view's grid state
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View id"
// @Param body body services.ViewConfig true "Grid state"
// @Success 200 {object} services.View
// @Router /admin/views/{id}/config [put]
func (h *ViewHandler) UpdateView(c *fiber.Ctx) error {
	var cfg services.ViewConfig
	if err := c.BodyParser(&cfg); err != nil {
		return badInput(c)
	}
	view, err := h.Views.UpdateViewConfig(c.UserContext(), middleware.Caller(c), c.Params("id"), cfg)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// RenameView handles PUT /api/admin/views/:id/label
// @Summary Rename a view
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View id"
// @Param body body RenameInput true "New label"
// @Success 200 {object} services.View
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/views/{id}/label [put]
func (h *ViewHandler) RenameView(c *fiber.Ctx) error {
	var body RenameInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	view, err := h.Views.RenameView(c.UserContext(), middleware.Caller(c), c.Params("id"), body.Label)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// ReassignView handles PUT /api/admin/views/:id/owner
// @Summary Hand a view to another admin
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View id"
// @Param body body ReassignInput true "New owner email"
// @Success 200 {object} services.View
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/views/{id}/owner [put]
func (h *ViewHandler) ReassignView(c *fiber.Ctx) error {
	var body ReassignInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	view, err := h.Views.ReassignView(c.UserContext(), middleware.Caller(c), c.Params("id"), body.Owner)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// DuplicateView handles POST /api/admin/views/:id/duplicate
// @Summary Duplicate a view
// @Tags Views
// @Produce json
// @Param id path string true "View id"
// @Success 201 {object} services.View
// @Router /admin/views/{id}/duplicate [post]
func (h *ViewHandler) DuplicateView(c *fiber.Ctx) error {
	view, err := h.Views.DuplicateView(c.UserContext(), middleware.Caller(c), c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusCreated)
}

// DeleteView handles DELETE /api/admin/views/:id
// @Summary Delete a view
// @Tags Views
// @Produce json
// @Param id path string true "View id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Router /admin/views/{id} [delete]
func (h *ViewHandler) DeleteView(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Views.DeleteView(c.UserContext(), middleware.Caller(c), id); err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.MutationSuccessResponse(c, id)
}
