// tables.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/middleware"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/localnerve/jam-build-admindb/internal/utils"
)

type TableHandler struct {
	Admin *services.AdminService
}

// ListTables handles GET /api/admin/tables
// @Summary List tables
// @Description Navigable tables grouped by program, with field metadata
// @Tags Tables
// @Produce json
// @Success 200 {array} services.ProgramTables
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/tables [get]
func (h *TableHandler) ListTables(c *fiber.Ctx) error {
	tables, err := h.Admin.ListTables(c.UserContext(), middleware.Caller(c))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, tables, fiber.StatusOK)
}

// ListRows handles GET /api/admin/tables/:table/rows
// @Summary List rows
// @Description One page of a table, newest first
// @Tags Tables
// @Produce json
// @Param table path string true "Table name"
// @Param cursor query string false "Cursor from the previous page"
// @Param pageSize query int false "Rows per page"
// @Success 200 {object} services.RecordPage
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows [get]
func (h *TableHandler) ListRows(c *fiber.Ctx) error {
	page, err := h.Admin.ListTable(c.UserContext(), middleware.Caller(c), c.Params("table"), store.PageArgs{
		Cursor:   c.Query("cursor"),
		PageSize: c.QueryInt("pageSize", store.DefaultPageSize),
	})
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, page, fiber.StatusOK)
}

// GetRow handles GET /api/admin/tables/:table/rows/:id
// @Summary Get row
// @Tags Tables
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows/{id} [get]
func (h *TableHandler) GetRow(c *fiber.Ctx) error {
	rec, err := h.Admin.GetDocument(c.UserContext(), middleware.Caller(c), c.Params("table"), c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, rec, fiber.StatusOK)
}

// CreateRow handles POST /api/admin/tables/:table/rows
// @Summary Create row
// @Tags Tables
// @Accept json
// @Produce json
// @Param table path string true "Table name"
// @Param body body object true "Field values"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows [post]
func (h *TableHandler) CreateRow(c *fiber.Ctx) error {
	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil {
		return badInput(c)
	}
	rec, err := h.Admin.CreateDocument(c.UserContext(), middleware.Caller(c), c.Params("table"), fields)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, rec, fiber.StatusCreated)
}

// PatchRow handles PATCH /api/admin/tables/:table/rows/:id
// @Summary Patch row
// @Description Changes only the given fields; null clears an optional field
// @Tags Tables
// @Accept json
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Param body body object true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows/{id} [patch]
func (h *TableHandler) PatchRow(c *fiber.Ctx) error {
	var patch map[string]any
	if err := c.BodyParser(&patch); err != nil {
		return badInput(c)
	}
	rec, err := h.Admin.PatchDocument(c.UserContext(), middleware.Caller(c), c.Params("table"), c.Params("id"), patch)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, rec, fiber.StatusOK)
}

// DeleteRow handles DELETE /api/admin/tables/:table/rows/:id
// @Summary Delete row
// @Tags Tables
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows/{id} [delete]
func (h *TableHandler) DeleteRow(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Admin.DeleteDocument(c.UserContext(), middleware.Caller(c), c.Params("table"), id); err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.MutationSuccessResponse(c, id)
}

// DuplicateRow handles POST /api/admin/tables/:table/rows/:id/duplicate
// @Summary Duplicate row
// @Tags Tables
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows/{id}/duplicate [post]
func (h *TableHandler) DuplicateRow(c *fiber.Ctx) error {
	rec, err := h.Admin.DuplicateDocument(c.UserContext(), middleware.Caller(c), c.Params("table"), c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, rec, fiber.StatusCreated)
}

// ListAdminUsers handles GET /api/admin/users
// @Summary List admin users
// @Description Admin identities with display names, for mention autocomplete
// @Tags Users
// @Produce json
// @Param q query string false "Fuzzy filter on name or email"
// @Success 200 {array} services.AdminUser
// @Router /admin/users [get]
func (h *TableHandler) ListAdminUsers(c *fiber.Ctx) error {
	users, err := h.Admin.ListAdminUsers(c.UserContext(), middleware.Caller(c), c.Query("q"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, users, fiber.StatusOK)
}
