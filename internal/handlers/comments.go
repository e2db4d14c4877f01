package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/middleware"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"github.com/localnerve/jam-build-admindb/internal/utils"
)

type CommentHandler struct {
	Comments *services.CommentService
}

type CommentInput struct {
	Body string `json:"body"`
}

// ListComments handles GET /api/admin/tables/:table/rows/:id/comments
// @Summary List a record's comments
// @Tags Comments
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 200 {array} services.Comment
// @Router /admin/tables/{table}/rows/{id}/comments [get]
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.Comments.ListComments(c.UserContext(), middleware.Caller(c), c.Params("table"), c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, comments, fiber.StatusOK)
}

// CountComments handles GET /api/admin/tables/:table/rows/:id/comments/count
// @Summary Count a record's comments
// @Tags Comments
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 200 {object} map[string]int64
// @Router /admin/tables/{table}/rows/{id}/comments/count [get]
func (h *CommentHandler) CountComments(c *fiber.Ctx) error {
	n, err := h.Comments.GetCommentCount(c.UserContext(), middleware.Caller(c), c.Params("table"), c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, fiber.Map{"count": n}, fiber.StatusOK)
}

// AddComment handles POST /api/admin/tables/:table/rows/:id/comments
// @Summary Comment on a record
// @Description Mentioned admins are notified
// @Tags Comments
// @Accept json
// @Produce json
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Param body body CommentInput true "Comment text"
// @Success 201 {object} services.Comment
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/rows/{id}/comments [post]
func (h *CommentHandler) AddComment(c *fiber.Ctx) error {
	var body CommentInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	comment, err := h.Comments.AddComment(c.UserContext(), middleware.Caller(c), c.Params("table"), c.Params("id"), body.Body)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, comment, fiber.StatusCreated)
}

// UpdateComment handles PUT /api/admin/comments/:id
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Comment id"
// @Param body body CommentInput true "Comment text"
// @Success 200 {object} services.Comment
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/comments/{id} [put]
func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	var body CommentInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	comment, err := h.Comments.UpdateComment(c.UserContext(), middleware.Caller(c), c.Params("id"), body.Body)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, comment, fiber.StatusOK)
}

// DeleteComment handles DELETE /api/admin/comments/:id
// @Summary Delete a comment
// @Tags Comments
// @Produce json
// @Param id path string true "Comment id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Comments.DeleteComment(c.UserContext(), middleware.Caller(c), id); err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.MutationSuccessResponse(c, id)
}
