package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/middleware"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/localnerve/jam-build-admindb/internal/utils"
)

type ResolveHandler struct {
	Admin *services.AdminService
}

type LookupsInput struct {
	Lookup *schema.Lookup     `json:"lookup,omitempty"`
	Rows   []services.Record `json:"rows"`
}

type LinkedInput struct {
	Table string                 `json:"table"`
	Key   string                 `json:"key"`
	IDs   types.FlexList[string] `json:"ids"`
}

type StorageInput struct {
	Refs types.FlexList[string] `json:"refs"`
}

// ResolveRefs handles GET /api/admin/tables/:table/resolve/refs
// @Summary Resolve reference labels
// @Description Display labels for the ids referenced by a field, one fetch per call
// @Tags Resolve
// @Produce json
// @Param table path string true "Table name"
// @Param field query string true "Reference field"
// @Param ids query []string true "Referenced ids, repeated or comma separated" collectionFormat(multi)
// @Success 200 {object} map[string]string
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/resolve/refs [get]
func (h *ResolveHandler) ResolveRefs(c *fiber.Ctx) error {
	field := c.Query("field")
	if field == "" {
		return badInput(c)
	}
	labels, err := h.Admin.ResolveRefs(c.UserContext(), middleware.Caller(c), c.Params("table"), field, parseList(c, "ids"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, labels, fiber.StatusOK)
}

// ResolveLookups handles POST /api/admin/tables/:table/resolve/lookups
// @Summary Resolve lookups
// @Description Every configured lookup of the table over the given rows, or only the given lookup
// @Tags Resolve
// @Accept json
// @Produce json
// @Param table path string true "Table name"
// @Param body body LookupsInput true "Rows and optional lookup"
// @Success 200 {array} resolve.LookupResult
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /admin/tables/{table}/resolve/lookups [post]
func (h *ResolveHandler) ResolveLookups(c *fiber.Ctx) error {
	var body LookupsInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	ctx, caller, table := c.UserContext(), middleware.Caller(c), c.Params("table")

	if body.Lookup != nil {
		values, err := h.Admin.ResolveLookupValues(ctx, caller, table, *body.Lookup, body.Rows)
		if err != nil {
			return utils.ErrorFrom(c, err)
		}
		return utils.SuccessResponse(c, values, fiber.StatusOK)
	}

	results, err := h.Admin.ResolveLookups(ctx, caller, table, body.Rows)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, results, fiber.StatusOK)
}

// ResolveLinked handles POST /api/admin/resolve/linked
// @Summary Resolve linked records
// @Description Records linking back to each id through a table's linked record key
// @Tags Resolve
// @Accept json
// @Produce json
// @Param body body LinkedInput true "Owning table, linked record key and ids"
// @Success 200 {object} map[string][]resolve.LinkSummary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/resolve/linked [post]
func (h *ResolveHandler) ResolveLinked(c *fiber.Ctx) error {
	var body LinkedInput
	if err := c.BodyParser(&body); err != nil || body.Table == "" || body.Key == "" {
		return badInput(c)
	}
	ids := body.IDs.Slice()
	ctx, caller := c.UserContext(), middleware.Caller(c)

	if len(ids) == 1 {
		links, err := h.Admin.ResolveLinkedRecords(ctx, caller, body.Table, body.Key, ids[0])
		if err != nil {
			return utils.ErrorFrom(c, err)
		}
		return utils.SuccessResponse(c, fiber.Map{ids[0]: links}, fiber.StatusOK)
	}

	links, err := h.Admin.BatchResolveLinkedRecords(ctx, caller, body.Table, body.Key, ids)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, links, fiber.StatusOK)
}

// ResolveStorage handles POST /api/admin/resolve/storage
// @Summary Resolve storage urls
// @Description Signed urls for stored file references; unknown references are omitted
// @Tags Resolve
// @Accept json
// @Produce json
// @Param body body StorageInput true "Storage references"
// @Success 200 {object} map[string]string
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /admin/resolve/storage [post]
func (h *ResolveHandler) ResolveStorage(c *fiber.Ctx) error {
	var body StorageInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(c)
	}
	urls, err := h.Admin.ResolveStorageUrls(c.UserContext(), middleware.Caller(c), body.Refs.Slice())
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, urls, fiber.StatusOK)
}
