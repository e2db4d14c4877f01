// common.go
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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/utils"
)

// parseList collects a repeatable, comma-separable query parameter.
func parseList(c *fiber.Ctx, name string) []string {
	seen := make(map[string]struct{})
	var out []string

	// Visit all query arguments to collect multiple parameters
	args := c.Context().QueryArgs()
	for key, value := range args.All() {
		if string(key) != name {
			continue
		}
		// Split by comma in case the value itself is comma-separated
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func badInput(c *fiber.Ctx) error {
	return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "admin.validation.input")
}

// ErrorHandler renders errors returned from handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return utils.ErrorFrom(c, err)
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
