// common.go
//
// A document parsing and smart link data service built on the jam-build data service stack
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docsdb.
// docsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/middleware"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/types"
)

// parseID reads a positive integer route parameter
func parseID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, types.NewNotFound(fmt.Sprintf("Invalid %s %q", name, c.Params(name)), "not_found")
	}
	return id, nil
}

// parseIDList extracts ids from query parameters, supporting both repeated
// keys and comma-separated values.
func parseIDList(c *fiber.Ctx, key string) ([]uint64, error) {
	seen := make(map[uint64]struct{})
	ids := make([]uint64, 0)

	args := c.Context().QueryArgs()
	for _, value := range args.PeekMulti(key) {
		for _, part := range strings.Split(string(value), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, types.NewBadRequest(fmt.Sprintf("Invalid id %q in %s", part, key), "validation")
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// isPartial reports whether the request updates only the fields it carries
func isPartial(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPatch
}

func currentUser(c *fiber.Ctx) *permissions.User {
	return middleware.CurrentUser(c)
}

func absoluteURL(c *fiber.Ctx, format string, args ...interface{}) string {
	return c.BaseURL() + fmt.Sprintf(format, args...)
}

func bodyParser(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return types.NewBadRequest(fmt.Sprintf("Malformed request body: %v", err), "validation")
	}
	return nil
}

// actorID names the current user in the action log
func actorID(c *fiber.Ctx) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}
