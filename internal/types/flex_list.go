// flex_list.go
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

package types

import (
	"encoding/json"
	"strings"
)

// FlexIDList is a list of primary keys that can be unmarshaled from a JSON
// array of numbers or strings, a single id, or a comma separated string such
// as "1,2,3".
type FlexIDList []FlexUint64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexIDList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '[' {
		var slice []FlexUint64
		if err := json.Unmarshal(data, &slice); err != nil {
			return err
		}
		*f = FlexIDList(slice)
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return f.parseCSV(s)
	}

	var item FlexUint64
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*f = FlexIDList{item}
	return nil
}

func (f *FlexIDList) parseCSV(s string) error {
	list := FlexIDList{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		var id FlexUint64
		if err := id.parse(part); err != nil {
			return err
		}
		list = append(list, id)
	}
	*f = list
	return nil
}

// Uint64s converts the list to plain ids, dropping zeros.
func (f FlexIDList) Uint64s() []uint64 {
	ids := make([]uint64, 0, len(f))
	for _, id := range f {
		if id != 0 {
			ids = append(ids, id.Uint64())
		}
	}
	return ids
}
