package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONStrings encodes a string slice into a JSON column value. A nil slice
// encodes as an empty array so columns never hold SQL NULL.
func JSONStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// StringsFromJSON decodes a JSON column value back into a string slice.
func StringsFromJSON(value datatypes.JSON) []string {
	if len(value) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(value, &out); err != nil {
		return []string{}
	}
	return out
}
