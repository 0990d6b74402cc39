package models

import (
	"database/sql/driver"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONMap is a wrapper around gorm.io/datatypes.JSONMap to allow for custom data type mapping
type JSONMap struct {
	datatypes.JSONMap
}

// Value promotes the embedded map's Value method
func (j JSONMap) Value() (driver.Value, error) {
	if j.JSONMap == nil {
		return nil, nil
	}
	return j.JSONMap.Value()
}

// Scan promotes the embedded map's Scan method
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		j.JSONMap = nil
		return nil
	}
	return j.JSONMap.Scan(value)
}

// MarshalJSON renders the map itself, not the wrapper
func (j JSONMap) MarshalJSON() ([]byte, error) {
	return j.JSONMap.MarshalJSON()
}

// UnmarshalJSON fills the embedded map
func (j *JSONMap) UnmarshalJSON(b []byte) error {
	return j.JSONMap.UnmarshalJSON(b)
}

// GormDBDataType ensures the correct data type is used for each database driver.
// MSSQL does not support the 'json' data type.
func (JSONMap) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// All returns every model managed by the service, in migration order
func All() []interface{} {
	return []interface{}{
		&DocumentType{},
		&Document{},
		&DocumentVersion{},
		&DocumentPage{},
		&DocumentPageContent{},
		&DocumentTypeSettings{},
		&DocumentVersionParseError{},
		&SmartLink{},
		&SmartLinkCondition{},
		&RolePermission{},
		&AccessControlEntry{},
		&Action{},
	}
}
