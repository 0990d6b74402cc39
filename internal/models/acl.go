package models

// RolePermission grants a permission to every user holding the role
type RolePermission struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Role       string `gorm:"size:64;not null;index:idx_role_permission,unique" json:"role"`
	Permission string `gorm:"size:128;not null;index:idx_role_permission,unique" json:"permission"`
}

// AccessControlEntry grants a permission on a single object to a role
type AccessControlEntry struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentType string `gorm:"size:64;not null;index:idx_acl_object,unique,priority:1" json:"content_type"`
	ObjectID    uint64 `gorm:"not null;index:idx_acl_object,unique,priority:2" json:"object_id"`
	Role        string `gorm:"size:64;not null;index:idx_acl_object,unique,priority:3" json:"role"`
	Permission  string `gorm:"size:128;not null;index:idx_acl_object,unique,priority:4" json:"permission"`
}

// TableName overrides the table name for RolePermission
func (RolePermission) TableName() string {
	return "permissions_role_grants"
}

// TableName overrides the table name for AccessControlEntry
func (AccessControlEntry) TableName() string {
	return "acls_entries"
}
