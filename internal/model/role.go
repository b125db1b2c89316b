package model

// DefaultRoleName is assigned to every self-registered user.
const DefaultRoleName = "viewer"

// Role は権限の束
type Role struct {
	Base
	Name        string       `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description *string      `json:"description" gorm:"type:text"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
}

// Permission はカタログ上の単一の権限
type Permission struct {
	Base
	Name        PermissionName `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description *string        `json:"description" gorm:"type:text"`
}

// UserRole is the users <-> roles join row.
type UserRole struct {
	UserID uint `gorm:"primaryKey"`
	RoleID uint `gorm:"primaryKey"`
}

// RolePermission is the roles <-> permissions join row.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey"`
	PermissionID uint `gorm:"primaryKey"`
}
