package model

// User は管理画面のログインユーザー
type User struct {
	Base
	Username  string  `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email     string  `json:"email" gorm:"type:varchar(191);uniqueIndex;not null"`
	Password  string  `json:"-" gorm:"type:varchar(255);not null"`
	FirstName *string `json:"firstName" gorm:"type:varchar(100)"`
	LastName  *string `json:"lastName" gorm:"type:varchar(100)"`
	Active    bool    `json:"active" gorm:"not null"`
	Roles     []Role  `json:"roles,omitempty" gorm:"many2many:user_roles;"`
}

// RoleNames はユーザーに割り当てられたロール名を返す
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}
