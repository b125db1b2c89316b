package service

import (
	"erp-admin/internal/model"
	"erp-admin/internal/repository"

	"gorm.io/gorm"
)

// PermissionService は権限カタログの参照のみを提供する
type PermissionService interface {
	ReadService[model.Permission]
}

type permissionServiceImpl struct {
	baseService[model.Permission]
}

func NewPermissionService(db *gorm.DB) PermissionService {
	return &permissionServiceImpl{
		baseService: newBaseService[model.Permission](db, repository.Options{
			Resource:      "Permission",
			SearchColumns: []string{"name", "description"},
			DefaultOrder:  repository.OrderByName,
		}),
	}
}
