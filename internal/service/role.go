package service

import (
	"context"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"gorm.io/gorm"
)

// RoleInput はロール作成リクエスト
type RoleInput struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=1000"`
	PermissionIDs []uint  `json:"permissionIds"`
}

// RolePatch replaces the permission set when PermissionIDs is present.
type RolePatch struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=1000"`
	PermissionIDs *[]uint `json:"permissionIds"`
}

type RoleService interface {
	CRUDService[model.Role, RoleInput, RolePatch]
}

type roleServiceImpl struct {
	baseService[model.Role]
}

// NewRoleService は新しいロールサービスを作成
func NewRoleService(db *gorm.DB) RoleService {
	return &roleServiceImpl{
		baseService: newBaseService[model.Role](db, repository.Options{
			Resource:      "Role",
			SearchColumns: []string{"name", "description"},
			DefaultOrder:  repository.OrderByName,
			Preloads:      []string{"Permissions"},
			ListPreloads:  []string{"Permissions"},
			UniqueFields:  []repository.UniqueField{{Column: "name", Field: "name"}},
		}),
	}
}

func (s *roleServiceImpl) Create(ctx context.Context, input *RoleInput) (*model.Role, error) {
	input.Name = trim(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var created *model.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CheckUnique(ctx, repo.UniqueField("name"), input.Name, 0); err != nil {
			return err
		}
		if _, err := checkReferences[model.Permission](ctx, tx, "permissionIds", input.PermissionIDs); err != nil {
			return err
		}

		role := &model.Role{Name: input.Name, Description: trimPtr(input.Description)}
		if err := repo.Create(ctx, role); err != nil {
			return err
		}
		if err := replaceRolePermissions(ctx, tx, role.ID, input.PermissionIDs); err != nil {
			return err
		}
		created = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, created.ID)
}

func (s *roleServiceImpl) Update(ctx context.Context, id uint, input *RolePatch) (*model.Role, error) {
	input.Name = trimPtr(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		changes := patch{}
		if input.Name != nil && *input.Name != current.Name {
			if err := repo.CheckUnique(ctx, repo.UniqueField("name"), *input.Name, id); err != nil {
				return err
			}
			changes["name"] = *input.Name
		}
		changes.str("description", input.Description)

		if input.PermissionIDs != nil {
			if _, err := checkReferences[model.Permission](ctx, tx, "permissionIds", *input.PermissionIDs); err != nil {
				return err
			}
			if err := replaceRolePermissions(ctx, tx, id, *input.PermissionIDs); err != nil {
				return err
			}
		}

		current.Permissions = nil
		return repo.Updates(ctx, current, changes)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete はロールと、その権限割当・ユーザー割当を削除
func (s *roleServiceImpl) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
			return apperror.Internal("failed to delete role permissions", err)
		}
		if err := tx.Where("role_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return apperror.Internal("failed to delete role assignments", err)
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}

func replaceRolePermissions(ctx context.Context, tx *gorm.DB, roleID uint, permissionIDs []uint) error {
	db := tx.WithContext(ctx)
	if err := db.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
		return apperror.Internal("failed to clear role permissions", err)
	}
	rows := make([]model.RolePermission, 0, len(permissionIDs))
	for _, permissionID := range uniqueIDs(permissionIDs) {
		rows = append(rows, model.RolePermission{RoleID: roleID, PermissionID: permissionID})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := db.Create(&rows).Error; err != nil {
		return apperror.Internal("failed to assign role permissions", err)
	}
	return nil
}
