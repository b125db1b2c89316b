package service

import (
	"context"

	"erp-admin/internal/apperror"
	"erp-admin/internal/auth"
	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"gorm.io/gorm"
)

// UserInput はユーザー作成リクエスト
type UserInput struct {
	Username  string  `json:"username" validate:"required,min=3,max=100"`
	Email     string  `json:"email" validate:"required,email,max=191"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Active    *bool   `json:"active"`
	RoleIDs   []uint  `json:"roleIds"`
}

// UserPatch はユーザー更新リクエスト。RoleIDsが指定された場合はロール集合を置き換える
type UserPatch struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=100"`
	Email     *string `json:"email" validate:"omitempty,email,max=191"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=72"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Active    *bool   `json:"active"`
	RoleIDs   *[]uint `json:"roleIds"`
}

// UserService はユーザー管理サービスのインターフェース
type UserService interface {
	CRUDService[model.User, UserInput, UserPatch]
}

// userServiceImpl はユーザーサービスの実装
type userServiceImpl struct {
	baseService[model.User]
}

func userRepositoryOptions() repository.Options {
	return repository.Options{
		Resource:      "User",
		SearchColumns: []string{"username", "email", "first_name", "last_name"},
		DefaultOrder:  "username ASC, id ASC",
		Preloads:      []string{"Roles"},
		ListPreloads:  []string{"Roles"},
		UniqueFields: []repository.UniqueField{
			{Column: "username", Field: "username"},
			{Column: "email", Field: "email"},
		},
	}
}

// NewUserService は新しいユーザーサービスを作成
func NewUserService(db *gorm.DB) UserService {
	return &userServiceImpl{baseService: newBaseService[model.User](db, userRepositoryOptions())}
}

// Create は新しいユーザーを作成し、ロールを割り当てる
func (s *userServiceImpl) Create(ctx context.Context, input *UserInput) (*model.User, error) {
	input.Username = trim(input.Username)
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	var created *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := checkUserUnique(ctx, repo, input.Username, input.Email, 0); err != nil {
			return err
		}
		if _, err := checkReferences[model.Role](ctx, tx, "roleIds", input.RoleIDs); err != nil {
			return err
		}

		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return apperror.Internal("failed to hash password", err)
		}
		user := &model.User{
			Username:  input.Username,
			Email:     input.Email,
			Password:  hash,
			FirstName: trimPtr(input.FirstName),
			LastName:  trimPtr(input.LastName),
			Active:    active,
		}
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		if err := replaceUserRoles(ctx, tx, user.ID, input.RoleIDs); err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, created.ID)
}

// Update はユーザー情報を更新
func (s *userServiceImpl) Update(ctx context.Context, id uint, input *UserPatch) (*model.User, error) {
	input.Username = trimPtr(input.Username)
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
	}
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
		if input.Username != nil && *input.Username != current.Username {
			if err := repo.CheckUnique(ctx, repo.UniqueField("username"), *input.Username, id); err != nil {
				return err
			}
			changes["username"] = *input.Username
		}
		if input.Email != nil && *input.Email != current.Email {
			if err := repo.CheckUnique(ctx, repo.UniqueField("email"), *input.Email, id); err != nil {
				return err
			}
			changes["email"] = *input.Email
		}
		if input.Password != nil {
			// パスワードが指定されている場合はハッシュ化
			hash, err := auth.HashPassword(*input.Password)
			if err != nil {
				return apperror.Internal("failed to hash password", err)
			}
			changes["password"] = hash
		}
		changes.str("first_name", input.FirstName)
		changes.str("last_name", input.LastName)
		if input.Active != nil {
			changes["active"] = *input.Active
		}

		if input.RoleIDs != nil {
			if _, err := checkReferences[model.Role](ctx, tx, "roleIds", *input.RoleIDs); err != nil {
				return err
			}
			if err := replaceUserRoles(ctx, tx, id, *input.RoleIDs); err != nil {
				return err
			}
		}

		current.Roles = nil
		return repo.Updates(ctx, current, changes)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete はユーザーとロール割当を削除。ログイン中の本人は削除できない
func (s *userServiceImpl) Delete(ctx context.Context, id uint) error {
	if principal, ok := model.PrincipalFromContext(ctx); ok && principal.UserID == id {
		return apperror.FieldInvalid("id", "cannot delete the currently authenticated user")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return apperror.Internal("failed to delete user roles", err)
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}

func checkUserUnique(ctx context.Context, repo *repository.Repository[model.User], username, email string, excludeID uint) error {
	if err := repo.CheckUnique(ctx, repo.UniqueField("username"), username, excludeID); err != nil {
		return err
	}
	return repo.CheckUnique(ctx, repo.UniqueField("email"), email, excludeID)
}

// replaceUserRoles はユーザーのロール集合を丸ごと置き換える
func replaceUserRoles(ctx context.Context, tx *gorm.DB, userID uint, roleIDs []uint) error {
	db := tx.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
		return apperror.Internal("failed to clear user roles", err)
	}
	rows := make([]model.UserRole, 0, len(roleIDs))
	for _, roleID := range uniqueIDs(roleIDs) {
		rows = append(rows, model.UserRole{UserID: userID, RoleID: roleID})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := db.Create(&rows).Error; err != nil {
		return apperror.Internal("failed to assign user roles", err)
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
