package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"gorm.io/gorm"
)

// rbacModel は「ユーザー → ロール → 権限」の2段のRBAC
const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

func userSubject(id uint) string {
	return "user:" + strconv.FormatUint(uint64(id), 10)
}

func roleSubject(name string) string {
	return "role:" + name
}

// AuthorizationService は認可サービス
type AuthorizationService struct {
	db *gorm.DB
}

// NewAuthorizationService は新しい認可サービスを作成
func NewAuthorizationService(db *gorm.DB) *AuthorizationService {
	return &AuthorizationService{db: db}
}

// LoadUser はロールと権限を含めてユーザーを読み込む
func (s *AuthorizationService) LoadUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("roles.name ASC") }).
		Preload("Roles.Permissions").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User", id)
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return &user, nil
}

// newEnforcer builds an in-memory enforcer from the user's current role rows.
func newEnforcer(user *model.User) (*casbin.Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RBAC model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}

	subject := userSubject(user.ID)
	for _, role := range user.Roles {
		if _, err := enforcer.AddGroupingPolicy(subject, roleSubject(role.Name)); err != nil {
			return nil, err
		}
		for _, perm := range role.Permissions {
			if _, err := enforcer.AddPolicy(roleSubject(role.Name), string(perm.Name)); err != nil {
				return nil, err
			}
		}
	}
	return enforcer, nil
}

// EffectivePermissions は全ロールの権限の和集合（重複排除済み）を返す
func (s *AuthorizationService) EffectivePermissions(user *model.User) (model.PermissionSet, error) {
	enforcer, err := newEnforcer(user)
	if err != nil {
		return nil, err
	}
	rules, err := enforcer.GetImplicitPermissionsForUser(userSubject(user.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}

	set := model.NewPermissionSet()
	for _, rule := range rules {
		if len(rule) > 1 {
			set[model.PermissionName(rule[1])] = struct{}{}
		}
	}
	return set, nil
}

// ResolvePrincipal はユーザーの現在のロール・権限からプリンシパルを組み立てる
func (s *AuthorizationService) ResolvePrincipal(user *model.User) (*model.Principal, error) {
	perms, err := s.EffectivePermissions(user)
	if err != nil {
		return nil, apperror.Internal("failed to resolve permissions", err)
	}
	return &model.Principal{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Roles:       user.RoleNames(),
		Permissions: perms,
	}, nil
}

// Authorize は必要な権限を持たない場合に Forbidden を返す
func (s *AuthorizationService) Authorize(principal *model.Principal, permission model.PermissionName) error {
	if principal == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if !principal.Can(permission) {
		return apperror.Forbidden(fmt.Sprintf("missing permission %s", permission))
	}
	return nil
}
