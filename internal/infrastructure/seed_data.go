package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"erp-admin/internal/auth"
	"erp-admin/internal/config"
	"erp-admin/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = model.DefaultRoleName
)

// SeedDataManager は権限カタログ・既定ロール・管理者ユーザーを投入する
type SeedDataManager struct {
	db  *gorm.DB
	cfg config.SeedConfig
	log zerolog.Logger
}

// NewSeedDataManager creates a new seed data manager
func NewSeedDataManager(db *gorm.DB, cfg config.SeedConfig, log zerolog.Logger) *SeedDataManager {
	return &SeedDataManager{db: db, cfg: cfg, log: log}
}

// SeedAll is idempotent; existing rows are left as they are.
func (s *SeedDataManager) SeedAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, err := s.seedPermissions(tx)
		if err != nil {
			return fmt.Errorf("failed to seed permissions: %w", err)
		}
		roles, err := s.seedRoles(tx, perms)
		if err != nil {
			return fmt.Errorf("failed to seed roles: %w", err)
		}
		if err := s.seedAdminUser(tx, roles[RoleAdmin]); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		return nil
	})
}

// seedPermissions はカタログの全権限を存在しなければ作成
func (s *SeedDataManager) seedPermissions(tx *gorm.DB) (map[model.PermissionName]model.Permission, error) {
	result := make(map[model.PermissionName]model.Permission)
	created := 0
	for _, name := range model.PermissionCatalog() {
		description := name.Describe()
		perm := model.Permission{}
		res := tx.Where("name = ?", name).
			Attrs(model.Permission{Name: name, Description: &description}).
			FirstOrCreate(&perm)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			created++
		}
		result[name] = perm
	}
	s.log.Info().Int("created", created).Int("total", len(result)).Msg("permission catalog seeded")
	return result, nil
}

// DefaultRolePermissions は既定ロールごとの権限
func DefaultRolePermissions() map[string][]model.PermissionName {
	var all, manager, viewer []model.PermissionName
	for _, name := range model.PermissionCatalog() {
		all = append(all, name)
		if !isUserOrRoleMutation(name) {
			manager = append(manager, name)
		}
		if strings.HasPrefix(string(name), "view_") {
			viewer = append(viewer, name)
		}
	}
	return map[string][]model.PermissionName{
		RoleAdmin:   all,
		RoleManager: manager,
		RoleViewer:  viewer,
	}
}

func isUserOrRoleMutation(name model.PermissionName) bool {
	for _, p := range []model.ResourcePermissions{model.UserPermissions, model.RolePermissions} {
		if name == p.Create || name == p.Edit || name == p.Delete {
			return true
		}
	}
	return false
}

var roleDescriptions = map[string]string{
	RoleAdmin:   "Full access",
	RoleManager: "Manages catalog, customers and orders",
	RoleViewer:  "Read-only access",
}

func (s *SeedDataManager) seedRoles(tx *gorm.DB, perms map[model.PermissionName]model.Permission) (map[string]model.Role, error) {
	roles := make(map[string]model.Role)
	for name, names := range DefaultRolePermissions() {
		description := roleDescriptions[name]
		role := model.Role{}
		res := tx.Where("name = ?", name).
			Attrs(model.Role{Name: name, Description: &description}).
			FirstOrCreate(&role)
		if res.Error != nil {
			return nil, res.Error
		}

		// 管理者ロールは常に全権限、それ以外は新規作成時のみ既定の権限を付与
		if res.RowsAffected > 0 || name == RoleAdmin {
			assigned := make([]model.Permission, 0, len(names))
			for _, n := range names {
				assigned = append(assigned, perms[n])
			}
			if err := tx.Model(&role).Association("Permissions").Replace(assigned); err != nil {
				return nil, err
			}
			s.log.Info().Str("role", name).Int("permissions", len(assigned)).Msg("role permissions seeded")
		}
		roles[name] = role
	}
	return roles, nil
}

func (s *SeedDataManager) seedAdminUser(tx *gorm.DB, adminRole model.Role) error {
	if s.cfg.AdminUsername == "" || s.cfg.AdminPassword == "" {
		s.log.Warn().Msg("seed.admin_password not set, skipping admin user")
		return nil
	}

	var existing model.User
	err := tx.Where("username = ?", s.cfg.AdminUsername).First(&existing).Error
	if err == nil {
		s.log.Info().Str("username", existing.Username).Msg("admin user already exists, skipping creation")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := model.User{
		Username: s.cfg.AdminUsername,
		Email:    strings.ToLower(s.cfg.AdminEmail),
		Password: hash,
		Active:   true,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return err
	}
	if err := tx.Model(&admin).Association("Roles").Append(&adminRole); err != nil {
		return err
	}
	s.log.Info().Str("username", admin.Username).Msg("admin user created")
	return nil
}
