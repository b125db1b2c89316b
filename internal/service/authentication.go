package service

import (
	"context"
	"errors"
	"time"

	"erp-admin/internal/apperror"
	"erp-admin/internal/auth"
	"erp-admin/internal/model"
	"erp-admin/internal/repository"
	"erp-admin/internal/validation"

	"gorm.io/gorm"
)

// RegisterInput はユーザー登録リクエスト
type RegisterInput struct {
	Username  string  `json:"username" validate:"required,min=3,max=100"`
	Email     string  `json:"email" validate:"required,email,max=191"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
}

// LoginInput はログインリクエスト
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult はログイン・登録のレスポンス
type AuthResult struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Profile is the authenticated user's own view: record, role names and effective permissions.
type Profile struct {
	ID          uint                   `json:"id"`
	Username    string                 `json:"username"`
	Email       string                 `json:"email"`
	FirstName   *string                `json:"firstName"`
	LastName    *string                `json:"lastName"`
	Active      bool                   `json:"active"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	Roles       []string               `json:"roles"`
	Permissions []model.PermissionName `json:"permissions"`
}

// AuthenticationService は登録・ログイン・トークン検証を行う
type AuthenticationService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	authz  *AuthorizationService
	users  *repository.Repository[model.User]
}

// NewAuthenticationService は新しい認証サービスを作成
func NewAuthenticationService(db *gorm.DB, tokens *auth.TokenManager, authz *AuthorizationService) *AuthenticationService {
	return &AuthenticationService{
		db:     db,
		tokens: tokens,
		authz:  authz,
		users:  repository.New[model.User](db, userRepositoryOptions()),
	}
}

// Register creates an active user holding the default role and signs them in.
func (s *AuthenticationService) Register(ctx context.Context, input *RegisterInput) (*AuthResult, error) {
	input.Username = trim(input.Username)
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var userID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := checkUserUnique(ctx, repo, input.Username, input.Email, 0); err != nil {
			return err
		}

		var role model.Role
		if err := tx.Where("name = ?", model.DefaultRoleName).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Internal("default role is not seeded", err)
			}
			return apperror.Internal("failed to load default role", err)
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
			Active:    true,
		}
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		userID = user.ID
		return replaceUserRoles(ctx, tx, user.ID, []uint{role.ID})
	})
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login は資格情報を検証してトークンを発行。失敗理由は区別しない
func (s *AuthenticationService) Login(ctx context.Context, input *LoginInput) (*AuthResult, error) {
	input.Username = trim(input.Username)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.WithContext(ctx).Preload("Roles").Where("username = ?", input.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ユーザーの有無で応答時間が変わらないようにハッシュ比較を行う
			auth.CheckPassword(dummyHash, input.Password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	if !auth.CheckPassword(user.Password, input.Password) || !user.Active {
		return nil, apperror.InvalidCredentials()
	}
	return s.issue(&user)
}

// dummyHash is a bcrypt hash of a random string, compared against when the username is unknown.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z7HcWcYr0U6Qf0bW0N8xG9hK"

func (s *AuthenticationService) issue(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}
	return &AuthResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Authenticate はトークンを検証し、現在のロール・権限からプリンシパルを構築する
func (s *AuthenticationService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid or expired token")
	}

	user, err := s.authz.LoadUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("user no longer exists")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperror.Unauthenticated("user is inactive")
	}
	return s.authz.ResolvePrincipal(user)
}

// Me はプリンシパルのユーザー情報とロール・権限を返す
func (s *AuthenticationService) Me(ctx context.Context, principal *model.Principal) (*Profile, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("user no longer exists")
		}
		return nil, err
	}

	roles := principal.Roles
	if roles == nil {
		roles = []string{}
	}
	return &Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		Roles:       roles,
		Permissions: principal.Permissions.Sorted(),
	}, nil
}
