package service

import (
	"context"
	"sort"
	"testing"

	"erp-admin/internal/apperror"
	"erp-admin/internal/model"
	"erp-admin/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsViewerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "Alice@X.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "Bearer", result.TokenType)
	require.Equal(t, "alice@x.com", result.User.Email)
	require.True(t, result.User.Active)
	require.Equal(t, []string{model.DefaultRoleName}, result.User.RoleNames())

	principal, err := env.authn.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	require.True(t, principal.Can(model.ViewCustomers))
	require.False(t, principal.Can(model.CreateCustomers))
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "other@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	appErr, _ := apperror.As(err)
	require.Contains(t, appErr.Fields, "username")

	_, err = env.authn.Register(ctx, &RegisterInput{Username: "bob", Email: "ALICE@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	appErr, _ = apperror.As(err)
	require.Contains(t, appErr.Fields, "email")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.authn.Register(context.Background(), &RegisterInput{Username: "al", Email: "nope", Password: "123"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	appErr, _ := apperror.As(err)
	require.Contains(t, appErr.Fields, "username")
	require.Contains(t, appErr.Fields, "email")
	require.Contains(t, appErr.Fields, "password")
}

func TestLoginOutcomesAreUndifferentiated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := env.authn.Login(ctx, &LoginInput{Username: "alice", Password: "wrong"})
	_, unknownUser := env.authn.Login(ctx, &LoginInput{Username: "nobody", Password: "secret1"})
	require.ErrorIs(t, wrongPassword, apperror.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, apperror.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())

	result, err := env.authn.Login(ctx, &LoginInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
}

func TestInactiveUserCannotLoginOrUseToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	inactive := false
	_, err = env.users.Update(ctx, result.User.ID, &UserPatch{Active: &inactive})
	require.NoError(t, err)

	_, err = env.authn.Login(ctx, &LoginInput{Username: "alice", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = env.authn.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestAuthenticateRejectsBadTokensAndDeletedUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.authn.Authenticate(ctx, "")
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = env.authn.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)

	result, err := env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, env.users.Delete(ctx, result.User.ID))

	_, err = env.authn.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestPermissionChangesApplyToExistingTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	login, err := env.authn.Login(ctx, &LoginInput{Username: testutil.AdminUsername, Password: testutil.AdminPassword})
	require.NoError(t, err)

	principal, err := env.authn.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	require.True(t, principal.Can(model.DeleteUsers))

	viewer := env.roleID(t, model.DefaultRoleName)
	_, err = env.users.Update(ctx, login.User.ID, &UserPatch{RoleIDs: &[]uint{viewer}})
	require.NoError(t, err)

	principal, err = env.authn.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	require.False(t, principal.Can(model.DeleteUsers))
	require.True(t, principal.Can(model.ViewUsers))
	require.Equal(t, []string{model.DefaultRoleName}, principal.Roles)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.authn.Register(ctx, &RegisterInput{Username: "alice", Email: "alice@x.com", Password: "secret1", FirstName: str("Alice")})
	require.NoError(t, err)
	principal, err := env.authn.Authenticate(ctx, result.Token)
	require.NoError(t, err)

	profile, err := env.authn.Me(ctx, principal)
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Username)
	require.Equal(t, "Alice", *profile.FirstName)
	require.Equal(t, []string{"viewer"}, profile.Roles)
	require.Contains(t, profile.Permissions, model.ViewOrders)
	require.NotContains(t, profile.Permissions, model.EditOrders)
	require.True(t, sort.SliceIsSorted(profile.Permissions, func(i, j int) bool {
		return profile.Permissions[i] < profile.Permissions[j]
	}))
}
