package model

import "context"

// Principal はリクエストに紐づく認証済みユーザー
type Principal struct {
	UserID      uint
	Username    string
	Email       string
	Roles       []string
	Permissions PermissionSet
}

func (p *Principal) Can(name PermissionName) bool {
	return p != nil && p.Permissions.Has(name)
}

type principalKey struct{}

// ContextWithPrincipal はプリンシパルをcontextに格納
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext はcontextからプリンシパルを取得
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
