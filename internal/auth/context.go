package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUser ctxKey = iota
	ctxRole
)

func WithIdentity(ctx context.Context, user, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUser, user)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func User(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUser)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
