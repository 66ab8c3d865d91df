package auth

import (
	"context"
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (ManagerResponse, error)
	Login(ctx context.Context, req LoginRequest) (AccessTokenResponse, error)
}
