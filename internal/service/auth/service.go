package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/jwt"
)

type AuthServiceImpl struct {
	auth.ManagerRepository
	jwt.Service
	bcryptCost int
}

func NewAuthService(managerRepository auth.ManagerRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		ManagerRepository: managerRepository,
		Service:           jwtService,
		bcryptCost:        bcrypt.DefaultCost,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest) (auth.ManagerResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.ManagerResponse{}, err
	}

	hash, err := a.hashPassword(req.Password)
	if err != nil {
		return auth.ManagerResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	newManager := auth.Manager{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Identification: strings.TrimSpace(req.Identification),
		FullName:       strings.TrimSpace(req.FullName),
		Email:          req.Email,
		Phone:          req.Phone,
		PasswordHash:   hash,
	}

	var manager auth.Manager
	if req.RegisteredBy == "" {
		manager, err = a.ManagerRepository.CreateFirst(ctx, newManager)
	} else {
		manager, err = a.ManagerRepository.Create(ctx, newManager)
	}
	if err != nil {
		if errors.Is(err, auth.ErrIdentificationExists) || errors.Is(err, auth.ErrRegistrationClosed) {
			return auth.ManagerResponse{}, err
		}
		return auth.ManagerResponse{}, fmt.Errorf("failed to create manager: %w", err)
	}

	slog.Info("manager registered", "manager_id", manager.ID, "registered_by", req.RegisteredBy)
	return toManagerResponse(manager), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.AccessTokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.AccessTokenResponse{}, err
	}

	manager, err := a.ManagerRepository.GetByIdentification(ctx, strings.TrimSpace(req.Identification))
	if err != nil {
		if errors.Is(err, auth.ErrManagerNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to get manager: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte(req.Password)); err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := a.Service.GenerateAccessToken(manager.ID, manager.Identification)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return auth.AccessTokenResponse{
		AccessToken:          token,
		AccessTokenExpiresIn: expiresAt - time.Now().Unix(),
		Manager:              toManagerResponse(manager),
	}, nil
}

func toManagerResponse(m auth.Manager) auth.ManagerResponse {
	return auth.ManagerResponse{
		ID:             m.ID,
		Identification: m.Identification,
		FullName:       m.FullName,
		Email:          m.Email,
		Phone:          m.Phone,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}
