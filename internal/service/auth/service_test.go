package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

const testSecret = "test-secret-key-for-jwt"

type memManagerRepository struct {
	mu       sync.Mutex
	managers map[string]auth.Manager
}

func (m *memManagerRepository) Create(ctx context.Context, manager auth.Manager) (auth.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.managers[manager.Identification]; ok {
		return auth.Manager{}, auth.ErrIdentificationExists
	}
	manager.CreatedAt = time.Now()
	manager.UpdatedAt = manager.CreatedAt
	m.managers[manager.Identification] = manager
	return manager, nil
}

func (m *memManagerRepository) CreateFirst(ctx context.Context, manager auth.Manager) (auth.Manager, error) {
	m.mu.Lock()
	empty := len(m.managers) == 0
	m.mu.Unlock()
	if !empty {
		return auth.Manager{}, auth.ErrRegistrationClosed
	}
	return m.Create(ctx, manager)
}

func (m *memManagerRepository) GetByIdentification(ctx context.Context, identification string) (auth.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	manager, ok := m.managers[identification]
	if !ok {
		return auth.Manager{}, auth.ErrManagerNotFound
	}
	return manager, nil
}

func (m *memManagerRepository) GetByID(ctx context.Context, id string) (auth.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, manager := range m.managers {
		if manager.ID == id {
			return manager, nil
		}
	}
	return auth.Manager{}, auth.ErrManagerNotFound
}

func newTestAuthService(t *testing.T) (*AuthServiceImpl, *memManagerRepository) {
	t.Helper()
	jwtService, err := jwt.NewJWTService(testSecret, "1h")
	require.NoError(t, err)

	repo := &memManagerRepository{managers: make(map[string]auth.Manager)}
	svc := NewAuthService(repo, jwtService).(*AuthServiceImpl)
	svc.bcryptCost = bcrypt.MinCost
	return svc, repo
}

func TestRegister(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	email := "gerente@example.com"
	resp, err := svc.Register(ctx, auth.RegisterRequest{
		Identification: "1032456789",
		FullName:       "Marta Ruiz",
		Email:          &email,
		Password:       "s3cure-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Marta Ruiz", resp.FullName)

	stored := repo.managers["1032456789"]
	assert.NotEqual(t, "s3cure-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cure-pass")))

	t.Run("duplicate identification", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterRequest{
			Identification: "1032456789",
			FullName:       "Someone Else",
			Password:       "another-pass",
			RegisteredBy:   resp.ID,
		})
		assert.ErrorIs(t, err, auth.ErrIdentificationExists)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterRequest{Identification: "1", Password: "short"})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		fields := verrs.ToMap()
		assert.Contains(t, fields, "full_name")
		assert.Contains(t, fields, "password")
	})
}

func TestRegister_RequiresManagerOnceBootstrapped(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, auth.RegisterRequest{
		Identification: "1032456789",
		FullName:       "Marta Ruiz",
		Password:       "s3cure-pass",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.RegisterRequest{
		Identification: "79876543",
		FullName:       "Intruder",
		Password:       "another-pass",
	})
	assert.ErrorIs(t, err, auth.ErrRegistrationClosed)
	assert.Len(t, repo.managers, 1)

	second, err := svc.Register(ctx, auth.RegisterRequest{
		Identification: "79876543",
		FullName:       "Jorge Paz",
		Password:       "another-pass",
		RegisteredBy:   first.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jorge Paz", second.FullName)
	assert.Len(t, repo.managers, 2)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterRequest{
		Identification: "1032456789",
		FullName:       "Marta Ruiz",
		Password:       "s3cure-pass",
	})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginRequest{Identification: "1032456789", Password: "s3cure-pass"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Greater(t, resp.AccessTokenExpiresIn, int64(0))

		managerID, err := svc.Service.ParseAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.Manager.ID, managerID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginRequest{Identification: "1032456789", Password: "wrong-pass"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown manager", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginRequest{Identification: "999", Password: "s3cure-pass"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}
