package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	RoleManager     = "manager"
	TokenTypeAccess = "access"
)

type Service interface {
	GenerateAccessToken(managerID string, identification string) (token string, expiresAt int64, err error)
	// ParseAccessToken verifies a token and returns the manager id it was issued for.
	ParseAccessToken(tokenString string) (managerID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService expects an already validated expiration such as "8h".
func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	exp, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpiration: exp,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(managerID string, identification string) (token string, expiresAt int64, err error) {
	now := j.now()
	expiresAt = now.Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"manager_id":     managerID,
		"identification": identification,
		"role":           RoleManager,
		"type":           TokenTypeAccess,
		"iat":            now.Unix(),
		"exp":            expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) ParseAccessToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeAccess {
		return "", jwt.ErrInvalidJWT()
	}

	managerID, ok := token.Get("manager_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}
	id, ok := managerID.(string)
	if !ok || id == "" {
		return "", jwt.ErrInvalidJWT()
	}
	return id, nil
}
