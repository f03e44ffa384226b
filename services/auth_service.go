package services

import (
	"errors"
	"fmt"
	"time"

	"debtbook/clock"
	"debtbook/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OwnerSubject субъект токена владельца
const OwnerSubject = "owner"

// SignInRequest запрос на вход
type SignInRequest struct {
	Password string `json:"password" validate:"required"`
}

// SignInResponse ответ с токеном
type SignInResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims утверждения токена владельца
type Claims struct {
	jwt.RegisteredClaims
}

// AuthService проверяет пароль владельца и выпускает JWT
type AuthService struct {
	hash      []byte
	secret    []byte
	expiresIn time.Duration
	clock     clock.Clock
}

// NewAuthService создает новый экземпляр AuthService.
// Если хеш не задан, хешируется пароль в открытом виде.
func NewAuthService(cfg *config.Config, clk clock.Clock) (*AuthService, error) {
	hash := []byte(cfg.Auth.PasswordHash)
	if len(hash) == 0 {
		if cfg.Auth.Password == "" {
			return nil, errors.New("не задан пароль владельца (ADMIN_PASSWORD или ADMIN_PASSWORD_HASH)")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Auth.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("ошибка при хешировании пароля: %w", err)
		}
	}

	expiresIn := time.Duration(cfg.JWT.ExpiresIn) * time.Hour
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}

	return &AuthService{
		hash:      hash,
		secret:    []byte(cfg.JWT.SecretKey),
		expiresIn: expiresIn,
		clock:     clk,
	}, nil
}

// SignIn проверяет пароль и возвращает токен
func (s *AuthService) SignIn(req SignInRequest) (*SignInResponse, error) {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.expiresIn)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   OwnerSubject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании токена: %w", err)
	}

	return &SignInResponse{Token: tokenString, ExpiresAt: expiresAt}, nil
}

// ParseToken проверяет подпись и срок действия токена
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	if claims.Subject != OwnerSubject {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
