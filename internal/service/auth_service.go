package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const jwtIssuer = "portfolio"

// ErrInvalidToken токен не прошёл проверку подписи или срока
var ErrInvalidToken = errors.New("невалидный токен")

// AuthService провайдер личности администратора
type AuthService interface {
	Login(email, password string) (string, error)
	ParseToken(token string) (models.Identity, error)
	IdentifyAPIKey(key string) (models.Identity, bool)
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string
	APIKeys           map[string]string // API key -> имя
}

// Claims полезная нагрузка JWT
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	cfg    AuthConfig
	secret []byte
	now    func() time.Time
}

func NewAuthService(cfg AuthConfig, logger *zap.Logger) (AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// токены переживут только текущий процесс
		random, err := gonanoid.New(48)
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = random
		logger.Warn("AUTH_JWT_SECRET не задан, используется случайный секрет")
	}

	return &authService{cfg: cfg, secret: []byte(secret), now: time.Now}, nil
}

// Login сверяет учётные данные администратора и выпускает JWT
func (s *authService) Login(email, password string) (string, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(email), s.cfg.AdminEmail) {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		UserID: s.cfg.AdminEmail,
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   s.cfg.AdminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken проверяет JWT и возвращает личность из него
func (s *authService) ParseToken(tokenStr string) (models.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return models.Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// IdentifyAPIKey ключи из API_KEYS дают права администратора
func (s *authService) IdentifyAPIKey(key string) (models.Identity, bool) {
	if key == "" {
		return models.Identity{}, false
	}
	// constant-time сравнение со всеми ключами
	for validKey, name := range s.cfg.APIKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return models.Identity{UserID: "apikey:" + name, Role: models.RoleAdmin}, true
		}
	}
	return models.Identity{}, false
}

// HashPassword хэш для ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
