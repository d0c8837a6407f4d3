package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength минимальная длина секрета для подписи токенов
const MinSecretLength = 16

// Issuer значение iss во всех выпускаемых токенах
const Issuer = "parkour-course"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWeakSecret   = fmt.Errorf("secret must be at least %d bytes", MinSecretLength)
)

// Claims представляет JWT claims оператора
type Claims struct {
	Operator string `json:"operator"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Authenticator выпускает и проверяет HS256 токены для админского API.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator создаёт аутентификатор с заданным секретом.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// NewRandomAuthenticator создаёт аутентификатор со случайным секретом.
// Токены, выпущенные им, не переживают перезапуск процесса.
func NewRandomAuthenticator() (*Authenticator, error) {
	secret, err := GenerateSecureSecret()
	if err != nil {
		return nil, err
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// GenerateToken выпускает токен для оператора
func (a *Authenticator) GenerateToken(operator string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Operator: operator,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   operator,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken проверяет подпись и сроки токена и возвращает его claims
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateSecureSecret генерирует новый случайный секрет
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
