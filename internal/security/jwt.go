package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

// UserClaims - данные пользователя в токене. Из них берется снимок автора.
type UserClaims struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Verified bool   `json:"verified,omitempty"`
	jwt.RegisteredClaims
}

// Author возвращает снимок автора из клеймов.
func (c *UserClaims) Author() domain.Author {
	return domain.Author{
		ID:         c.Subject,
		Name:       c.Name,
		Avatar:     c.Avatar,
		IsVerified: c.Verified,
	}
}

// Issuer выпускает и проверяет HS256 токены.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// GenerateToken выпускает токен для автора.
func (i *Issuer) GenerateToken(author domain.Author) (string, error) {
	now := i.now()
	claims := &UserClaims{
		Name:     author.Name,
		Avatar:   author.Avatar,
		Verified: author.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   author.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken проверяет подпись и срок действия токена.
func (i *Issuer) ValidateToken(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthorFromToken читает снимок автора из токена без проверки подписи.
// Для клиента: подпись проверяет сервер, а клиенту нужно показать того же автора.
func AuthorFromToken(tokenString string) (domain.Author, error) {
	claims := &UserClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return domain.Author{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return domain.Author{}, ErrInvalidToken
	}
	return claims.Author(), nil
}
