package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the browser-held cookie carrying the session credential.
const CookieName = "auth_token"

// ErrInvalidToken is returned by Verify when the signature is invalid or
// the token is expired.
var ErrInvalidToken = errors.New("invalid token")

// Service issues and verifies signed, time-limited session credentials.
type Service struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewService creates a token service. An empty secret is a configuration
// error and refuses construction.
func NewService(secret string, tokenDuration time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is not set")
	}
	if tokenDuration <= 0 {
		tokenDuration = 7 * 24 * time.Hour
	}
	return &Service{secret: []byte(secret), tokenDuration: tokenDuration}, nil
}

// Issue produces a signed token embedding the user id and an expiry.
func (s *Service) Issue(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(s.tokenDuration).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify parses and validates a token and returns the embedded user id.
func (s *Service) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}

// SessionCookie derives the cookie carrying a session credential. Secure and
// the cross-site SameSite relaxation are enabled only in production.
func (s *Service) SessionCookie(token string, production bool) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenDuration / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// ClearCookie expires the session cookie with matching attributes.
func (s *Service) ClearCookie(production bool) *http.Cookie {
	c := s.SessionCookie("", production)
	c.MaxAge = -1
	return c
}
