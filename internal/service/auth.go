package service

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims ties a bearer token to one storefront session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

func (s *StorefrontService) signToken(sessionID, username string) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		Name:      username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tkn.SignedString(s.jwtSecret)
}

// ParseToken validates a bearer token issued by Login.
func (s *StorefrontService) ParseToken(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTSecret is the HS256 key route middleware verifies tokens with.
func (s *StorefrontService) JWTSecret() []byte {
	return s.jwtSecret
}
