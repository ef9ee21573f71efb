package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Service interface {
	GenerateToken(profileID int64, isJudge, isStaff bool, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*ProfileClaims, error)
}

type service struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewService(secret string, defaultTTL time.Duration) Service {
	return &service{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *service) GenerateToken(profileID int64, isJudge, isStaff bool, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.now()
	claims := &ProfileClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", profileID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		ProfileID: profileID,
		IsJudge:   isJudge,
		IsStaff:   isStaff,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

func (s *service) ValidateToken(tokenString string) (*ProfileClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ProfileClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ProfileClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ProfileID == 0 {
		return nil, ErrMissingProfile
	}
	return claims, nil
}
