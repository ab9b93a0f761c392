package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	draftTokenIssuer  = "hrd-events"
	draftTokenSubject = "draft_token"
)

var ErrInvalidDraftToken = errors.New("invalid draft token")

type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

// DraftTokenClaims ties a bearer to exactly one application draft.
type DraftTokenClaims struct {
	DraftID string `json:"draft_id"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(draftTokenIssuer),
			jwt.WithSubject(draftTokenSubject),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateDraftToken signs a token for draftID that expires after the
// service's ttl.
func (s *JWTService) GenerateDraftToken(draftID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := DraftTokenClaims{
		DraftID: draftID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    draftTokenIssuer,
			Subject:   draftTokenSubject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign draft token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateDraftToken accepts tokenString only when it is well signed,
// unexpired and was issued for draftID.
func (s *JWTService) ValidateDraftToken(tokenString, draftID string) (*DraftTokenClaims, error) {
	claims := &DraftTokenClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDraftToken, err)
	}
	if claims.DraftID == "" || claims.DraftID != draftID {
		return nil, fmt.Errorf("%w: issued for another draft", ErrInvalidDraftToken)
	}
	return claims, nil
}
