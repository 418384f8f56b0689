package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTokenIssuer = "lmring"

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is the payload of the session cookie. The raw token is only
// ever stored hashed on the server side.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Token     string `json:"tok"`
	jwt.RegisteredClaims
}

type SessionTokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewSessionTokenSigner(secret string) *SessionTokenSigner {
	return &SessionTokenSigner{secret: []byte(secret), now: time.Now}
}

func (s *SessionTokenSigner) Sign(sessionID uuid.UUID, userID uuid.UUID, token string, expiresAt time.Time) (string, error) {
	now := s.now().UTC()
	claims := SessionClaims{
		SessionID: sessionID.String(),
		Token:     token,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionTokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies the signature and expiry and returns the session id and raw
// token carried by the cookie.
func (s *SessionTokenSigner) Parse(value string) (uuid.UUID, string, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	id, err := uuid.Parse(claims.SessionID)
	if err != nil || claims.Token == "" {
		return uuid.Nil, "", ErrInvalidSessionToken
	}
	return id, claims.Token, nil
}
