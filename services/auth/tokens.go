package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	inboxerrors "github.com/hoadesk/inbox/internal/errors"
)

const (
	issuer          = "hoa-inbox"
	audienceSession = "session"
	audienceState   = "gmail-oauth-state"
	stateTTL        = 10 * time.Minute
)

type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// StateClaims bind an OAuth consent round trip to the user and HOA that started it.
type StateClaims struct {
	HOAID string `json:"hoaId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs session tokens and OAuth state with the shared session secret.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, sessionTTL time.Duration) *TokenIssuer {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), sessionTTL: sessionTTL, now: time.Now}
}

func (t *TokenIssuer) SignSession(userID, email string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.sessionTTL)
	token, err := t.sign(&SessionClaims{
		Email:            email,
		RegisteredClaims: t.registered(userID, audienceSession, now, expiresAt),
	})
	return token, expiresAt, err
}

func (t *TokenIssuer) ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := t.parse(token, audienceSession, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) SignState(userID, hoaID string) (string, error) {
	now := t.now()
	return t.sign(&StateClaims{
		HOAID:            hoaID,
		RegisteredClaims: t.registered(userID, audienceState, now, now.Add(stateTTL)),
	})
}

func (t *TokenIssuer) ParseState(token string) (*StateClaims, error) {
	claims := &StateClaims{}
	if err := t.parse(token, audienceState, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) registered(subject, audience string, now, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func (t *TokenIssuer) parse(token, audience string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return inboxerrors.ErrInvalidToken
	}
	if sub, _ := claims.GetSubject(); sub == "" {
		return inboxerrors.ErrInvalidToken
	}
	return nil
}
